package voteensemble

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ROVE is the Ranked Vote Ensemble. Phase I fits the base learner on B1
// subsamples and collapses duplicates into a retrieved candidate pool;
// phase II estimates each candidate's probability of being within
// epsilon of the best across B2 evaluation subsamples and returns the
// maximizer. With data splitting enabled the two phases use disjoint
// halves of the sample.
type ROVE struct {
	ens       *ensemble
	dataSplit bool
}

// NewROVE creates a ROVE instance.
func NewROVE(learner BaseLearner, optFns ...Option) (*ROVE, error) {
	opts := applyOptions(optFns)
	ens, err := newEnsemble(learner, opts)
	if err != nil {
		return nil, err
	}
	return &ROVE{ens: ens, dataSplit: opts.dataSplit}, nil
}

// ResetRandomSeed rewinds the random source to the construction-time
// seed so the next Run reproduces the previous one.
func (r *ROVE) ResetRandomSeed() {
	r.ens.resetRandomSeed()
}

// ROVERunOptions holds the per-run parameters of ROVE.
type ROVERunOptions struct {
	// B1 is the number of phase-I learning subsamples. Default: 50.
	B1 int

	// B2 is the number of phase-II evaluation subsamples. Default: 200.
	B2 int

	// K1 is the phase-I subsample size. 0 selects
	// min(max(30, n1/divisor), n1) with divisor 200 when the learner
	// deduplicates and 2 otherwise. An explicit K1 larger than n1 is
	// clamped with a warning and forces B1 to 1.
	K1 int

	// K2 is the phase-II subsample size. 0 selects
	// min(max(30, n2/200), n2); clamping mirrors K1.
	K2 int

	// Epsilon is the optimality gap tolerance. Negative values (the
	// default) trigger the automatic bisection search.
	Epsilon float64

	// AutoEpsilonProb is the epsilon-optimal probability the automatic
	// search aims for. Clamped to [0, 1]. Default: 0.5.
	AutoEpsilonProb float64
}

// roveParams is the fully resolved parameter set for one run.
type roveParams struct {
	n1, n2        int
	phaseTwoStart int
	k1, k2        int
	b1, b2        int
}

func (r *ROVE) chooseParameters(ctx context.Context, n int, opts ROVERunOptions) (roveParams, error) {
	p := roveParams{b1: opts.B1, b2: opts.B2}

	phaseOneEnd := n
	if r.dataSplit {
		phaseOneEnd = n / 2
		p.phaseTwoStart = phaseOneEnd
	}
	if phaseOneEnd <= 0 || p.phaseTwoStart >= n {
		return p, invalidParam("sample", "insufficient sample size n = %d", n)
	}
	p.n1 = phaseOneEnd
	p.n2 = n - p.phaseTwoStart

	switch {
	case opts.K1 < 0:
		return p, invalidParam("k1", "subsample size must be positive, got %d", opts.K1)
	case opts.K1 == 0:
		divisor := 2
		if r.ens.learner.EnableDeduplication() {
			divisor = 200
		}
		p.k1 = autoSubsampleSize(int64(p.n1), divisor)
	case opts.K1 > p.n1:
		r.ens.logger.WarnClampedSubsampleSize(ctx, "k1", opts.K1, p.n1)
		p.k1 = p.n1
		p.b1 = 1
	default:
		p.k1 = opts.K1
	}

	switch {
	case opts.K2 < 0:
		return p, invalidParam("k2", "subsample size must be positive, got %d", opts.K2)
	case opts.K2 == 0:
		p.k2 = autoSubsampleSize(int64(p.n2), 200)
	case opts.K2 > p.n2:
		r.ens.logger.WarnClampedSubsampleSize(ctx, "k2", opts.K2, p.n2)
		p.k2 = p.n2
		p.b2 = 1
	default:
		p.k2 = opts.K2
	}

	return p, nil
}

// Run executes ROVE on the sample and returns the selected candidate.
func (r *ROVE) Run(ctx context.Context, sample *mat.Dense, optFns ...func(o *ROVERunOptions)) (Candidate, error) {
	opts := ROVERunOptions{
		B1:              50,
		B2:              200,
		Epsilon:         -1,
		AutoEpsilonProb: 0.5,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	n, cols := sample.Dims()
	if n == 0 {
		return nil, invalidParam("sample", "sample cannot be empty")
	}
	if opts.B1 <= 0 || opts.B2 <= 0 {
		return nil, invalidParam("B1/B2", "number of subsamples must be positive, got B1=%d B2=%d", opts.B1, opts.B2)
	}

	params, err := r.chooseParameters(ctx, n, opts)
	if err != nil {
		return nil, err
	}

	// Phase I: candidate generation on the first n1 rows. The full ref
	// list is retained for cleanup; the deduplicated pool feeds phase II.
	phaseOne := sample.Slice(0, params.n1, 0, cols)
	learned, err := r.ens.learnOnSubsamples(ctx, phaseOne, params.k1, params.b1)
	if err != nil {
		return nil, err
	}
	retrieved := learned
	if r.ens.learner.EnableDeduplication() {
		retrieved, err = r.ens.dedupRefs(ctx, learned)
		if err != nil {
			return nil, err
		}
	}
	if len(retrieved) == 0 {
		return nil, ErrNoResults
	}

	// Phase II: epsilon-optimal voting over the retrieved pool.
	evaluator, err := newCachedEvaluator(r.ens, retrieved, sample)
	if err != nil {
		return nil, err
	}
	best, err := r.selectCandidate(ctx, evaluator, params, opts)
	if err != nil {
		return nil, err
	}

	final, err := r.ens.resolve(ctx, retrieved[best])
	if err != nil {
		return nil, err
	}
	if len(final) == 0 {
		return nil, &AggregationError{Op: "rove", Reason: "selected candidate is empty"}
	}

	r.ens.cleanupResults(ctx, learned)
	return final, nil
}

// selectCandidate runs phase II: evaluate the pool on held-out
// subsamples, resolve epsilon, and pick the candidate with the highest
// epsilon-optimal probability (first column on ties).
func (r *ROVE) selectCandidate(ctx context.Context, evaluator *cachedEvaluator, params roveParams, opts ROVERunOptions) (int, error) {
	phaseTwoRows := indexRange(params.phaseTwoStart, params.phaseTwoStart+params.n2)
	evalMatrix, err := evaluator.evaluateSubsamples(ctx, phaseTwoRows, params.k2, params.b2, r.ens.rng)
	if err != nil {
		return 0, err
	}
	gaps, err := gapMatrix(evalMatrix, r.ens.learner.IsMinimization())
	if err != nil {
		return 0, err
	}

	epsilon := opts.Epsilon
	if epsilon < 0 {
		target := math.Min(math.Max(opts.AutoEpsilonProb, 0), 1)
		searchGaps := gaps
		if r.dataSplit {
			// Phase II must stay held out for unbiased selection, so the
			// search runs on phase-I evaluation data instead.
			phaseOneRows := indexRange(0, params.n1)
			k := min(params.k2, params.n1)
			phaseOneEval, err := evaluator.evaluateSubsamples(ctx, phaseOneRows, k, params.b2, r.ens.rng)
			if err != nil {
				return 0, err
			}
			searchGaps, err = gapMatrix(phaseOneEval, r.ens.learner.IsMinimization())
			if err != nil {
				return 0, err
			}
		}
		epsilon = findEpsilon(searchGaps, target)
		r.ens.logger.LogEpsilonSearch(ctx, epsilon, target)
	}

	probs := epsilonOptimalProb(gaps, epsilon)
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return best, nil
}

// gapMatrix converts an evaluation matrix into optimality gaps: for
// minimization, value minus the row minimum; for maximization, the row
// maximum minus the value. Every row therefore contains at least one
// zero (the row-best candidate).
func gapMatrix(eval *mat.Dense, minimization bool) (*mat.Dense, error) {
	B, C := eval.Dims()
	if B == 0 || C == 0 {
		return nil, invalidParam("evalMatrix", "evaluation matrix cannot be empty")
	}
	out := mat.NewDense(B, C, nil)
	for b := 0; b < B; b++ {
		row := eval.RawRowView(b)
		if minimization {
			best := floats.Min(row)
			for c, v := range row {
				out.Set(b, c, v-best)
			}
		} else {
			best := floats.Max(row)
			for c, v := range row {
				out.Set(b, c, best-v)
			}
		}
	}
	return out, nil
}

// epsilonOptimalProb returns, per candidate, the fraction of rows whose
// gap is within epsilon. It is non-decreasing in epsilon.
func epsilonOptimalProb(gaps *mat.Dense, epsilon float64) []float64 {
	B, C := gaps.Dims()
	probs := make([]float64, C)
	for b := 0; b < B; b++ {
		row := gaps.RawRowView(b)
		for c, g := range row {
			if g <= epsilon {
				probs[c]++
			}
		}
	}
	floats.Scale(1/float64(B), probs)
	return probs
}

// findEpsilon searches for the smallest epsilon (within 1e-3 absolute
// or relative tolerance) at which some candidate's epsilon-optimal
// probability reaches target. The right bound grows exponentially from
// 1 until it satisfies the target, then the interval is bisected.
func findEpsilon(gaps *mat.Dense, target float64) float64 {
	if floats.Max(epsilonOptimalProb(gaps, 0)) >= target {
		return 0
	}

	left, right := 0.0, 1.0
	for floats.Max(epsilonOptimalProb(gaps, right)) < target {
		left = right
		right *= 2
	}

	const tolerance = 1e-3
	for {
		width := right - left
		// The 1e-5 stabilizer keeps the relative width finite near zero.
		relWidth := width / (math.Abs(left)/2 + math.Abs(right)/2 + 1e-5)
		if math.Max(width, relWidth) <= tolerance {
			break
		}
		mid := (left + right) / 2
		if floats.Max(epsilonOptimalProb(gaps, mid)) >= target {
			right = mid
		} else {
			left = mid
		}
	}
	return right
}

func indexRange(start, end int) []int {
	out := make([]int, end-start)
	for i := range out {
		out[i] = start + i
	}
	return out
}

package voteensemble

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// MoVE is the Majority Vote Ensemble: it fits the base learner on B
// random subsamples, collapses duplicate candidates, and returns the
// most frequent one. The learner must support deduplication.
type MoVE struct {
	ens *ensemble
}

// NewMoVE creates a MoVE instance. Constructing one with a learner
// whose EnableDeduplication reports false is a configuration error.
func NewMoVE(learner BaseLearner, optFns ...Option) (*MoVE, error) {
	ens, err := newEnsemble(learner, applyOptions(optFns))
	if err != nil {
		return nil, err
	}
	if !learner.EnableDeduplication() {
		return nil, invalidParam("learner", "MoVE requires a learner with deduplication support")
	}
	return &MoVE{ens: ens}, nil
}

// ResetRandomSeed rewinds the random source to the construction-time
// seed so the next Run reproduces the previous one.
func (m *MoVE) ResetRandomSeed() {
	m.ens.resetRandomSeed()
}

// MoVERunOptions holds the per-run parameters of MoVE.
type MoVERunOptions struct {
	// B is the number of subsamples to fit. Default: 200.
	B int

	// K is the subsample size. 0 selects min(max(30, n/200), n). An
	// explicit K larger than n is clamped to n and forces B to 1 with a
	// warning.
	K int
}

// Run executes MoVE on the sample and returns the winning candidate.
func (m *MoVE) Run(ctx context.Context, sample *mat.Dense, optFns ...func(o *MoVERunOptions)) (Candidate, error) {
	opts := MoVERunOptions{B: 200}
	for _, fn := range optFns {
		fn(&opts)
	}

	n, _ := sample.Dims()
	if n == 0 {
		return nil, invalidParam("sample", "sample cannot be empty")
	}
	if opts.B <= 0 {
		return nil, invalidParam("B", "number of subsamples must be positive, got %d", opts.B)
	}

	k := opts.K
	B := opts.B
	switch {
	case k < 0:
		return nil, invalidParam("k", "subsample size must be positive, got %d", k)
	case k == 0:
		k = autoSubsampleSize(int64(n), 200)
	case k > n:
		m.ens.logger.WarnClampedSubsampleSize(ctx, "k", k, n)
		k = n
		B = 1
	}

	refs, err := m.ens.learnOnSubsamples(ctx, sample, k, B)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, ErrNoResults
	}

	winner, err := m.vote(ctx, refs)
	if err != nil {
		return nil, err
	}

	m.ens.cleanupResults(ctx, refs)
	return winner, nil
}

// voteBucket tracks one unique candidate: the ref index of its first
// occurrence (the representative) and how many refs matched it.
type voteBucket struct {
	refIndex int
	rep      Candidate
	count    int
}

// vote performs the majority vote. Buckets are formed by first-match
// scanning with the learner's duplicate predicate; ties break in favor
// of the earliest-formed bucket because only strictly larger counts
// displace the current winner.
func (m *MoVE) vote(ctx context.Context, refs []resultRef) (Candidate, error) {
	var buckets []voteBucket
	maxRefIndex := 0
	maxCount := 0

	for i, ref := range refs {
		c, err := m.ens.resolve(ctx, ref)
		if err != nil {
			return nil, err
		}
		if len(c) == 0 {
			return nil, &AggregationError{
				Op:     "vote",
				Reason: fmt.Sprintf("empty candidate result at index %d", i),
			}
		}

		found := -1
		for j := range buckets {
			if m.ens.learner.IsDuplicate(c, buckets[j].rep) {
				found = j
				break
			}
		}

		var current int
		if found >= 0 {
			buckets[found].count++
			current = buckets[found].count
		} else {
			buckets = append(buckets, voteBucket{refIndex: i, rep: c, count: 1})
			found = len(buckets) - 1
			current = 1
		}

		if current > maxCount {
			maxCount = current
			maxRefIndex = buckets[found].refIndex
		}
	}

	winner, err := m.ens.resolve(ctx, refs[maxRefIndex])
	if err != nil {
		return nil, err
	}
	if len(winner) == 0 {
		return nil, &AggregationError{Op: "vote", Reason: "winning candidate is empty"}
	}

	m.ens.logger.LogVote(ctx, len(buckets), maxCount, len(refs))
	return winner, nil
}

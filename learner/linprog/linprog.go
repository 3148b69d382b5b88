// Package linprog implements a toy two-variable linear program base
// learner: minimize E[xi] . x over the simplex vertices [1, 0] and
// [0, 1]. Samples have exactly two columns holding the random cost
// coefficients.
package linprog

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"

	"github.com/hupe1980/voteensemble"
	"gonum.org/v1/gonum/mat"
)

// DefaultTolerance is the L1 distance below which two candidates are
// considered duplicates.
const DefaultTolerance = 1e-6

// Options holds configuration for the learner.
type Options struct {
	// Tolerance is the L1 duplicate threshold.
	Tolerance float64
}

// Learner picks the simplex vertex with the smaller estimated mean
// cost.
type Learner struct {
	tolerance float64
}

var _ voteensemble.BaseLearner = (*Learner)(nil)

// New creates a linear program learner.
func New(optFns ...func(o *Options)) *Learner {
	opts := Options{Tolerance: DefaultTolerance}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Learner{tolerance: opts.Tolerance}
}

// Learn compares the two column means and returns the minimizing
// vertex.
func (l *Learner) Learn(sample mat.Matrix) (voteensemble.Candidate, error) {
	n, cols := sample.Dims()
	if n == 0 || cols != 2 {
		return nil, errors.New("linprog: sample must be nonempty with exactly two columns")
	}

	var mean1, mean2 float64
	for i := 0; i < n; i++ {
		mean1 += sample.At(i, 0)
		mean2 += sample.At(i, 1)
	}
	mean1 /= float64(n)
	mean2 /= float64(n)

	if mean1 < mean2 {
		return voteensemble.Candidate{1, 0}, nil
	}
	return voteensemble.Candidate{0, 1}, nil
}

// Objective returns the cost of the candidate under each sample row.
func (l *Learner) Objective(c voteensemble.Candidate, sample mat.Matrix) ([]float64, error) {
	n, cols := sample.Dims()
	if n == 0 || cols != 2 {
		return nil, errors.New("linprog: sample must be nonempty with exactly two columns")
	}
	if len(c) != 2 {
		return nil, fmt.Errorf("linprog: candidate must have exactly two elements, got %d", len(c))
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = sample.At(i, 0)*c[0] + sample.At(i, 1)*c[1]
	}
	return out, nil
}

// IsMinimization reports that smaller costs are better.
func (l *Learner) IsMinimization() bool { return true }

// EnableDeduplication reports true: the solution space is discrete.
func (l *Learner) EnableDeduplication() bool { return true }

// IsDuplicate reports whether the L1 distance between two candidates is
// below the tolerance. Candidates of different lengths are never
// duplicates.
func (l *Learner) IsDuplicate(a, b voteensemble.Candidate) bool {
	if len(a) != len(b) {
		return false
	}
	dist := 0.0
	for i := range a {
		dist += math.Abs(a[i] - b[i])
	}
	return dist < l.tolerance
}

// DumpCandidate serializes a candidate with the default vector encoding.
func (l *Learner) DumpCandidate(c voteensemble.Candidate, w io.Writer) error {
	return voteensemble.EncodeCandidate(w, c)
}

// LoadCandidate deserializes a candidate written by DumpCandidate.
func (l *Learner) LoadCandidate(r io.Reader) (voteensemble.Candidate, error) {
	return voteensemble.DecodeCandidate(r)
}

// GenerateData synthesizes a cost sample: each row is the mean vector
// plus independent normal noise.
func GenerateData(n int, mean [2]float64, noiseStdDev float64, seed int64) *mat.Dense {
	rng := rand.New(rand.NewSource(seed))

	sample := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		sample.Set(i, 0, mean[0]+noiseStdDev*rng.NormFloat64())
		sample.Set(i, 1, mean[1]+noiseStdDev*rng.NormFloat64())
	}
	return sample
}

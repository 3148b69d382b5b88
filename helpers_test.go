package voteensemble

import (
	"errors"
	"io"
	"math"

	"gonum.org/v1/gonum/mat"
)

// testVertexLearner picks between the two vertices [1, 0] and [0, 1]
// by comparing column means of a two-column sample. It mirrors a toy
// stochastic linear program and supports deduplication.
type testVertexLearner struct {
	learnErr error
}

func (l *testVertexLearner) Learn(sample mat.Matrix) (Candidate, error) {
	if l.learnErr != nil {
		return nil, l.learnErr
	}
	n, _ := sample.Dims()
	var mean1, mean2 float64
	for i := 0; i < n; i++ {
		mean1 += sample.At(i, 0)
		mean2 += sample.At(i, 1)
	}
	if mean1 < mean2 {
		return Candidate{1, 0}, nil
	}
	return Candidate{0, 1}, nil
}

func (l *testVertexLearner) Objective(c Candidate, sample mat.Matrix) ([]float64, error) {
	n, _ := sample.Dims()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = sample.At(i, 0)*c[0] + sample.At(i, 1)*c[1]
	}
	return out, nil
}

func (l *testVertexLearner) IsMinimization() bool      { return true }
func (l *testVertexLearner) EnableDeduplication() bool { return true }

func (l *testVertexLearner) IsDuplicate(a, b Candidate) bool {
	if len(a) != len(b) {
		return false
	}
	dist := 0.0
	for i := range a {
		dist += math.Abs(a[i] - b[i])
	}
	return dist < 1e-6
}

func (l *testVertexLearner) DumpCandidate(c Candidate, w io.Writer) error {
	return EncodeCandidate(w, c)
}

func (l *testVertexLearner) LoadCandidate(r io.Reader) (Candidate, error) {
	return DecodeCandidate(r)
}

// testMeanLearner returns the column means of the sample as its
// candidate and scores a row by its squared distance to the candidate.
// It does not support deduplication.
type testMeanLearner struct {
	badObjectiveLen bool
}

func (l *testMeanLearner) Learn(sample mat.Matrix) (Candidate, error) {
	n, m := sample.Dims()
	c := make(Candidate, m)
	for j := 0; j < m; j++ {
		for i := 0; i < n; i++ {
			c[j] += sample.At(i, j)
		}
		c[j] /= float64(n)
	}
	return c, nil
}

func (l *testMeanLearner) Objective(c Candidate, sample mat.Matrix) ([]float64, error) {
	n, m := sample.Dims()
	if l.badObjectiveLen {
		return make([]float64, n+1), nil
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			d := sample.At(i, j) - c[j]
			out[i] += d * d
		}
	}
	return out, nil
}

func (l *testMeanLearner) IsMinimization() bool            { return true }
func (l *testMeanLearner) EnableDeduplication() bool       { return false }
func (l *testMeanLearner) IsDuplicate(_, _ Candidate) bool { return false }

func (l *testMeanLearner) DumpCandidate(c Candidate, w io.Writer) error {
	return EncodeCandidate(w, c)
}

func (l *testMeanLearner) LoadCandidate(r io.Reader) (Candidate, error) {
	return DecodeCandidate(r)
}

var errLearnBoom = errors.New("learn failed")

// vertexSample builds a two-column sample whose first column mean is
// below the second, so the expected winner is [1, 0]. A few rows are
// flipped to create minority votes.
func vertexSample(n int) *mat.Dense {
	sample := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		if i%10 == 0 {
			sample.Set(i, 0, 2.0)
			sample.Set(i, 1, 0.1)
		} else {
			sample.Set(i, 0, 0.0)
			sample.Set(i, 1, 0.5)
		}
	}
	return sample
}

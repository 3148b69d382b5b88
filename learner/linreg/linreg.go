// Package linreg implements a least-squares linear regression base
// learner. The first column of a sample holds the label, the remaining
// columns hold the features; a candidate is the coefficient vector.
package linreg

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"

	"github.com/hupe1980/voteensemble"
	"gonum.org/v1/gonum/mat"
)

// Learner fits ordinary least squares via the normal equations,
// falling back to an SVD-based pseudo-inverse when the system is rank
// deficient.
type Learner struct{}

var _ voteensemble.BaseLearner = (*Learner)(nil)

// New creates a linear regression learner.
func New() *Learner {
	return &Learner{}
}

// Learn fits the coefficient vector on the sample.
func (l *Learner) Learn(sample mat.Matrix) (voteensemble.Candidate, error) {
	n, cols := sample.Dims()
	if n == 0 || cols < 2 {
		return nil, errors.New("linreg: sample must be nonempty with at least one feature and one label")
	}
	p := cols - 1

	y, x := splitSample(sample)

	var beta mat.VecDense
	if n < p {
		// Rank deficient by construction, solve the least-squares
		// problem through the pseudo-inverse.
		if err := solveSVD(&beta, x, y); err != nil {
			return nil, err
		}
	} else {
		var xtx mat.SymDense
		xtx.SymOuterK(1, x.T())

		var xty mat.VecDense
		xty.MulVec(x.T(), y)

		var chol mat.Cholesky
		if chol.Factorize(&xtx) {
			if err := chol.SolveVecTo(&beta, &xty); err != nil {
				return nil, fmt.Errorf("linreg: solve normal equations: %w", err)
			}
		} else if err := solveSVD(&beta, x, y); err != nil {
			return nil, err
		}
	}

	c := make(voteensemble.Candidate, p)
	for i := range c {
		v := beta.AtVec(i)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.New("linreg: computed coefficients contain non-finite values")
		}
		c[i] = v
	}
	return c, nil
}

// Objective returns the squared residual of each sample row.
func (l *Learner) Objective(c voteensemble.Candidate, sample mat.Matrix) ([]float64, error) {
	n, cols := sample.Dims()
	if n == 0 || cols < 2 {
		return nil, errors.New("linreg: sample must be nonempty with at least one feature and one label")
	}
	if len(c) != cols-1 {
		return nil, fmt.Errorf("linreg: candidate has %d coefficients for %d features", len(c), cols-1)
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		pred := 0.0
		for j := range c {
			pred += sample.At(i, j+1) * c[j]
		}
		r := sample.At(i, 0) - pred
		out[i] = r * r
	}
	return out, nil
}

// IsMinimization reports that smaller residuals are better.
func (l *Learner) IsMinimization() bool { return true }

// EnableDeduplication reports false: continuous coefficient vectors
// almost never coincide.
func (l *Learner) EnableDeduplication() bool { return false }

// IsDuplicate always reports false; see EnableDeduplication.
func (l *Learner) IsDuplicate(_, _ voteensemble.Candidate) bool { return false }

// DumpCandidate serializes a candidate with the default vector encoding.
func (l *Learner) DumpCandidate(c voteensemble.Candidate, w io.Writer) error {
	return voteensemble.EncodeCandidate(w, c)
}

// LoadCandidate deserializes a candidate written by DumpCandidate.
func (l *Learner) LoadCandidate(r io.Reader) (voteensemble.Candidate, error) {
	return voteensemble.DecodeCandidate(r)
}

func splitSample(sample mat.Matrix) (*mat.VecDense, *mat.Dense) {
	n, cols := sample.Dims()
	p := cols - 1

	y := mat.NewVecDense(n, nil)
	x := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		y.SetVec(i, sample.At(i, 0))
		for j := 0; j < p; j++ {
			x.Set(i, j, sample.At(i, j+1))
		}
	}
	return y, x
}

// solveSVD computes the minimum-norm least-squares solution
// beta = V * diag(1/s) * U^T * y, dropping numerically zero singular
// values.
func solveSVD(beta *mat.VecDense, x *mat.Dense, y *mat.VecDense) error {
	var svd mat.SVD
	if !svd.Factorize(x, mat.SVDThin) {
		return errors.New("linreg: SVD factorization failed")
	}

	n, p := x.Dims()
	values := svd.Values(nil)
	tol := float64(max(n, p)) * values[0] * 2.220446049250313e-16

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	result := make([]float64, p)
	rank := 0
	for i, s := range values {
		if s <= tol {
			break // singular values are sorted in descending order
		}
		rank++
		dot := 0.0
		for r := 0; r < n; r++ {
			dot += u.At(r, i) * y.AtVec(r)
		}
		coeff := dot / s
		for j := 0; j < p; j++ {
			result[j] += coeff * v.At(j, i)
		}
	}
	if rank == 0 {
		return errors.New("linreg: feature matrix has rank zero")
	}

	*beta = *mat.NewVecDense(p, result)
	return nil
}

// GenerateData synthesizes a regression sample with p standard normal
// features, labels y = X*beta + noise, and true coefficients
// beta = (0, 1, ..., p-1). It returns the sample and the true
// coefficients.
func GenerateData(n, p int, noiseStdDev float64, seed int64) (*mat.Dense, voteensemble.Candidate) {
	rng := rand.New(rand.NewSource(seed))

	trueBeta := make(voteensemble.Candidate, p)
	for i := range trueBeta {
		trueBeta[i] = float64(i)
	}

	sample := mat.NewDense(n, p+1, nil)
	for i := 0; i < n; i++ {
		y := noiseStdDev * rng.NormFloat64()
		for j := 0; j < p; j++ {
			x := rng.NormFloat64()
			sample.Set(i, j+1, x)
			y += x * trueBeta[j]
		}
		sample.Set(i, 0, y)
	}
	return sample, trueBeta
}

package linreg

import (
	"bytes"
	"context"
	"testing"

	"github.com/hupe1980/voteensemble"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestLearner_RecoversCoefficients(t *testing.T) {
	sample, trueBeta := GenerateData(5000, 5, 0.1, 888)

	learner := New()
	got, err := learner.Learn(sample)
	require.NoError(t, err)
	require.Len(t, got, 5)

	for i := range trueBeta {
		require.InDelta(t, trueBeta[i], got[i], 0.05)
	}
}

func TestLearner_ExactFit(t *testing.T) {
	// Noise-free sample: y = 2*x with a single feature.
	sample := mat.NewDense(4, 2, []float64{
		2, 1,
		4, 2,
		6, 3,
		8, 4,
	})

	learner := New()
	got, err := learner.Learn(sample)
	require.NoError(t, err)
	require.InDelta(t, 2.0, got[0], 1e-9)

	vals, err := learner.Objective(got, sample)
	require.NoError(t, err)
	require.Len(t, vals, 4)
	for _, v := range vals {
		require.InDelta(t, 0.0, v, 1e-12)
	}
}

func TestLearner_RankDeficient(t *testing.T) {
	// Fewer rows than features forces the pseudo-inverse path.
	sample, _ := GenerateData(3, 6, 0.0, 1)

	learner := New()
	got, err := learner.Learn(sample)
	require.NoError(t, err)
	require.Len(t, got, 6)

	// The least-squares solution interpolates the data exactly.
	vals, err := learner.Objective(got, sample)
	require.NoError(t, err)
	for _, v := range vals {
		require.InDelta(t, 0.0, v, 1e-9)
	}
}

func TestLearner_Objective(t *testing.T) {
	sample := mat.NewDense(2, 2, []float64{
		5, 1,
		1, 1,
	})

	learner := New()
	vals, err := learner.Objective(voteensemble.Candidate{3}, sample)
	require.NoError(t, err)
	require.InDelta(t, 4.0, vals[0], 1e-12) // (5-3)^2
	require.InDelta(t, 4.0, vals[1], 1e-12) // (1-3)^2
}

func TestLearner_Validation(t *testing.T) {
	learner := New()

	_, err := learner.Learn(new(mat.Dense))
	require.Error(t, err)

	sample := mat.NewDense(2, 3, nil)
	_, err = learner.Objective(voteensemble.Candidate{1}, sample)
	require.Error(t, err)
}

func TestLearner_CandidateRoundtrip(t *testing.T) {
	learner := New()
	c := voteensemble.Candidate{0.5, -1.25, 3}

	var buf bytes.Buffer
	require.NoError(t, learner.DumpCandidate(c, &buf))

	got, err := learner.LoadCandidate(&buf)
	require.NoError(t, err)
	require.Equal(t, c, got)
}

func TestLearner_Capabilities(t *testing.T) {
	learner := New()
	require.True(t, learner.IsMinimization())
	require.False(t, learner.EnableDeduplication())
}

func TestROVEOnRegression(t *testing.T) {
	sample, trueBeta := GenerateData(2000, 3, 1.0, 888)

	rove, err := voteensemble.NewROVE(New(), voteensemble.WithRandomSeed(999))
	require.NoError(t, err)

	got, err := rove.Run(context.Background(), sample, func(o *voteensemble.ROVERunOptions) {
		o.B1 = 10
		o.B2 = 20
	})
	require.NoError(t, err)
	require.Len(t, got, 3)

	for i := range trueBeta {
		require.InDelta(t, trueBeta[i], got[i], 0.3)
	}
}

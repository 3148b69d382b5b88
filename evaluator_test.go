package voteensemble

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestEvaluateSubsamples(t *testing.T) {
	ens := newTestEnsemble(t, &testVertexLearner{})
	sample := vertexSample(100)

	refs := []resultRef{
		materializedRef(Candidate{1, 0}),
		materializedRef(Candidate{0, 1}),
	}
	evaluator, err := newCachedEvaluator(ens, refs, sample)
	require.NoError(t, err)

	rows := indexRange(0, 100)
	out, err := evaluator.evaluateSubsamples(context.Background(), rows, 20, 15, ens.rng)
	require.NoError(t, err)

	B, C := out.Dims()
	require.Equal(t, 15, B)
	require.Equal(t, 2, C)
}

func TestEvaluateSubsamples_Deterministic(t *testing.T) {
	ens := newTestEnsemble(t, &testVertexLearner{})
	sample := vertexSample(200)

	refs := []resultRef{
		materializedRef(Candidate{1, 0}),
		materializedRef(Candidate{0, 1}),
	}
	evaluator, err := newCachedEvaluator(ens, refs, sample)
	require.NoError(t, err)

	rows := indexRange(0, 200)
	first, err := evaluator.evaluateSubsamples(context.Background(), rows, 30, 10, ens.rng)
	require.NoError(t, err)

	ens.resetRandomSeed()
	second, err := evaluator.evaluateSubsamples(context.Background(), rows, 30, 10, ens.rng)
	require.NoError(t, err)

	require.True(t, mat.Equal(first, second))
}

func TestEvaluateSubsamples_ParallelMatchesSerial(t *testing.T) {
	sample := vertexSample(300)
	refs := []resultRef{
		materializedRef(Candidate{1, 0}),
		materializedRef(Candidate{0, 1}),
	}
	rows := indexRange(0, 300)

	run := func(workers int) *mat.Dense {
		ens := newTestEnsemble(t, &testVertexLearner{}, WithNumWorkers(workers))
		evaluator, err := newCachedEvaluator(ens, refs, sample)
		require.NoError(t, err)

		out, err := evaluator.evaluateSubsamples(context.Background(), rows, 40, 12, ens.rng)
		require.NoError(t, err)
		return out
	}

	require.True(t, mat.Equal(run(1), run(4)))
}

func TestEvaluateSubsamples_AverageMatchesObjective(t *testing.T) {
	ens := newTestEnsemble(t, &testVertexLearner{})

	// Constant sample: every subset average must equal the per-row cost.
	sample := mat.NewDense(50, 2, nil)
	for i := 0; i < 50; i++ {
		sample.Set(i, 0, 3.0)
		sample.Set(i, 1, 7.0)
	}

	refs := []resultRef{
		materializedRef(Candidate{1, 0}),
		materializedRef(Candidate{0, 1}),
	}
	evaluator, err := newCachedEvaluator(ens, refs, sample)
	require.NoError(t, err)

	out, err := evaluator.evaluateSubsamples(context.Background(), indexRange(0, 50), 10, 5, ens.rng)
	require.NoError(t, err)

	for b := 0; b < 5; b++ {
		require.InDelta(t, 3.0, out.At(b, 0), 1e-12)
		require.InDelta(t, 7.0, out.At(b, 1), 1e-12)
	}
}

func TestEvaluateSubsamples_InvalidParameters(t *testing.T) {
	ens := newTestEnsemble(t, &testVertexLearner{})
	sample := vertexSample(50)

	refs := []resultRef{materializedRef(Candidate{1, 0})}
	evaluator, err := newCachedEvaluator(ens, refs, sample)
	require.NoError(t, err)

	var invalidErr *InvalidParameterError

	_, err = evaluator.evaluateSubsamples(context.Background(), indexRange(0, 50), 0, 5, ens.rng)
	require.ErrorAs(t, err, &invalidErr)

	_, err = evaluator.evaluateSubsamples(context.Background(), indexRange(0, 50), 51, 5, ens.rng)
	require.ErrorAs(t, err, &invalidErr)

	_, err = evaluator.evaluateSubsamples(context.Background(), indexRange(0, 50), 10, 0, ens.rng)
	require.ErrorAs(t, err, &invalidErr)
}

func TestEvaluateSubsamples_ObjectiveLengthMismatch(t *testing.T) {
	ens := newTestEnsemble(t, &testMeanLearner{badObjectiveLen: true})
	sample := vertexSample(50)

	refs := []resultRef{materializedRef(Candidate{0, 0})}
	evaluator, err := newCachedEvaluator(ens, refs, sample)
	require.NoError(t, err)

	_, err = evaluator.evaluateSubsamples(context.Background(), indexRange(0, 50), 10, 5, ens.rng)
	var aggErr *AggregationError
	require.ErrorAs(t, err, &aggErr)
}

func TestNewCachedEvaluator_Validation(t *testing.T) {
	ens := newTestEnsemble(t, &testVertexLearner{})

	var invalidErr *InvalidParameterError

	_, err := newCachedEvaluator(ens, nil, vertexSample(10))
	require.ErrorAs(t, err, &invalidErr)

	_, err = newCachedEvaluator(ens, []resultRef{materializedRef(Candidate{1, 0})}, new(mat.Dense))
	require.ErrorAs(t, err, &invalidErr)
}

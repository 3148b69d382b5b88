package voteensemble

import (
	"context"
	"testing"

	"github.com/hupe1980/voteensemble/resultstore"
	"github.com/stretchr/testify/require"
)

func newTestEnsemble(t *testing.T, learner BaseLearner, optFns ...Option) *ensemble {
	t.Helper()

	opts := append([]Option{WithRandomSeed(42)}, optFns...)
	ens, err := newEnsemble(learner, applyOptions(opts))
	require.NoError(t, err)
	return ens
}

func TestLearnOnSubsamples(t *testing.T) {
	ens := newTestEnsemble(t, &testVertexLearner{})
	sample := vertexSample(200)

	refs, err := ens.learnOnSubsamples(context.Background(), sample, 30, 20)
	require.NoError(t, err)
	require.Len(t, refs, 20)

	for _, ref := range refs {
		c, err := ens.resolve(context.Background(), ref)
		require.NoError(t, err)
		require.Len(t, c, 2)
	}
}

func TestLearnOnSubsamples_Deterministic(t *testing.T) {
	sample := vertexSample(500)

	run := func() []Candidate {
		ens := newTestEnsemble(t, &testMeanLearner{})
		refs, err := ens.learnOnSubsamples(context.Background(), sample, 50, 10)
		require.NoError(t, err)

		out := make([]Candidate, len(refs))
		for i, ref := range refs {
			c, err := ens.resolve(context.Background(), ref)
			require.NoError(t, err)
			out[i] = c
		}
		return out
	}

	require.Equal(t, run(), run())
}

func TestLearnOnSubsamples_ParallelMatchesSerial(t *testing.T) {
	sample := vertexSample(500)

	run := func(workers int) []Candidate {
		ens := newTestEnsemble(t, &testMeanLearner{}, WithNumWorkers(workers))
		refs, err := ens.learnOnSubsamples(context.Background(), sample, 50, 16)
		require.NoError(t, err)

		out := make([]Candidate, len(refs))
		for i, ref := range refs {
			c, err := ens.resolve(context.Background(), ref)
			require.NoError(t, err)
			out[i] = c
		}
		return out
	}

	// Index sets are drawn before dispatch, so results are ordered by
	// subsample index regardless of worker count.
	require.Equal(t, run(1), run(4))
}

func TestLearnOnSubsamples_WithStore(t *testing.T) {
	store := resultstore.NewMemory()
	ens := newTestEnsemble(t, &testVertexLearner{}, WithResultStore(store))
	sample := vertexSample(100)

	refs, err := ens.learnOnSubsamples(context.Background(), sample, 20, 5)
	require.NoError(t, err)
	require.Equal(t, 5, store.Len())

	for _, ref := range refs {
		require.True(t, ref.stored)
		c, err := ens.resolve(context.Background(), ref)
		require.NoError(t, err)
		require.Len(t, c, 2)
	}

	ens.cleanupResults(context.Background(), refs)
	require.Equal(t, 0, store.Len())
}

func TestLearnOnSubsamples_KeepResults(t *testing.T) {
	store := resultstore.NewMemory()
	ens := newTestEnsemble(t, &testVertexLearner{},
		WithResultStore(store),
		WithDeleteSubsampleResults(false),
	)
	sample := vertexSample(100)

	refs, err := ens.learnOnSubsamples(context.Background(), sample, 20, 5)
	require.NoError(t, err)

	ens.cleanupResults(context.Background(), refs)
	require.Equal(t, 5, store.Len())
}

func TestLearnOnSubsamples_InvalidParameters(t *testing.T) {
	ens := newTestEnsemble(t, &testVertexLearner{})
	sample := vertexSample(100)

	var invalidErr *InvalidParameterError

	_, err := ens.learnOnSubsamples(context.Background(), sample, 0, 10)
	require.ErrorAs(t, err, &invalidErr)

	_, err = ens.learnOnSubsamples(context.Background(), sample, 10, 0)
	require.ErrorAs(t, err, &invalidErr)

	_, err = ens.learnOnSubsamples(context.Background(), sample, 101, 10)
	require.ErrorAs(t, err, &invalidErr)
}

func TestLearnOnSubsamples_LearnerError(t *testing.T) {
	ens := newTestEnsemble(t, &testVertexLearner{learnErr: errLearnBoom})
	sample := vertexSample(100)

	_, err := ens.learnOnSubsamples(context.Background(), sample, 20, 5)
	require.ErrorIs(t, err, errLearnBoom)
}

func TestDedupRefs(t *testing.T) {
	ens := newTestEnsemble(t, &testVertexLearner{})

	refs := []resultRef{
		materializedRef(Candidate{1, 0}),
		materializedRef(Candidate{0, 1}),
		materializedRef(Candidate{1, 0}),
		materializedRef(Candidate{1, 0}),
		materializedRef(Candidate{0, 1}),
	}

	unique, err := ens.dedupRefs(context.Background(), refs)
	require.NoError(t, err)
	require.Len(t, unique, 2)

	first, err := ens.resolve(context.Background(), unique[0])
	require.NoError(t, err)
	require.Equal(t, Candidate{1, 0}, first)

	second, err := ens.resolve(context.Background(), unique[1])
	require.NoError(t, err)
	require.Equal(t, Candidate{0, 1}, second)
}

func TestDedupRefs_EmptyCandidate(t *testing.T) {
	ens := newTestEnsemble(t, &testVertexLearner{})

	refs := []resultRef{materializedRef(Candidate{})}

	_, err := ens.dedupRefs(context.Background(), refs)
	var aggErr *AggregationError
	require.ErrorAs(t, err, &aggErr)
}

func TestSplitChunks(t *testing.T) {
	chunks := splitChunks(10, 3)
	require.Equal(t, []chunk{{0, 4}, {4, 7}, {7, 10}}, chunks)

	chunks = splitChunks(2, 5)
	require.Equal(t, []chunk{{0, 1}, {1, 2}}, chunks)

	chunks = splitChunks(6, 3)
	require.Equal(t, []chunk{{0, 2}, {2, 4}, {4, 6}}, chunks)
}

func TestAutoSubsampleSize(t *testing.T) {
	require.Equal(t, 10, autoSubsampleSize(10, 200))   // n below floor
	require.Equal(t, 30, autoSubsampleSize(1000, 200)) // floor dominates
	require.Equal(t, 50, autoSubsampleSize(10000, 200))
	require.Equal(t, 5000, autoSubsampleSize(10000, 2))
}

package voteensemble

import (
	"context"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// cachedEvaluator computes, for random subsets of data rows, the
// average per-row objective of a fixed pool of retrieved candidates.
// Because the B subsets overlap heavily, each distinct row's
// per-candidate objective vector is computed exactly once and reused by
// every subset containing the row: cost drops from O(B*k*C) objective
// evaluations to O(distinctRows*C) plus O(B*k) summations.
type cachedEvaluator struct {
	ens    *ensemble
	refs   []resultRef
	sample mat.Matrix
}

func newCachedEvaluator(ens *ensemble, refs []resultRef, sample mat.Matrix) (*cachedEvaluator, error) {
	if len(refs) == 0 {
		return nil, invalidParam("candidates", "candidate pool cannot be empty")
	}
	if n, _ := sample.Dims(); n == 0 {
		return nil, invalidParam("sample", "sample cannot be empty")
	}
	return &cachedEvaluator{ens: ens, refs: refs, sample: sample}, nil
}

// evaluateSubsamples draws B subsets of size k from rowIndices and
// returns a B x C matrix whose (b, c) entry is candidate c's objective
// averaged over subset b's rows. The per-row cache lives only for the
// duration of one call, so repeated calls with identical inputs and an
// identically positioned rng yield identical matrices.
func (ce *cachedEvaluator) evaluateSubsamples(ctx context.Context, rowIndices []int, k, B int, r *rng) (*mat.Dense, error) {
	if B <= 0 {
		return nil, invalidParam("B", "number of evaluation subsamples must be positive, got %d", B)
	}
	n := len(rowIndices)
	if k <= 0 {
		return nil, invalidParam("k", "evaluation subsample size must be positive, got %d", k)
	}
	if k > n {
		return nil, invalidParam("k", "evaluation subsample size %d exceeds row pool size %d", k, n)
	}

	// Draw the subsets serially and record the distinct rows they touch.
	distinctSet := roaring.New()
	subsets := make([][]int, B)
	for b := 0; b < B; b++ {
		subsets[b] = r.sampleFrom(rowIndices, k)
		for _, row := range subsets[b] {
			distinctSet.Add(uint32(row))
		}
	}
	distinct := distinctSet.ToArray()

	cache, err := ce.buildRowCache(ctx, distinct)
	if err != nil {
		return nil, err
	}

	C := len(ce.refs)
	out := mat.NewDense(B, C, nil)
	sum := make([]float64, C)
	for b, subset := range subsets {
		for i := range sum {
			sum[i] = 0
		}
		for _, row := range subset {
			vec, ok := cache[row]
			if !ok {
				return nil, &AggregationError{
					Op:     "evaluateSubsamples",
					Reason: fmt.Sprintf("row %d missing from evaluation cache", row),
				}
			}
			floats.Add(sum, vec)
		}
		floats.Scale(1/float64(len(subset)), sum)
		out.SetRow(b, sum)
	}

	ce.ens.logger.LogEvaluationRound(ctx, k, B, len(distinct), C)
	return out, nil
}

// buildRowCache evaluates every candidate on exactly the distinct rows,
// partitioned across workers in contiguous chunks. Workers write
// disjoint regions of rowVecs, so reassembly needs no locking.
func (ce *cachedEvaluator) buildRowCache(ctx context.Context, distinct []uint32) (map[int][]float64, error) {
	numWorkers := min(ce.ens.numEvalWorkers, len(distinct))
	rowVecs := make([][]float64, len(distinct))

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range splitChunks(len(distinct), numWorkers) {
		c := c
		g.Go(func() error {
			rows := make([]int, c.end-c.start)
			for i := range rows {
				rows[i] = int(distinct[c.start+i])
			}
			return ce.evaluateCandidatesOnRows(gctx, rows, rowVecs[c.start:c.end])
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cache := make(map[int][]float64, len(distinct))
	for i, row := range distinct {
		cache[int(row)] = rowVecs[i]
	}
	return cache, nil
}

// evaluateCandidatesOnRows fills out[i] with the length-C objective
// vector of row rows[i].
func (ce *cachedEvaluator) evaluateCandidatesOnRows(ctx context.Context, rows []int, out [][]float64) error {
	sub := selectRows(ce.sample, rows)
	C := len(ce.refs)

	for i := range out {
		out[i] = make([]float64, C)
	}
	for c, ref := range ce.refs {
		if err := ctx.Err(); err != nil {
			return err
		}
		cand, err := ce.ens.resolve(ctx, ref)
		if err != nil {
			return err
		}
		vals, err := ce.ens.learner.Objective(cand, sub)
		if err != nil {
			return fmt.Errorf("voteensemble: objective for candidate %d: %w", c, err)
		}
		if len(vals) != len(rows) {
			return &AggregationError{
				Op:     "evaluateSubsamples",
				Reason: fmt.Sprintf("objective returned %d values for %d rows", len(vals), len(rows)),
			}
		}
		for i, v := range vals {
			out[i][c] = v
		}
	}
	return nil
}

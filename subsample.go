package voteensemble

import (
	"bytes"
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// learnOnSubsamples draws B index sets of size k from the sample's
// rows, fits the base learner on each, and returns B candidate refs
// ordered by subsample index regardless of worker completion order.
//
// Index sets are generated serially from the owned random source before
// any worker is dispatched; workers only read the sample and write
// their disjoint slots (and, if storage is enabled, their own handles),
// so no synchronization beyond the final join is needed. The first
// worker error aborts the whole call and partial results are discarded.
func (e *ensemble) learnOnSubsamples(ctx context.Context, sample mat.Matrix, k, B int) ([]resultRef, error) {
	if B <= 0 {
		return nil, invalidParam("B", "number of subsamples must be positive, got %d", B)
	}
	n, _ := sample.Dims()
	if k <= 0 {
		return nil, invalidParam("k", "subsample size must be positive, got %d", k)
	}
	if k > n {
		return nil, invalidParam("k", "subsample size %d exceeds sample size %d", k, n)
	}

	indexSets := make([][]int, B)
	for b := 0; b < B; b++ {
		indexSets[b] = e.rng.sampleIndices(n, k)
	}

	numWorkers := min(e.numLearnWorkers, B)
	refs := make([]resultRef, B)

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range splitChunks(B, numWorkers) {
		c := c
		g.Go(func() error {
			for b := c.start; b < c.end; b++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				ref, err := e.learnSingleSubsample(gctx, sample, indexSets[b], b)
				if err != nil {
					return err
				}
				refs[b] = ref
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.logger.LogLearnRound(ctx, k, B, numWorkers, err)
		return nil, err
	}

	e.logger.LogLearnRound(ctx, k, B, numWorkers, nil)
	return refs, nil
}

// learnSingleSubsample fits one subsample and either keeps the
// candidate in memory or spills it to the store under the subsample
// index, depending on whether external storage is configured.
func (e *ensemble) learnSingleSubsample(ctx context.Context, sample mat.Matrix, rows []int, subsampleIndex int) (resultRef, error) {
	sub := selectRows(sample, rows)
	c, err := e.learner.Learn(sub)
	if err != nil {
		return resultRef{}, fmt.Errorf("voteensemble: learn on subsample %d: %w", subsampleIndex, err)
	}

	if e.store == nil {
		return materializedRef(c), nil
	}

	var buf bytes.Buffer
	if err := e.learner.DumpCandidate(c, &buf); err != nil {
		return resultRef{}, fmt.Errorf("voteensemble: serialize candidate %d: %w", subsampleIndex, err)
	}
	if err := e.store.Put(ctx, subsampleIndex, buf.Bytes()); err != nil {
		return resultRef{}, fmt.Errorf("voteensemble: store candidate %d: %w", subsampleIndex, err)
	}
	return storedRef(subsampleIndex), nil
}

// dedupRefs collapses refs considered equal by the learner's duplicate
// predicate, keeping the first ref of each bucket in encounter order.
// Representatives are resolved once and compared in memory.
func (e *ensemble) dedupRefs(ctx context.Context, refs []resultRef) ([]resultRef, error) {
	unique := make([]resultRef, 0, len(refs))
	reps := make([]Candidate, 0, len(refs))

	for i, ref := range refs {
		c, err := e.resolve(ctx, ref)
		if err != nil {
			return nil, err
		}
		if len(c) == 0 {
			return nil, &AggregationError{
				Op:     "dedup",
				Reason: fmt.Sprintf("empty candidate at index %d", i),
			}
		}
		dup := false
		for _, rep := range reps {
			if e.learner.IsDuplicate(c, rep) {
				dup = true
				break
			}
		}
		if !dup {
			unique = append(unique, ref)
			reps = append(reps, c)
		}
	}
	return unique, nil
}

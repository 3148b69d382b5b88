package voteensemble

import (
	"context"

	"github.com/hupe1980/voteensemble/resultstore"
	"gonum.org/v1/gonum/mat"
)

// ensemble carries the state shared by MoVE and ROVE: the base
// learner, the owned random source, worker counts, and the optional
// candidate store.
type ensemble struct {
	learner         BaseLearner
	numLearnWorkers int
	numEvalWorkers  int
	rng             *rng
	store           resultstore.Store // nil when external storage is disabled
	deleteResults   bool
	logger          *Logger
}

func newEnsemble(learner BaseLearner, opts options) (*ensemble, error) {
	if learner == nil {
		return nil, invalidParam("learner", "base learner cannot be nil")
	}

	store := opts.store
	if store == nil && opts.resultDir != "" {
		var err error
		store, err = resultstore.NewLocal(opts.resultDir, func(o *resultstore.Options) {
			o.Compression = opts.compression
			o.Logger = opts.logger.Logger
		})
		if err != nil {
			return nil, err
		}
	}

	return &ensemble{
		learner:         learner,
		numLearnWorkers: opts.numLearnWorkers,
		numEvalWorkers:  opts.numEvalWorkers,
		rng:             newRNG(opts.seed),
		store:           store,
		deleteResults:   opts.deleteResults,
		logger:          opts.logger,
	}, nil
}

// resetRandomSeed rewinds the random source to the construction-time
// seed so the next run reproduces the previous one exactly.
func (e *ensemble) resetRandomSeed() {
	e.rng.reset()
}

// cleanupResults deletes externally stored candidates once a run no
// longer needs them. Deletion is best-effort: store implementations log
// per-handle failures instead of propagating them, so cleanup never
// aborts a completed run.
func (e *ensemble) cleanupResults(ctx context.Context, refs []resultRef) {
	if !e.deleteResults || e.store == nil {
		return
	}
	handles := make([]int, 0, len(refs))
	for _, ref := range refs {
		if ref.stored {
			handles = append(handles, ref.handle)
		}
	}
	if len(handles) > 0 {
		e.store.Delete(ctx, handles)
	}
}

// autoSubsampleSize is the default k = min(max(30, n/divisor), n).
func autoSubsampleSize(n int64, divisor int) int {
	k := int64(30)
	if d := n / int64(divisor); d > k {
		k = d
	}
	if k > n {
		k = n
	}
	return int(k)
}

// selectRows copies the given rows of src into a fresh dense matrix.
func selectRows(src mat.Matrix, rows []int) *mat.Dense {
	_, m := src.Dims()
	out := mat.NewDense(len(rows), m, nil)
	buf := make([]float64, m)
	for i, r := range rows {
		mat.Row(buf, r, src)
		out.SetRow(i, buf)
	}
	return out
}

// chunk is a half-open index range assigned to one worker.
type chunk struct {
	start, end int
}

// splitChunks partitions [0, total) into at most workers contiguous
// near-equal ranges, distributing the remainder to the first chunks.
func splitChunks(total, workers int) []chunk {
	if workers > total {
		workers = total
	}
	chunks := make([]chunk, 0, workers)
	per := total / workers
	rem := total % workers
	start := 0
	for i := 0; i < workers; i++ {
		size := per
		if i < rem {
			size++
		}
		chunks = append(chunks, chunk{start: start, end: start + size})
		start += size
	}
	return chunks
}

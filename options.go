package voteensemble

import (
	"time"

	"github.com/hupe1980/voteensemble/resultstore"
)

type options struct {
	seed            int64
	seedSet         bool
	numLearnWorkers int
	numEvalWorkers  int
	store           resultstore.Store
	resultDir       string
	compression     resultstore.Compression
	deleteResults   bool
	dataSplit       bool
	logger          *Logger
}

// Option configures a MoVE or ROVE instance at construction time.
type Option func(*options)

// WithRandomSeed fixes the seed of the ensemble's random source. Runs
// with the same seed and a single worker are bit-identical. If not set,
// the current time is used.
func WithRandomSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
		o.seedSet = true
	}
}

// WithNumWorkers sets the parallelism for both learning and evaluation
// rounds. Values below 1 are treated as 1.
func WithNumWorkers(n int) Option {
	return func(o *options) {
		o.numLearnWorkers = n
		o.numEvalWorkers = n
	}
}

// WithNumLearnWorkers sets the parallelism for learning rounds only.
func WithNumLearnWorkers(n int) Option {
	return func(o *options) {
		o.numLearnWorkers = n
	}
}

// WithNumEvalWorkers sets the parallelism for evaluation rounds only.
func WithNumEvalWorkers(n int) Option {
	return func(o *options) {
		o.numEvalWorkers = n
	}
}

// WithSubsampleResultDir enables external candidate storage backed by
// the local filesystem at dir. Candidates are then spilled to disk
// during learning rounds instead of being held in memory.
func WithSubsampleResultDir(dir string) Option {
	return func(o *options) {
		o.resultDir = dir
	}
}

// WithResultStore injects a candidate store (S3, MinIO, DynamoDB, or a
// custom implementation). Takes precedence over WithSubsampleResultDir.
func WithResultStore(s resultstore.Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithCompression selects the compression algorithm used by the store
// configured through WithSubsampleResultDir. Default is ZSTD.
func WithCompression(c resultstore.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithDeleteSubsampleResults controls whether externally stored
// candidates are deleted once a run completes. Default is true.
func WithDeleteSubsampleResults(del bool) Option {
	return func(o *options) {
		o.deleteResults = del
	}
}

// WithDataSplit makes ROVE split the sample in half, generating
// candidates on the first half and selecting on the held-out second
// half. Ignored by MoVE.
func WithDataSplit(split bool) Option {
	return func(o *options) {
		o.dataSplit = split
	}
}

// WithLogger configures structured logging. Pass nil to keep the
// default no-op logger.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		numLearnWorkers: 1,
		numEvalWorkers:  1,
		compression:     resultstore.CompressionZSTD,
		deleteResults:   true,
		logger:          NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if !o.seedSet {
		o.seed = time.Now().UnixNano()
	}
	if o.numLearnWorkers < 1 {
		o.numLearnWorkers = 1
	}
	if o.numEvalWorkers < 1 {
		o.numEvalWorkers = 1
	}
	return o
}

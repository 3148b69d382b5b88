// Package resultstore provides external storage for candidates spilled
// during subsampled learning rounds. Stores address candidates by their
// subsample index and transparently compress payloads.
package resultstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// ErrNotFound is returned when a stored candidate does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction for persisting serialized candidates keyed by
// their subsample index.
type Store interface {
	// Put stores the payload under the given handle, overwriting any
	// previous value.
	Put(ctx context.Context, handle int, payload []byte) error

	// Get retrieves the payload stored under the given handle. Returns
	// an error satisfying errors.Is(err, ErrNotFound) if it is missing.
	Get(ctx context.Context, handle int) ([]byte, error)

	// Delete removes the given handles. Deletion is best-effort:
	// implementations log per-handle failures instead of returning them.
	Delete(ctx context.Context, handles []int)
}

// ObjectName returns the canonical object name for a handle. All
// bundled stores use it, so results written by one backend can be read
// by another pointed at the same location.
func ObjectName(handle int) string {
	return fmt.Sprintf("subsampleResult_%d", handle)
}

// Options holds settings shared by the bundled store implementations.
type Options struct {
	// Compression selects the payload compression algorithm.
	Compression Compression

	// Logger receives best-effort deletion warnings. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// ApplyOptions resolves option functions against the defaults. It is
// exported for store implementations in sub-packages.
func ApplyOptions(optFns []func(o *Options)) Options {
	opts := Options{
		Compression: CompressionZSTD,
		Logger:      slog.Default(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return opts
}

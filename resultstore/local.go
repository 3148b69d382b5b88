package resultstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Local implements Store on the local file system. Each candidate is
// one file under the root directory.
type Local struct {
	root        string
	compression Compression
	logger      *slog.Logger
}

var _ Store = (*Local)(nil)

// NewLocal creates a Local store rooted at dir, creating the directory
// if needed.
func NewLocal(dir string, optFns ...func(o *Options)) (*Local, error) {
	opts := ApplyOptions(optFns)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("resultstore: create directory %s: %w", dir, err)
	}

	return &Local{
		root:        dir,
		compression: opts.Compression,
		logger:      opts.Logger,
	}, nil
}

// Put stores the payload under the given handle.
func (s *Local) Put(_ context.Context, handle int, payload []byte) error {
	frame, err := EncodeFrame(payload, s.compression)
	if err != nil {
		return err
	}
	path := filepath.Join(s.root, ObjectName(handle))
	if err := os.WriteFile(path, frame, 0o644); err != nil {
		return fmt.Errorf("resultstore: write %s: %w", path, err)
	}
	return nil
}

// Get retrieves the payload stored under the given handle.
func (s *Local) Get(_ context.Context, handle int) ([]byte, error) {
	path := filepath.Join(s.root, ObjectName(handle))
	frame, err := os.ReadFile(path)
	if err != nil {
		// os errors already satisfy errors.Is(err, ErrNotFound)
		return nil, fmt.Errorf("resultstore: read %s: %w", path, err)
	}
	return DecodeFrame(frame)
}

// Delete removes the given handles, logging failures instead of
// returning them.
func (s *Local) Delete(ctx context.Context, handles []int) {
	for _, handle := range handles {
		path := filepath.Join(s.root, ObjectName(handle))
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.WarnContext(ctx, "failed to delete stored candidate",
				"path", path,
				"error", err,
			)
		}
	}
}

package resultstore

import (
	"context"
	"fmt"
	"sync"
)

// Memory implements Store in process memory. It is safe for concurrent
// use and intended for tests and small runs.
type Memory struct {
	mu          sync.RWMutex
	objects     map[int][]byte
	compression Compression
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory(optFns ...func(o *Options)) *Memory {
	opts := ApplyOptions(optFns)

	return &Memory{
		objects:     make(map[int][]byte),
		compression: opts.Compression,
	}
}

// Put stores the payload under the given handle.
func (s *Memory) Put(_ context.Context, handle int, payload []byte) error {
	frame, err := EncodeFrame(payload, s.compression)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.objects[handle] = frame
	return nil
}

// Get retrieves the payload stored under the given handle.
func (s *Memory) Get(_ context.Context, handle int) ([]byte, error) {
	s.mu.RLock()
	frame, ok := s.objects[handle]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("resultstore: handle %d: %w", handle, ErrNotFound)
	}
	return DecodeFrame(frame)
}

// Delete removes the given handles.
func (s *Memory) Delete(_ context.Context, handles []int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, handle := range handles {
		delete(s.objects, handle)
	}
}

// Len returns the number of stored candidates.
func (s *Memory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.objects)
}

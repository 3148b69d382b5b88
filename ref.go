package voteensemble

import (
	"bytes"
	"context"
	"fmt"
)

// resultRef is a two-case reference to a fitted candidate: either the
// candidate itself, or the integer handle of a candidate spilled to the
// result store. A stored ref is only valid while the owning store is
// alive and the handle has not been deleted.
type resultRef struct {
	candidate Candidate
	handle    int
	stored    bool
}

func materializedRef(c Candidate) resultRef {
	return resultRef{candidate: c}
}

func storedRef(handle int) resultRef {
	return resultRef{handle: handle, stored: true}
}

// resolve turns a ref into a candidate. It is the only path that reads
// from the store; resolving never mutates the store.
func (e *ensemble) resolve(ctx context.Context, ref resultRef) (Candidate, error) {
	if !ref.stored {
		return ref.candidate, nil
	}
	if e.store == nil {
		return nil, &AggregationError{
			Op:     "resolve",
			Reason: fmt.Sprintf("stored ref %d but no result store configured", ref.handle),
		}
	}
	payload, err := e.store.Get(ctx, ref.handle)
	if err != nil {
		return nil, fmt.Errorf("voteensemble: load candidate %d: %w", ref.handle, err)
	}
	c, err := e.learner.LoadCandidate(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("voteensemble: deserialize candidate %d: %w", ref.handle, err)
	}
	return c, nil
}

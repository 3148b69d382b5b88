package voteensemble

import (
	"errors"
	"fmt"
)

var (
	// ErrNoResults is returned when a learning round yields no usable
	// candidates.
	ErrNoResults = errors.New("no learning results obtained")
)

// InvalidParameterError indicates a caller-supplied parameter or
// configuration that can never succeed (non-positive B/k, empty sample,
// a MoVE learner without deduplication support). It is not retryable.
type InvalidParameterError struct {
	Param  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Param, e.Reason)
}

// AggregationError indicates a violated internal invariant during
// voting or evaluation (empty winning candidate, evaluation-cache miss,
// mismatched objective length). It points at a logic bug, not bad input.
type AggregationError struct {
	Op     string
	Reason string
	cause  error
}

func (e *AggregationError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Reason, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func (e *AggregationError) Unwrap() error { return e.cause }

func invalidParam(param, format string, args ...any) error {
	return &InvalidParameterError{Param: param, Reason: fmt.Sprintf(format, args...)}
}

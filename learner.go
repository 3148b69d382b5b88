package voteensemble

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"gonum.org/v1/gonum/mat"
)

// Candidate is a single fitted solution produced by a base learner.
type Candidate []float64

// BaseLearner is the capability set a learner must provide to be used
// with MoVE or ROVE. The ensemble core depends only on this interface.
type BaseLearner interface {
	// Learn fits the learner on the given sample (rows = observations)
	// and returns a single candidate solution.
	Learn(sample mat.Matrix) (Candidate, error)

	// Objective evaluates a candidate on the sample and returns one
	// value per row.
	Objective(c Candidate, sample mat.Matrix) ([]float64, error)

	// IsMinimization reports whether smaller objective values are better.
	IsMinimization() bool

	// EnableDeduplication reports whether IsDuplicate is meaningful for
	// this learner. Must be true for MoVE; optional for ROVE.
	EnableDeduplication() bool

	// IsDuplicate reports whether two candidates represent the same
	// solution. The predicate is assumed symmetric and is applied with
	// first-match-wins bucketing, so implementations should behave like
	// an equivalence relation; a non-transitive predicate makes the
	// clustering depend on candidate order.
	IsDuplicate(a, b Candidate) bool

	// DumpCandidate and LoadCandidate serialize a single candidate for
	// the result store. Different learners may use different encodings;
	// EncodeCandidate/DecodeCandidate cover the common vector case.
	DumpCandidate(c Candidate, w io.Writer) error
	LoadCandidate(r io.Reader) (Candidate, error)
}

// maxCandidateLen bounds the element count accepted by DecodeCandidate,
// guarding against eager allocation from a corrupt length prefix.
const maxCandidateLen = 1 << 24

// EncodeCandidate writes a candidate as a little-endian length-prefixed
// float64 vector. It is the default encoding used by the bundled
// learners.
func EncodeCandidate(w io.Writer, c Candidate) error {
	if err := binary.Write(w, binary.LittleEndian, int64(len(c))); err != nil {
		return fmt.Errorf("voteensemble: encode candidate length: %w", err)
	}
	if len(c) == 0 {
		return nil
	}
	if err := binary.Write(w, binary.LittleEndian, []float64(c)); err != nil {
		return fmt.Errorf("voteensemble: encode candidate data: %w", err)
	}
	return nil
}

// DecodeCandidate reads a candidate written by EncodeCandidate.
func DecodeCandidate(r io.Reader) (Candidate, error) {
	var size int64
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return nil, fmt.Errorf("voteensemble: decode candidate length: %w", err)
	}
	if size < 0 || size > maxCandidateLen {
		return nil, fmt.Errorf("voteensemble: decode candidate: implausible length %d", size)
	}
	c := make(Candidate, size)
	if size == 0 {
		return c, nil
	}
	if err := binary.Read(r, binary.LittleEndian, []float64(c)); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("voteensemble: decode candidate: truncated data: %w", err)
		}
		return nil, fmt.Errorf("voteensemble: decode candidate data: %w", err)
	}
	return c, nil
}

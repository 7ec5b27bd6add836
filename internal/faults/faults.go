// Package faults classifies the external failures the coordinator has
// to absorb without halting its heartbeat loop.
//
// Three kinds of fault exist at the coordination boundary:
//
//   - Submission faults: the backend could not start an attempt. A
//     transient fault means the attempt should be re-enqueued and tried
//     again; a permanent one means the attempt is recorded as failed.
//   - Synchronization faults: the backend outcome query failed or came
//     back partial. Already-applied results are preserved and the query
//     is simply retried on the next tick.
//   - Adoption uncertainty: the backend cannot confirm ownership of an
//     in-flight candidate. Resolved conservatively as not-adopted.
//
// None of these are fatal to the loop. Invariant violations (slot
// accounting under/overflow) are not faults in this taxonomy — they are
// coordination bugs and panic at the point of detection.
package faults

import (
	"errors"
	"fmt"
)

// Re-export standard library helpers so callers can import only this
// package for fault handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
)

// SubmissionError wraps a failure to submit an attempt to a backend,
// carrying whether a retry can be expected to succeed.
type SubmissionError struct {
	Err       error
	Retryable bool
}

// Error implements the error interface.
func (e *SubmissionError) Error() string {
	if e.Retryable {
		return fmt.Sprintf("transient submission fault: %v", e.Err)
	}
	return fmt.Sprintf("permanent submission fault: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// Transient wraps err as a submission fault that is expected to succeed
// on a later attempt.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &SubmissionError{Err: err, Retryable: true}
}

// Permanent wraps err as a submission fault that will not succeed no
// matter how often it is retried.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &SubmissionError{Err: err, Retryable: false}
}

// IsTransient reports whether err is a submission fault marked
// retryable. An unclassified error is treated as permanent: requeueing
// a fault of unknown shape forever is worse than failing it once.
func IsTransient(err error) bool {
	var se *SubmissionError
	if errors.As(err, &se) {
		return se.Retryable
	}
	return false
}

package model

import "fmt"

// PreconditionError reports a request that was malformed before any
// work started: missing wallet, empty edit set, incomplete fields.
// Surfaced synchronously, never after a network call.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "precondition failed: " + e.Reason
}

// Preconditionf builds a PreconditionError from a format string.
func Preconditionf(format string, args ...any) *PreconditionError {
	return &PreconditionError{Reason: fmt.Sprintf(format, args...)}
}

// InvariantError reports client-side state that contradicts the data
// model: a share with no matching tick, or a withdrawal exceeding what
// the user owns. Rejected before any message is built.
type InvariantError struct {
	Reason string
}

func (e *InvariantError) Error() string {
	return "invariant violated: " + e.Reason
}

// Invariantf builds an InvariantError from a format string.
func Invariantf(format string, args ...any) *InvariantError {
	return &InvariantError{Reason: fmt.Sprintf(format, args...)}
}

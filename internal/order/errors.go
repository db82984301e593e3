package order

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure. Exactly one kind is attached to each
// failed project outcome.
type Kind string

// Failure kinds recorded on project outcomes.
const (
	KindDownload   Kind = "download"
	KindExtraction Kind = "extraction"
	KindNotFound   Kind = "not_found"
	KindMerge      Kind = "merge"
	KindPersist    Kind = "persist"
)

// Error is the typed failure carried through the pipeline. It aborts the
// project it occurred in and never its siblings.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// E wraps err with a kind and the operation that failed.
func E(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrKind extracts the failure kind from err, unwrapping as needed.
func ErrKind(err error) (Kind, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return "", false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := ErrKind(err)
	return ok && k == kind
}

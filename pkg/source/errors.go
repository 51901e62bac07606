package source

import (
	"errors"
	"fmt"
)

// error kind sentinels, matched with errors.Is to decide retry behavior
var (
	// ErrTransient marks timeouts and connection failures, worth a
	// bounded backoff retry
	ErrTransient = errors.New("transient network error")
	// ErrFormat marks a malformed or unexpected upstream body, never
	// retried
	ErrFormat = errors.New("upstream format error")
	// ErrLogical marks an envelope that reports a failure status,
	// never retried
	ErrLogical = errors.New("upstream logical error")
)

// FetchError wraps an upstream failure with its kind sentinel so
// callers can classify with errors.Is
type FetchError struct {
	Kind   error
	Err    error
	Status int // HTTP status, when the failure came from a response code
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Err.Error())
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is reports whether the target matches this error's kind
func (e *FetchError) Is(target error) bool { return errors.Is(e.Kind, target) }

func transientErr(format string, args ...any) *FetchError {
	return &FetchError{Kind: ErrTransient, Err: fmt.Errorf(format, args...)}
}

func formatErr(format string, args ...any) *FetchError {
	return &FetchError{Kind: ErrFormat, Err: fmt.Errorf(format, args...)}
}

func logicalErr(format string, args ...any) *FetchError {
	return &FetchError{Kind: ErrLogical, Err: fmt.Errorf(format, args...)}
}

package errs

import (
	"context"
	"errors"
	"fmt"
)

// Error kinds surfaced by the analysis core.
var (
	// ErrInvalidInput indicates a caller mistake such as a malformed ticker or empty text
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoData indicates no price history exists for the requested ticker
	ErrNoData = errors.New("no data")

	// ErrUpstream indicates a collaborator (price feed, text store, narrator) failed or was unreachable
	ErrUpstream = errors.New("upstream failure")

	// ErrDomain indicates a violated internal math precondition
	ErrDomain = errors.New("domain error")
)

// ErrNotFound is returned by lookups when the requested entity does not exist.
// It is a lookup signal, not an analysis failure.
var ErrNotFound = errors.New("not found")

// Error wraps an underlying cause with its kind and the failing operation
type Error struct {
	Kind error
	Op   string
	Err  error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Kind)
}

// Is reports whether target matches the kind of this error
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// InvalidInput builds an ErrInvalidInput for op
func InvalidInput(op, format string, args ...any) error {
	return &Error{Kind: ErrInvalidInput, Op: op, Err: fmt.Errorf(format, args...)}
}

// NoData builds an ErrNoData for op
func NoData(op, format string, args ...any) error {
	return &Error{Kind: ErrNoData, Op: op, Err: fmt.Errorf(format, args...)}
}

// Domain builds an ErrDomain for op
func Domain(op, format string, args ...any) error {
	return &Error{Kind: ErrDomain, Op: op, Err: fmt.Errorf(format, args...)}
}

// Upstream classifies err as a collaborator failure. Errors that already carry
// a kind are returned unchanged so that NoData or InvalidInput survive adapters,
// as is a cancellation by the caller.
func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	if Classified(err) || errors.Is(err, context.Canceled) {
		return err
	}
	return &Error{Kind: ErrUpstream, Op: op, Err: err}
}

// Classified reports whether err already carries one of the analysis error kinds
func Classified(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrNoData) ||
		errors.Is(err, ErrUpstream) ||
		errors.Is(err, ErrDomain)
}

// KindName returns a short label for metrics and logs
func KindName(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrNoData):
		return "no_data"
	case errors.Is(err, ErrUpstream):
		return "upstream"
	case errors.Is(err, ErrDomain):
		return "domain"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "internal"
	}
}

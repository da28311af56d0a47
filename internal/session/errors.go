package session

import (
	"errors"
	"fmt"

	"github.com/iliyamo/pulse-workout-sessions/internal/repository"
)

// Error is a failure kind with the numeric code clients receive.  Kinds are
// sentinels: match them with errors.Is.  Store failures are wrapped so both
// the kind and the underlying store cause stay matchable.
type Error struct {
	Code int
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

var (
	ErrReadEmpty        = &Error{Code: 4021, Msg: "no matching row"}
	ErrWriteFailed      = &Error{Code: 4022, Msg: "write failed"}
	ErrUpdateFailed     = &Error{Code: 4023, Msg: "update failed"}
	ErrRangeFailed      = &Error{Code: 4024, Msg: "range read failed"}
	ErrStoreInternal    = &Error{Code: 4027, Msg: "store error"}
	ErrMissingParameter = &Error{Code: 4031, Msg: "missing required parameter"}
	ErrUnsupportedType  = &Error{Code: 4032, Msg: "unsupported type"}
	ErrSessionClosed    = &Error{Code: 4034, Msg: "session is closed"}
)

// Code returns the client code of err, or 0 when err carries no kind.
func Code(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}

func missing(names string) error {
	return fmt.Errorf("%w: %s", ErrMissingParameter, names)
}

func wrap(kind *Error, op, table string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", kind, op, table, err)
}

// readErr classifies a failed point read.
func readErr(op, table string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return wrap(ErrReadEmpty, op, table, err)
	}
	return wrap(ErrStoreInternal, op, table, err)
}

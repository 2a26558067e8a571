package transport

import (
	"errors"
	"fmt"
)

var (
	ErrClosed        = errors.New("session closed")
	ErrWrongRole     = errors.New("operation not valid for this role")
	ErrNoLocalTracks = errors.New("no local tracks to send")
	ErrUnexpectedSDP = errors.New("unexpected session description type")
)

// Error describes a failed transport operation.
type Error struct {
	Op      string
	Err     error
	Details string
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(op string, err error) *Error {
	return &Error{Op: op, Err: err}
}

func WrapError(op string, err error, details string) *Error {
	return &Error{Op: op, Err: err, Details: details}
}

package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrLimitExceeded = errors.New("limit exceeded")
	ErrNotReady      = errors.New("leaderboard not ready")
	ErrUpstream      = errors.New("upstream dataset unavailable")
	ErrUnprocessable = errors.New("dataset headers not recognised")
)

// Error carries the failing operation and an error kind alongside the cause.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Kind != nil && e.Err != nil:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	case e.Kind != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	var out []error
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind returns an error of the given kind with no further cause.
func NewKind(op string, kind error) *Error { return &Error{Op: op, Kind: kind} }

// Wrap annotates err with op.
func Wrap(op string, err error) *Error { return &Error{Op: op, Err: err} }

// WrapKind annotates err with op and kind.
func WrapKind(op string, kind, err error) *Error { return &Error{Op: op, Kind: kind, Err: err} }

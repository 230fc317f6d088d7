package schema

import (
	"errors"
	"strings"
)

// ErrUnresolved marks a batch whose sample record lacks a required field.
var ErrUnresolved = errors.New("schema unresolved")

// UnresolvedError lists the logical fields no alias matched.
type UnresolvedError struct {
	Missing []Field
}

func (e *UnresolvedError) Error() string {
	names := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		names[i] = string(f)
	}
	return ErrUnresolved.Error() + ": no column for " + strings.Join(names, ", ")
}

// Unwrap lets errors.Is match ErrUnresolved.
func (e *UnresolvedError) Unwrap() error { return ErrUnresolved }

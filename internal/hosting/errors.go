package hosting

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport marks a call the adapter could not complete.
	ErrTransport = errors.New("hosting transport failure")

	ErrFileNotFound    = errors.New("file not found")
	ErrNotAFile        = errors.New("path is not a file")
	ErrRefNotFound     = errors.New("ref not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrConflictingHash = errors.New("file hash does not match")
)

// TransportError wraps a failed hosting call.
type TransportError struct {
	Op   string
	Repo string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Repo, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is reports ErrTransport so callers can test for any transport failure.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDependencyCycleSuspected indicates discovery did not converge.
	ErrDependencyCycleSuspected = errors.New("dependency cycle suspected")

	// ErrUnorderableReleaseSet indicates the release set has no valid
	// dependency-first order.
	ErrUnorderableReleaseSet = errors.New("unorderable release set")
)

// CycleSuspectedError reports the packages still undetermined when the
// discovery pass ceiling was reached.
type CycleSuspectedError struct {
	Passes  int
	Pending []string
}

func (e *CycleSuspectedError) Error() string {
	return fmt.Sprintf("%s: discovery did not converge after %d passes (pending: %s)",
		ErrDependencyCycleSuspected, e.Passes, strings.Join(e.Pending, ", "))
}

func (e *CycleSuspectedError) Is(target error) bool {
	return target == ErrDependencyCycleSuspected
}

// UnorderableError carries the order computed so far and the packages that
// could not be placed.
type UnorderableError struct {
	Ordered   []string
	Remaining []string
	Passes    int
}

func (e *UnorderableError) Error() string {
	return fmt.Sprintf("%s: %s cannot be ordered after %d passes (ordered: %s)",
		ErrUnorderableReleaseSet, strings.Join(e.Remaining, ", "), e.Passes, strings.Join(e.Ordered, ", "))
}

func (e *UnorderableError) Is(target error) bool {
	return target == ErrUnorderableReleaseSet
}

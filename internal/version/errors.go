package version

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnresolvableConstraint indicates no ref satisfies a constraint.
	ErrUnresolvableConstraint = errors.New("unresolvable version constraint")

	// ErrConflictingConstraints indicates a package is required at more
	// than one irreconcilable version.
	ErrConflictingConstraints = errors.New("conflicting version constraints")
)

// UnresolvableConstraintError names the package and constraint that matched
// no ref.
type UnresolvableConstraintError struct {
	Package    string
	Constraint Constraint
	Err        error
}

func (e *UnresolvableConstraintError) Error() string {
	msg := fmt.Sprintf("%s: no ref of %s matches %q", ErrUnresolvableConstraint, e.Package, string(e.Constraint))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UnresolvableConstraintError) Is(target error) bool {
	return target == ErrUnresolvableConstraint
}

func (e *UnresolvableConstraintError) Unwrap() error {
	return e.Err
}

// ConflictingConstraintsError lists the distinct constraints left after
// wildcards were dropped.
type ConflictingConstraintsError struct {
	Package     string
	Constraints []string
}

func (e *ConflictingConstraintsError) Error() string {
	return fmt.Sprintf("%s: %s is required as %s", ErrConflictingConstraints, e.Package, strings.Join(e.Constraints, ", "))
}

func (e *ConflictingConstraintsError) Is(target error) bool {
	return target == ErrConflictingConstraints
}

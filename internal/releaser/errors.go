package releaser

import (
	"errors"
	"fmt"
)

// ErrOptimisticWriteConflict indicates the manifest changed between read
// and write. The run is not retried because a blind retry could apply a
// version bump twice.
var ErrOptimisticWriteConflict = errors.New("optimistic write conflict")

// Step names a stage of releasing one package.
type Step string

const (
	StepBranch        Step = "branch"
	StepSourceRef     Step = "source-ref"
	StepCreateBranch  Step = "create-branch"
	StepReadManifest  Step = "read-manifest"
	StepWriteManifest Step = "write-manifest"
	StepPublish       Step = "publish"
)

// StepError tells which package and step failed.
type StepError struct {
	Package string
	Step    Step
	Err     error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("release of %s failed at %s: %v", e.Package, e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// WriteConflictError is returned when the manifest on the maintenance
// branch no longer has the hash it was read with.
type WriteConflictError struct {
	Package  string
	Branch   string
	Path     string
	PriorSHA string
	Err      error
}

func (e *WriteConflictError) Error() string {
	return fmt.Sprintf("%s: %s on %s of %s changed since it was read (%s)",
		ErrOptimisticWriteConflict, e.Path, e.Branch, e.Package, e.PriorSHA)
}

func (e *WriteConflictError) Is(target error) bool {
	return target == ErrOptimisticWriteConflict
}

func (e *WriteConflictError) Unwrap() error {
	return e.Err
}

package train

import (
	"errors"
	"fmt"

	"github.com/grokify/releasetrain/internal/releaser"
	"github.com/grokify/releasetrain/pkg/model"
)

// Phase names a stage of a run.
type Phase string

const (
	PhaseDiscover  Phase = "discover"
	PhaseEvaluate  Phase = "evaluate"
	PhasePropagate Phase = "propagate"
	PhaseOrder     Phase = "order"
	PhaseGate      Phase = "gate"
	PhaseExecute   Phase = "execute"
)

// Error is a failed run. Plan holds whatever was planned before the failure
// and may be nil when discovery itself failed.
type Error struct {
	Phase   Phase
	Package string
	Step    releaser.Step
	Plan    *model.ReleasePlan
	Created []model.CreatedRelease
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Package != "" && e.Step != "":
		return fmt.Sprintf("%s failed at %s of %s: %v", e.Phase, e.Step, e.Package, e.Err)
	case e.Package != "":
		return fmt.Sprintf("%s failed for %s: %v", e.Phase, e.Package, e.Err)
	default:
		return fmt.Sprintf("%s failed: %v", e.Phase, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(phase Phase, plan *model.ReleasePlan, err error) *Error {
	e := &Error{Phase: phase, Plan: plan, Err: err}
	var se *releaser.StepError
	if errors.As(err, &se) {
		e.Package = se.Package
		e.Step = se.Step
	}
	return e
}

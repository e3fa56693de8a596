package policy

import (
	"context"
	"errors"
	"fmt"

	"github.com/grokify/releasetrain/pkg/model"
)

// ErrNothingToRelease is reported when the plan has no releases.
var ErrNothingToRelease = errors.New("no repositories require a release")

// Confirmer asks the operator to approve a plan.
type Confirmer interface {
	Confirm(ctx context.Context, plan *model.ReleasePlan) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, plan *model.ReleasePlan) (bool, error)

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(ctx context.Context, plan *model.ReleasePlan) (bool, error) {
	return f(ctx, plan)
}

// Decision is the outcome of the mutation gate.
type Decision struct {
	Allowed bool        `json:"allowed"`
	Mode    Mode        `json:"mode"`
	Context GateContext `json:"context"`
	Reasons []string    `json:"reasons,omitempty"`
}

// Gate is the single point deciding whether a run may mutate.
type Gate struct {
	mode      Mode
	confirmer Confirmer
}

// NewGate creates a gate. confirmer is required in interactive mode.
func NewGate(mode Mode, confirmer Confirmer) *Gate {
	return &Gate{mode: mode, confirmer: confirmer}
}

// Mode returns the gate's mode.
func (g *Gate) Mode() Mode {
	return g.mode
}

// Evaluate decides whether plan may be executed. Interactive mode asks the
// confirmer exactly once.
func (g *Gate) Evaluate(ctx context.Context, plan *model.ReleasePlan) (*Decision, error) {
	d := &Decision{
		Mode:    g.mode,
		Context: BuildContext(plan),
	}

	if d.Context.Releases == 0 {
		d.Reasons = []string{ErrNothingToRelease.Error()}
		return d, nil
	}

	switch g.mode {
	case ModeSandbox:
		d.Reasons = []string{"sandbox mode"}
	case ModeNonInteractive:
		d.Allowed = true
	case ModeInteractive:
		if g.confirmer == nil {
			return nil, errors.New("interactive mode requires a confirmer")
		}
		ok, err := g.confirmer.Confirm(ctx, plan)
		if err != nil {
			return nil, fmt.Errorf("failed to confirm release: %w", err)
		}
		d.Allowed = ok
		if !ok {
			d.Reasons = []string{"declined by operator"}
		}
	default:
		return nil, fmt.Errorf("unknown mode %q", g.mode)
	}

	return d, nil
}

// Allow reports whether plan may be executed.
func (g *Gate) Allow(ctx context.Context, plan *model.ReleasePlan) (bool, error) {
	d, err := g.Evaluate(ctx, plan)
	if err != nil {
		return false, err
	}
	return d.Allowed, nil
}

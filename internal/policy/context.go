package policy

import (
	"github.com/grokify/releasetrain/pkg/model"
)

// GateContext summarizes a release plan for the mutation gate.
type GateContext struct {
	Root          string   `json:"root"`
	RootVersion   string   `json:"rootVersion,omitempty"`
	Releases      int      `json:"releases"`
	FirstReleases []string `json:"firstReleases,omitempty"`
	Packages      []string `json:"packages"`
}

// BuildContext builds a GateContext from a plan.
func BuildContext(plan *model.ReleasePlan) GateContext {
	ctx := GateContext{
		Root:     plan.Root,
		Releases: len(plan.Releases),
		Packages: []string{},
	}

	if root, ok := plan.RootRelease(); ok {
		ctx.RootVersion = root.Version
	}

	for _, r := range plan.Releases {
		ctx.Packages = append(ctx.Packages, r.Name)
		if r.FirstRelease {
			ctx.FirstReleases = append(ctx.FirstReleases, r.Name)
		}
	}

	return ctx
}

package train

import (
	"time"

	"github.com/grokify/releasetrain/internal/graph"
	"github.com/grokify/releasetrain/internal/version"
	"github.com/grokify/releasetrain/pkg/model"
)

// BuildPlan describes g for output. order lists the release set in
// execution order and may be partial when ordering failed.
func BuildPlan(g *graph.ReleaseGraph, order []string, rt version.ReleaseType) *model.ReleasePlan {
	plan := &model.ReleasePlan{
		Owner:       g.Owner,
		Root:        g.Root,
		SourceRef:   g.SourceRef,
		ReleaseType: string(rt),
		Timestamp:   time.Now().UTC(),
	}

	for _, name := range g.Names() {
		r := g.Repos[name]
		d := model.DiscoveredPackage{
			Name:             r.Name,
			ManifestName:     r.ManifestName,
			RequiredVersions: r.RequiredVersions,
			ResolvedRef:      r.ResolvedRef,
			Dependencies:     r.Dependencies.Names,
			AheadBy:          r.Stats.AheadBy,
		}
		if r.Latest != nil && !r.Latest.NeverReleased {
			d.LatestRelease = r.Latest.Highest
		}
		plan.Discovered = append(plan.Discovered, d)
	}

	for _, name := range order {
		r, ok := g.Get(name)
		if !ok || r.Latest == nil {
			continue
		}
		p := model.PlannedRelease{
			Name:           r.Name,
			ManifestName:   r.ManifestName,
			SourceRef:      r.ResolvedRef,
			Baseline:       r.Stats.Baseline,
			Version:        r.Latest.Next(rt),
			Branch:         r.Latest.BranchFor(rt),
			Reason:         r.ReasonText(),
			AheadBy:        r.Stats.AheadBy,
			FirstRelease:   r.Stats.FirstRelease,
			Files:          r.Stats.Files,
			CommitMessages: r.Stats.Commits,
		}
		for _, dep := range r.Dependencies.Names {
			if g.InReleaseSet(dep) {
				p.DependsOn = append(p.DependsOn, dep)
			}
		}
		plan.Releases = append(plan.Releases, p)
	}

	return plan
}

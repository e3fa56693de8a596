// Package evaluator decides which packages have unreleased changes.
package evaluator

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/grokify/releasetrain/internal/graph"
	"github.com/grokify/releasetrain/internal/hosting"
	"github.com/grokify/releasetrain/internal/version"
	"github.com/grokify/releasetrain/pkg/model"
)

// Evaluator compares each package's resolved ref with its last release.
type Evaluator struct {
	client      hosting.Client
	releaseType version.ReleaseType
	logger      logrus.FieldLogger
}

// Config configures an Evaluator.
type Config struct {
	ReleaseType version.ReleaseType
	Logger      logrus.FieldLogger
}

// New creates an evaluator reading through client.
func New(client hosting.Client, cfg Config) *Evaluator {
	logger := cfg.Logger
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Evaluator{
		client:      client,
		releaseType: cfg.ReleaseType,
		logger:      logger,
	}
}

// Evaluate records how far r's resolved ref is ahead of the release it is
// compared against and reports whether r needs a release. Packages that
// were never released always do.
func (e *Evaluator) Evaluate(ctx context.Context, r *graph.Repository) (bool, error) {
	if r.Refs == nil || r.ResolvedRef == "" {
		return false, fmt.Errorf("%s has not been discovered", r.Name)
	}
	if r.Latest == nil {
		r.Latest = version.ComputeLatest(r.Refs)
	}

	log := e.logger.WithField("package", r.Name)

	if r.Latest.NeverReleased {
		r.Stats = graph.Stats{
			Baseline:     version.FirstReleaseBaseline,
			FirstRelease: true,
			Evaluated:    true,
		}
		log.Debug("never released")
		return true, nil
	}

	baseline := r.Latest.Baseline(e.releaseType)
	if !r.Refs.Has(baseline) {
		// e.g. 1.0.0 was never tagged but 1.1.0 was
		log.WithField("baseline", baseline).Debug("baseline not tagged, comparing with highest release")
		baseline = r.Latest.Highest
	}

	cmp, err := e.client.CompareRefs(ctx, r.Ref(), baseline, r.ResolvedRef)
	if err != nil {
		return false, fmt.Errorf("failed to compare %s...%s in %s: %w", baseline, r.ResolvedRef, r.Name, err)
	}

	r.Stats = statsFrom(baseline, cmp)

	log.WithFields(logrus.Fields{
		"baseline": baseline,
		"ref":      r.ResolvedRef,
		"ahead":    cmp.AheadBy,
		"behind":   cmp.BehindBy,
	}).Debug("compared")

	return cmp.AheadBy > 0, nil
}

// EvaluateAll evaluates every package of g in name order and puts those
// that need a release into the release set. It returns their names.
func (e *Evaluator) EvaluateAll(ctx context.Context, g *graph.ReleaseGraph) ([]string, error) {
	var changed []string
	for _, name := range g.Names() {
		r := g.Repos[name]
		needs, err := e.Evaluate(ctx, r)
		if err != nil {
			return changed, err
		}
		if needs {
			g.AddRelease(name, graph.ReasonChanged, "")
			changed = append(changed, name)
		}
	}
	return changed, nil
}

func statsFrom(baseline string, cmp *model.Comparison) graph.Stats {
	s := graph.Stats{
		Baseline:  baseline,
		AheadBy:   cmp.AheadBy,
		BehindBy:  cmp.BehindBy,
		Evaluated: true,
	}
	for _, f := range cmp.Files {
		s.Files = append(s.Files, FormatFileChange(f))
	}
	s.Commits = append(s.Commits, cmp.CommitMessages...)
	return s
}

// FormatFileChange renders a file change as "status filename -deletions +additions".
func FormatFileChange(f model.FileChange) string {
	return fmt.Sprintf("%s %s -%d +%d", f.Status, f.Filename, f.Deletions, f.Additions)
}

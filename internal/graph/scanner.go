package graph

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/grokify/releasetrain/internal/hosting"
	"github.com/grokify/releasetrain/internal/manifest"
	"github.com/grokify/releasetrain/internal/version"
	"github.com/grokify/releasetrain/pkg/model"
)

// DefaultMaxPasses is the discovery pass ceiling.
const DefaultMaxPasses = 100

// Scanner discovers the dependency graph of a root package by reading
// composer.json manifests.
type Scanner struct {
	client   hosting.Client
	cfg      ScannerConfig
	logger   logrus.FieldLogger
	progress ProgressReporter
}

// ScannerConfig configures discovery.
type ScannerConfig struct {
	// Filter selects the requirements that are part of the train.
	Filter manifest.NameFilter

	// MaxPasses is the discovery pass ceiling. Default is 100.
	MaxPasses int

	// Concurrency bounds parallel manifest reads within a pass.
	// Default is 4.
	Concurrency int

	// Logger receives debug output. Default discards.
	Logger logrus.FieldLogger

	// Progress receives progress events. Optional.
	Progress ProgressReporter
}

// NewScanner creates a scanner reading through client.
func NewScanner(client hosting.Client, cfg ScannerConfig) *Scanner {
	if cfg.MaxPasses <= 0 {
		cfg.MaxPasses = DefaultMaxPasses
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	logger := cfg.Logger
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	progress := cfg.Progress
	if progress == nil {
		progress = NewProgress(ProgressConfig{})
	}
	return &Scanner{
		client:   client,
		cfg:      cfg,
		logger:   logger,
		progress: progress,
	}
}

// scanned is what one manifest read produced.
type scanned struct {
	name       string
	inventory  *version.Inventory
	constraint version.Constraint
	ref        string
	manifest   *manifest.Manifest
}

// Discover builds the graph reachable from root at sourceRef. Passes repeat
// until one discovers no new package.
func (s *Scanner) Discover(ctx context.Context, root model.RepoRef, sourceRef string) (*ReleaseGraph, error) {
	g := NewReleaseGraph(root.Owner, root.Name, sourceRef)
	s.progress.Start(root.Name)

	for pending := g.Undetermined(); len(pending) > 0; pending = g.Undetermined() {
		if g.Passes >= s.cfg.MaxPasses {
			return g, &CycleSuspectedError{Passes: g.Passes, Pending: pending}
		}
		g.Passes++

		log := s.logger.WithField("pass", g.Passes)
		log.WithField("pending", len(pending)).Debug("discovery pass")
		s.progress.StartPass(g.Passes, len(pending))

		results, err := s.scanPass(ctx, g, pending)
		if err != nil {
			return g, err
		}

		added := 0
		for _, res := range results {
			added += s.merge(g, res, log)
		}
		log.WithField("added", added).Debug("discovery pass complete")
	}

	if err := s.validate(g); err != nil {
		return g, err
	}

	s.progress.Complete(g.Stats())
	return g, nil
}

// scanPass reads the manifests of pending in parallel. Results are returned
// in the order of pending.
func (s *Scanner) scanPass(ctx context.Context, g *ReleaseGraph, pending []string) ([]scanned, error) {
	results := make([]scanned, len(pending))

	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(s.cfg.Concurrency)

	for i, name := range pending {
		repo := g.Repos[name]
		constraints := repo.Constraints()
		ref := repo.Ref()
		s.progress.ScanRepo(name)

		eg.Go(func() error {
			res, err := s.scanRepo(ectx, ref, constraints)
			if err != nil {
				s.progress.Error(name, err)
				return err
			}
			results[i] = *res
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// scanRepo resolves the constraint requested for repo and reads its
// manifest at the resolved ref.
func (s *Scanner) scanRepo(ctx context.Context, repo model.RepoRef, constraints []string) (*scanned, error) {
	constraint, err := version.SelectConstraint(repo.Name, constraints)
	if err != nil {
		return nil, err
	}

	inv, err := version.FetchInventory(ctx, s.client, repo)
	if err != nil {
		return nil, err
	}

	ref, err := version.Resolve(repo.Name, constraint, inv)
	if err != nil {
		return nil, err
	}

	res := &scanned{
		name:       repo.Name,
		inventory:  inv,
		constraint: constraint,
		ref:        ref,
	}

	file, err := s.client.GetFile(ctx, repo, ref, manifest.FileName)
	switch {
	case errors.Is(err, hosting.ErrFileNotFound):
		s.logger.WithFields(logrus.Fields{"package": repo.Name, "ref": ref}).
			Warn("no manifest, treating package as a leaf")
		res.manifest = &manifest.Manifest{}
		return res, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read manifest of %s@%s: %w", repo.Name, ref, err)
	}

	m, err := manifest.Parse(file.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest of %s@%s: %w", repo.Name, ref, err)
	}
	res.manifest = m
	return res, nil
}

// merge records a scan result in the graph and returns the number of newly
// discovered packages.
func (s *Scanner) merge(g *ReleaseGraph, res scanned, log logrus.FieldLogger) int {
	repo := g.Repos[res.name]
	repo.Refs = res.inventory
	repo.Latest = version.ComputeLatest(res.inventory)
	repo.Constraint = res.constraint
	repo.ResolvedRef = res.ref
	repo.ManifestName = res.manifest.Name

	deps := DependencySet{Determined: true}
	requires := make(map[string]string)
	added := 0
	for _, req := range res.manifest.Require {
		if !s.cfg.Filter.Match(req.Name) {
			continue
		}
		dep := manifest.RepoName(req.Name)
		if dep == "" || dep == repo.Name {
			continue
		}
		deps.add(dep)
		requires[req.Name] = dep
		if g.Require(dep, req.Constraint, repo.Name) {
			added++
			s.progress.FoundPackage(dep, repo.Name)
			log.WithFields(logrus.Fields{"package": dep, "requester": repo.Name, "constraint": req.Constraint}).
				Debug("discovered package")
		}
	}
	repo.Dependencies = deps
	repo.Requires = requires

	log.WithFields(logrus.Fields{
		"package":      repo.Name,
		"ref":          repo.ResolvedRef,
		"dependencies": deps.Len(),
	}).Debug("manifest read")

	return added
}

// validate checks every constraint set again after convergence. A package
// that gained a requirement after its manifest was read must still resolve
// to the ref it was scanned at.
func (s *Scanner) validate(g *ReleaseGraph) error {
	for _, name := range g.Names() {
		repo := g.Repos[name]
		constraint, err := version.SelectConstraint(name, repo.Constraints())
		if err != nil {
			return err
		}
		if constraint == repo.Constraint {
			continue
		}
		ref, err := version.Resolve(name, constraint, repo.Refs)
		if err != nil {
			return err
		}
		if ref != repo.ResolvedRef {
			return &version.ConflictingConstraintsError{Package: name, Constraints: repo.Constraints()}
		}
	}
	return nil
}

// Package train runs a release train end to end: discover the dependency
// graph, decide what to release, order it, pass the mode gate and execute.
package train

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/grokify/releasetrain/internal/evaluator"
	"github.com/grokify/releasetrain/internal/graph"
	"github.com/grokify/releasetrain/internal/hosting"
	"github.com/grokify/releasetrain/internal/manifest"
	"github.com/grokify/releasetrain/internal/metrics"
	"github.com/grokify/releasetrain/internal/policy"
	"github.com/grokify/releasetrain/internal/releaser"
	"github.com/grokify/releasetrain/internal/version"
	"github.com/grokify/releasetrain/pkg/model"
)

// DefaultSourceRef is the ref the root package is released from.
const DefaultSourceRef = "master"

// Config configures a run.
type Config struct {
	Owner       string
	Package     string
	SourceRef   string
	ReleaseType version.ReleaseType
	Mode        policy.Mode
	Filter      manifest.NameFilter

	MaxPasses   int
	OrderPasses int
	Concurrency int

	CommitMessage string
	Attribution   string

	Logger    logrus.FieldLogger
	Progress  graph.ProgressReporter
	Confirmer policy.Confirmer
	Recorder  *metrics.Recorder

	// OnPlan is called with the finished plan before the gate. Optional.
	OnPlan func(*model.ReleasePlan)

	// Now stamps release notes. Default is time.Now.
	Now func() time.Time
}

// Runner runs release trains against one hosting service.
type Runner struct {
	client hosting.Client
	cfg    Config
	logger logrus.FieldLogger
}

// Planned is the result of the read-only pipeline.
type Planned struct {
	Plan  *model.ReleasePlan
	Graph *graph.ReleaseGraph
	Order []string
}

// New creates a runner. Reads are memoized for the lifetime of the runner
// and every call is recorded when cfg.Recorder is set.
func New(client hosting.Client, cfg Config) *Runner {
	if cfg.SourceRef == "" {
		cfg.SourceRef = DefaultSourceRef
	}
	if cfg.ReleaseType == "" {
		cfg.ReleaseType = version.ReleaseMinor
	}
	if cfg.Mode == "" {
		cfg.Mode = policy.ModeInteractive
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}

	if cfg.Recorder != nil {
		client = metrics.NewClient(client, cfg.Recorder)
	}
	client = hosting.NewCachedClient(client, hosting.NewCache(hosting.CacheConfig{}))

	return &Runner{client: client, cfg: cfg, logger: logger}
}

// Plan runs discovery, evaluation, propagation and ordering. It never
// mutates the hosting service.
func (r *Runner) Plan(ctx context.Context) (*Planned, error) {
	runID := uuid.NewString()
	return r.plan(ctx, runID, r.logger.WithField("run", runID))
}

func (r *Runner) plan(ctx context.Context, runID string, log logrus.FieldLogger) (*Planned, error) {
	root := model.NewRepoRef(r.cfg.Owner, r.cfg.Package)

	var g *graph.ReleaseGraph
	err := r.phase(log, PhaseDiscover, func(log logrus.FieldLogger) error {
		scanner := graph.NewScanner(r.client, graph.ScannerConfig{
			Filter:      r.cfg.Filter,
			MaxPasses:   r.cfg.MaxPasses,
			Concurrency: r.cfg.Concurrency,
			Logger:      log,
			Progress:    r.cfg.Progress,
		})
		var err error
		g, err = scanner.Discover(ctx, root, r.cfg.SourceRef)
		return err
	})
	if err != nil {
		return nil, newError(PhaseDiscover, nil, err)
	}
	if r.cfg.Recorder != nil {
		r.cfg.Recorder.SetGraph(len(g.Repos), g.Passes)
	}

	err = r.phase(log, PhaseEvaluate, func(log logrus.FieldLogger) error {
		ev := evaluator.New(r.client, evaluator.Config{ReleaseType: r.cfg.ReleaseType, Logger: log})
		changed, err := ev.EvaluateAll(ctx, g)
		log.WithField("changed", len(changed)).Info("evaluated")
		return err
	})
	if err != nil {
		return nil, newError(PhaseEvaluate, r.describe(runID, g, nil), err)
	}

	r.phase(log, PhasePropagate, func(log logrus.FieldLogger) error {
		added := graph.Propagate(g)
		log.WithFields(logrus.Fields{"added": added, "releases": len(g.ReleaseSet)}).Info("propagated")
		return nil
	})

	var order []string
	err = r.phase(log, PhaseOrder, func(log logrus.FieldLogger) error {
		var err error
		order, err = graph.Order(g, graph.OrderConfig{MaxPasses: r.cfg.OrderPasses})
		return err
	})
	if err != nil {
		var ue *graph.UnorderableError
		var partial []string
		if errors.As(err, &ue) {
			partial = ue.Ordered
		}
		return nil, newError(PhaseOrder, r.describe(runID, g, partial), err)
	}

	if r.cfg.Recorder != nil {
		r.cfg.Recorder.SetReleaseSet(len(order))
	}
	return &Planned{Plan: r.describe(runID, g, order), Graph: g, Order: order}, nil
}

func (r *Runner) describe(runID string, g *graph.ReleaseGraph, order []string) *model.ReleasePlan {
	plan := BuildPlan(g, order, r.cfg.ReleaseType)
	plan.RunID = runID
	plan.Mode = string(r.cfg.Mode)
	return plan
}

// Run plans the train and, if the gate allows it, executes it. A plan with
// nothing to release is a successful run that executes nothing.
func (r *Runner) Run(ctx context.Context) (result *model.ReleaseResult, err error) {
	start := time.Now()
	runID := uuid.NewString()
	log := r.logger.WithFields(logrus.Fields{
		"run":     runID,
		"package": r.cfg.Package,
	})

	defer func() {
		if r.cfg.Recorder != nil {
			r.cfg.Recorder.Finish(time.Now(), err)
		}
		if err != nil {
			log.WithError(err).Error("release train failed")
		}
	}()

	planned, err := r.plan(ctx, runID, log)
	if err != nil {
		return nil, err
	}
	plan := planned.Plan

	if r.cfg.OnPlan != nil {
		r.cfg.OnPlan(plan)
	}

	result = &model.ReleaseResult{Plan: plan}

	if len(plan.Releases) == 0 {
		log.Info(policy.ErrNothingToRelease.Error())
		result.Duration = time.Since(start)
		return result, nil
	}

	var decision *policy.Decision
	err = r.phase(log, PhaseGate, func(log logrus.FieldLogger) error {
		var err error
		decision, err = policy.NewGate(r.cfg.Mode, r.cfg.Confirmer).Evaluate(ctx, plan)
		if err == nil {
			log.WithFields(logrus.Fields{"allowed": decision.Allowed, "mode": decision.Mode}).Info("gate decided")
		}
		return err
	})
	if err != nil {
		return nil, newError(PhaseGate, plan, err)
	}
	if !decision.Allowed {
		result.Duration = time.Since(start)
		return result, nil
	}

	var created []model.CreatedRelease
	err = r.phase(log, PhaseExecute, func(log logrus.FieldLogger) error {
		rel := releaser.New(r.client, releaser.Options{
			ReleaseType:   r.cfg.ReleaseType,
			CommitMessage: r.cfg.CommitMessage,
			Attribution:   r.cfg.Attribution,
			Logger:        log,
			Now:           r.cfg.Now,
		})
		var err error
		created, err = rel.Execute(ctx, planned.Graph, planned.Order)
		return err
	})
	if err != nil {
		te := newError(PhaseExecute, plan, err)
		te.Created = created
		return nil, te
	}

	result.Executed = true
	result.Created = created
	result.CreatedCount = len(created)
	result.Duration = time.Since(start)
	return result, nil
}

// phase runs fn with a phase-scoped logger and records its duration.
func (r *Runner) phase(log logrus.FieldLogger, p Phase, fn func(logrus.FieldLogger) error) error {
	start := time.Now()
	plog := log.WithField("phase", string(p))
	plog.Debug("phase started")

	err := fn(plog)

	if r.cfg.Recorder != nil {
		r.cfg.Recorder.ObservePhase(string(p), time.Since(start))
	}
	if err == nil {
		plog.WithField("duration", time.Since(start).Round(time.Millisecond)).Debug("phase finished")
	}
	return err
}

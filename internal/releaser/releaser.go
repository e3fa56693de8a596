// Package releaser performs the release mechanics for an ordered release
// train: maintenance branch, manifest rewrite and release publication.
package releaser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grokify/releasetrain/internal/graph"
	"github.com/grokify/releasetrain/internal/hosting"
	"github.com/grokify/releasetrain/internal/manifest"
	"github.com/grokify/releasetrain/internal/version"
	"github.com/grokify/releasetrain/pkg/model"
)

// DefaultCommitMessage is the message of manifest rewrite commits.
const DefaultCommitMessage = "Releaser changed composer.json dependencies"

// Options configures release behavior.
type Options struct {
	ReleaseType   version.ReleaseType
	CommitMessage string
	Attribution   string
	Logger        logrus.FieldLogger

	// Now stamps release notes. Default is time.Now.
	Now func() time.Time

	// OnRelease is called after each package is released. Optional.
	OnRelease func(model.CreatedRelease)
}

// Releaser walks an ordered release set and releases each package.
type Releaser struct {
	client hosting.Client
	opts   Options
	logger logrus.FieldLogger
}

// New creates a releaser writing through client.
func New(client hosting.Client, opts Options) *Releaser {
	if opts.CommitMessage == "" {
		opts.CommitMessage = DefaultCommitMessage
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Releaser{client: client, opts: opts, logger: logger}
}

// Execute releases the packages of order one after the other. Every
// package's release set dependencies must come before it. The first
// failure stops the run; releases created so far are returned with it.
func (r *Releaser) Execute(ctx context.Context, g *graph.ReleaseGraph, order []string) ([]model.CreatedRelease, error) {
	created := make([]model.CreatedRelease, 0, len(order))
	for _, name := range order {
		repo, ok := g.Get(name)
		if !ok {
			return created, &StepError{Package: name, Step: StepBranch, Err: fmt.Errorf("%s is not in the graph", name)}
		}
		rel, err := r.Release(ctx, g, repo)
		if err != nil {
			return created, err
		}
		created = append(created, *rel)
		if r.opts.OnRelease != nil {
			r.opts.OnRelease(*rel)
		}
	}
	return created, nil
}

// Release releases one package. It is safe to call again after a partial
// failure: an existing branch, an already rewritten manifest and an
// already published tag are all accepted.
func (r *Releaser) Release(ctx context.Context, g *graph.ReleaseGraph, repo *graph.Repository) (*model.CreatedRelease, error) {
	if repo.Latest == nil {
		return nil, &StepError{Package: repo.Name, Step: StepBranch, Err: errors.New("package was not evaluated")}
	}

	rt := r.opts.ReleaseType
	ref := repo.Ref()
	branch := repo.Latest.BranchFor(rt)
	tag := repo.Latest.Next(rt)

	log := r.logger.WithFields(logrus.Fields{"package": repo.Name, "branch": branch, "version": tag})

	rel := &model.CreatedRelease{
		Repo:            ref,
		Version:         tag,
		PreviousVersion: repo.Stats.Baseline,
		Branch:          branch,
	}

	created, err := r.ensureBranch(ctx, repo, branch)
	if err != nil {
		return nil, err
	}
	rel.BranchCreated = created
	log.WithField("created", created).Debug("maintenance branch ready")

	updated, err := r.rewriteManifest(ctx, g, repo, branch)
	if err != nil {
		return nil, err
	}
	rel.ManifestUpdated = updated
	log.WithField("updated", updated).Debug("manifest ready")

	notes := Notes(NotesData{
		Tag:         tag,
		Branch:      branch,
		Stats:       repo.Stats,
		Reason:      reasonLine(repo),
		Attribution: r.opts.Attribution,
		Time:        r.opts.Now(),
	})
	published, err := r.client.CreateRelease(ctx, model.NewReleaseRequest(ref, tag, branch, notes))
	switch {
	case errors.Is(err, hosting.ErrAlreadyExists):
		rel.AlreadyPublished = true
		log.Info("release already published")
	case err != nil:
		return nil, &StepError{Package: repo.Name, Step: StepPublish, Err: err}
	default:
		rel.ReleaseURL = published.HTMLURL
		log.Info("released")
	}

	return rel, nil
}

// ensureBranch creates the maintenance branch at the package's resolved ref
// unless it exists. It reports whether the branch was created.
func (r *Releaser) ensureBranch(ctx context.Context, repo *graph.Repository, branch string) (bool, error) {
	ref := repo.Ref()

	_, err := r.client.GetRefSHA(ctx, ref, branch)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, hosting.ErrRefNotFound):
		return false, &StepError{Package: repo.Name, Step: StepBranch, Err: err}
	}

	sha, err := r.client.GetRefSHA(ctx, ref, repo.ResolvedRef)
	if err != nil {
		return false, &StepError{Package: repo.Name, Step: StepSourceRef, Err: err}
	}

	err = r.client.CreateBranch(ctx, ref, branch, sha)
	switch {
	case errors.Is(err, hosting.ErrAlreadyExists):
		return false, nil
	case err != nil:
		return false, &StepError{Package: repo.Name, Step: StepCreateBranch, Err: err}
	}
	return true, nil
}

// rewriteManifest points every requirement on a release set member at the
// member's next version. It reports whether a new manifest was written.
func (r *Releaser) rewriteManifest(ctx context.Context, g *graph.ReleaseGraph, repo *graph.Repository, branch string) (bool, error) {
	ref := repo.Ref()

	file, err := r.client.GetFile(ctx, ref, branch, manifest.FileName)
	switch {
	case errors.Is(err, hosting.ErrFileNotFound):
		r.logger.WithField("package", repo.Name).Warn("no manifest on maintenance branch")
		return false, nil
	case err != nil:
		return false, &StepError{Package: repo.Name, Step: StepReadManifest, Err: err}
	}

	m, err := manifest.Parse(file.Content)
	if err != nil {
		return false, &StepError{Package: repo.Name, Step: StepReadManifest, Err: err}
	}

	versions := NextVersions(g, repo.Name, m, r.opts.ReleaseType)
	content, changed, err := manifest.Rewrite(file.Content, versions)
	if err != nil {
		return false, &StepError{Package: repo.Name, Step: StepReadManifest, Err: err}
	}
	if !changed {
		return false, nil
	}

	err = r.client.UpdateFile(ctx, &model.FileUpdate{
		Repo:     ref,
		Path:     manifest.FileName,
		Branch:   branch,
		Message:  r.opts.CommitMessage,
		Content:  content,
		PriorSHA: file.SHA,
	})
	if errors.Is(err, hosting.ErrConflictingHash) {
		err = &WriteConflictError{
			Package:  repo.Name,
			Branch:   branch,
			Path:     manifest.FileName,
			PriorSHA: file.SHA,
			Err:      err,
		}
	}
	if err != nil {
		return false, &StepError{Package: repo.Name, Step: StepWriteManifest, Err: err}
	}
	return true, nil
}

// NextVersions maps each requirement of m that self followed during
// discovery and that names a release set member to that member's next
// version. Requirements outside the train keep their constraint even when
// their repository name matches a member.
func NextVersions(g *graph.ReleaseGraph, self string, m *manifest.Manifest, rt version.ReleaseType) map[string]string {
	versions := make(map[string]string)
	repo, ok := g.Get(self)
	if !ok {
		return versions
	}
	for _, req := range m.Require {
		dep, followed := repo.Requires[req.Name]
		if !followed || dep == self || !g.InReleaseSet(dep) {
			continue
		}
		if d, ok := g.Get(dep); ok && d.Latest != nil {
			versions[req.Name] = d.Latest.Next(rt)
		}
	}
	return versions
}

func reasonLine(repo *graph.Repository) string {
	if repo.Reason == graph.ReasonChanged {
		return ""
	}
	if text := repo.ReasonText(); text != "" {
		return strings.ToUpper(text[:1]) + text[1:] + "."
	}
	return ""
}

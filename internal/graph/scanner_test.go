package graph

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grokify/releasetrain/internal/hosting"
	"github.com/grokify/releasetrain/internal/hosting/hostingtest"
	"github.com/grokify/releasetrain/internal/manifest"
	"github.com/grokify/releasetrain/internal/version"
	"github.com/grokify/releasetrain/pkg/model"
)

// chainServer serves a -> b -> c, each required as dev-master. Platform
// requirements are never followed.
func chainServer() *hostingtest.Server {
	srv := hostingtest.New("acme")
	srv.Repo("a").WithBranch("master").WithManifest("master",
		`{"name": "acme/a", "require": {"php": ">=8.1", "acme/b": "dev-master"}}`)
	srv.Repo("b").WithRelease("1.0.0").WithBranch("master").WithManifest("master",
		`{"name": "acme/b", "require": {"acme/c": "dev-master"}}`)
	srv.Repo("c").WithRelease("2.3.0").WithBranch("master").WithManifest("master",
		`{"name": "acme/c", "require": {"php": ">=8.1"}}`)
	return srv
}

func TestScanner_Discover(t *testing.T) {
	srv := chainServer()
	s := NewScanner(srv, ScannerConfig{Filter: manifest.NameFilter{Allow: []string{"acme/"}}})

	g, err := s.Discover(context.Background(), model.RepoRef{Owner: "acme", Name: "a"}, "master")
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, g.Names())
	assert.LessOrEqual(t, g.Passes, 3)

	assert.Equal(t, []string{"b"}, g.Repos["a"].Dependencies.Names)
	assert.Equal(t, []string{"c"}, g.Repos["b"].Dependencies.Names)
	assert.True(t, g.Repos["c"].Dependencies.Determined)
	assert.Zero(t, g.Repos["c"].Dependencies.Len())

	b := g.Repos["b"]
	assert.Equal(t, "acme/b", b.ManifestName)
	assert.Equal(t, "master", b.ResolvedRef)
	assert.Equal(t, version.Constraint("dev-master"), b.Constraint)
	assert.Equal(t, []string{"a"}, b.RequiredVersions["dev-master"])
	require.NotNil(t, b.Latest)
	assert.Equal(t, "1.1.0", b.Latest.NextMinor)

	assert.Equal(t, []string{RootRequester}, g.Repos["a"].RequiredVersions["master"])
	assert.Empty(t, g.Validate())
}

func TestScanner_Discover_Idempotent(t *testing.T) {
	srv := chainServer()
	s := NewScanner(srv, ScannerConfig{})
	root := model.RepoRef{Owner: "acme", Name: "a"}

	first, err := s.Discover(context.Background(), root, "master")
	require.NoError(t, err)
	second, err := s.Discover(context.Background(), root, "master")
	require.NoError(t, err)

	require.Equal(t, first.Names(), second.Names())
	for _, name := range first.Names() {
		assert.Equal(t, first.Repos[name].Dependencies, second.Repos[name].Dependencies, name)
		assert.Equal(t, first.Repos[name].RequiredVersions, second.Repos[name].RequiredVersions, name)
	}
}

func TestScanner_Discover_Filter(t *testing.T) {
	srv := hostingtest.New("acme")
	srv.Repo("app").WithBranch("master").WithManifest("master", `{
		"name": "acme/app",
		"require": {
			"php": ">=8.1",
			"ext-json": "*",
			"acme/lib": "dev-master",
			"acme/legacy": "dev-master",
			"monolog/monolog": "^3.0"
		}
	}`)
	srv.Repo("lib").WithBranch("master").WithManifest("master", `{"name": "acme/lib"}`)

	s := NewScanner(srv, ScannerConfig{Filter: manifest.NameFilter{
		Allow: []string{"lib", "legacy"},
		Deny:  []string{"legacy"},
	}})

	g, err := s.Discover(context.Background(), model.RepoRef{Owner: "acme", Name: "app"}, "master")
	require.NoError(t, err)
	assert.Equal(t, []string{"app", "lib"}, g.Names())
}

func TestScanner_Discover_MissingManifest(t *testing.T) {
	srv := hostingtest.New("acme")
	srv.Repo("app").WithBranch("master").WithManifest("master",
		`{"name": "acme/app", "require": {"acme/assets": "dev-master"}}`)
	srv.Repo("assets").WithBranch("master")

	g, err := NewScanner(srv, ScannerConfig{}).Discover(context.Background(), model.RepoRef{Owner: "acme", Name: "app"}, "master")
	require.NoError(t, err)

	assets := g.Repos["assets"]
	assert.True(t, assets.Dependencies.Determined)
	assert.Zero(t, assets.Dependencies.Len())
}

func TestScanner_Discover_ResolvesVersionRanges(t *testing.T) {
	srv := hostingtest.New("acme")
	srv.Repo("app").WithBranch("master").WithManifest("master",
		`{"name": "acme/app", "require": {"acme/lib": "1.2.*"}}`)
	srv.Repo("lib").
		WithRelease("1.2.0").
		WithRelease("1.2.1").
		WithRelease("1.3.0").
		WithBranch("master").
		WithManifest("1.2.1", `{"name": "acme/lib", "require": {"acme/util": "*"}}`)
	srv.Repo("util").WithRelease("0.9.0").WithManifest("0.9.0", `{"name": "acme/util"}`)

	g, err := NewScanner(srv, ScannerConfig{}).Discover(context.Background(), model.RepoRef{Owner: "acme", Name: "app"}, "master")
	require.NoError(t, err)

	assert.Equal(t, "1.2.1", g.Repos["lib"].ResolvedRef)
	assert.Equal(t, "0.9.0", g.Repos["util"].ResolvedRef)
	assert.Equal(t, version.Wildcard, g.Repos["util"].Constraint)
}

func TestScanner_Discover_Unresolvable(t *testing.T) {
	srv := hostingtest.New("acme")
	srv.Repo("app").WithBranch("master").WithManifest("master",
		`{"name": "acme/app", "require": {"acme/lib": "^2.0"}}`)
	srv.Repo("lib").WithRelease("1.4.0").WithBranch("master")

	_, err := NewScanner(srv, ScannerConfig{}).Discover(context.Background(), model.RepoRef{Owner: "acme", Name: "app"}, "master")
	require.ErrorIs(t, err, version.ErrUnresolvableConstraint)

	var ue *version.UnresolvableConstraintError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "lib", ue.Package)
	assert.Equal(t, version.Constraint("^2.0"), ue.Constraint)
}

func TestScanner_Discover_ConflictFromLaterRequester(t *testing.T) {
	srv := hostingtest.New("acme")
	srv.Repo("app").WithBranch("master").WithManifest("master",
		`{"name": "acme/app", "require": {"acme/lib": "1.2.*", "acme/util": "dev-master"}}`)
	srv.Repo("util").WithBranch("master").WithManifest("master",
		`{"name": "acme/util", "require": {"acme/lib": "dev-master"}}`)
	srv.Repo("lib").WithRelease("1.2.0").WithBranch("master").
		WithManifest("1.2.0", `{"name": "acme/lib"}`).
		WithManifest("master", `{"name": "acme/lib"}`)

	_, err := NewScanner(srv, ScannerConfig{}).Discover(context.Background(), model.RepoRef{Owner: "acme", Name: "app"}, "master")
	require.ErrorIs(t, err, version.ErrConflictingConstraints)

	var ce *version.ConflictingConstraintsError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "lib", ce.Package)
}

func TestScanner_Discover_PassCeiling(t *testing.T) {
	s := NewScanner(chainServer(), ScannerConfig{MaxPasses: 2})

	_, err := s.Discover(context.Background(), model.RepoRef{Owner: "acme", Name: "a"}, "master")
	require.ErrorIs(t, err, ErrDependencyCycleSuspected)

	var ce *CycleSuspectedError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 2, ce.Passes)
	assert.Equal(t, []string{"c"}, ce.Pending)
}

func TestScanner_Discover_TransportFailure(t *testing.T) {
	srv := chainServer()
	srv.FailOn("GetFile", "b", &hosting.TransportError{Op: "GetFile", Repo: "acme/b", Err: errors.New("502 Bad Gateway")})

	var mu sync.Mutex
	var events []ProgressEventType
	progress := NewCallbackProgress(func(e ProgressEvent) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e.Type)
	})

	_, err := NewScanner(srv, ScannerConfig{Progress: progress}).
		Discover(context.Background(), model.RepoRef{Owner: "acme", Name: "a"}, "master")
	require.ErrorIs(t, err, hosting.ErrTransport)
	assert.Contains(t, err.Error(), "b@master")
	assert.Contains(t, events, ProgressEventError)
	assert.NotContains(t, events, ProgressEventComplete)
}

func TestScanner_Discover_ProgressEvents(t *testing.T) {
	var events []ProgressEvent
	progress := NewCallbackProgress(func(e ProgressEvent) {
		events = append(events, e)
	})

	_, err := NewScanner(chainServer(), ScannerConfig{Progress: progress, Concurrency: 1}).
		Discover(context.Background(), model.RepoRef{Owner: "acme", Name: "a"}, "master")
	require.NoError(t, err)

	require.NotEmpty(t, events)
	assert.Equal(t, ProgressEventStart, events[0].Type)
	assert.Equal(t, ProgressEventComplete, events[len(events)-1].Type)
	assert.Equal(t, 3, events[len(events)-1].Total)

	var found []string
	for _, e := range events {
		if e.Type == ProgressEventPackage {
			found = append(found, e.Repo)
		}
	}
	assert.Equal(t, []string{"b", "c"}, found)
}

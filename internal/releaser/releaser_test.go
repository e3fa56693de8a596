package releaser

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grokify/releasetrain/internal/evaluator"
	"github.com/grokify/releasetrain/internal/graph"
	"github.com/grokify/releasetrain/internal/hosting"
	"github.com/grokify/releasetrain/internal/hosting/hostingtest"
	"github.com/grokify/releasetrain/internal/manifest"
	"github.com/grokify/releasetrain/internal/version"
	"github.com/grokify/releasetrain/pkg/model"
)

const appManifest = `{
    "name": "acme/app",
    "require": {
        "php": ">=8.1",
        "acme/lib": "dev-master",
        "monolog/monolog": "^3.0"
    }
}
`

func fixedNow() time.Time {
	return time.Date(2026, 3, 2, 15, 4, 0, 0, time.UTC)
}

func trainServer() *hostingtest.Server {
	srv := hostingtest.New("acme")
	srv.Repo("app").
		WithRelease("2.0.0").
		WithBranch("master").
		WithManifest("master", appManifest)
	srv.Repo("lib").
		WithRelease("1.4.0").
		WithBranch("master").
		WithManifest("master", `{"name": "acme/lib"}`).
		WithComparison("1.4.0", "master", model.Comparison{
			AheadBy:        3,
			Files:          []model.FileChange{{Status: "modified", Filename: "src/Lib.php", Additions: 5, Deletions: 2}},
			CommitMessages: []string{"Add feature"},
		})
	return srv
}

// plan runs the read pipeline and returns the graph and order.
func plan(t *testing.T, srv *hostingtest.Server) (*graph.ReleaseGraph, []string) {
	t.Helper()
	return planWith(t, srv, manifest.NameFilter{Allow: []string{"lib"}})
}

func planWith(t *testing.T, srv *hostingtest.Server, filter manifest.NameFilter) (*graph.ReleaseGraph, []string) {
	t.Helper()
	ctx := context.Background()

	s := graph.NewScanner(srv, graph.ScannerConfig{Filter: filter})
	g, err := s.Discover(ctx, model.RepoRef{Owner: "acme", Name: "app"}, "master")
	require.NoError(t, err)

	_, err = evaluator.New(srv, evaluator.Config{ReleaseType: version.ReleaseMinor}).EvaluateAll(ctx, g)
	require.NoError(t, err)
	graph.Propagate(g)

	order, err := graph.Order(g, graph.OrderConfig{})
	require.NoError(t, err)
	return g, order
}

func newReleaser(srv hosting.Client) *Releaser {
	return New(srv, Options{ReleaseType: version.ReleaseMinor, Now: fixedNow})
}

func TestReleaser_Execute(t *testing.T) {
	srv := trainServer()
	g, order := plan(t, srv)
	require.Equal(t, []string{"lib", "app"}, order)

	created, err := newReleaser(srv).Execute(context.Background(), g, order)
	require.NoError(t, err)
	require.Len(t, created, 2)

	lib := created[0]
	assert.Equal(t, "1.5.0", lib.Version)
	assert.Equal(t, "1.4.0", lib.PreviousVersion)
	assert.Equal(t, "1.5.x", lib.Branch)
	assert.True(t, lib.BranchCreated)
	assert.False(t, lib.ManifestUpdated)

	app := created[1]
	assert.Equal(t, "2.1.0", app.Version)
	assert.Equal(t, "2.1.x", app.Branch)
	assert.True(t, app.ManifestUpdated)

	manifestOnBranch, ok := srv.Repo("app").File("2.1.x", "composer.json")
	require.True(t, ok)
	assert.Equal(t, strings.Replace(appManifest, `"acme/lib": "dev-master"`, `"acme/lib": "1.5.0"`, 1), manifestOnBranch)

	trunk, _ := srv.Repo("app").File("master", "composer.json")
	assert.Equal(t, appManifest, trunk, "source branch must stay untouched")

	assert.Equal(t, []string{
		"CreateBranch lib 1.5.x",
		"CreateRelease lib 1.5.0",
		"CreateBranch app 2.1.x",
		"UpdateFile app 2.1.x composer.json",
		"CreateRelease app 2.1.0",
	}, srv.Calls())

	releases := srv.Repo("lib").Releases()
	published := releases[len(releases)-1]
	assert.Equal(t, "1.5.0", published.TagName)
	assert.Equal(t, "1.5.0", published.Name)
	assert.False(t, published.Draft)
	assert.False(t, published.Prerelease)
	assert.True(t, strings.HasPrefix(published.Body, "`1.5.0 from 1.5.x branch with 3 commits`"))
	assert.Contains(t, published.Body, "modified src/Lib.php -2 +5")
	assert.Contains(t, published.Body, "Add feature")
}

func TestReleaser_Execute_KeepsFilteredNamesake(t *testing.T) {
	const consoleApp = `{
    "name": "acme/app",
    "require": {
        "acme/console": "dev-master",
        "symfony/console": "^6.0"
    }
}
`
	srv := hostingtest.New("acme")
	srv.Repo("app").
		WithRelease("2.0.0").
		WithBranch("master").
		WithManifest("master", consoleApp)
	srv.Repo("console").
		WithRelease("1.4.0").
		WithBranch("master").
		WithManifest("master", `{"name": "acme/console"}`).
		WithComparison("1.4.0", "master", model.Comparison{AheadBy: 3})

	g, order := planWith(t, srv, manifest.NameFilter{Allow: []string{"acme/"}})
	require.Equal(t, []string{"console", "app"}, order)

	_, err := newReleaser(srv).Execute(context.Background(), g, order)
	require.NoError(t, err)

	got, ok := srv.Repo("app").File("2.1.x", "composer.json")
	require.True(t, ok)
	assert.Contains(t, got, `"acme/console": "1.5.0"`)
	assert.Contains(t, got, `"symfony/console": "^6.0"`)
}

func TestReleaser_Execute_Idempotent(t *testing.T) {
	srv := trainServer()
	g, order := plan(t, srv)

	_, err := newReleaser(srv).Execute(context.Background(), g, order)
	require.NoError(t, err)
	callsAfterFirst := len(srv.Calls())

	again, err := newReleaser(srv).Execute(context.Background(), g, order)
	require.NoError(t, err)
	require.Len(t, again, 2)

	for _, rel := range again {
		assert.False(t, rel.BranchCreated, rel.Repo.Name)
		assert.False(t, rel.ManifestUpdated, rel.Repo.Name)
		assert.True(t, rel.AlreadyPublished, rel.Repo.Name)
	}

	assert.Equal(t, []string{"CreateRelease lib 1.5.0", "CreateRelease app 2.1.0"}, srv.Calls()[callsAfterFirst:])
	assert.Len(t, srv.Repo("lib").Releases(), 2)
	assert.Len(t, srv.Repo("app").Releases(), 2)
}

func TestReleaser_Release_ExistingBranch(t *testing.T) {
	srv := trainServer()
	srv.Repo("lib").WithBranch("1.5.x")
	g, _ := plan(t, srv)

	rel, err := newReleaser(srv).Release(context.Background(), g, g.Repos["lib"])
	require.NoError(t, err)

	assert.False(t, rel.BranchCreated)
	assert.Equal(t, []string{"CreateRelease lib 1.5.0"}, srv.Calls())
}

// staleRefs reports one ref as missing although it exists, as when another
// run creates the branch between the lookup and the create.
type staleRefs struct {
	hosting.Client
	stale string
}

func (s staleRefs) GetRefSHA(ctx context.Context, repo model.RepoRef, ref string) (string, error) {
	if ref == s.stale {
		return "", fmt.Errorf("%s: %w", ref, hosting.ErrRefNotFound)
	}
	return s.Client.GetRefSHA(ctx, repo, ref)
}

func TestReleaser_Release_CreateBranchRace(t *testing.T) {
	srv := trainServer()
	g, _ := plan(t, srv)
	srv.Repo("lib").WithBranch("1.5.x")

	rel, err := newReleaser(staleRefs{Client: srv, stale: "1.5.x"}).Release(context.Background(), g, g.Repos["lib"])
	require.NoError(t, err)
	assert.False(t, rel.BranchCreated)
	assert.Equal(t, []string{"CreateBranch lib 1.5.x", "CreateRelease lib 1.5.0"}, srv.Calls())
}

func TestReleaser_Release_WriteConflict(t *testing.T) {
	srv := trainServer()
	g, order := plan(t, srv)
	srv.FailOn("UpdateFile", "app", fmt.Errorf("composer.json does not match: %w", hosting.ErrConflictingHash))

	created, err := newReleaser(srv).Execute(context.Background(), g, order)
	require.ErrorIs(t, err, ErrOptimisticWriteConflict)
	assert.Len(t, created, 1, "lib was released before app failed")

	var se *StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "app", se.Package)
	assert.Equal(t, StepWriteManifest, se.Step)

	var wc *WriteConflictError
	require.ErrorAs(t, err, &wc)
	assert.Equal(t, "2.1.x", wc.Branch)
	assert.NotEmpty(t, wc.PriorSHA)

	assert.Len(t, srv.Repo("app").Releases(), 1, "app must not be published")
}

func TestReleaser_Release_SourceRefMissing(t *testing.T) {
	srv := trainServer()
	g, _ := plan(t, srv)
	g.Repos["lib"].ResolvedRef = "gone"

	_, err := newReleaser(srv).Release(context.Background(), g, g.Repos["lib"])
	require.ErrorIs(t, err, hosting.ErrRefNotFound)

	var se *StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StepSourceRef, se.Step)
}

func TestReleaser_Release_PublishFailure(t *testing.T) {
	srv := trainServer()
	g, _ := plan(t, srv)
	srv.FailOn("CreateRelease", "lib", &hosting.TransportError{Op: "CreateRelease", Repo: "acme/lib", Err: fmt.Errorf("500")})

	_, err := newReleaser(srv).Release(context.Background(), g, g.Repos["lib"])
	require.ErrorIs(t, err, hosting.ErrTransport)

	var se *StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StepPublish, se.Step)
}

func TestNextVersions(t *testing.T) {
	srv := trainServer()
	g, _ := plan(t, srv)

	m, err := manifest.Parse([]byte(appManifest))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"acme/lib": "1.5.0"}, NextVersions(g, "app", m, version.ReleaseMinor))
	assert.Equal(t, map[string]string{"acme/lib": "2.0.0"}, NextVersions(g, "app", m, version.ReleaseMajor))

	other, err := manifest.Parse([]byte(`{"require": {"acme/lib": "dev-master", "vendor/lib": "^1.0"}}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"acme/lib": "1.5.0"}, NextVersions(g, "app", other, version.ReleaseMinor))
	assert.Empty(t, NextVersions(g, "unknown", other, version.ReleaseMinor))
}

func TestNotes(t *testing.T) {
	body := Notes(NotesData{
		Tag:    "1.5.0",
		Branch: "1.5.x",
		Stats: graph.Stats{
			AheadBy: 2,
			Files:   []string{"modified a.php -1 +1"},
			Commits: []string{"Fix a", "Fix b"},
		},
		Time: fixedNow(),
	})

	want := "`1.5.0 from 1.5.x branch with 2 commits`" +
		"\n\n### File changes:\n* modified a.php -1 +1" +
		"\n\n### Commits:\n* Fix a\n* Fix b" +
		"\n\n" + DefaultAttribution + " @ Mon Mar 02, 2026 15:04 UTC"
	assert.Equal(t, want, body)
}

func TestNotes_DependencyRelease(t *testing.T) {
	body := Notes(NotesData{Tag: "2.1.0", Branch: "2.1.x", Reason: "Needs a new release because lib is released.", Time: fixedNow()})

	assert.Contains(t, body, "with 0 commits")
	assert.Contains(t, body, "Needs a new release because lib is released.")
	assert.Contains(t, body, "### File changes:\nnone")
}

package report

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/grokify/releasetrain/pkg/model"
)

func testPlan() *model.ReleasePlan {
	return &model.ReleasePlan{
		RunID:       "run-1",
		Timestamp:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Owner:       "acme",
		Root:        "app",
		SourceRef:   "master",
		ReleaseType: "minor",
		Mode:        "sandbox",
		Discovered: []model.DiscoveredPackage{
			{Name: "app", ResolvedRef: "master", RequiredVersions: map[string][]string{"master": {"(root)"}}, Dependencies: []string{"lib"}},
			{Name: "lib", ResolvedRef: "master", RequiredVersions: map[string][]string{"dev-master": {"app"}}, LatestRelease: "1.4.0", AheadBy: 3},
		},
		Releases: []model.PlannedRelease{
			{Name: "lib", Baseline: "1.4.0", Version: "1.5.0", Branch: "1.5.x", AheadBy: 3, Reason: "needs a new release because it is 3 commits ahead of 1.4.0"},
			{Name: "app", Baseline: "2.0.0", Version: "2.1.0", Branch: "2.1.x", Reason: "needs a new release because it is the main repository", DependsOn: []string{"lib"}},
		},
	}
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "New ROOT app 2.1.0 to be released, depending on 1 new: lib 1.5.0", Summary(testPlan()))

	rootOnly := testPlan()
	rootOnly.Releases = rootOnly.Releases[1:]
	assert.Equal(t, "New ROOT app 2.1.0 to be released", Summary(rootOnly))

	empty := testPlan()
	empty.Releases = nil
	assert.Equal(t, "No repositories require a release", Summary(empty))
}

func TestNewFormatter(t *testing.T) {
	for _, name := range append(Formats, "", "md", "yml") {
		f, err := NewFormatter(name)
		require.NoError(t, err, name)
		require.NotNil(t, f, name)
	}
	_, err := NewFormatter("xml")
	assert.Error(t, err)
}

func TestTableFormatter_Plan(t *testing.T) {
	out, err := NewTableFormatter().FormatPlan(testPlan())
	require.NoError(t, err)

	assert.Contains(t, out, "Root: acme/app @ master | Type: minor | Mode: sandbox")
	assert.Contains(t, out, "dev-master")
	assert.Contains(t, out, "required by app")
	assert.Contains(t, out, "1.5.x")
	assert.Contains(t, out, "depending on 1 new")
}

func TestTableFormatter_Result(t *testing.T) {
	result := &model.ReleaseResult{
		Plan:     testPlan(),
		Executed: true,
		Created: []model.CreatedRelease{
			{Repo: model.RepoRef{Owner: "acme", Name: "lib"}, PreviousVersion: "1.4.0", Version: "1.5.0", Branch: "1.5.x"},
			{Repo: model.RepoRef{Owner: "acme", Name: "app"}, PreviousVersion: "2.0.0", Version: "2.1.0", Branch: "2.1.x", AlreadyPublished: true},
		},
		CreatedCount: 2,
	}
	out, err := NewTableFormatter().FormatResult(result)
	require.NoError(t, err)

	assert.Contains(t, out, "Release Results")
	assert.Contains(t, out, "acme/lib: 1.4.0 → 1.5.0 on 1.5.x")
	assert.Contains(t, out, "(already published)")
}

func TestJSONFormatter(t *testing.T) {
	out, err := NewJSONFormatter().FormatPlan(testPlan())
	require.NoError(t, err)

	var got model.ReleasePlan
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "run-1", got.RunID)
	assert.Len(t, got.Releases, 2)
}

func TestYAMLFormatter(t *testing.T) {
	out, err := NewYAMLFormatter().FormatPlan(testPlan())
	require.NoError(t, err)
	assert.Contains(t, out, "source_ref: master")

	var got model.ReleasePlan
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, "1.5.x", got.Releases[0].Branch)
}

func TestMarkdownFormatter(t *testing.T) {
	out, err := NewMarkdownFormatter().FormatPlan(testPlan())
	require.NoError(t, err)
	assert.Contains(t, out, "# Release Plan")
	assert.Contains(t, out, "| 1 | lib | 1.4.0 | 1.5.0 | 1.5.x | 3 |")
	assert.Contains(t, out, "## Discovered Packages")
}

func TestCSVFormatter(t *testing.T) {
	out, err := NewCSVFormatter().FormatPlan(testPlan())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "1,lib,"))
	assert.True(t, strings.HasPrefix(lines[2], "2,app,"))
	assert.Contains(t, lines[2], ",lib,")
}

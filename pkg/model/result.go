package model

import "time"

// ReleasePlan is the outcome of the read-only pipeline: everything that would
// be released, in order, and why.
type ReleasePlan struct {
	RunID       string              `json:"runId" yaml:"run_id"`
	Timestamp   time.Time           `json:"timestamp" yaml:"timestamp"`
	Owner       string              `json:"owner" yaml:"owner"`
	Root        string              `json:"root" yaml:"root"`
	SourceRef   string              `json:"sourceRef" yaml:"source_ref"`
	ReleaseType string              `json:"releaseType" yaml:"release_type"`
	Mode        string              `json:"mode" yaml:"mode"`
	Discovered  []DiscoveredPackage `json:"discovered" yaml:"discovered"`
	Releases    []PlannedRelease    `json:"releases,omitempty" yaml:"releases,omitempty"`
}

// RootRelease returns the planned release of the root package, if any.
func (p *ReleasePlan) RootRelease() (PlannedRelease, bool) {
	for _, r := range p.Releases {
		if r.Name == p.Root {
			return r, true
		}
	}
	return PlannedRelease{}, false
}

// Dependencies returns the planned releases other than the root.
func (p *ReleasePlan) Dependencies() []PlannedRelease {
	var deps []PlannedRelease
	for _, r := range p.Releases {
		if r.Name != p.Root {
			deps = append(deps, r)
		}
	}
	return deps
}

// DiscoveredPackage is one package found while scanning the dependency graph.
type DiscoveredPackage struct {
	Name             string              `json:"name" yaml:"name"`
	ManifestName     string              `json:"manifestName,omitempty" yaml:"manifest_name,omitempty"`
	RequiredVersions map[string][]string `json:"requiredVersions" yaml:"required_versions"`
	ResolvedRef      string              `json:"resolvedRef" yaml:"resolved_ref"`
	Dependencies     []string            `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	LatestRelease    string              `json:"latestRelease,omitempty" yaml:"latest_release,omitempty"`
	AheadBy          int                 `json:"aheadBy" yaml:"ahead_by"`
}

// PlannedRelease is one package scheduled for release.
type PlannedRelease struct {
	Name           string   `json:"name" yaml:"name"`
	ManifestName   string   `json:"manifestName,omitempty" yaml:"manifest_name,omitempty"`
	SourceRef      string   `json:"sourceRef" yaml:"source_ref"`
	Baseline       string   `json:"baseline" yaml:"baseline"`
	Version        string   `json:"version" yaml:"version"`
	Branch         string   `json:"branch" yaml:"branch"`
	Reason         string   `json:"reason" yaml:"reason"`
	AheadBy        int      `json:"aheadBy" yaml:"ahead_by"`
	FirstRelease   bool     `json:"firstRelease,omitempty" yaml:"first_release,omitempty"`
	Files          []string `json:"files,omitempty" yaml:"files,omitempty"`
	CommitMessages []string `json:"commitMessages,omitempty" yaml:"commit_messages,omitempty"`
	DependsOn      []string `json:"dependsOn,omitempty" yaml:"depends_on,omitempty"`
}

// ReleaseResult contains the results of executing a release plan.
type ReleaseResult struct {
	Plan         *ReleasePlan     `json:"plan" yaml:"plan"`
	Executed     bool             `json:"executed" yaml:"executed"`
	Created      []CreatedRelease `json:"created,omitempty" yaml:"created,omitempty"`
	CreatedCount int              `json:"createdCount" yaml:"created_count"`
	Duration     time.Duration    `json:"duration" yaml:"duration"`
}

// CreatedRelease represents a release published (or found already published)
// during execution.
type CreatedRelease struct {
	Repo             RepoRef `json:"repo" yaml:"repo"`
	Version          string  `json:"version" yaml:"version"`
	PreviousVersion  string  `json:"previousVersion" yaml:"previous_version"`
	Branch           string  `json:"branch" yaml:"branch"`
	BranchCreated    bool    `json:"branchCreated" yaml:"branch_created"`
	ManifestUpdated  bool    `json:"manifestUpdated" yaml:"manifest_updated"`
	AlreadyPublished bool    `json:"alreadyPublished,omitempty" yaml:"already_published,omitempty"`
	ReleaseURL       string  `json:"releaseUrl,omitempty" yaml:"release_url,omitempty"`
}

// Package graph discovers the dependency graph of a release train and
// decides which packages are released and in what order.
package graph

import (
	"fmt"
	"sort"
)

// ReleaseGraph is the set of packages reachable from a root package.
type ReleaseGraph struct {
	Owner     string                 `json:"owner"`
	Root      string                 `json:"root"`
	SourceRef string                 `json:"sourceRef"`
	Repos     map[string]*Repository `json:"repos"`

	// ReleaseSet lists packages to release in the order they joined.
	ReleaseSet []string `json:"releaseSet"`

	// Passes is the number of discovery passes the graph took to converge.
	Passes int `json:"passes"`

	inSet map[string]bool
}

// NewReleaseGraph seeds a graph with the root package requiring sourceRef.
func NewReleaseGraph(owner, root, sourceRef string) *ReleaseGraph {
	g := &ReleaseGraph{
		Owner:     owner,
		Root:      root,
		SourceRef: sourceRef,
		Repos:     make(map[string]*Repository),
		inSet:     make(map[string]bool),
	}
	g.Require(root, sourceRef, RootRequester)
	return g
}

// Get returns a repository by name.
func (g *ReleaseGraph) Get(name string) (*Repository, bool) {
	r, ok := g.Repos[name]
	return r, ok
}

// Names returns all repository names sorted.
func (g *ReleaseGraph) Names() []string {
	names := make([]string, 0, len(g.Repos))
	for name := range g.Repos {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Require records that requester needs name at constraint. It reports
// whether name was not in the graph before.
func (g *ReleaseGraph) Require(name, constraint, requester string) bool {
	r, ok := g.Repos[name]
	if !ok {
		r = &Repository{
			Name:             name,
			Owner:            g.Owner,
			RequiredVersions: make(map[string][]string),
		}
		g.Repos[name] = r
	}
	r.require(constraint, requester)
	return !ok
}

// Undetermined returns, sorted, the repositories whose manifest has not
// been read.
func (g *ReleaseGraph) Undetermined() []string {
	var names []string
	for name, r := range g.Repos {
		if !r.Dependencies.Determined {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Dependents returns, sorted, the repositories that depend on name.
func (g *ReleaseGraph) Dependents(name string) []string {
	var out []string
	for _, r := range g.Repos {
		if r.Dependencies.Has(name) {
			out = append(out, r.Name)
		}
	}
	sort.Strings(out)
	return out
}

// InReleaseSet reports whether name is scheduled for release.
func (g *ReleaseGraph) InReleaseSet(name string) bool {
	return g.inSet[name]
}

// AddRelease puts name into the release set. dependency names the package
// whose release triggered it, if any. It reports whether name was added.
func (g *ReleaseGraph) AddRelease(name string, reason ReleaseReason, dependency string) bool {
	r, ok := g.Repos[name]
	if !ok || g.inSet[name] {
		return false
	}
	if g.inSet == nil {
		g.inSet = make(map[string]bool)
	}
	g.inSet[name] = true
	g.ReleaseSet = append(g.ReleaseSet, name)
	r.Reason = reason
	r.ReasonDependency = dependency
	return true
}

// Stats returns statistics about the graph.
func (g *ReleaseGraph) Stats() GraphStats {
	stats := GraphStats{
		Repositories: len(g.Repos),
		Releases:     len(g.ReleaseSet),
	}
	for _, r := range g.Repos {
		stats.Edges += r.Dependencies.Len()
		if r.Dependencies.Determined && r.Dependencies.Len() == 0 {
			stats.Leaves++
		}
		if r.Stats.FirstRelease {
			stats.FirstReleases++
		}
	}
	return stats
}

// GraphStats contains statistics about the release graph.
type GraphStats struct {
	Repositories  int `json:"repositories"`
	Edges         int `json:"edges"`
	Leaves        int `json:"leaves"`
	Releases      int `json:"releases"`
	FirstReleases int `json:"firstReleases"`
}

// Validate checks the graph for issues.
func (g *ReleaseGraph) Validate() []ValidationIssue {
	var issues []ValidationIssue

	for _, name := range g.Names() {
		r := g.Repos[name]
		if len(r.RequiredVersions) == 0 {
			issues = append(issues, ValidationIssue{
				Type:    "unrequired",
				Repo:    name,
				Message: "repository is in the graph without any requirement",
			})
		}
		for _, dep := range r.Dependencies.Names {
			if _, ok := g.Repos[dep]; !ok {
				issues = append(issues, ValidationIssue{
					Type:    "missing_dependency",
					Repo:    name,
					Message: fmt.Sprintf("dependency %s is not in the graph", dep),
				})
			}
		}
	}

	for _, name := range g.ReleaseSet {
		if _, ok := g.Repos[name]; !ok {
			issues = append(issues, ValidationIssue{
				Type:    "unknown_release",
				Repo:    name,
				Message: "release set member is not in the graph",
			})
		}
	}

	return issues
}

// ValidationIssue represents a problem found during graph validation.
type ValidationIssue struct {
	Type    string `json:"type"`
	Repo    string `json:"repo"`
	Message string `json:"message"`
}

package graph

import (
	"fmt"
	"sort"

	"github.com/grokify/releasetrain/internal/version"
	"github.com/grokify/releasetrain/pkg/model"
)

// RootRequester is the requester recorded for the root package's source ref.
const RootRequester = "(root)"

// ReleaseReason explains why a package is in the release set.
type ReleaseReason string

const (
	ReasonNone       ReleaseReason = ""
	ReasonChanged    ReleaseReason = "changed"
	ReasonRoot       ReleaseReason = "root"
	ReasonDependency ReleaseReason = "dependency"
)

// DependencySet is the set of packages a repository requires. It stays
// undetermined until the repository's manifest has been read.
type DependencySet struct {
	Determined bool     `json:"determined"`
	Names      []string `json:"names,omitempty"`
}

// Has reports whether name is in the set.
func (d DependencySet) Has(name string) bool {
	i := sort.SearchStrings(d.Names, name)
	return i < len(d.Names) && d.Names[i] == name
}

// Len returns the number of dependencies.
func (d DependencySet) Len() int {
	return len(d.Names)
}

func (d *DependencySet) add(name string) {
	i := sort.SearchStrings(d.Names, name)
	if i < len(d.Names) && d.Names[i] == name {
		return
	}
	d.Names = append(d.Names, "")
	copy(d.Names[i+1:], d.Names[i:])
	d.Names[i] = name
}

// Stats records how a package's resolved ref compares to its last release.
type Stats struct {
	Baseline     string   `json:"baseline,omitempty"`
	AheadBy      int      `json:"aheadBy"`
	BehindBy     int      `json:"behindBy"`
	Files        []string `json:"files,omitempty"`
	Commits      []string `json:"commits,omitempty"`
	FirstRelease bool     `json:"firstRelease,omitempty"`
	Evaluated    bool     `json:"evaluated"`
}

// Repository is one package discovered in the dependency graph.
type Repository struct {
	// Name is the hosting repository name and the graph key.
	Name  string `json:"name"`
	Owner string `json:"owner"`

	// ManifestName is the package name declared in composer.json.
	ManifestName string `json:"manifestName,omitempty"`

	// RequiredVersions maps each requested constraint to its requesters.
	RequiredVersions map[string][]string `json:"requiredVersions"`

	Dependencies DependencySet `json:"dependencies"`

	// Requires maps each followed manifest requirement to the repository
	// it names. Requirements the filter rejected are absent.
	Requires map[string]string `json:"requires,omitempty"`

	Refs        *version.Inventory `json:"-"`
	Constraint  version.Constraint `json:"constraint,omitempty"`
	ResolvedRef string             `json:"resolvedRef,omitempty"`
	Latest      *version.Latest    `json:"latest,omitempty"`

	Stats Stats `json:"stats"`

	Reason           ReleaseReason `json:"reason,omitempty"`
	ReasonDependency string        `json:"reasonDependency,omitempty"`
}

// Ref returns the hosting reference of the repository.
func (r *Repository) Ref() model.RepoRef {
	return model.NewRepoRef(r.Owner, r.Name)
}

// Constraints returns the requested constraints in sorted order.
func (r *Repository) Constraints() []string {
	out := make([]string, 0, len(r.RequiredVersions))
	for c := range r.RequiredVersions {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// ReasonText describes why the repository is released.
func (r *Repository) ReasonText() string {
	switch r.Reason {
	case ReasonChanged:
		if r.Stats.FirstRelease {
			return "needs a first release"
		}
		return fmt.Sprintf("needs a new release because it is %d commit(s) ahead of %s", r.Stats.AheadBy, r.Stats.Baseline)
	case ReasonRoot:
		return "needs a new release because it is the main repository"
	case ReasonDependency:
		return fmt.Sprintf("needs a new release because %s is released", r.ReasonDependency)
	default:
		return ""
	}
}

func (r *Repository) require(constraint, requester string) {
	for _, existing := range r.RequiredVersions[constraint] {
		if existing == requester {
			return
		}
	}
	r.RequiredVersions[constraint] = append(r.RequiredVersions[constraint], requester)
}

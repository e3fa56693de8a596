package version

import (
	"context"
	"fmt"
	"sort"

	mm "github.com/Masterminds/semver/v3"

	"github.com/grokify/releasetrain/internal/hosting"
	"github.com/grokify/releasetrain/pkg/model"
)

// RefKind tells where a ref came from.
type RefKind string

const (
	RefKindTag     RefKind = "tag"
	RefKindRelease RefKind = "release"
	RefKindBranch  RefKind = "branch"
)

// Ref is one addressable ref of a package.
type Ref struct {
	Name    string      `json:"name"`
	Kind    RefKind     `json:"kind"`
	Version *mm.Version `json:"-"` // nil for branches
}

// Inventory holds a package's refs ranked for constraint matching: versioned
// tags and releases by descending precedence, then branches.
type Inventory struct {
	refs     []Ref
	byName   map[string]int
	branches map[string]bool
}

// NewInventory builds an inventory. Tag and release names that are not
// major.minor.patch are dropped; a name present as both tag and release is
// kept once as a release.
func NewInventory(tags []model.Tag, releases []model.Release, branches []model.Branch) *Inventory {
	inv := &Inventory{
		byName:   make(map[string]int),
		branches: make(map[string]bool),
	}

	var versioned []Ref
	seen := make(map[string]int)
	add := func(name string, kind RefKind) {
		if idx, ok := seen[name]; ok {
			if kind == RefKindRelease {
				versioned[idx].Kind = RefKindRelease
			}
			return
		}
		v, err := Parse(name)
		if err != nil {
			return
		}
		seen[name] = len(versioned)
		versioned = append(versioned, Ref{Name: name, Kind: kind, Version: v})
	}

	for _, t := range tags {
		add(t.Name, RefKindTag)
	}
	for _, r := range releases {
		add(r.TagName, RefKindRelease)
	}

	sort.SliceStable(versioned, func(i, j int) bool {
		return versioned[i].Version.GreaterThan(versioned[j].Version)
	})

	inv.refs = versioned
	for _, name := range model.BranchNames(branches) {
		if inv.branches[name] {
			continue
		}
		inv.branches[name] = true
		inv.refs = append(inv.refs, Ref{Name: name, Kind: RefKindBranch})
	}

	for i, r := range inv.refs {
		if _, ok := inv.byName[r.Name]; !ok {
			inv.byName[r.Name] = i
		}
	}

	return inv
}

// FetchInventory lists tags, releases and branches of repo.
func FetchInventory(ctx context.Context, client hosting.Client, repo model.RepoRef) (*Inventory, error) {
	tags, err := client.ListTags(ctx, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags of %s: %w", repo.Name, err)
	}
	releases, err := client.ListReleases(ctx, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to list releases of %s: %w", repo.Name, err)
	}
	branches, err := client.ListBranches(ctx, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to list branches of %s: %w", repo.Name, err)
	}
	return NewInventory(tags, releases, branches), nil
}

// Refs returns all refs in matching order.
func (inv *Inventory) Refs() []Ref {
	return inv.refs
}

// Names returns all ref names in matching order.
func (inv *Inventory) Names() []string {
	names := make([]string, len(inv.refs))
	for i, r := range inv.refs {
		names[i] = r.Name
	}
	return names
}

// Versioned returns the tag and release refs, highest first.
func (inv *Inventory) Versioned() []Ref {
	var out []Ref
	for _, r := range inv.refs {
		if r.Version != nil {
			out = append(out, r)
		}
	}
	return out
}

// HasBranch reports whether name is a branch.
func (inv *Inventory) HasBranch(name string) bool {
	return inv.branches[name]
}

// Has reports whether name is any known ref.
func (inv *Inventory) Has(name string) bool {
	_, ok := inv.byName[name]
	return ok
}

// Highest returns the highest-precedence ref.
func (inv *Inventory) Highest() (Ref, bool) {
	if len(inv.refs) == 0 {
		return Ref{}, false
	}
	return inv.refs[0], true
}

// NeverReleased reports whether the package has no versioned tag or release.
func (inv *Inventory) NeverReleased() bool {
	return len(inv.refs) == 0 || inv.refs[0].Version == nil
}

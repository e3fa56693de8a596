package model

// RepoRef names a package repository under the train's owner.
type RepoRef struct {
	Owner string `json:"owner" yaml:"owner"`
	Name  string `json:"name" yaml:"name"`
}

// NewRepoRef returns the reference for repository name under owner.
func NewRepoRef(owner, name string) RepoRef {
	return RepoRef{Owner: owner, Name: name}
}

// FullName returns owner/name, or just name when no owner is set.
func (r RepoRef) FullName() string {
	if r.Owner == "" {
		return r.Name
	}
	return r.Owner + "/" + r.Name
}

// Branch is a branch head. Version inventories treat branches as the
// fallback refs when no tag satisfies a constraint.
type Branch struct {
	Name string  `json:"name"`
	SHA  string  `json:"sha,omitempty"`
	Repo RepoRef `json:"repo"`
}

// Tag is a tag and the commit it points at.
type Tag struct {
	Name string  `json:"name"`
	SHA  string  `json:"sha"`
	Repo RepoRef `json:"repo"`
}

// BranchNames returns the names of branches in order.
func BranchNames(branches []Branch) []string {
	names := make([]string, 0, len(branches))
	for _, b := range branches {
		names = append(names, b.Name)
	}
	return names
}

package model

import "time"

// Release is a published release of a package repository. Its tag name is
// the version string, without a "v" prefix.
type Release struct {
	TagName     string    `json:"tagName"`
	Name        string    `json:"name"`
	Body        string    `json:"body,omitempty"`
	Draft       bool      `json:"draft"`
	Prerelease  bool      `json:"prerelease"`
	PublishedAt time.Time `json:"publishedAt,omitempty"`
	HTMLURL     string    `json:"htmlUrl,omitempty"`
	Repo        RepoRef   `json:"repo"`
}

// ReleaseRequest asks the hosting service to tag TargetCommitish, usually a
// maintenance branch, and publish a release with notes in Body.
type ReleaseRequest struct {
	Repo            RepoRef `json:"repo"`
	TagName         string  `json:"tagName"`
	TargetCommitish string  `json:"targetCommitish,omitempty"`
	Name            string  `json:"name"`
	Body            string  `json:"body"`
	Draft           bool    `json:"draft"`
	Prerelease      bool    `json:"prerelease"`
}

// NewReleaseRequest builds a published, non-prerelease request whose title
// equals its tag.
func NewReleaseRequest(repo RepoRef, tag, branch, notes string) *ReleaseRequest {
	return &ReleaseRequest{
		Repo:            repo,
		TagName:         tag,
		TargetCommitish: branch,
		Name:            tag,
		Body:            notes,
	}
}

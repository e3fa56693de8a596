// Package hosting is the boundary between the release engine and the
// source-control hosting API. Everything the engine reads or mutates on the
// remote goes through Client.
package hosting

import (
	"context"

	"github.com/grokify/releasetrain/pkg/model"
)

// Client defines the hosting operations the release engine consumes.
type Client interface {
	// ListTags returns all tags of a repository.
	ListTags(ctx context.Context, repo model.RepoRef) ([]model.Tag, error)

	// ListReleases returns all published releases of a repository.
	ListReleases(ctx context.Context, repo model.RepoRef) ([]model.Release, error)

	// ListBranches returns all branches of a repository.
	ListBranches(ctx context.Context, repo model.RepoRef) ([]model.Branch, error)

	// GetFile returns a file at ref. It fails with ErrFileNotFound when the
	// path does not exist and ErrNotAFile when it is a directory.
	GetFile(ctx context.Context, repo model.RepoRef, ref, path string) (*model.FileContent, error)

	// CompareRefs compares base...head.
	CompareRefs(ctx context.Context, repo model.RepoRef, base, head string) (*model.Comparison, error)

	// GetRefSHA returns the commit a branch or tag points at. It fails with
	// ErrRefNotFound when the ref does not exist.
	GetRefSHA(ctx context.Context, repo model.RepoRef, ref string) (string, error)

	// CreateBranch creates a branch at sha. It fails with ErrAlreadyExists
	// when the branch is already there.
	CreateBranch(ctx context.Context, repo model.RepoRef, name, sha string) error

	// UpdateFile writes a file onto a branch. It fails with
	// ErrConflictingHash when PriorSHA no longer matches.
	UpdateFile(ctx context.Context, update *model.FileUpdate) error

	// CreateRelease publishes a release. It fails with ErrAlreadyExists when
	// the tag is already released.
	CreateRelease(ctx context.Context, req *model.ReleaseRequest) (*model.Release, error)
}

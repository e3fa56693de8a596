package metrics

import (
	"context"
	"time"

	"github.com/grokify/releasetrain/internal/hosting"
	"github.com/grokify/releasetrain/pkg/model"
)

// Client instruments a hosting.Client.
type Client struct {
	next     hosting.Client
	recorder *Recorder
}

var _ hosting.Client = (*Client)(nil)

// NewClient wraps next so every call is recorded by rec.
func NewClient(next hosting.Client, rec *Recorder) *Client {
	return &Client{next: next, recorder: rec}
}

func (c *Client) observe(op string, start time.Time, err error) {
	c.recorder.ObserveHosting(op, time.Since(start), err)
}

func (c *Client) ListTags(ctx context.Context, repo model.RepoRef) ([]model.Tag, error) {
	start := time.Now()
	tags, err := c.next.ListTags(ctx, repo)
	c.observe("list_tags", start, err)
	return tags, err
}

func (c *Client) ListReleases(ctx context.Context, repo model.RepoRef) ([]model.Release, error) {
	start := time.Now()
	releases, err := c.next.ListReleases(ctx, repo)
	c.observe("list_releases", start, err)
	return releases, err
}

func (c *Client) ListBranches(ctx context.Context, repo model.RepoRef) ([]model.Branch, error) {
	start := time.Now()
	branches, err := c.next.ListBranches(ctx, repo)
	c.observe("list_branches", start, err)
	return branches, err
}

func (c *Client) GetFile(ctx context.Context, repo model.RepoRef, ref, path string) (*model.FileContent, error) {
	start := time.Now()
	file, err := c.next.GetFile(ctx, repo, ref, path)
	c.observe("get_file", start, err)
	return file, err
}

func (c *Client) CompareRefs(ctx context.Context, repo model.RepoRef, base, head string) (*model.Comparison, error) {
	start := time.Now()
	cmp, err := c.next.CompareRefs(ctx, repo, base, head)
	c.observe("compare_refs", start, err)
	return cmp, err
}

func (c *Client) GetRefSHA(ctx context.Context, repo model.RepoRef, ref string) (string, error) {
	start := time.Now()
	sha, err := c.next.GetRefSHA(ctx, repo, ref)
	c.observe("get_ref_sha", start, err)
	return sha, err
}

func (c *Client) CreateBranch(ctx context.Context, repo model.RepoRef, name, sha string) error {
	start := time.Now()
	err := c.next.CreateBranch(ctx, repo, name, sha)
	c.observe("create_branch", start, err)
	return err
}

func (c *Client) UpdateFile(ctx context.Context, update *model.FileUpdate) error {
	start := time.Now()
	err := c.next.UpdateFile(ctx, update)
	c.observe("update_file", start, err)
	return err
}

func (c *Client) CreateRelease(ctx context.Context, req *model.ReleaseRequest) (*model.Release, error) {
	start := time.Now()
	rel, err := c.next.CreateRelease(ctx, req)
	c.observe("create_release", start, err)
	if err == nil {
		c.recorder.ReleaseCreated()
	}
	return rel, err
}

package hosting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grokify/releasetrain/pkg/model"
)

// countingClient counts calls and serves fixed data.
type countingClient struct {
	Client
	calls map[string]int
	tags  []model.Tag
	file  []byte
}

func newCountingClient() *countingClient {
	return &countingClient{
		calls: make(map[string]int),
		tags:  []model.Tag{{Name: "1.0.0"}},
		file:  []byte(`{"name":"acme/lib"}`),
	}
}

func (c *countingClient) ListTags(context.Context, model.RepoRef) ([]model.Tag, error) {
	c.calls["ListTags"]++
	return c.tags, nil
}

func (c *countingClient) ListReleases(context.Context, model.RepoRef) ([]model.Release, error) {
	c.calls["ListReleases"]++
	return nil, nil
}

func (c *countingClient) ListBranches(context.Context, model.RepoRef) ([]model.Branch, error) {
	c.calls["ListBranches"]++
	return []model.Branch{{Name: "master"}}, nil
}

func (c *countingClient) GetFile(_ context.Context, repo model.RepoRef, ref, path string) (*model.FileContent, error) {
	c.calls["GetFile"]++
	if path != "composer.json" {
		return nil, ErrFileNotFound
	}
	return &model.FileContent{Repo: repo, Ref: ref, Path: path, Content: c.file}, nil
}

func (c *countingClient) CreateBranch(context.Context, model.RepoRef, string, string) error {
	c.calls["CreateBranch"]++
	return nil
}

func (c *countingClient) UpdateFile(context.Context, *model.FileUpdate) error {
	c.calls["UpdateFile"]++
	return nil
}

func (c *countingClient) CreateRelease(_ context.Context, req *model.ReleaseRequest) (*model.Release, error) {
	c.calls["CreateRelease"]++
	return &model.Release{TagName: req.TagName}, nil
}

func TestCache(t *testing.T) {
	c := NewCache(CacheConfig{TTL: time.Hour})

	_, ok := c.Get("k")
	assert.False(t, ok)

	c.Set("k", 1)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	c.Delete("k")
	_, ok = c.Get("k")
	assert.False(t, ok)

	assert.Equal(t, CacheStats{Entries: 0, Hits: 1, Misses: 2}, c.Stats())
}

func TestCache_Expiry(t *testing.T) {
	c := NewCache(CacheConfig{TTL: time.Nanosecond})
	c.Set("k", 1)
	time.Sleep(time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Prune())

	c.Set("a", 1)
	c.Clear()
	assert.Equal(t, 0, c.Stats().Entries)
}

func TestCachedClient_Reads(t *testing.T) {
	next := newCountingClient()
	cc := NewCachedClient(next, NewCache(CacheConfig{}))
	ctx := context.Background()

	for range 3 {
		_, err := cc.ListTags(ctx, lib)
		require.NoError(t, err)
		_, err = cc.ListBranches(ctx, lib)
		require.NoError(t, err)
		_, err = cc.GetFile(ctx, lib, "master", "composer.json")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, next.calls["ListTags"])
	assert.Equal(t, 1, next.calls["ListBranches"])
	assert.Equal(t, 1, next.calls["GetFile"])

	// errors are not cached
	for range 2 {
		_, err := cc.GetFile(ctx, lib, "master", "missing.json")
		assert.ErrorIs(t, err, ErrFileNotFound)
	}
	assert.Equal(t, 3, next.calls["GetFile"])
}

func TestCachedClient_WritesInvalidate(t *testing.T) {
	next := newCountingClient()
	cc := NewCachedClient(next, NewCache(CacheConfig{}))
	ctx := context.Background()

	_, _ = cc.ListBranches(ctx, lib)
	require.NoError(t, cc.CreateBranch(ctx, lib, "1.5.x", "c1"))
	_, _ = cc.ListBranches(ctx, lib)
	assert.Equal(t, 2, next.calls["ListBranches"])

	_, _ = cc.GetFile(ctx, lib, "1.5.x", "composer.json")
	require.NoError(t, cc.UpdateFile(ctx, &model.FileUpdate{Repo: lib, Branch: "1.5.x", Path: "composer.json"}))
	_, _ = cc.GetFile(ctx, lib, "1.5.x", "composer.json")
	assert.Equal(t, 2, next.calls["GetFile"])

	_, _ = cc.ListTags(ctx, lib)
	_, _ = cc.ListReleases(ctx, lib)
	_, err := cc.CreateRelease(ctx, &model.ReleaseRequest{Repo: lib, TagName: "1.5.0"})
	require.NoError(t, err)
	_, _ = cc.ListTags(ctx, lib)
	_, _ = cc.ListReleases(ctx, lib)
	assert.Equal(t, 2, next.calls["ListTags"])
	assert.Equal(t, 2, next.calls["ListReleases"])
}

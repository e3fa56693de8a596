package hosting

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/grokify/releasetrain/pkg/model"
)

// Cache is an in-memory TTL cache for hosting reads. Entries never outlive
// the process, so one release run can never see another run's state.
type Cache struct {
	ttl    time.Duration
	mu     sync.RWMutex
	memory map[string]*cacheEntry
	hits   int
	misses int
}

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// CacheConfig configures the cache behavior.
type CacheConfig struct {
	// TTL is the time-to-live for cached entries. Default is 1 hour.
	TTL time.Duration
}

// NewCache creates a new cache with the given configuration.
func NewCache(cfg CacheConfig) *Cache {
	if cfg.TTL == 0 {
		cfg.TTL = time.Hour
	}
	return &Cache{
		ttl:    cfg.TTL,
		memory: make(map[string]*cacheEntry),
	}
}

// Get retrieves a cached value by key.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.memory[key]
	if !ok || time.Now().After(entry.expiresAt) {
		c.misses++
		return nil, false
	}
	c.hits++
	return entry.value, true
}

// Set stores a value in the cache.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.memory[key] = &cacheEntry{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Delete removes a value from the cache.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.memory, key)
}

// Clear removes all entries from the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.memory = make(map[string]*cacheEntry)
}

// Prune removes expired entries from the cache.
func (c *Cache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	pruned := 0
	now := time.Now()
	for key, entry := range c.memory {
		if now.After(entry.expiresAt) {
			delete(c.memory, key)
			pruned++
		}
	}
	return pruned
}

// CacheStats provides statistics about cache usage.
type CacheStats struct {
	Entries int `json:"entries"`
	Hits    int `json:"hits"`
	Misses  int `json:"misses"`
}

// Stats returns cache statistics.
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return CacheStats{
		Entries: len(c.memory),
		Hits:    c.hits,
		Misses:  c.misses,
	}
}

// cached returns the cached value for key or fetches and stores it.
func cached[T any](c *Cache, key string, fetch func() (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	result, err := fetch()
	if err != nil {
		var zero T
		return zero, err
	}

	c.Set(key, result)
	return result, nil
}

// CachedClient wraps a Client and memoizes its read calls. Writes pass
// through and invalidate the keys they make stale.
type CachedClient struct {
	Client
	cache *Cache
}

// NewCachedClient wraps client with cache.
func NewCachedClient(client Client, cache *Cache) *CachedClient {
	return &CachedClient{Client: client, cache: cache}
}

// Cache returns the underlying cache.
func (cc *CachedClient) Cache() *Cache {
	return cc.cache
}

// ListTags returns cached tags.
func (cc *CachedClient) ListTags(ctx context.Context, repo model.RepoRef) ([]model.Tag, error) {
	return cached(cc.cache, tagsKey(repo), func() ([]model.Tag, error) {
		return cc.Client.ListTags(ctx, repo)
	})
}

// ListReleases returns cached releases.
func (cc *CachedClient) ListReleases(ctx context.Context, repo model.RepoRef) ([]model.Release, error) {
	return cached(cc.cache, releasesKey(repo), func() ([]model.Release, error) {
		return cc.Client.ListReleases(ctx, repo)
	})
}

// ListBranches returns cached branches.
func (cc *CachedClient) ListBranches(ctx context.Context, repo model.RepoRef) ([]model.Branch, error) {
	return cached(cc.cache, branchesKey(repo), func() ([]model.Branch, error) {
		return cc.Client.ListBranches(ctx, repo)
	})
}

// GetFile returns a cached file.
func (cc *CachedClient) GetFile(ctx context.Context, repo model.RepoRef, ref, path string) (*model.FileContent, error) {
	return cached(cc.cache, fileKey(repo, ref, path), func() (*model.FileContent, error) {
		return cc.Client.GetFile(ctx, repo, ref, path)
	})
}

// CreateBranch creates a branch and invalidates the branch listing.
func (cc *CachedClient) CreateBranch(ctx context.Context, repo model.RepoRef, name, sha string) error {
	defer cc.cache.Delete(branchesKey(repo))
	return cc.Client.CreateBranch(ctx, repo, name, sha)
}

// UpdateFile writes a file and invalidates its cached content.
func (cc *CachedClient) UpdateFile(ctx context.Context, update *model.FileUpdate) error {
	defer cc.cache.Delete(fileKey(update.Repo, update.Branch, update.Path))
	return cc.Client.UpdateFile(ctx, update)
}

// CreateRelease publishes a release and invalidates tag and release listings.
func (cc *CachedClient) CreateRelease(ctx context.Context, req *model.ReleaseRequest) (*model.Release, error) {
	defer func() {
		cc.cache.Delete(tagsKey(req.Repo))
		cc.cache.Delete(releasesKey(req.Repo))
	}()
	return cc.Client.CreateRelease(ctx, req)
}

func tagsKey(repo model.RepoRef) string {
	return fmt.Sprintf("tags:%s", repo.FullName())
}

func releasesKey(repo model.RepoRef) string {
	return fmt.Sprintf("releases:%s", repo.FullName())
}

func branchesKey(repo model.RepoRef) string {
	return fmt.Sprintf("branches:%s", repo.FullName())
}

func fileKey(repo model.RepoRef, ref, path string) string {
	return fmt.Sprintf("file:%s:%s:%s", repo.FullName(), ref, path)
}

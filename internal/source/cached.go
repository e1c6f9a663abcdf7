package source

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// Cached memoises directory listings and file reads of another Source in a
// bounded LRU. Failed calls are not cached.
type Cached struct {
	next     Source
	listings *lru.Cache[string, []TreeEntry]
	files    *lru.Cache[string, *FileContent]
}

// NewCached wraps next with LRU caches holding up to size entries each.
func NewCached(next Source, size int) (*Cached, error) {
	if size <= 0 {
		return nil, fmt.Errorf("cache size must be positive, got %d", size)
	}
	listings, err := lru.New[string, []TreeEntry](size)
	if err != nil {
		return nil, fmt.Errorf("listing cache: %w", err)
	}
	files, err := lru.New[string, *FileContent](size)
	if err != nil {
		return nil, fmt.Errorf("file cache: %w", err)
	}
	return &Cached{next: next, listings: listings, files: files}, nil
}

func cacheKey(repo, branch, path string) string {
	return repo + "\x00" + branch + "\x00" + path
}

func (c *Cached) ListDirectory(ctx context.Context, repo, branch, path string) ([]TreeEntry, error) {
	key := cacheKey(repo, branch, path)
	if entries, ok := c.listings.Get(key); ok {
		return entries, nil
	}
	entries, err := c.next.ListDirectory(ctx, repo, branch, path)
	if err != nil {
		return nil, err
	}
	c.listings.Add(key, entries)
	return entries, nil
}

func (c *Cached) ReadFile(ctx context.Context, repo, branch, path string) (*FileContent, error) {
	key := cacheKey(repo, branch, path)
	if fc, ok := c.files.Get(key); ok {
		return fc, nil
	}
	fc, err := c.next.ReadFile(ctx, repo, branch, path)
	if err != nil {
		return nil, err
	}
	c.files.Add(key, fc)
	return fc, nil
}

// Throttled limits the request rate against another Source. Hosted APIs
// enforce per-token quotas; a whole-repository walk easily exceeds them.
type Throttled struct {
	next    Source
	limiter *rate.Limiter
}

// NewThrottled allows rps requests per second with the given burst.
func NewThrottled(next Source, rps float64, burst int) *Throttled {
	if burst < 1 {
		burst = 1
	}
	return &Throttled{next: next, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (t *Throttled) ListDirectory(ctx context.Context, repo, branch, path string) ([]TreeEntry, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, &Error{Op: "list", Repo: repo, Path: path, Err: err}
	}
	return t.next.ListDirectory(ctx, repo, branch, path)
}

func (t *Throttled) ReadFile(ctx context.Context, repo, branch, path string) (*FileContent, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, &Error{Op: "read", Repo: repo, Path: path, Err: err}
	}
	return t.next.ReadFile(ctx, repo, branch, path)
}

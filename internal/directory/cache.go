package directory

import (
	"context"
	"sync"
	"time"

	"github.com/socialapp/backend/internal/metrics"
	"github.com/socialapp/backend/internal/models"
)

type cacheEntry struct {
	user    models.User
	expires time.Time
}

// CachingDirectory wraps another Resolver with a TTL-based in-memory profile cache.
// Only found profiles are cached, without their password hash.
type CachingDirectory struct {
	base Resolver
	ttl  time.Duration
	now  func() time.Time

	mu    sync.RWMutex
	items map[string]cacheEntry
}

// NewCachingDirectory returns a Resolver that caches profiles for the provided TTL.
func NewCachingDirectory(base Resolver, ttl time.Duration) *CachingDirectory {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachingDirectory{
		base:  base,
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]cacheEntry),
	}
}

// Lookup returns a cached profile when available, otherwise it delegates to the
// underlying resolver and stores the result.
func (c *CachingDirectory) Lookup(ctx context.Context, uid string) (models.User, error) {
	if user, ok := c.get(uid); ok {
		metrics.AddDirectoryLookups(metrics.SourceCache, 1)
		return user, nil
	}

	user, err := c.base.Lookup(ctx, uid)
	if err != nil {
		return models.User{}, err
	}
	metrics.AddDirectoryLookups(metrics.SourceStore, 1)

	c.put(user)
	return user, nil
}

// LookupMany serves cached profiles and resolves the remainder with one call to the
// underlying resolver.
func (c *CachingDirectory) LookupMany(ctx context.Context, uids []string) (map[string]models.User, error) {
	found := make(map[string]models.User, len(uids))
	var missing []string
	for _, uid := range distinct(uids) {
		if user, ok := c.get(uid); ok {
			found[uid] = user
			continue
		}
		missing = append(missing, uid)
	}
	metrics.AddDirectoryLookups(metrics.SourceCache, len(found))

	if len(missing) == 0 {
		return found, nil
	}

	resolved, err := c.base.LookupMany(ctx, missing)
	if err != nil {
		return nil, err
	}
	metrics.AddDirectoryLookups(metrics.SourceStore, len(resolved))

	for uid, user := range resolved {
		found[uid] = user
		c.put(user)
	}
	return found, nil
}

func (c *CachingDirectory) get(uid string) (models.User, bool) {
	c.mu.RLock()
	entry, ok := c.items[uid]
	c.mu.RUnlock()
	if !ok || !c.now().Before(entry.expires) {
		return models.User{}, false
	}
	return entry.user, true
}

func (c *CachingDirectory) put(user models.User) {
	user.Password = ""
	c.mu.Lock()
	c.items[user.ID] = cacheEntry{user: user, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Forget drops uid from the cache so the next lookup reads the store.
func (c *CachingDirectory) Forget(uid string) {
	c.mu.Lock()
	delete(c.items, uid)
	c.mu.Unlock()
}

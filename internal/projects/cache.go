package projects

import (
	"context"
	"errors"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/rshade/greentrail/internal/logging"
	"github.com/rshade/greentrail/internal/metrics"
	"github.com/rshade/greentrail/internal/questionnaire"
)

// Cache defaults.
const (
	DefaultCacheSize = 256
	DefaultCacheTTL  = 10 * time.Minute
)

type cachedProject struct {
	project  questionnaire.Project
	storedAt time.Time
}

// CachingProvider memoizes another Provider. Concurrent lookups of the same
// ID share one call to the wrapped provider. Lookup errors are not cached.
type CachingProvider struct {
	next  Provider
	cache *lru.Cache[string, cachedProject]
	group singleflight.Group
	ttl   time.Duration
	now   func() time.Time
}

var _ Provider = (*CachingProvider)(nil)

// NewCachingProvider wraps next with an LRU cache of size entries that expire
// after ttl. Non-positive values fall back to the defaults.
func NewCachingProvider(next Provider, size int, ttl time.Duration) *CachingProvider {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	cache, err := lru.New[string, cachedProject](size)
	if err != nil {
		// Only reachable with a non-positive size, guarded above.
		panic(err)
	}
	return &CachingProvider{
		next:  next,
		cache: cache,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get implements Provider.
func (c *CachingProvider) Get(ctx context.Context, id string) (questionnaire.Project, error) {
	if entry, ok := c.cache.Get(id); ok {
		if c.now().Sub(entry.storedAt) < c.ttl {
			metrics.ProjectCacheHits.Inc()
			return entry.project, nil
		}
		c.cache.Remove(id)
	}
	metrics.ProjectCacheMisses.Inc()

	v, err, shared := c.group.Do(id, func() (any, error) {
		p, err := c.next.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		c.cache.Add(id, cachedProject{project: p, storedAt: c.now()})
		return p, nil
	})
	if err != nil {
		if !errors.Is(err, ErrProjectNotFound) {
			logging.FromContext(ctx).Warn().
				Str("component", "projects").
				Str("operation", "get").
				Str("project_id", id).
				Err(err).
				Msg("project lookup failed")
		}
		return questionnaire.Project{}, err
	}
	if shared {
		logging.FromContext(ctx).Debug().
			Str("component", "projects").
			Str("project_id", id).
			Msg("shared in-flight project lookup")
	}
	return v.(questionnaire.Project), nil
}

// Invalidate drops id from the cache.
func (c *CachingProvider) Invalidate(id string) {
	c.cache.Remove(id)
}

// Len returns the number of cached projects.
func (c *CachingProvider) Len() int {
	return c.cache.Len()
}

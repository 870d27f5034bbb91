package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"tably-service/internal/app"
	"tably-service/internal/domain"
)

const allResultsKey = "\x00all"

// ResultCache caches reads of a remote result store with TTL to avoid repeated
// DB hits from the leaderboard and dashboards. Saves go straight through and
// invalidate the affected entries.
type ResultCache struct {
	store app.ResultStore
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedResults
}

type cachedResults struct {
	results   []domain.StoredResult
	expiresAt time.Time
}

func NewResultCache(store app.ResultStore, ttl time.Duration) *ResultCache {
	return &ResultCache{
		store: store,
		ttl:   ttl,
		clock: time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		cache: make(map[string]cachedResults),
	}
}

func (c *ResultCache) SaveResult(ctx context.Context, rec domain.StoredResult) error {
	if err := c.store.SaveResult(ctx, rec); err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.cache, rec.UserID)
	delete(c.cache, allResultsKey)
	c.mu.Unlock()
	return nil
}

func (c *ResultCache) ListResults(ctx context.Context, userID string) ([]domain.StoredResult, error) {
	return c.load(userID, func() ([]domain.StoredResult, error) {
		return c.store.ListResults(ctx, userID)
	})
}

func (c *ResultCache) AllResults(ctx context.Context) ([]domain.StoredResult, error) {
	return c.load(allResultsKey, func() ([]domain.StoredResult, error) {
		return c.store.AllResults(ctx)
	})
}

func (c *ResultCache) load(key string, fetch func() ([]domain.StoredResult, error)) ([]domain.StoredResult, error) {
	if results, ok := c.lookup(key); ok {
		return results, nil
	}

	v, err, _ := c.sf.Do(key, func() (interface{}, error) {
		if results, ok := c.lookup(key); ok {
			return results, nil
		}
		results, err := fetch()
		if err != nil {
			return nil, err
		}
		if c.ttl > 0 {
			c.mu.Lock()
			c.cache[key] = cachedResults{
				results:   results,
				expiresAt: c.clock().Add(c.ttlWithJitter()),
			}
			c.mu.Unlock()
		}
		return results, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]domain.StoredResult(nil), v.([]domain.StoredResult)...), nil
}

func (c *ResultCache) lookup(key string) ([]domain.StoredResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[key]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return nil, false
	}
	return append([]domain.StoredResult(nil), entry.results...), true
}

func (c *ResultCache) ttlWithJitter() time.Duration {
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

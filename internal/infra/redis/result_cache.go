package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"tably-service/internal/app"
	"tably-service/internal/domain"
)

const allResultsKey = "tably:results:all"

// ResultCache keeps serialized result lists in Redis and falls back to the
// wrapped store on cache miss. Saves delete the affected keys.
//
//	tably:results:all      -> AllResults
//	tably:results:user:{userID} -> ListResults
type ResultCache struct {
	client *redis.Client
	store  app.ResultStore
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewResultCache(client *redis.Client, store app.ResultStore, ttl time.Duration) *ResultCache {
	return &ResultCache{
		client: client,
		store:  store,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *ResultCache) SaveResult(ctx context.Context, rec domain.StoredResult) error {
	if err := c.store.SaveResult(ctx, rec); err != nil {
		return err
	}
	_ = c.client.Del(ctx, allResultsKey, userResultsKey(rec.UserID)).Err()
	return nil
}

func (c *ResultCache) ListResults(ctx context.Context, userID string) ([]domain.StoredResult, error) {
	return c.load(ctx, userResultsKey(userID), func() ([]domain.StoredResult, error) {
		return c.store.ListResults(ctx, userID)
	})
}

func (c *ResultCache) AllResults(ctx context.Context) ([]domain.StoredResult, error) {
	return c.load(ctx, allResultsKey, func() ([]domain.StoredResult, error) {
		return c.store.AllResults(ctx)
	})
}

func (c *ResultCache) load(ctx context.Context, key string, fetch func() ([]domain.StoredResult, error)) ([]domain.StoredResult, error) {
	if results, ok := c.cached(ctx, key); ok {
		return results, nil
	}

	v, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if results, ok := c.cached(ctx, key); ok {
			return results, nil
		}
		results, err := fetch()
		if err != nil {
			return nil, err
		}
		if ttl := c.ttlWithJitter(); ttl > 0 {
			if data, err := json.Marshal(results); err == nil {
				_ = c.client.Set(ctx, key, data, ttl).Err()
			}
		}
		return results, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.StoredResult), nil
}

func (c *ResultCache) cached(ctx context.Context, key string) ([]domain.StoredResult, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false
	}
	out := make([]domain.StoredResult, 0, len(raw))
	for _, item := range raw {
		rec, err := domain.DecodeStoredResult(item)
		if err != nil {
			return nil, false
		}
		out = append(out, rec)
	}
	return out, true
}

func (c *ResultCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func userResultsKey(userID string) string {
	return "tably:results:user:" + userID
}

package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tably-service/internal/domain"
)

type countingStore struct {
	*ResultStore
	listCalls atomic.Int32
	allCalls  atomic.Int32
	delay     time.Duration
	fail      error
}

func (s *countingStore) ListResults(ctx context.Context, userID string) ([]domain.StoredResult, error) {
	s.listCalls.Add(1)
	time.Sleep(s.delay)
	if s.fail != nil {
		return nil, s.fail
	}
	return s.ResultStore.ListResults(ctx, userID)
}

func (s *countingStore) AllResults(ctx context.Context) ([]domain.StoredResult, error) {
	s.allCalls.Add(1)
	if s.fail != nil {
		return nil, s.fail
	}
	return s.ResultStore.AllResults(ctx)
}

func TestResultCacheSingleflightAndInvalidate(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{ResultStore: NewResultStore(), delay: 20 * time.Millisecond}
	cache := NewResultCache(store, time.Minute)
	_ = cache.SaveResult(ctx, rec("u1", 1, 50))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.ListResults(ctx, "u1"); err != nil {
				t.Errorf("list: %v", err)
			}
		}()
	}
	wg.Wait()
	if got := store.listCalls.Load(); got != 1 {
		t.Fatalf("expected a single backend read, got %d", got)
	}

	if err := cache.SaveResult(ctx, rec("u1", 2, 80)); err != nil {
		t.Fatalf("save: %v", err)
	}
	list, err := cache.ListResults(ctx, "u1")
	if err != nil || len(list) != 2 || list[0].Result.ScorePercent != 80 {
		t.Fatalf("expected refreshed list after save, got %+v err=%v", list, err)
	}
	if got := store.listCalls.Load(); got != 2 {
		t.Fatalf("expected reload after invalidation, got %d reads", got)
	}
}

func TestResultCacheExpiresAndDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{ResultStore: NewResultStore(), fail: errors.New("down")}
	cache := NewResultCache(store, time.Minute)
	now := time.Now()
	cache.clock = func() time.Time { return now }

	if _, err := cache.AllResults(ctx); err == nil {
		t.Fatalf("expected backend error")
	}
	store.fail = nil
	if _, err := cache.AllResults(ctx); err != nil {
		t.Fatalf("all: %v", err)
	}
	_, _ = cache.AllResults(ctx)
	if got := store.allCalls.Load(); got != 2 {
		t.Fatalf("expected 2 backend reads, got %d", got)
	}

	now = now.Add(2 * time.Minute)
	_, _ = cache.AllResults(ctx)
	if got := store.allCalls.Load(); got != 3 {
		t.Fatalf("expected reload after expiry, got %d", got)
	}
}

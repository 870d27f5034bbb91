package memory

import (
	"context"
	"sync"

	"tably-service/internal/domain"
)

// ResultStore keeps persisted results in process; used when no database is configured.
type ResultStore struct {
	mu      sync.RWMutex
	results []domain.StoredResult
}

func NewResultStore() *ResultStore {
	return &ResultStore{}
}

func (s *ResultStore) SaveResult(_ context.Context, rec domain.StoredResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, rec)
	return nil
}

func (s *ResultStore) ListResults(_ context.Context, userID string) ([]domain.StoredResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.StoredResult
	for _, r := range s.results {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *ResultStore) AllResults(_ context.Context) ([]domain.StoredResult, error) {
	s.mu.RLock()
	out := append([]domain.StoredResult(nil), s.results...)
	s.mu.RUnlock()
	sortNewestFirst(out)
	return out, nil
}

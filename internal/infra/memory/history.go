package memory

import (
	"context"
	"sort"
	"sync"

	"tably-service/internal/domain"
)

// DefaultHistoryLimit bounds the local history of one user.
const DefaultHistoryLimit = 200

// LocalHistory is a bounded per-user result log, newest first.
type LocalHistory struct {
	limit int

	mu      sync.RWMutex
	entries map[string][]domain.StoredResult
}

func NewLocalHistory(limit int) *LocalHistory {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &LocalHistory{
		limit:   limit,
		entries: make(map[string][]domain.StoredResult),
	}
}

func (h *LocalHistory) Append(_ context.Context, rec domain.StoredResult) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	list := h.entries[rec.UserID]
	next := make([]domain.StoredResult, 0, min(len(list)+1, h.limit))
	next = append(next, rec)
	for _, r := range list {
		if len(next) == h.limit {
			break
		}
		next = append(next, r)
	}
	h.entries[rec.UserID] = next
	return nil
}

func (h *LocalHistory) List(_ context.Context, userID string) ([]domain.StoredResult, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]domain.StoredResult(nil), h.entries[userID]...), nil
}

func (h *LocalHistory) All(_ context.Context) ([]domain.StoredResult, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []domain.StoredResult
	for _, list := range h.entries {
		out = append(out, list...)
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(list []domain.StoredResult) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].RecordedAt.Equal(list[j].RecordedAt) {
			return list[i].UserID < list[j].UserID
		}
		return list[i].RecordedAt.After(list[j].RecordedAt)
	})
}

package memory

import (
	"context"
	"sync"
	"time"

	"tably-service/internal/domain"
)

// ConfigSlot keeps one pending configuration per user. Entries older than ttl
// are treated as absent; a zero ttl keeps them until taken.
type ConfigSlot struct {
	ttl   time.Duration
	clock func() time.Time

	mu    sync.Mutex
	slots map[string]slotEntry
}

type slotEntry struct {
	cfg     domain.TestConfiguration
	savedAt time.Time
}

func NewConfigSlot(ttl time.Duration) *ConfigSlot {
	return &ConfigSlot{
		ttl:   ttl,
		clock: time.Now,
		slots: make(map[string]slotEntry),
	}
}

func (c *ConfigSlot) Put(_ context.Context, userID string, cfg domain.TestConfiguration) error {
	cfg.SelectedTables = append([]int(nil), cfg.SelectedTables...)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots[userID] = slotEntry{cfg: cfg, savedAt: c.clock()}
	return nil
}

func (c *ConfigSlot) Take(_ context.Context, userID string) (domain.TestConfiguration, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.slots[userID]
	if !ok {
		return domain.TestConfiguration{}, false, nil
	}
	delete(c.slots, userID)
	if c.ttl > 0 && c.clock().Sub(entry.savedAt) > c.ttl {
		return domain.TestConfiguration{}, false, nil
	}
	return entry.cfg, true, nil
}

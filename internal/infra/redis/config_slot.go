package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"tably-service/internal/domain"
)

// ConfigSlot stores each user's pending configuration as JSON under
// tably:config:{userID}. Take uses GETDEL so a configuration starts at most one
// session even with several instances.
type ConfigSlot struct {
	client *redis.Client
	ttl    time.Duration
}

func NewConfigSlot(client *redis.Client, ttl time.Duration) *ConfigSlot {
	return &ConfigSlot{client: client, ttl: ttl}
}

func (c *ConfigSlot) Put(ctx context.Context, userID string, cfg domain.TestConfiguration) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, configKey(userID), data, c.ttl).Err()
}

func (c *ConfigSlot) Take(ctx context.Context, userID string) (domain.TestConfiguration, bool, error) {
	data, err := c.client.GetDel(ctx, configKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.TestConfiguration{}, false, nil
	}
	if err != nil {
		return domain.TestConfiguration{}, false, err
	}
	var cfg domain.TestConfiguration
	if err := json.Unmarshal(data, &cfg); err != nil {
		return domain.TestConfiguration{}, false, err
	}
	return cfg, true, nil
}

func configKey(userID string) string {
	return "tably:config:" + userID
}

package redis

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/redis/go-redis/v9"

	"tably-service/internal/domain"
	"tably-service/internal/logger"
)

const historyUsersKey = "tably:history:users"

// LocalHistory keeps the bounded per-user result log in Redis lists, newest first:
//
//	LPUSH tably:history:{userID} {json}
//	LTRIM tably:history:{userID} 0 {limit-1}
//	SADD  tably:history:users {userID}
type LocalHistory struct {
	client *redis.Client
	limit  int64
}

func NewLocalHistory(client *redis.Client, limit int) *LocalHistory {
	if limit <= 0 {
		limit = 200
	}
	return &LocalHistory{client: client, limit: int64(limit)}
}

func (h *LocalHistory) Append(ctx context.Context, rec domain.StoredResult) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	key := historyKey(rec.UserID)
	pipe := h.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, h.limit-1)
	pipe.SAdd(ctx, historyUsersKey, rec.UserID)
	_, err = pipe.Exec(ctx)
	return err
}

func (h *LocalHistory) List(ctx context.Context, userID string) ([]domain.StoredResult, error) {
	raw, err := h.client.LRange(ctx, historyKey(userID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.StoredResult, 0, len(raw))
	for _, item := range raw {
		rec, err := domain.DecodeStoredResult([]byte(item))
		if err != nil {
			logger.Warn("skipping history entry of %s: %v", userID, err)
			continue
		}
		if rec.UserID == "" {
			rec.UserID = userID
		}
		out = append(out, rec)
	}
	return out, nil
}

func (h *LocalHistory) All(ctx context.Context) ([]domain.StoredResult, error) {
	users, err := h.client.SMembers(ctx, historyUsersKey).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(users)
	var out []domain.StoredResult
	for _, userID := range users {
		list, err := h.List(ctx, userID)
		if err != nil {
			return nil, err
		}
		out = append(out, list...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RecordedAt.After(out[j].RecordedAt)
	})
	return out, nil
}

func historyKey(userID string) string {
	return "tably:history:" + userID
}

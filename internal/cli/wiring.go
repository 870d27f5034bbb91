package cli

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"tably-service/internal/app"
	"tably-service/internal/config"
	"tably-service/internal/infra/memory"
	"tably-service/internal/infra/postgres"
	infraredis "tably-service/internal/infra/redis"
	"tably-service/internal/logger"
)

// buildService wires the stores selected by cfg: Postgres for results and
// profiles when a URL is set, Redis for sessions, configuration slots, local
// history and the result cache when an address is set, memory otherwise.
func buildService(ctx context.Context, cfg config.Config) (*app.QuizService, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cleanups = append(cleanups, func() { _ = redisClient.Close() })
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)
	slotTTL := config.TTLDuration(cfg.Quiz.ConfigTTL, 24*time.Hour)
	cacheTTL := config.TTLDuration(cfg.Quiz.CacheTTL, 30*time.Second)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		var err error
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		cleanups = append(cleanups, pool.Close)
	}

	var results app.ResultStore = memory.NewResultStore()
	var profiles app.ProfileStore = memory.NewProfileStore()
	if pool != nil {
		results = postgres.NewResultStore(pool)
		profiles = postgres.NewProfileStore(pool)
	}

	stores := app.Stores{Results: results, Profiles: profiles}
	if redisClient != nil {
		stores.Sessions = infraredis.NewSessionStore(redisClient, redisTTL)
		stores.Slots = infraredis.NewConfigSlot(redisClient, slotTTL)
		stores.History = infraredis.NewLocalHistory(redisClient, cfg.Quiz.HistoryLimit)
		stores.Results = infraredis.NewResultCache(redisClient, results, cacheTTL)
		logger.Info("using redis at %s", cfg.Redis.Addr)
	} else {
		stores.Sessions = memory.NewSessionStore()
		stores.Slots = memory.NewConfigSlot(slotTTL)
		stores.History = memory.NewLocalHistory(cfg.Quiz.HistoryLimit)
		if pool != nil {
			stores.Results = memory.NewResultCache(results, cacheTTL)
		}
	}

	service := app.NewQuizService(stores,
		app.WithFeedback(config.TTLDuration(cfg.Quiz.Feedback, 1200*time.Millisecond)),
		app.WithTieBreak(cfg.Leaderboard.TieBreak),
	)
	return service, cleanup, nil
}

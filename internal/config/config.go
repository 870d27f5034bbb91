package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		Feedback     string `yaml:"feedback"`
		ConfigTTL    string `yaml:"config_ttl"`
		HistoryLimit int    `yaml:"history_limit"`
		CacheTTL     string `yaml:"cache_ttl"`
	} `yaml:"quiz"`
	Leaderboard struct {
		TieBreak string `yaml:"tie_break"`
	} `yaml:"leaderboard"`
	Uploads struct {
		Dir          string `yaml:"dir"`
		PublicPrefix string `yaml:"public_prefix"`
		MaxBytes     int64  `yaml:"max_bytes"`
	} `yaml:"uploads"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// LoadEnv loads a .env file into the process environment if one exists.
func LoadEnv(files ...string) {
	_ = godotenv.Load(files...)
}

// Load reads YAML config from path, applies environment overrides and fills
// defaults. A missing file is not an error; the defaults and environment apply.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = db
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.URL = v
	}
	if v := os.Getenv("UPLOADS_DIR"); v != "" {
		cfg.Uploads.Dir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LEADERBOARD_TIE_BREAK"); v != "" {
		cfg.Leaderboard.TieBreak = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Quiz.HistoryLimit <= 0 {
		cfg.Quiz.HistoryLimit = 200
	}
	if cfg.Uploads.Dir == "" {
		cfg.Uploads.Dir = "images/avatars"
	}
	if cfg.Uploads.PublicPrefix == "" {
		cfg.Uploads.PublicPrefix = "/images/avatars"
	}
	if cfg.Uploads.MaxBytes <= 0 {
		cfg.Uploads.MaxBytes = 5 << 20
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

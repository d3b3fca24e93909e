package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3/log"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lborres/medassist/adapters/file"
	"github.com/lborres/medassist/adapters/memory"
	pgxadapter "github.com/lborres/medassist/adapters/pgx"
	redisadapter "github.com/lborres/medassist/adapters/redis"
	"github.com/lborres/medassist/core"
	"github.com/lborres/medassist/pkg/crypto"
)

// Token store kinds accepted by MEDASSIST_TOKEN_STORE.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

type Config struct {
	APIURL  string
	Timeout time.Duration

	TokenStore      string
	TokenFile       string
	TokenPassphrase string
	RedisURI        string
	PostgresURI     string

	LogLevel string

	// MockAddr is where cmd/mockapi listens.
	MockAddr string
}

func Load() *Config {
	return &Config{
		APIURL:          getEnv("MEDASSIST_API_URL", "http://localhost:8000"),
		Timeout:         getDuration("MEDASSIST_TIMEOUT", 15*time.Second),
		TokenStore:      strings.ToLower(getEnv("MEDASSIST_TOKEN_STORE", StoreFile)),
		TokenFile:       getEnv("MEDASSIST_TOKEN_FILE", ""),
		TokenPassphrase: getEnv("MEDASSIST_TOKEN_PASSPHRASE", ""),
		RedisURI:        getEnv("MEDASSIST_REDIS_URI", "redis://localhost:6379/0"),
		PostgresURI:     getEnv("MEDASSIST_POSTGRES_URI", ""),
		LogLevel:        strings.ToLower(getEnv("MEDASSIST_LOG_LEVEL", "warn")),
		MockAddr:        getEnv("MOCKAPI_ADDR", ":8000"),
	}
}

// Level maps LogLevel onto the fiber logger. Unknown names mean warn.
func (c *Config) Level() log.Level {
	switch c.LogLevel {
	case "trace":
		return log.LevelTrace
	case "debug":
		return log.LevelDebug
	case "info":
		return log.LevelInfo
	case "error":
		return log.LevelError
	default:
		return log.LevelWarn
	}
}

// OpenTokenStore builds the configured token store. The returned close
// function releases any connection it opened.
func (c *Config) OpenTokenStore(ctx context.Context) (core.TokenStore, func(), error) {
	noop := func() {}

	switch c.TokenStore {
	case StoreMemory:
		return memory.New(), noop, nil

	case StoreFile:
		var sealer *crypto.Sealer
		if c.TokenPassphrase != "" {
			s, err := crypto.NewSealer(c.TokenPassphrase)
			if err != nil {
				return nil, noop, err
			}
			sealer = s
		}
		store, err := file.New(file.Config{Path: c.TokenFile, Sealer: sealer})
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil

	case StoreRedis:
		client, err := redisadapter.Connect(ctx, c.RedisURI)
		if err != nil {
			return nil, noop, err
		}
		return redisadapter.New(client, ""), func() { client.Close() }, nil

	case StorePostgres:
		if c.PostgresURI == "" {
			return nil, noop, fmt.Errorf("%w: MEDASSIST_POSTGRES_URI is not set", core.ErrTokenStoreRequired)
		}
		pool, err := pgxpool.New(ctx, c.PostgresURI)
		if err != nil {
			return nil, noop, fmt.Errorf("pgxpool.New: %w", err)
		}
		store := pgxadapter.New(pool, "")
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, noop, err
		}
		return store, pool.Close, nil

	default:
		return nil, noop, fmt.Errorf("%w: %q", core.ErrUnknownTokenStore, c.TokenStore)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Warnw("ignoring invalid duration", "key", key, "value", raw)
		return defaultValue
	}
	return d
}

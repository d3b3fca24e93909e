package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/lborres/medassist/core"
)

const DefaultKeyPrefix = "medassist:"

// TokenStore keeps the token under one redis key, shared by every client
// pointed at the same prefix.
type TokenStore struct {
	client *goredis.Client
	key    string
}

var _ core.TokenStore = (*TokenStore)(nil)

func New(client *goredis.Client, prefix string) *TokenStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &TokenStore{
		client: client,
		key:    prefix + core.TokenStorageKey,
	}
}

// Connect parses a redis:// URI, applies pool settings and pings the server.
func Connect(ctx context.Context, uri string) (*goredis.Client, error) {
	opt, err := goredis.ParseURL(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid redis uri: %w", err)
	}

	opt.PoolSize = 4
	opt.MinIdleConns = 1
	opt.MaxRetries = 3
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := goredis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func (s *TokenStore) Key() string {
	return s.key
}

func (s *TokenStore) Load(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", nil
	}
	return token, err
}

func (s *TokenStore) Save(ctx context.Context, token string) error {
	return s.client.Set(ctx, s.key, token, 0).Err()
}

func (s *TokenStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}

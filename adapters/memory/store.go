package memory

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/lborres/medassist/core"
)

// TokenStore keeps the token in process memory. Nothing survives a restart.
type TokenStore struct {
	mu    sync.RWMutex
	token string

	// counters
	loads  int64
	saves  int64
	clears int64
}

var _ core.TokenStore = (*TokenStore)(nil)

func New() *TokenStore {
	return &TokenStore{}
}

func (s *TokenStore) Load(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	atomic.AddInt64(&s.loads, 1)
	return s.token, nil
}

func (s *TokenStore) Save(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	atomic.AddInt64(&s.saves, 1)
	s.token = token
	return nil
}

func (s *TokenStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	atomic.AddInt64(&s.clears, 1)
	s.token = ""
	return nil
}

// Stats reports how often the store was used.
type Stats struct {
	Loads  int64
	Saves  int64
	Clears int64
}

func (s *TokenStore) Stats() Stats {
	return Stats{
		Loads:  atomic.LoadInt64(&s.loads),
		Saves:  atomic.LoadInt64(&s.saves),
		Clears: atomic.LoadInt64(&s.clears),
	}
}

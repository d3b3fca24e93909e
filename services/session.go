package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v3/log"

	"github.com/lborres/medassist/core"
)

// SessionStore owns the client's bearer token and cached profile.
// One instance per running client, handed to every consumer.
type SessionStore struct {
	gateway core.Gateway
	storage core.TokenStore

	mu    sync.RWMutex
	token string
	user  *core.User
	// epoch advances on logout; a login response from an older epoch is dropped
	epoch uint64

	// persistMu orders storage writes; mu is never held across them
	persistMu sync.Mutex
}

// Ensure SessionStore can back gateway calls
var _ core.CredentialSource = (*SessionStore)(nil)

func NewSessionStore(gateway core.Gateway, storage core.TokenStore) *SessionStore {
	return &SessionStore{
		gateway: gateway,
		storage: storage,
	}
}

// Restore reads a previously persisted token. The profile is not
// persisted, so the session stays unauthenticated until the next login.
func (s *SessionStore) Restore(ctx context.Context) error {
	token, err := s.storage.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load persisted token: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	log.Debugw("session restored", "hasToken", token != "")
	return nil
}

// Login authenticates and, on success, sets token and user together and
// persists the token. On failure the previous state is left untouched.
func (s *SessionStore) Login(ctx context.Context, identifier, secret string) error {
	s.mu.RLock()
	current, epoch := s.token, s.epoch
	s.mu.RUnlock()

	// Step 1: Exchange credentials for a token
	result, err := s.gateway.Authenticate(ctx, current, identifier, secret)
	if err != nil {
		return core.AsRequestError(err, core.TokenEndpoint.Op, core.FallbackLogin)
	}
	if result == nil || result.AccessToken == "" {
		return core.NormalizeError(core.TokenEndpoint.Op, 0, nil, core.ErrMissingAccessToken, core.FallbackLogin)
	}

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return core.ErrSessionSuperseded
	}

	// Step 2: Swap in the new session
	s.token = result.AccessToken
	s.user = result.User
	s.mu.Unlock()

	// Step 3: Persist the token, unless a logout or another login replaced
	// it in the meantime
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if s.Token() != result.AccessToken {
		return nil
	}
	if err := s.storage.Save(ctx, result.AccessToken); err != nil {
		log.Warnw("failed to persist token", "error", err)
	}

	return nil
}

// Register creates an account and then logs in with the same email and
// secret. Registration alone does not establish a session.
func (s *SessionStore) Register(ctx context.Context, username, email, secret string) error {
	input := core.RegisterInput{
		Username: strings.TrimSpace(username),
		Email:    strings.TrimSpace(email),
		Password: secret,
		IsActive: true,
		IsAdmin:  false,
	}

	if _, err := s.gateway.Register(ctx, s.Token(), input); err != nil {
		return core.AsRequestError(err, core.RegisterEndpoint.Op, core.FallbackRegister)
	}

	err := s.Login(ctx, email, secret)

	// a chained login failure without a server message reads as a failed registration
	var reqErr *core.RequestError
	if errors.As(err, &reqErr) {
		if _, ok := core.ExtractMessage(reqErr.Body); !ok {
			return core.NormalizeError(core.RegisterEndpoint.Op, reqErr.Status, reqErr.Body, reqErr.Err, core.FallbackRegister)
		}
	}
	return err
}

// Logout clears the session and the persisted token. It never calls the
// network and always succeeds.
func (s *SessionStore) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.epoch++
	s.mu.Unlock()

	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if err := s.storage.Clear(ctx); err != nil {
		log.Warnw("failed to remove persisted token", "error", err)
	}

	return nil
}

// Token returns the bearer token, or "" when unauthenticated.
func (s *SessionStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the cached profile, or nil.
func (s *SessionStore) User() *core.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *SessionStore) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

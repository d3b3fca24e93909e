package services

import (
	"context"
	"sync"

	"github.com/lborres/medassist/core"
)

// FakeGateway is a test-only fake implementing core.Gateway.
// It records every call and exposes fields for behavior injection.
type FakeGateway struct {
	mu sync.Mutex

	registerCalls []registerCall
	registerUser  *core.User
	registerErr   error

	authCalls  []authCall
	authResult *core.TokenResult
	authErr    error
	// authHook runs while the authentication request is "in flight"
	authHook func()

	predictCalls  []predictCall
	predictResult *core.DiagnosisResult
	predictErr    error
	// predictStarted receives once per call before the fake answers;
	// predictRelease, when set, holds the answer until it is closed
	predictStarted chan struct{}
	predictRelease chan struct{}

	chatCalls []chatCall
	chatReply func(in core.ChatInput) *core.ChatReply
	chatErr   error
}

type registerCall struct {
	token string
	input core.RegisterInput
}

type authCall struct {
	token      string
	identifier string
	secret     string
}

type predictCall struct {
	token    string
	symptoms []core.SymptomInput
}

type chatCall struct {
	token string
	input core.ChatInput
}

var _ core.Gateway = (*FakeGateway)(nil)

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{}
}

func (f *FakeGateway) Register(ctx context.Context, token string, in core.RegisterInput) (*core.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registerCalls = append(f.registerCalls, registerCall{token: token, input: in})
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	if f.registerUser != nil {
		return f.registerUser, nil
	}
	return &core.User{ID: 1, Email: in.Email, Username: in.Username, IsActive: in.IsActive}, nil
}

func (f *FakeGateway) Authenticate(ctx context.Context, token, identifier, secret string) (*core.TokenResult, error) {
	f.mu.Lock()
	f.authCalls = append(f.authCalls, authCall{token: token, identifier: identifier, secret: secret})
	hook := f.authHook
	f.mu.Unlock()

	if hook != nil {
		hook()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.authErr != nil {
		return nil, f.authErr
	}
	return f.authResult, nil
}

func (f *FakeGateway) PredictDiagnosis(ctx context.Context, token string, symptoms []core.SymptomInput) (*core.DiagnosisResult, error) {
	f.mu.Lock()
	f.predictCalls = append(f.predictCalls, predictCall{token: token, symptoms: symptoms})
	started, release := f.predictStarted, f.predictRelease
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		<-release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.predictErr != nil {
		return nil, f.predictErr
	}
	return f.predictResult, nil
}

func (f *FakeGateway) Chat(ctx context.Context, token string, in core.ChatInput) (*core.ChatReply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chatCalls = append(f.chatCalls, chatCall{token: token, input: in})
	if f.chatErr != nil {
		return nil, f.chatErr
	}
	if f.chatReply == nil {
		return &core.ChatReply{Message: "ok", ConversationID: 1}, nil
	}
	return f.chatReply(in), nil
}

func (f *FakeGateway) Health(ctx context.Context) error {
	return nil
}

func (f *FakeGateway) authCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.authCalls)
}

func (f *FakeGateway) predictCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.predictCalls)
}

// FakeTokenStore is a test-only fake implementing core.TokenStore.
type FakeTokenStore struct {
	mu       sync.Mutex
	token    string
	saves    int
	clears   int
	loadErr  error
	saveErr  error
	clearErr error
	// saveHook runs at the start of Save, as if the write were in progress
	saveHook func()
}

var _ core.TokenStore = (*FakeTokenStore)(nil)

func NewFakeTokenStore(token string) *FakeTokenStore {
	return &FakeTokenStore{token: token}
}

func (f *FakeTokenStore) Load(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return "", f.loadErr
	}
	return f.token, nil
}

func (f *FakeTokenStore) Save(ctx context.Context, token string) error {
	if f.saveHook != nil {
		f.saveHook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.token = token
	return nil
}

func (f *FakeTokenStore) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	if f.clearErr != nil {
		return f.clearErr
	}
	f.token = ""
	return nil
}

func (f *FakeTokenStore) persisted() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

// staticCredentials is a fixed core.CredentialSource.
type staticCredentials string

func (c staticCredentials) Token() string { return string(c) }

func aliceToken() *core.TokenResult {
	return &core.TokenResult{
		AccessToken: "tok-alice",
		TokenType:   "bearer",
		User:        &core.User{ID: 7, Email: "alice@example.com", Username: "alice"},
	}
}

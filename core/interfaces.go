package core

import "context"

// Ports define interfaces for external dependencies

// ============================================
// GATEWAY PORT (remote API)
// ============================================

// Gateway issues single request/response round trips against the remote
// API. It holds no authentication state: every call receives the bearer
// token to present, and an empty token means no Authorization header.
//
// Failures are returned as *RequestError with a normalized message.
type Gateway interface {
	Register(ctx context.Context, token string, in RegisterInput) (*User, error)
	Authenticate(ctx context.Context, token, identifier, secret string) (*TokenResult, error)
	PredictDiagnosis(ctx context.Context, token string, symptoms []SymptomInput) (*DiagnosisResult, error)
	Chat(ctx context.Context, token string, in ChatInput) (*ChatReply, error)
	Health(ctx context.Context) error
}

// ============================================
// STORAGE PORT (durable client state)
// ============================================

// TokenStorageKey is the fixed key the bearer token is persisted under.
const TokenStorageKey = "token"

// TokenStore persists exactly one string: the bearer token.
type TokenStore interface {
	// Load returns "" and a nil error when nothing is persisted.
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// ============================================
// CREDENTIAL PORT (session handle)
// ============================================

// CredentialSource hands out the bearer token current at call time.
type CredentialSource interface {
	Token() string
}

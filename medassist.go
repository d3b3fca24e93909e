// Package medassist is the client SDK of the medical assistant: session
// and authentication state, access to the remote API, the diagnosis intake
// and the assistant chat.
package medassist

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3/log"

	fiberadapter "github.com/lborres/medassist/adapters/fiber"
	"github.com/lborres/medassist/core"
	"github.com/lborres/medassist/services"
)

// interfaces
type (
	Gateway          = core.Gateway
	TokenStore       = core.TokenStore
	CredentialSource = core.CredentialSource
)

// structs
type (
	SessionStore  = services.SessionStore
	Intake        = services.Intake
	Conversation  = services.Conversation
	SubmitOutcome = services.SubmitOutcome
	SubmitStatus  = services.SubmitStatus
	RequestError  = core.RequestError
)

type (
	User            = core.User
	RegisterInput   = core.RegisterInput
	TokenResult     = core.TokenResult
	Severity        = core.Severity
	Symptom         = core.Symptom
	SymptomInput    = core.SymptomInput
	DiagnosisResult = core.DiagnosisResult
	ChatInput       = core.ChatInput
	ChatReply       = core.ChatReply
	ChatMessage     = core.ChatMessage
)

const (
	SeverityMild     = core.SeverityMild
	SeverityModerate = core.SeverityModerate
	SeveritySevere   = core.SeveritySevere

	SubmitSkipped   = services.SubmitSkipped
	SubmitSucceeded = services.SubmitSucceeded
	SubmitFailed    = services.SubmitFailed
)

var (
	ParseSeverity = core.ParseSeverity
)

var (
	ErrNotAuthenticated   = core.ErrNotAuthenticated
	ErrSessionSuperseded  = core.ErrSessionSuperseded
	ErrMissingAccessToken = core.ErrMissingAccessToken
)

var (
	ErrNoSymptoms         = core.ErrNoSymptoms
	ErrSubmissionInFlight = core.ErrSubmissionInFlight
	ErrIntakeClosed       = core.ErrIntakeClosed
	ErrInvalidSeverity    = core.ErrInvalidSeverity
	ErrEmptyMessage       = core.ErrEmptyMessage
	ErrMessageTooLong     = core.ErrMessageTooLong
	ErrMalformedResponse  = core.ErrMalformedResponse
)

var (
	ErrBaseURLRequired    = core.ErrBaseURLRequired
	ErrTokenStoreRequired = core.ErrTokenStoreRequired
	ErrUnknownTokenStore  = core.ErrUnknownTokenStore
)

type Config struct {
	// BaseURL of the remote API. Ignored when Gateway is set.
	BaseURL string
	// Gateway overrides the default fiber client gateway.
	Gateway Gateway
	// TokenStore persists the bearer token between runs.
	TokenStore TokenStore
	// Timeout per request. Defaults to 15s.
	Timeout time.Duration
}

// Client wires one gateway, one token store and the session that owns the
// token. Intakes and conversations created from it read the token from
// that session at call time.
type Client struct {
	Session *SessionStore
	gateway Gateway
}

// New builds a Client and restores the persisted token. A token that cannot
// be read is logged and the client starts signed out.
func New(ctx context.Context, config Config) (*Client, error) {
	if config.TokenStore == nil {
		return nil, ErrTokenStoreRequired
	}

	gateway := config.Gateway
	if gateway == nil {
		if config.BaseURL == "" {
			return nil, ErrBaseURLRequired
		}
		gateway = fiberadapter.New(config.BaseURL, config.Timeout)
	}

	session := services.NewSessionStore(gateway, config.TokenStore)
	if err := session.Restore(ctx); err != nil {
		log.Warnw("starting without a persisted session", "error", err)
	}

	return &Client{
		Session: session,
		gateway: gateway,
	}, nil
}

func (c *Client) Gateway() Gateway {
	return c.gateway
}

// NewIntake starts a diagnosis form session.
func (c *Client) NewIntake() *Intake {
	return services.NewIntake(c.gateway, c.Session)
}

// NewConversation starts a chat thread with the assistant.
func (c *Client) NewConversation() *Conversation {
	return services.NewConversation(c.gateway, c.Session)
}

// Health checks that the remote API is reachable.
func (c *Client) Health(ctx context.Context) error {
	return core.AsRequestError(c.gateway.Health(ctx), core.HealthEndpoint.Op, core.FallbackHealth)
}

package fiber

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/client"

	"github.com/lborres/medassist/core"
)

const DefaultTimeout = 15 * time.Second

// Gateway talks to the remote API with the fiber HTTP client. Every call is
// one round trip: no retry, no caching and no authentication state.
type Gateway struct {
	client  *client.Client
	baseURL string
}

var _ core.Gateway = (*Gateway)(nil)

// New returns a Gateway rooted at baseURL. A zero timeout means
// DefaultTimeout.
func New(baseURL string, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	cc := client.New()
	cc.SetTimeout(timeout)

	return &Gateway{
		client:  cc,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (g *Gateway) BaseURL() string {
	return g.baseURL
}

func (g *Gateway) Register(ctx context.Context, token string, in core.RegisterInput) (*core.User, error) {
	var user core.User
	if err := g.do(ctx, core.RegisterEndpoint, token, in, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Authenticate exchanges credentials for a bearer token. The credentials go
// out as a JSON body {username, password}.
func (g *Gateway) Authenticate(ctx context.Context, token, identifier, secret string) (*core.TokenResult, error) {
	creds := core.Credentials{Username: identifier, Password: secret}

	var result core.TokenResult
	if err := g.do(ctx, core.TokenEndpoint, token, creds, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (g *Gateway) PredictDiagnosis(ctx context.Context, token string, symptoms []core.SymptomInput) (*core.DiagnosisResult, error) {
	if symptoms == nil {
		symptoms = []core.SymptomInput{}
	}

	var result core.DiagnosisResult
	if err := g.do(ctx, core.PredictEndpoint, token, core.PredictRequest{Symptoms: symptoms}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (g *Gateway) Chat(ctx context.Context, token string, in core.ChatInput) (*core.ChatReply, error) {
	var reply core.ChatReply
	if err := g.do(ctx, core.ChatEndpoint, token, in, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (g *Gateway) Health(ctx context.Context) error {
	return g.do(ctx, core.HealthEndpoint, "", nil, nil)
}

// do performs one round trip. A non-empty token is sent as a Bearer
// Authorization header. Transport failures and any status >= 300 become a
// *core.RequestError carrying the normalized message.
func (g *Gateway) do(ctx context.Context, ep core.Endpoint, token string, body, out any) error {
	req := g.client.R().SetContext(ctx)
	req.SetHeader(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if token != "" {
		req.SetHeader(fiber.HeaderAuthorization, "Bearer "+token)
	}
	if body != nil {
		req.SetJSON(body)
	}

	url := g.baseURL + ep.Path

	var (
		resp *client.Response
		err  error
	)
	switch ep.Method {
	case fiber.MethodGet:
		resp, err = req.Get(url)
	default:
		resp, err = req.Post(url)
	}
	if err != nil {
		return core.NormalizeError(ep.Op, 0, nil, err, ep.Fallback)
	}
	defer resp.Close()

	status := resp.StatusCode()
	// the body buffer is pooled and released by Close
	raw := bytes.Clone(resp.Body())

	if status >= fiber.StatusMultipleChoices {
		return core.NormalizeError(ep.Op, status, raw, nil, ep.Fallback)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return core.NormalizeError(ep.Op, status, nil, core.ErrMalformedResponse, ep.Fallback)
	}
	return nil
}

package fiber

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"

	"github.com/lborres/medassist/core"
)

type capturedRequest struct {
	method string
	path   string
	auth   string
	body   []byte
}

// newTestServer answers every request with status and body, recording what
// it received.
func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *[]capturedRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		seen []capturedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		mu.Lock()
		seen = append(seen, capturedRequest{
			method: r.Method,
			path:   r.URL.Path,
			auth:   r.Header.Get("Authorization"),
			body:   raw,
		})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

// Requirement: Authenticate posts {username, password} without an
// Authorization header when no token is held.
func TestGateway_Authenticate(t *testing.T) {
	// Arrange
	srv, seen := newTestServer(t, http.StatusOK,
		`{"access_token":"tok-1","token_type":"bearer","user":{"id":3,"email":"a@b.c","username":"ann","is_admin":false}}`)
	gw := New(srv.URL, 0)

	// Act
	result, err := gw.Authenticate(context.Background(), "", "a@b.c", "pw")

	// Assert
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if result.AccessToken != "tok-1" || result.TokenType != "bearer" {
		t.Errorf("result = %+v", result)
	}
	if result.User == nil || result.User.ID != 3 || result.User.Username != "ann" {
		t.Errorf("result.User = %+v", result.User)
	}

	req := (*seen)[0]
	if req.method != http.MethodPost || req.path != "/api/auth/token" {
		t.Errorf("request = %s %s, want POST /api/auth/token", req.method, req.path)
	}
	if req.auth != "" {
		t.Errorf("Authorization = %q, want none", req.auth)
	}
	var creds map[string]string
	if err := json.Unmarshal(req.body, &creds); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if creds["username"] != "a@b.c" || creds["password"] != "pw" {
		t.Errorf("body = %v", creds)
	}
}

// Requirement: Register sends the account fields and returns the created user.
func TestGateway_Register(t *testing.T) {
	// Arrange
	srv, seen := newTestServer(t, http.StatusOK, `{"id":9,"email":"b@c.d","username":"bob","is_admin":false,"is_active":true}`)
	gw := New(srv.URL+"/", 0)
	in := core.RegisterInput{Username: "bob", Email: "b@c.d", Password: "pw", IsActive: true}

	// Act
	user, err := gw.Register(context.Background(), "", in)

	// Assert
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.ID != 9 || !user.IsActive {
		t.Errorf("user = %+v", user)
	}
	if (*seen)[0].path != "/api/auth/register" {
		t.Errorf("path = %q", (*seen)[0].path)
	}
	var body map[string]any
	_ = json.Unmarshal((*seen)[0].body, &body)
	if body["is_active"] != true || body["is_admin"] != false || body["email"] != "b@c.d" {
		t.Errorf("body = %v", body)
	}
}

// Requirement: PredictDiagnosis presents the bearer token and the ordered
// symptom list, and returns the body verbatim.
func TestGateway_PredictDiagnosis(t *testing.T) {
	// Arrange
	srv, seen := newTestServer(t, http.StatusOK,
		`{"primary_diagnosis":"Flu","confidence":0.82,"symptoms":["fever","cough"],"recommendations":["rest"]}`)
	gw := New(srv.URL, 0)
	symptoms := []core.SymptomInput{
		{Name: "fever", Severity: core.SeverityModerate},
		{Name: "cough", Severity: core.SeverityMild},
	}

	// Act
	result, err := gw.PredictDiagnosis(context.Background(), "tok-1", symptoms)

	// Assert
	if err != nil {
		t.Fatalf("PredictDiagnosis() error = %v", err)
	}
	want := &core.DiagnosisResult{
		PrimaryDiagnosis: "Flu",
		Confidence:       0.82,
		Symptoms:         []string{"fever", "cough"},
		Recommendations:  []string{"rest"},
	}
	if !reflect.DeepEqual(result, want) {
		t.Errorf("result = %+v, want %+v", result, want)
	}
	req := (*seen)[0]
	if req.auth != "Bearer tok-1" {
		t.Errorf("Authorization = %q, want Bearer tok-1", req.auth)
	}
	var payload core.PredictRequest
	if err := json.Unmarshal(req.body, &payload); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if !reflect.DeepEqual(payload.Symptoms, symptoms) {
		t.Errorf("payload = %+v, want %+v", payload.Symptoms, symptoms)
	}
}

// Requirement: Chat threads the conversation id when one is known.
func TestGateway_Chat(t *testing.T) {
	// Arrange
	srv, seen := newTestServer(t, http.StatusOK, `{"message":"hi","conversation_id":5,"symptoms":["fever"]}`)
	gw := New(srv.URL, 0)
	id := int64(5)

	// Act
	reply, err := gw.Chat(context.Background(), "tok", core.ChatInput{Message: "hello", ConversationID: &id})

	// Assert
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if reply.ConversationID != 5 || reply.Message != "hi" {
		t.Errorf("reply = %+v", reply)
	}
	var body map[string]any
	_ = json.Unmarshal((*seen)[0].body, &body)
	if body["conversation_id"] != float64(5) {
		t.Errorf("conversation_id = %v, want 5", body["conversation_id"])
	}
}

// Requirement: failures carry the backend's detail, then message, then the
// raw body, else the per-operation fallback.
func TestGateway_ErrorNormalization(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		call       func(*Gateway) error
		wantMsg    string
		wantStatus int
	}{
		{
			name:   "detail wins on login",
			status: http.StatusUnauthorized,
			body:   `{"detail":"Incorrect username or password"}`,
			call: func(g *Gateway) error {
				_, err := g.Authenticate(context.Background(), "", "x", "y")
				return err
			},
			wantMsg:    "Incorrect username or password",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:   "message used without detail",
			status: http.StatusBadRequest,
			body:   `{"message":"Email taken"}`,
			call: func(g *Gateway) error {
				_, err := g.Register(context.Background(), "", core.RegisterInput{})
				return err
			},
			wantMsg:    "Email taken",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "non-string detail is JSON encoded",
			status: http.StatusUnprocessableEntity,
			body:   `{"detail":[{"loc":["body","email"],"msg":"field required"}]}`,
			call: func(g *Gateway) error {
				_, err := g.Register(context.Background(), "", core.RegisterInput{})
				return err
			},
			wantMsg:    `[{"loc":["body","email"],"msg":"field required"}]`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:   "plain text body used raw",
			status: http.StatusBadGateway,
			body:   "upstream down",
			call: func(g *Gateway) error {
				_, err := g.PredictDiagnosis(context.Background(), "t", nil)
				return err
			},
			wantMsg:    "upstream down",
			wantStatus: http.StatusBadGateway,
		},
		{
			name:   "object without fields falls back",
			status: http.StatusInternalServerError,
			body:   `{"error":"boom"}`,
			call: func(g *Gateway) error {
				_, err := g.PredictDiagnosis(context.Background(), "t", nil)
				return err
			},
			wantMsg:    "Diagnosis request failed",
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:   "empty body falls back",
			status: http.StatusServiceUnavailable,
			body:   "",
			call: func(g *Gateway) error {
				return g.Health(context.Background())
			},
			wantMsg:    "Health check failed",
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:   "malformed success body",
			status: http.StatusOK,
			body:   `not json`,
			call: func(g *Gateway) error {
				_, err := g.Chat(context.Background(), "t", core.ChatInput{Message: "hi"})
				return err
			},
			wantMsg:    "Chat request failed",
			wantStatus: http.StatusOK,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Arrange
			srv, _ := newTestServer(t, test.status, test.body)
			gw := New(srv.URL, 0)

			// Act
			err := test.call(gw)

			// Assert
			var reqErr *core.RequestError
			if !errors.As(err, &reqErr) {
				t.Fatalf("error = %v (%T), want *core.RequestError", err, err)
			}
			if reqErr.Error() != test.wantMsg {
				t.Errorf("Error() = %q, want %q", reqErr.Error(), test.wantMsg)
			}
			if reqErr.Status != test.wantStatus {
				t.Errorf("Status = %d, want %d", reqErr.Status, test.wantStatus)
			}
		})
	}
}

// Requirement: network failures share the normalization path and keep the cause.
func TestGateway_TransportFailure(t *testing.T) {
	// Arrange
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	gw := New(url, 0)

	// Act
	_, err := gw.Authenticate(context.Background(), "", "x", "y")

	// Assert
	var reqErr *core.RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("error = %v, want *core.RequestError", err)
	}
	if reqErr.Message != "Login failed" || reqErr.Status != 0 {
		t.Errorf("RequestError = %+v, want Login failed / status 0", reqErr)
	}
	if errors.Unwrap(reqErr) == nil {
		t.Error("transport cause was dropped")
	}
}

func TestGateway_Health(t *testing.T) {
	srv, seen := newTestServer(t, http.StatusOK, `{"status":"healthy"}`)
	gw := New(srv.URL, 0)

	if err := gw.Health(context.Background()); err != nil {
		t.Fatalf("Health() error = %v", err)
	}
	if (*seen)[0].method != http.MethodGet || (*seen)[0].path != "/health" {
		t.Errorf("request = %s %s, want GET /health", (*seen)[0].method, (*seen)[0].path)
	}
}

package core

import (
	"fmt"
	"strings"
)

// User is the cached profile of the signed-in account.
type User struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
	IsActive bool   `json:"is_active,omitempty"`
}

// RegisterInput is the fixed-shape registration payload.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	IsActive bool   `json:"is_active"`
	IsAdmin  bool   `json:"is_admin"`
}

// Credentials is the login payload. Username carries the login
// identifier, which may be an email address.
type Credentials struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// TokenResult is returned by a successful authentication.
type TokenResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	User        *User  `json:"user"`
}

// Severity classifies a reported symptom.
type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// DefaultSeverity is preselected for new symptom entries.
const DefaultSeverity = SeverityModerate

func (s Severity) Valid() bool {
	switch s {
	case SeverityMild, SeverityModerate, SeveritySevere:
		return true
	}
	return false
}

// ParseSeverity accepts a case-insensitive severity name.
func ParseSeverity(raw string) (Severity, error) {
	s := Severity(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidSeverity, raw)
	}
	return s, nil
}

// Symptom is one entry of an in-progress diagnosis submission.
type Symptom struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Severity Severity `json:"severity"`
}

// Input drops the local id, leaving the wire shape.
func (s Symptom) Input() SymptomInput {
	return SymptomInput{Name: s.Name, Severity: s.Severity}
}

// SymptomInput is the wire shape of a symptom.
type SymptomInput struct {
	Name     string   `json:"name"`
	Severity Severity `json:"severity"`
}

// PredictRequest is the body of a prediction call.
type PredictRequest struct {
	Symptoms []SymptomInput `json:"symptoms"`
}

// DiagnosisResult is the structured answer of the prediction endpoint.
type DiagnosisResult struct {
	PrimaryDiagnosis string   `json:"primary_diagnosis"`
	Confidence       float64  `json:"confidence"`
	Symptoms         []string `json:"symptoms"`
	Recommendations  []string `json:"recommendations"`
}

// MaxChatMessageLength mirrors the backend's validation limit.
const MaxChatMessageLength = 1000

// ChatInput is the body of a chat call. A nil ConversationID starts a
// new conversation.
type ChatInput struct {
	Message        string `json:"message"`
	ConversationID *int64 `json:"conversation_id,omitempty"`
}

// ChatReply is the assistant's answer.
type ChatReply struct {
	Message        string         `json:"message"`
	ConversationID int64          `json:"conversation_id"`
	Symptoms       []string       `json:"symptoms"`
	Diagnosis      map[string]any `json:"diagnosis,omitempty"`
}

// Role of a transcript line.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one line of a conversation transcript.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

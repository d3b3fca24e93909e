package core

import "errors"

// Session errors
var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrSessionSuperseded  = errors.New("session changed while request was in flight")
	ErrMissingAccessToken = errors.New("authentication response carried no access token")
)

// Intake and chat errors
var (
	ErrNoSymptoms         = errors.New("no symptoms to submit")
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
	ErrIntakeClosed       = errors.New("intake closed")
	ErrInvalidSeverity    = errors.New("severity must be one of mild, moderate, severe")
	ErrEmptyMessage       = errors.New("message is empty")
	ErrMessageTooLong     = errors.New("message is too long")
	ErrMalformedResponse  = errors.New("malformed response body")
)

// Config errors
var (
	ErrBaseURLRequired    = errors.New("api base url is required")
	ErrTokenStoreRequired = errors.New("token store is required")
	ErrUnknownTokenStore  = errors.New("unknown token store")
)

// Fallback messages used when a failure payload carries nothing readable.
const (
	FallbackRegister = "Registration failed"
	FallbackLogin    = "Login failed"
	FallbackPredict  = "Diagnosis request failed"
	FallbackChat     = "Chat request failed"
	FallbackHealth   = "Health check failed"
)

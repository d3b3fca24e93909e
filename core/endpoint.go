package core

import "fmt"

// Endpoint describes one remote API route. Both the gateway adapter and
// the local stand-in backend are built from the same table.
type Endpoint struct {
	Op          string
	Method      string
	Path        string
	Description string
	// Protected routes expect a bearer token.
	Protected bool
	// Fallback is the message used when a failure carries none.
	Fallback string
}

var (
	RegisterEndpoint = Endpoint{
		Op:          "register",
		Method:      "POST",
		Path:        "/api/auth/register",
		Description: "Create an account",
		Fallback:    FallbackRegister,
	}
	TokenEndpoint = Endpoint{
		Op:          "login",
		Method:      "POST",
		Path:        "/api/auth/token",
		Description: "Exchange credentials for a bearer token",
		Fallback:    FallbackLogin,
	}
	PredictEndpoint = Endpoint{
		Op:          "predict",
		Method:      "POST",
		Path:        "/api/diagnosis/predict",
		Description: "Predict a diagnosis from a symptom list",
		Protected:   true,
		Fallback:    FallbackPredict,
	}
	ChatEndpoint = Endpoint{
		Op:          "chat",
		Method:      "POST",
		Path:        "/api/chatbot/chat",
		Description: "Send a message to the assistant",
		Protected:   true,
		Fallback:    FallbackChat,
	}
	HealthEndpoint = Endpoint{
		Op:          "health",
		Method:      "GET",
		Path:        "/health",
		Description: "Backend liveness",
		Fallback:    FallbackHealth,
	}
)

// Endpoints returns every remote route.
func Endpoints() []Endpoint {
	return []Endpoint{
		RegisterEndpoint,
		TokenEndpoint,
		PredictEndpoint,
		ChatEndpoint,
		HealthEndpoint,
	}
}

// Key identifies an endpoint by METHOD:PATH.
func (e Endpoint) Key() string {
	return fmt.Sprintf("%s:%s", e.Method, e.Path)
}

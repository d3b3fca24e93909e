package mockapi

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/log"

	"github.com/lborres/medassist/core"
)

const localsUser = "user"

func (s *Server) register(c fiber.Ctx) error {
	var input core.RegisterInput
	if err := c.Bind().Body(&input); err != nil {
		return detail(c, fiber.StatusUnprocessableEntity, "Invalid request body")
	}

	user, err := s.store.createUser(input)
	if err != nil {
		return handleError(c, err)
	}

	log.Infow("user registered", "user_id", user.ID)
	return c.Status(fiber.StatusOK).JSON(user)
}

func (s *Server) token(c fiber.Ctx) error {
	var creds core.Credentials
	if err := c.Bind().Body(&creds); err != nil {
		return detail(c, fiber.StatusUnprocessableEntity, "Invalid request body")
	}

	token, user, err := s.store.authenticate(creds.Username, creds.Password)
	if err != nil {
		return handleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(core.TokenResult{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	})
}

func (s *Server) predict(c fiber.Ctx) error {
	var req core.PredictRequest
	if err := c.Bind().Body(&req); err != nil {
		return detail(c, fiber.StatusUnprocessableEntity, "Invalid request body")
	}
	if len(req.Symptoms) == 0 {
		return detail(c, fiber.StatusUnprocessableEntity, "At least one symptom is required")
	}
	for i, sym := range req.Symptoms {
		if strings.TrimSpace(sym.Name) == "" {
			return detail(c, fiber.StatusUnprocessableEntity, fmt.Sprintf("Symptom %d has no name", i+1))
		}
		if sym.Severity != "" && !sym.Severity.Valid() {
			return detail(c, fiber.StatusUnprocessableEntity, fmt.Sprintf("Unknown severity %q", sym.Severity))
		}
	}

	return c.Status(fiber.StatusOK).JSON(s.predictor.Predict(req.Symptoms))
}

func (s *Server) chat(c fiber.Ctx) error {
	var in core.ChatInput
	if err := c.Bind().Body(&in); err != nil {
		return detail(c, fiber.StatusUnprocessableEntity, "Invalid request body")
	}
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return detail(c, fiber.StatusUnprocessableEntity, "Message is required")
	}
	if utf8.RuneCountInString(message) > core.MaxChatMessageLength {
		return detail(c, fiber.StatusUnprocessableEntity, "Message is too long")
	}

	user := c.Locals(localsUser).(*core.User)
	found := s.predictor.Extract(message)

	convID, collected, err := s.store.recordSymptoms(user.ID, in.ConversationID, found)
	if err != nil {
		return handleError(c, err)
	}

	reply := core.ChatReply{
		ConversationID: convID,
		Symptoms:       collected,
	}
	switch {
	case len(collected) >= 2:
		inputs := make([]core.SymptomInput, len(collected))
		for i, name := range collected {
			inputs[i] = core.SymptomInput{Name: name, Severity: core.DefaultSeverity}
		}
		result := s.predictor.Predict(inputs)
		reply.Diagnosis = map[string]any{
			"primary_diagnosis": result.PrimaryDiagnosis,
			"confidence":        result.Confidence,
		}
		reply.Message = fmt.Sprintf("Based on %s, the most likely condition is %s. %s.",
			strings.Join(collected, ", "), result.PrimaryDiagnosis, consultAdvice)
	case len(found) > 0:
		reply.Message = fmt.Sprintf("I noted %s. Do you have any other symptoms?", strings.Join(found, ", "))
	default:
		reply.Message = "Could you describe your symptoms?"
	}

	return c.Status(fiber.StatusOK).JSON(reply)
}

func (s *Server) health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// requireAuth resolves the bearer token and stores the user in Locals.
func (s *Server) requireAuth(c fiber.Ctx) error {
	user, err := s.store.userByToken(extractToken(c))
	if err != nil {
		c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
		return handleError(c, err)
	}
	c.Locals(localsUser, user)
	return c.Next()
}

func extractToken(c fiber.Ctx) string {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}

func detail(c fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"detail": msg})
}

// handleError maps backend errors to a status and a detail message.
func handleError(c fiber.Ctx, err error) error {
	status := mapErrorToStatus(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		log.Errorw("mockapi request failed", "path", c.Path(), "error", err)
		msg = "Internal server error"
	}
	return detail(c, status, msg)
}

func mapErrorToStatus(err error) int {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return fiber.StatusUnprocessableEntity

	case errors.Is(err, ErrEmailTaken),
		errors.Is(err, ErrUsernameTaken),
		errors.Is(err, ErrInactiveUser):
		return fiber.StatusBadRequest

	case errors.Is(err, ErrBadCredentials),
		errors.Is(err, ErrNotAuthenticated),
		errors.Is(err, ErrInvalidToken):
		return fiber.StatusUnauthorized

	case errors.Is(err, ErrConversationNotFound):
		return fiber.StatusNotFound

	default:
		return fiber.StatusInternalServerError
	}
}

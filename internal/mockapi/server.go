// Package mockapi is a local stand-in for the remote medical assistant
// backend. It serves the same routes with in-memory accounts and a
// deterministic predictor, for development and end-to-end tests.
package mockapi

import (
	"errors"
	"net"

	"github.com/gofiber/fiber/v3"

	"github.com/lborres/medassist/core"
	"github.com/lborres/medassist/pkg/crypto"
)

type Config struct {
	// Hasher for account passwords. Defaults to crypto.NewArgon2().
	Hasher crypto.PasswordHasher
	// Middleware runs before every route, in order.
	Middleware []fiber.Handler
}

type Server struct {
	app       *fiber.App
	store     *store
	predictor Predictor
}

func New(c Config) *Server {
	if c.Hasher == nil {
		c.Hasher = crypto.NewArgon2()
	}

	s := &Server{
		store: newStore(c.Hasher),
	}
	s.app = fiber.New(fiber.Config{
		AppName:      "medassist-mockapi",
		ErrorHandler: errorHandler,
	})
	for _, m := range c.Middleware {
		s.app.Use(m)
	}
	s.registerRoutes()

	return s
}

// App exposes the fiber app, mostly for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) registerRoutes() {
	handlers := map[string]fiber.Handler{
		core.RegisterEndpoint.Op: s.register,
		core.TokenEndpoint.Op:    s.token,
		core.PredictEndpoint.Op:  s.predict,
		core.ChatEndpoint.Op:     s.chat,
		core.HealthEndpoint.Op:   s.health,
	}

	for _, ep := range core.Endpoints() {
		h, ok := handlers[ep.Op]
		if !ok {
			continue
		}
		if ep.Protected {
			s.app.Add([]string{ep.Method}, ep.Path, s.requireAuth, h)
		} else {
			s.app.Add([]string{ep.Method}, ep.Path, h)
		}
	}
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

// Serve serves on an existing listener until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	return s.app.Listener(ln, fiber.ListenConfig{DisableStartupMessage: true})
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// errorHandler renders every unhandled error as {"detail": ...}.
func errorHandler(c fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	detail := "Internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		detail = fe.Message
	}
	return c.Status(status).JSON(fiber.Map{"detail": detail})
}

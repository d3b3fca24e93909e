package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/log"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/joho/godotenv"

	"github.com/lborres/medassist/internal/config"
	"github.com/lborres/medassist/internal/mockapi"
)

func logFormat() string {
	format := []string{
		// Timestamp & Request ID
		"${time}|${requestid}",

		// Response metadata
		"${status}|${latency}",

		// Client info
		"${ip}:${port}",

		// Request details
		"${method}|${path}",

		// errors
		"${error}",
	}
	return strings.Join(format, "|") + "\n"
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found")
	}
	cfg := config.Load()
	log.SetLevel(cfg.Level())

	srv := mockapi.New(mockapi.Config{
		Middleware: []fiber.Handler{
			requestid.New(),
			logger.New(logger.Config{
				Format:     logFormat(),
				TimeFormat: "2006/01/02 15:04:05",
				TimeZone:   "Local",
			}),
		},
	})

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		if err := srv.Shutdown(); err != nil {
			log.Errorw("shutdown failed", "error", err)
		}
	}()

	log.Infow("mock api listening", "addr", cfg.MockAddr)
	if err := srv.Listen(cfg.MockAddr); err != nil {
		log.Fatalf("app.Listen: %v", err)
	}
}

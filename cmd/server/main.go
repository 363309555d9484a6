package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/echodiary/echodiary/adapters/gemini"
	"github.com/echodiary/echodiary/domain/repositories"
	"github.com/echodiary/echodiary/internal/api"
	"github.com/echodiary/echodiary/internal/auth"
	"github.com/echodiary/echodiary/internal/config"
	"github.com/echodiary/echodiary/internal/websocket"
	"github.com/echodiary/echodiary/usecase"
)

func main() {
	// .env is optional; real deployments set the environment directly
	godotenv.Load()

	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.NewServerConfigFromEnv()
	if err != nil {
		logger.Fatal("Invalid server configuration", zap.Error(err))
	}

	ctx := context.Background()

	// Initialize the model adapter; it serves as live transport, summarizer
	// and greeter. Without an API key, fall back to the scripted mock so the
	// gateway can still be exercised locally.
	var (
		transport  repositories.LiveTransport
		summarizer repositories.Summarizer
		greeter    repositories.Greeter
	)
	geminiCfg := gemini.NewConfigFromEnv()
	if geminiCfg.APIKey == "" {
		logger.Warn("GEMINI_API_KEY not set, using mock live transport")
		transport = gemini.NewMockLiveTransport()
		summarizer = gemini.NewMockSummarizer()
	} else {
		client, err := gemini.NewClient(ctx, geminiCfg, logger)
		if err != nil {
			logger.Fatal("Failed to initialize model client", zap.Error(err))
		}
		transport, summarizer, greeter = client, client, client
	}

	authenticator, err := auth.NewAuthenticator(cfg.JWTSecret)
	if err != nil {
		logger.Fatal("Failed to initialize authenticator", zap.Error(err))
	}

	// Initialize usecase services
	journal := usecase.NewJournalService(summarizer, logger)

	// Initialize WebSocket hub
	hub := websocket.NewHub(transport, greeter, journal, logger)
	go hub.Run()

	watchdog := websocket.NewSessionWatchdog(hub, cfg.MaxSessionDuration, logger)
	watchdog.Start()
	defer watchdog.Stop()

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Initialize API routes
	api.InitRoutes(e, hub, authenticator, journal, cfg.AccessKey, logger)

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Gateway started", zap.String("port", cfg.Port))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

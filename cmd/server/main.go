package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/previewpro/gated-content/pkg/gatedcontent/api"
	"github.com/previewpro/gated-content/pkg/gatedcontent/config"
)

// ProcessConfig holds process-level settings that are not part of the
// service wiring.
type ProcessConfig struct {
	LogLevel          string        `env:"LOG_LEVEL" env-default:"info"`
	LogFormat         string        `env:"LOG_FORMAT" env-default:"text"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" env-default:"5s"`
}

func main() {
	var proc ProcessConfig
	if err := cleanenv.ReadEnv(&proc); err != nil {
		slog.Error("Failed to read process configuration", "err", err)
		os.Exit(1)
	}

	logger := newLogger(proc)
	slog.SetDefault(logger)

	serverConfig, err := config.Load(config.WithEnv(""))
	if err != nil {
		logger.Error("Failed to load server configuration", "err", err)
		os.Exit(1)
	}
	if serverConfig.JWTSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	svc, err := serverConfig.BuildService(logger)
	if err != nil {
		logger.Error("Failed to build service", "err", err)
		os.Exit(1)
	}

	router := api.NewRouter(api.RouterConfig{
		Uploads:     api.NewUploadHandler(svc),
		Content:     api.NewContentHandler(svc),
		Public:      api.NewPublicHandler(svc),
		TokenAuth:   api.NewTokenAuth(serverConfig.JWTSecret),
		Environment: serverConfig.Environment,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", serverConfig.Port),
		Handler:           router,
		ReadHeaderTimeout: proc.ReadHeaderTimeout,
	}

	go func() {
		logger.Info("Gated content server starting",
			"port", serverConfig.Port,
			"env", serverConfig.Environment,
			"storage_backend", serverConfig.DefaultStorageBackend,
			"database", serverConfig.DatabaseType)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), proc.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "err", err)
		os.Exit(1)
	}

	logger.Info("Server exiting")
}

func newLogger(proc ProcessConfig) *slog.Logger {
	var level slog.Level
	switch proc.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if proc.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

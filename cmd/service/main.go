// cmd/service/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"revisehub/internal/api"
	"revisehub/internal/assistant"
	"revisehub/internal/config"
	"revisehub/internal/dashboard"
	"revisehub/internal/explorer"
	"revisehub/internal/github"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("Application startup error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Initialize structured logger
	logLevel := new(slog.LevelVar)
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	// 2. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	setLogLevel(cfg.LogLevel, logLevel)
	logger.Info("Configuration loaded successfully", "addr", cfg.HTTPAddr, "assistant_enabled", cfg.AssistantEnabled())

	// 3. Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 4. Initialize application components
	ghClient, err := github.NewClient(cfg.GithubToken, cfg.GithubAPIURL, logger)
	if err != nil {
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}
	if cfg.GithubToken == "" {
		logger.Warn("GITHUB_TOKEN is not set, requests are unauthenticated and heavily rate limited")
	}

	aggregator := dashboard.NewAggregator(ghClient, logger,
		dashboard.WithLimits(cfg.ContributorLimit, cfg.CommitLimit, cfg.PullLimit),
		dashboard.WithDetailConcurrency(cfg.CommitDetailConcurrency),
	)
	exp := explorer.NewExplorer(ghClient, logger, cfg.PullLimit)

	var asst api.AssistantService
	if cfg.AssistantEnabled() {
		gemini, err := assistant.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiAPIURL)
		if err != nil {
			return err
		}
		asst = assistant.New(gemini, logger)
	} else {
		logger.Warn("GEMINI_API_KEY is not set, AI endpoints are disabled")
	}

	router := api.NewRouter(aggregator, exp, asst, logger, api.Options{
		RequestTimeout:   cfg.RequestTimeout,
		DashboardTimeout: cfg.DashboardTimeout,
	})

	// 5. Start the HTTP server in a separate goroutine
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// 6. Wait for shutdown signal
	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received. Exiting.")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	return nil
}

func setLogLevel(level string, v *slog.LevelVar) {
	switch level {
	case "debug":
		v.Set(slog.LevelDebug)
	case "warn":
		v.Set(slog.LevelWarn)
	case "error":
		v.Set(slog.LevelError)
	default:
		v.Set(slog.LevelInfo)
	}
}

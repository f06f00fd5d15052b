package main

import (
	"context"
	"embed"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"wordoracle/internal/app"
	"wordoracle/internal/config"
	"wordoracle/internal/corpus"
	"wordoracle/internal/oracle"
	httpTransport "wordoracle/internal/transport/http"
)

//go:embed web/*
var webFS embed.FS

func main() {
	// Load .env if present, then configuration from the environment
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}
	cfg := config.Load()

	// Set up logger
	var logger *slog.Logger
	logOpts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	if cfg.Logging.Format == "json" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, logOpts))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, logOpts))
	}

	slog.SetDefault(logger)

	logger.Info("starting word oracle server",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	// The query oracle answers in-session questions; corpus generation may
	// use a different backend, with an optional fallback behind it.
	queryOracle := oracle.New(
		oracle.NewClient(cfg.AI.Query.APIKey, cfg.AI.Query.BaseURL, cfg.AI.Query.Model),
		logger,
	)

	generators := []oracle.Completer{
		oracle.NewClient(cfg.AI.Corpus.APIKey, cfg.AI.Corpus.BaseURL, cfg.AI.Corpus.Model),
	}
	if cfg.AI.CorpusFallback.Enabled() {
		generators = append(generators, oracle.NewClient(
			cfg.AI.CorpusFallback.APIKey,
			cfg.AI.CorpusFallback.BaseURL,
			cfg.AI.CorpusFallback.Model,
		))
	}
	wordGen := oracle.NewWordGenerator(oracle.NewWaterfall(generators...), logger)

	store, err := corpus.Open(cfg.Storage.DBPath, wordGen, cfg.Game.CorpusFloor, cfg.Game.CorpusBatchSize, logger)
	if err != nil {
		logger.Error("failed to open word store", "path", cfg.Storage.DBPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Create session hub
	hub := app.NewHub(cfg.Game, store, queryOracle, logger)
	defer hub.Close()

	// Create HTTP server
	server := httpTransport.NewServer(cfg, hub, logger, webFS)

	// Start server in goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

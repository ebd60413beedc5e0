// Package main implements the entry point for the batch image editing
// server: a queue of uploaded images, a batch scheduler that drives
// them through an LLM image editing model, and interactive per-image
// edit sessions.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/config"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/platform/logger"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

// run loads configuration, wires the application, and serves until a
// shutdown signal arrives.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(logger.Config{Level: cfg.Server.LogLevel})
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"persistence", cfg.Persistence.DatabaseURL != "")

	ctx := context.Background()
	app, err := newApplication(ctx, cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}

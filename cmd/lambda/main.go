package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"

	"github.com/Qairow13/InstGPT/internal/app"
	"github.com/Qairow13/InstGPT/internal/config"
	lambdahandler "github.com/Qairow13/InstGPT/internal/handler/lambda"
	"github.com/Qairow13/InstGPT/internal/logutil"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	// A bundled .env is optional; function environment variables win.
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file loaded, using function environment", "err", err)
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}

	logger, err := logutil.New(cfg.Logging, os.Stdout)
	if err != nil {
		slog.Error("failed to configure logging", "err", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	if err := app.ApplySecrets(ctx, cfg, logger); err != nil {
		logger.Error("failed to load secrets", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	router, err := app.NewHandler(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build handler", "err", err)
		os.Exit(1)
	}

	adapter, err := lambdahandler.NewAdapter(router)
	if err != nil {
		logger.Error("failed to create lambda adapter", "err", err)
		os.Exit(1)
	}

	lambda.Start(adapter.Handle)
}

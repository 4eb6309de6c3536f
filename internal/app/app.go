// Package app assembles the relay from configuration. Both the HTTP server and
// the Lambda entrypoint build their handler here.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Qairow13/InstGPT/internal/config"
	"github.com/Qairow13/InstGPT/internal/handler"
	"github.com/Qairow13/InstGPT/internal/handler/webhook"
	"github.com/Qairow13/InstGPT/internal/integrations/paramstore"
	"github.com/Qairow13/InstGPT/internal/service/ai"
	"github.com/Qairow13/InstGPT/internal/service/conversation"
	"github.com/Qairow13/InstGPT/internal/service/messenger"
	"github.com/Qairow13/InstGPT/internal/service/reply"
)

// ApplySecrets overlays secrets from SSM Parameter Store when PARAM_PREFIX is set.
func ApplySecrets(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if !cfg.ParamStore.Enabled() {
		return nil
	}
	client, err := paramstore.NewFromEnvironment(ctx)
	if err != nil {
		return err
	}
	if err := cfg.ApplyParameters(ctx, client); err != nil {
		return err
	}
	logger.Info("secrets loaded from parameter store", "prefix", cfg.ParamStore.Prefix)
	return nil
}

// NewHandler wires the services behind the HTTP router. A missing or broken
// provider is not fatal; users then receive the not-configured reply.
func NewHandler(ctx context.Context, cfg *config.Config, logger *slog.Logger) (http.Handler, error) {
	return newHandler(ctx, cfg, logger, nil)
}

func newHandler(ctx context.Context, cfg *config.Config, logger *slog.Logger, completer reply.Completer) (http.Handler, error) {
	store := conversation.NewStore(cfg.History.Capacity)
	logger.Info("conversation store ready", "capacity", store.Capacity())

	if completer == nil && cfg.AI.Enabled() {
		svc, err := newAIService(ctx, cfg.AI, logger)
		if err != nil {
			logger.Warn("failed to initialize AI service, continuing without it", "provider", cfg.AI.Provider, "err", err)
		} else {
			completer = svc
			logger.Info("AI service initialized", "provider", cfg.AI.Provider, "model", cfg.AI.Model)
		}
	} else if completer == nil {
		logger.Warn("AI provider credentials not configured", "provider", cfg.AI.Provider)
	}

	orch, err := reply.New(store, completer, reply.Config{
		SystemPrompt:       ai.ResolveSystemPrompt(cfg.AI.SystemPrompt),
		ProviderConfigured: completer != nil,
		Timeout:            cfg.AI.Timeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create reply orchestrator: %w", err)
	}

	if cfg.Messenger.PageToken == "" {
		logger.Warn("PAGE_TOKEN not configured, outbound messages will be rejected")
	}
	sender := messenger.NewClient(cfg.Messenger.PageToken,
		messenger.WithBaseURL(cfg.Messenger.BaseURL),
		messenger.WithAPIVersion(cfg.Messenger.APIVersion),
		messenger.WithHTTPClient(&http.Client{Timeout: cfg.Messenger.Timeout}),
		messenger.WithLogger(logger),
	)

	wh, err := webhook.New(webhook.Config{
		VerifyToken: cfg.Webhook.VerifyToken,
		AppSecret:   cfg.Webhook.AppSecret,
		AccountID:   cfg.Webhook.AccountID,
	}, orch, sender, logger)
	if err != nil {
		return nil, fmt.Errorf("create webhook handler: %w", err)
	}

	return handler.NewRouter(wh), nil
}

func newAIService(ctx context.Context, cfg config.AIConfig, logger *slog.Logger) (*ai.Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, err
	}
	return ai.NewService(ctx, chatModel, logger)
}

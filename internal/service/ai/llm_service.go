package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/Qairow13/InstGPT/internal/model/conversation"
)

// ErrEmptyResponse is returned when the model produced no usable text.
var ErrEmptyResponse = errors.New("ai: empty model response")

// Service generates replies from a system prompt and a stored conversation.
type Service struct {
	chain  compose.Runnable[map[string]any, *schema.Message]
	logger *slog.Logger
}

// NewService compiles the reply chain around chatModel.
func NewService(ctx context.Context, chatModel model.BaseChatModel, logger *slog.Logger) (*Service, error) {
	if chatModel == nil {
		return nil, errors.New("ai: chat model must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile reply chain: %w", err)
	}

	return &Service{chain: runnable, logger: logger}, nil
}

// Complete runs the chain and returns the trimmed reply text.
func (s *Service) Complete(ctx context.Context, system string, history []conversation.Turn) (string, error) {
	input := map[string]any{
		"system":  system,
		"history": buildHistoryMessages(history),
	}

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run reply chain: %w", err)
	}
	if response == nil {
		return "", ErrEmptyResponse
	}

	reply := strings.TrimSpace(response.Content)
	if reply == "" {
		return "", ErrEmptyResponse
	}

	s.logger.Debug("reply generated", "history", len(history), "length", len(reply))
	return reply, nil
}

func buildHistoryMessages(turns []conversation.Turn) []*schema.Message {
	history := make([]*schema.Message, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case conversation.RoleUser:
			history = append(history, schema.UserMessage(turn.Content))
		case conversation.RoleAssistant:
			history = append(history, schema.AssistantMessage(turn.Content, nil))
		}
	}
	return history
}

package reply

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Qairow13/InstGPT/internal/model/conversation"
	"github.com/Qairow13/InstGPT/internal/service/ai"
)

// Fallback replies sent instead of a model answer.
const (
	NotConfiguredReply = "Извините, сейчас сервер не настроен. Попробуйте позже."
	EmptyReply         = "Извините, сейчас не могу ответить. Напишите, пожалуйста, чуть позже."
	ProviderErrorReply = "Извините, сейчас есть небольшие технические неполадки. Менеджер ответит вам позже."
)

const defaultTimeout = 20 * time.Second

// Completer generates a reply for a system prompt and conversation history.
type Completer interface {
	Complete(ctx context.Context, system string, history []conversation.Turn) (string, error)
}

// HistoryStore is the conversation store contract used by the orchestrator.
type HistoryStore interface {
	Append(userID string, role conversation.Role, content string) (conversation.Turn, error)
	History(userID string) []conversation.Turn
}

// Outcome describes how a reply was produced.
type Outcome string

const (
	OutcomeReplied       Outcome = "replied"
	OutcomeNotConfigured Outcome = "not_configured"
	OutcomeProviderError Outcome = "provider_error"
	OutcomeEmptyReply    Outcome = "empty_reply"
	OutcomeStoreError    Outcome = "store_error"
)

// Result is the reply text together with how it was obtained.
type Result struct {
	Text    string
	Outcome Outcome
	Err     error
}

// Config tunes the orchestrator.
type Config struct {
	// SystemPrompt is sent ahead of the history on every request.
	SystemPrompt string
	// ProviderConfigured is false when no provider API key is set.
	ProviderConfigured bool
	// Timeout bounds a single provider call.
	Timeout time.Duration
}

// Orchestrator turns inbound text into a reply while keeping each user's
// history in order.
type Orchestrator struct {
	store     HistoryStore
	completer Completer
	cfg       Config
	locks     *keyedMutex
	logger    *slog.Logger
}

// New wires an orchestrator. completer may be nil when no provider is
// configured; such calls are answered with NotConfiguredReply.
func New(store HistoryStore, completer Completer, cfg Config, logger *slog.Logger) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("reply: history store must not be nil")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		store:     store,
		completer: completer,
		cfg:       cfg,
		locks:     newKeyedMutex(),
		logger:    logger,
	}, nil
}

// HandleMessage returns the text to deliver to userID for inbound text.
func (o *Orchestrator) HandleMessage(ctx context.Context, userID, text string) string {
	return o.Handle(ctx, userID, text).Text
}

// Handle records the inbound turn, asks the provider for a reply and records
// the reply on success. Calls for the same user are serialized end to end.
func (o *Orchestrator) Handle(ctx context.Context, userID, text string) Result {
	unlock := o.locks.Lock(userID)
	defer unlock()

	inbound, err := o.store.Append(userID, conversation.RoleUser, text)
	if err != nil {
		o.logger.Error("record inbound turn failed", "sender", userID, "err", err)
		return Result{Text: ProviderErrorReply, Outcome: OutcomeStoreError, Err: err}
	}
	logger := o.logger.With("sender", userID, "turn", inbound.ID)

	if !o.cfg.ProviderConfigured || o.completer == nil {
		logger.Warn("provider api key is not set")
		return Result{Text: NotConfiguredReply, Outcome: OutcomeNotConfigured}
	}

	history := o.store.History(userID)

	callCtx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	answer, err := o.completer.Complete(callCtx, o.cfg.SystemPrompt, history)
	if errors.Is(err, ai.ErrEmptyResponse) || (err == nil && isBlank(answer)) {
		logger.Warn("provider returned empty reply")
		return Result{Text: EmptyReply, Outcome: OutcomeEmptyReply}
	}
	if err != nil {
		logger.Error("provider call failed", "err", err)
		return Result{Text: ProviderErrorReply, Outcome: OutcomeProviderError, Err: err}
	}
	answer = strings.TrimSpace(answer)

	stored, err := o.store.Append(userID, conversation.RoleAssistant, answer)
	if err != nil {
		logger.Error("record reply turn failed", "err", err)
	} else {
		logger.Debug("reply recorded", "reply_turn", stored.ID)
	}
	return Result{Text: answer, Outcome: OutcomeReplied}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

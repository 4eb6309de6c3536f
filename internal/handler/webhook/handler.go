package webhook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	model "github.com/Qairow13/InstGPT/internal/model/webhook"
	"github.com/Qairow13/InstGPT/internal/service/signature"
	"github.com/Qairow13/InstGPT/pkg/utils"
)

const maxBodyBytes = 1 << 20

// Replier produces the reply text for an inbound user message.
type Replier interface {
	HandleMessage(ctx context.Context, userID, text string) string
}

// Sender delivers a reply to the user.
type Sender interface {
	SendText(ctx context.Context, recipientID, text string) (string, error)
}

// Config holds the values used to authenticate Meta's calls.
type Config struct {
	VerifyToken string
	AppSecret   string
	AccountID   string
}

// Handler serves the Meta webhook endpoints.
type Handler struct {
	cfg      Config
	verifier *signature.Verifier
	replier  Replier
	sender   Sender
	logger   *slog.Logger
}

// New creates the webhook handler.
func New(cfg Config, replier Replier, sender Sender, logger *slog.Logger) (*Handler, error) {
	if replier == nil {
		return nil, errors.New("webhook: replier must not be nil")
	}
	if sender == nil {
		return nil, errors.New("webhook: sender must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		cfg:      cfg,
		verifier: signature.NewVerifier(cfg.AppSecret),
		replier:  replier,
		sender:   sender,
		logger:   logger,
	}, nil
}

// RegisterRoutes mounts the subscription check and event delivery routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/webhook", h.handleVerify)
	r.Post("/webhook", h.handleEvents)
}

// handleVerify answers the subscription handshake.
func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") == "subscribe" && q.Get("hub.verify_token") == h.cfg.VerifyToken {
		h.logger.Info("webhook verified")
		utils.RespondText(w, http.StatusOK, q.Get("hub.challenge"))
		return
	}

	h.logger.Info("webhook verification failed", "mode", q.Get("hub.mode"))
	utils.RespondText(w, http.StatusForbidden, "Verification failed")
}

// handleEvents verifies and dispatches a delivery. Meta disables webhooks that
// keep failing, so anything past the signature check is acknowledged.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.logger.Warn("read webhook body failed", "err", err)
		utils.RespondStatus(w, http.StatusOK, "bad signature")
		return
	}

	if !h.verifier.Verify(raw, r.Header.Get(signature.HeaderName)) {
		h.logger.Info("bad signature")
		utils.RespondStatus(w, http.StatusOK, "bad signature")
		return
	}

	h.dispatch(context.WithoutCancel(r.Context()), raw)
	utils.RespondStatus(w, http.StatusOK, "ok")
}

func (h *Handler) dispatch(ctx context.Context, raw []byte) {
	payload, err := model.Parse(raw)
	if err != nil {
		h.logger.Warn("malformed webhook payload", "err", err)
		return
	}
	h.logger.Debug("incoming", "payload", string(raw))

	for _, res := range model.Events(payload, h.cfg.AccountID) {
		if res.Err != nil {
			h.logger.Warn("skip messaging event", "entry", res.Entry, "index", res.Index, "err", res.Err)
			continue
		}
		h.handleEvent(ctx, res.Event)
	}
}

func (h *Handler) handleEvent(ctx context.Context, ev model.InboundEvent) {
	if !ev.Replyable() {
		if ev.Kind == model.KindEdit {
			h.logger.Info("edited message ignored", "sender", ev.SenderID)
			return
		}
		h.logger.Debug("messaging event ignored", "kind", ev.Kind, "sender", ev.SenderID, "mid", ev.MID)
		return
	}

	h.logger.Info("message received", "sender", ev.SenderID, "mid", ev.MID, "text", ev.Text)
	reply := h.replier.HandleMessage(ctx, ev.SenderID, ev.Text)

	if _, err := h.sender.SendText(ctx, ev.SenderID, reply); err != nil {
		h.logger.Error("deliver reply failed", "sender", ev.SenderID, "mid", ev.MID, "err", err)
	}
}

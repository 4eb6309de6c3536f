package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Qairow13/InstGPT/internal/handler/webhook"
	"github.com/Qairow13/InstGPT/pkg/utils"
)

// NewRouter wires HTTP routes to the webhook handler.
func NewRouter(webhookHandler *webhook.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondStatus(w, http.StatusOK, "ok")
	})

	webhookHandler.RegisterRoutes(r)

	return r
}

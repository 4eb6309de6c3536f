package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Qairow13/InstGPT/internal/config"
	"github.com/Qairow13/InstGPT/internal/model/conversation"
	"github.com/Qairow13/InstGPT/internal/service/reply"
	"github.com/Qairow13/InstGPT/internal/service/signature"
)

type completerFunc func(ctx context.Context, system string, history []conversation.Turn) (string, error)

func (f completerFunc) Complete(ctx context.Context, system string, history []conversation.Turn) (string, error) {
	return f(ctx, system, history)
}

type graphRecorder struct {
	mu       sync.Mutex
	paths    []string
	payloads []map[string]any
}

func (g *graphRecorder) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		g.mu.Lock()
		g.paths = append(g.paths, r.URL.Path)
		g.payloads = append(g.payloads, payload)
		g.mu.Unlock()
		_, _ = w.Write([]byte(`{"recipient_id":"U1","message_id":"m_1"}`))
	}
}

func testConfig(graphURL string) *config.Config {
	return &config.Config{
		Webhook:   config.WebhookConfig{VerifyToken: "tok", AppSecret: "secret"},
		Messenger: config.MessengerConfig{PageToken: "page", BaseURL: graphURL, APIVersion: "v21.0", Timeout: time.Second},
		AI:        config.AIConfig{Provider: config.ProviderOpenAI, Timeout: time.Second},
		History:   config.HistoryConfig{Capacity: 10},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set(signature.HeaderName, signature.Sign([]byte(body), []byte("secret")))
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

const delivery = `{"object":"instagram","entry":[{"id":"1","messaging":[{"sender":{"id":"U1"},"message":{"mid":"m1","text":"Сколько стоит?"}}]}]}`

func TestHandler_EndToEnd(t *testing.T) {
	graph := &graphRecorder{}
	srv := httptest.NewServer(graph.handler())
	defer srv.Close()

	var gotSystem string
	completer := completerFunc(func(_ context.Context, system string, history []conversation.Turn) (string, error) {
		gotSystem = system
		require.Len(t, history, 1)
		return "  Цена 100  ", nil
	})

	h, err := newHandler(context.Background(), testConfig(srv.URL), quietLogger(), completer)
	require.NoError(t, err)

	resp := post(t, h, delivery)
	require.Equal(t, http.StatusOK, resp.Code)
	require.JSONEq(t, `{"status":"ok"}`, resp.Body.String())

	require.NotEmpty(t, gotSystem)
	require.Equal(t, []string{"/v21.0/me/messages"}, graph.paths)
	require.Equal(t, map[string]any{
		"recipient": map[string]any{"id": "U1"},
		"message":   map[string]any{"text": "Цена 100"},
	}, graph.payloads[0])
}

func TestHandler_WithoutProviderSendsNotConfigured(t *testing.T) {
	graph := &graphRecorder{}
	srv := httptest.NewServer(graph.handler())
	defer srv.Close()

	h, err := NewHandler(context.Background(), testConfig(srv.URL), quietLogger())
	require.NoError(t, err)

	post(t, h, delivery)

	require.Len(t, graph.payloads, 1)
	require.Equal(t, reply.NotConfiguredReply, graph.payloads[0]["message"].(map[string]any)["text"])
}

func TestHandler_Healthz(t *testing.T) {
	h, err := NewHandler(context.Background(), testConfig("http://127.0.0.1:0"), quietLogger())
	require.NoError(t, err)

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestApplySecrets_DisabledIsNoop(t *testing.T) {
	cfg := testConfig("")
	require.NoError(t, ApplySecrets(context.Background(), cfg, quietLogger()))
	require.Equal(t, "tok", cfg.Webhook.VerifyToken)
}

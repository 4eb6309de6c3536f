package messenger

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSendText_PostsPayload(t *testing.T) {
	var (
		gotMethod string
		gotType   string
		gotPath   string
		gotToken  string
		gotBody   sendRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotType = r.Header.Get("Content-Type")
		gotPath = r.URL.Path
		gotToken = r.URL.Query().Get("access_token")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = w.Write([]byte(`{"recipient_id":"u1","message_id":"mid.1"}`))
	}))
	defer srv.Close()

	c := NewClient("page-token", WithBaseURL(srv.URL), WithAPIVersion("v21.0"))
	resp, err := c.SendText(context.Background(), "u1", "Здравствуйте")
	require.NoError(t, err)
	require.Contains(t, resp, "mid.1")

	require.Equal(t, http.MethodPost, gotMethod)
	require.Equal(t, "application/json", gotType)
	require.Equal(t, "/v21.0/me/messages", gotPath)
	require.Equal(t, "page-token", gotToken)
	require.Equal(t, "u1", gotBody.Recipient.ID)
	require.Equal(t, "Здравствуйте", gotBody.Message.Text)
}

func TestSendText_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token"}}`))
	}))
	defer srv.Close()

	c := NewClient("bad", WithBaseURL(srv.URL))
	resp, err := c.SendText(context.Background(), "u1", "hi")
	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusBadRequest, statusErr.HTTPStatusCode())
	require.Contains(t, resp, "Invalid OAuth")
}

func TestSendText_EmptyRecipient(t *testing.T) {
	c := NewClient("token")
	_, err := c.SendText(context.Background(), " ", "hi")
	require.Error(t, err)
}

func TestSendText_TransportErrorRedactsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient("secret-token-123", WithBaseURL(srv.URL), WithHTTPClient(&http.Client{Timeout: 20 * time.Millisecond}))
	_, err := c.SendText(context.Background(), "u1", "hi")
	require.Error(t, err)
	require.NotContains(t, err.Error(), "secret-token-123")
}

func TestSendText_TransportErrorRedactsEscapedToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	token := "EAAB+abc/def=="
	c := NewClient(token, WithBaseURL(srv.URL), WithHTTPClient(&http.Client{Timeout: 20 * time.Millisecond}))
	_, err := c.SendText(context.Background(), "u1", "hi")
	require.Error(t, err)
	require.NotContains(t, err.Error(), token)
	require.NotContains(t, err.Error(), url.QueryEscape(token))
	require.Contains(t, err.Error(), "REDACTED")
}

func TestRedact(t *testing.T) {
	err := errors.New(`Post "https://graph.facebook.com/v21.0/me/messages?access_token=a%2Bb%3D": timeout`)
	require.Equal(t, `Post "https://graph.facebook.com/v21.0/me/messages?access_token=REDACTED": timeout`, redact(err, "a+b=").Error())

	plain := errors.New("connection refused")
	require.Same(t, plain, redact(plain, "a+b="))
	require.Same(t, plain, redact(plain, ""))
}

func TestMessagesURL(t *testing.T) {
	c := NewClient("tok", WithBaseURL("https://graph.example.com/"), WithAPIVersion("/v19.0/"))
	require.Equal(t, "https://graph.example.com/v19.0/me/messages?access_token=tok", c.messagesURL())

	c = NewClient("tok", WithBaseURL("  "), WithAPIVersion(""))
	require.Equal(t, "https://graph.facebook.com/v21.0/me/messages?access_token=tok", c.messagesURL())
}

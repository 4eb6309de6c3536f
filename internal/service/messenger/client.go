package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL    = "https://graph.facebook.com"
	defaultAPIVersion = "v21.0"
	defaultTimeout    = 10 * time.Second
)

type sendRequest struct {
	Recipient recipient   `json:"recipient"`
	Message   textMessage `json:"message"`
}

type recipient struct {
	ID string `json:"id"`
}

type textMessage struct {
	Text string `json:"text"`
}

// HTTPStatusError captures non-2xx responses from the Send API.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("messenger: unexpected status %d: %s", e.StatusCode, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client delivers text replies through the Graph API Send endpoint.
type Client struct {
	baseURL     string
	apiVersion  string
	accessToken string
	httpClient  *http.Client
	logger      *slog.Logger
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if v := strings.TrimSpace(baseURL); v != "" {
			c.baseURL = v
		}
	}
}

func WithAPIVersion(version string) Option {
	return func(c *Client) {
		if v := strings.Trim(strings.TrimSpace(version), "/"); v != "" {
			c.apiVersion = v
		}
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient builds a Send API client authenticated with the page access token.
func NewClient(accessToken string, opts ...Option) *Client {
	c := &Client{
		baseURL:     defaultBaseURL,
		apiVersion:  defaultAPIVersion,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) messagesURL() string {
	base := strings.TrimRight(c.baseURL, "/")
	q := url.Values{}
	q.Set("access_token", c.accessToken)
	return fmt.Sprintf("%s/%s/me/messages?%s", base, c.apiVersion, q.Encode())
}

// SendText posts text to recipientID and returns the raw response body.
func (c *Client) SendText(ctx context.Context, recipientID, text string) (string, error) {
	if strings.TrimSpace(recipientID) == "" {
		return "", errors.New("messenger: recipient id must not be empty")
	}

	body, err := json.Marshal(sendRequest{
		Recipient: recipient{ID: recipientID},
		Message:   textMessage{Text: text},
	})
	if err != nil {
		return "", fmt.Errorf("messenger: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.messagesURL(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("messenger: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("messenger: request failed: %w", redact(err, c.accessToken))
	}
	defer func() { _ = res.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("messenger: read response body: %w", err)
	}
	c.logger.Info("outgoing message", "recipient", recipientID, "status", res.StatusCode, "response", string(raw))

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return string(raw), &HTTPStatusError{StatusCode: res.StatusCode, Body: string(raw)}
	}
	return string(raw), nil
}

// redact keeps the access token out of transport errors, which embed the URL
// and therefore the query-escaped token.
func redact(err error, token string) error {
	if token == "" {
		return err
	}
	msg := err.Error()
	redacted := msg
	for _, v := range []string{url.QueryEscape(token), token} {
		redacted = strings.ReplaceAll(redacted, v, "REDACTED")
	}
	if redacted == msg {
		return err
	}
	return errors.New(redacted)
}

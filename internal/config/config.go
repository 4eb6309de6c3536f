package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every setting of the relay.
type Config struct {
	Server     ServerConfig
	Webhook    WebhookConfig
	Messenger  MessengerConfig
	AI         AIConfig
	History    HistoryConfig
	Logging    LoggingConfig
	ParamStore ParamStoreConfig
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	messenger, err := loadMessengerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	history, err := loadHistoryConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		Webhook:   loadWebhookConfig(),
		Messenger: messenger,
		AI:        ai,
		History:   history,
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "text"),
		},
		ParamStore: ParamStoreConfig{
			Prefix: strings.TrimRight(strings.TrimSpace(os.Getenv("PARAM_PREFIX")), "/"),
		},
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8000"
	}

	if strings.Contains(port, ":") {
		// allow ":8000" or "127.0.0.1:8000"
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// WebhookConfig holds the values Meta uses to talk to the webhook.
type WebhookConfig struct {
	VerifyToken string
	AppSecret   string
	// AccountID is the business account's own id; messages it sends are ignored.
	AccountID string
}

func loadWebhookConfig() WebhookConfig {
	return WebhookConfig{
		VerifyToken: getEnvOrDefault("VERIFY_TOKEN", "VERIFY_TOKEN"),
		AppSecret:   getEnvOrDefault("APP_SECRET", "APP_SECRET"),
		AccountID:   strings.TrimSpace(os.Getenv("IG_USER_ID")),
	}
}

// MessengerConfig describes the Graph API Send endpoint.
type MessengerConfig struct {
	PageToken  string
	BaseURL    string
	APIVersion string
	Timeout    time.Duration
}

func loadMessengerConfig() (MessengerConfig, error) {
	timeout, err := parseDurationSecondsEnv("GRAPH_TIMEOUT_SECONDS", 10*time.Second)
	if err != nil {
		return MessengerConfig{}, err
	}
	return MessengerConfig{
		PageToken:  strings.TrimSpace(os.Getenv("PAGE_TOKEN")),
		BaseURL:    getEnvOrDefault("GRAPH_API_BASE", "https://graph.facebook.com"),
		APIVersion: getEnvOrDefault("GRAPH_API_VERSION", "v21.0"),
		Timeout:    timeout,
	}, nil
}

const (
	ProviderOpenAI = "openai"
	ProviderArk    = "ark"
)

// AIConfig describes the completion provider.
type AIConfig struct {
	Provider     string
	APIKey       string
	AccessKey    string
	SecretKey    string
	Model        string
	BaseURL      string
	Region       string
	SystemPrompt string
	Temperature  *float64
	MaxTokens    *int
	Timeout      time.Duration
}

// Enabled reports whether credentials for the provider are present.
func (c AIConfig) Enabled() bool {
	if c.Provider == ProviderArk {
		return c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != "")
	}
	return c.APIKey != ""
}

// NewChatModel builds the provider's chat model.
func (c AIConfig) NewChatModel(ctx context.Context) (model.BaseChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("%s credentials are not configured", c.Provider)
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	switch c.Provider {
	case ProviderOpenAI:
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:      c.APIKey,
			BaseURL:     c.BaseURL,
			Model:       c.Model,
			Timeout:     c.Timeout,
			Temperature: temperature,
			MaxTokens:   c.MaxTokens,
		})
	case ProviderArk:
		return ark.NewChatModel(ctx, &ark.ChatModelConfig{
			BaseURL:     c.BaseURL,
			Region:      c.Region,
			APIKey:      c.APIKey,
			AccessKey:   c.AccessKey,
			SecretKey:   c.SecretKey,
			Model:       c.Model,
			MaxTokens:   c.MaxTokens,
			Temperature: temperature,
		})
	default:
		return nil, fmt.Errorf("unsupported AI_PROVIDER %q", c.Provider)
	}
}

func loadAIConfig() (AIConfig, error) {
	provider := strings.ToLower(getEnvOrDefault("AI_PROVIDER", ProviderOpenAI))
	if provider != ProviderOpenAI && provider != ProviderArk {
		return AIConfig{}, fmt.Errorf("invalid AI_PROVIDER value: %q", provider)
	}

	temperature, err := parseOptionalFloatEnv("AI_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("AI_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	timeout, err := parseDurationSecondsEnv("AI_TIMEOUT_SECONDS", 20*time.Second)
	if err != nil {
		return AIConfig{}, err
	}

	cfg := AIConfig{
		Provider:     provider,
		SystemPrompt: os.Getenv("SYSTEM_PROMPT"),
		Temperature:  temperature,
		MaxTokens:    maxTokens,
		Timeout:      timeout,
	}

	switch provider {
	case ProviderArk:
		cfg.APIKey = strings.TrimSpace(os.Getenv("ARK_API_KEY"))
		cfg.AccessKey = strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY"))
		cfg.SecretKey = strings.TrimSpace(os.Getenv("ARK_SECRET_KEY"))
		cfg.Model = strings.TrimSpace(os.Getenv("ARK_MODEL"))
		cfg.BaseURL = getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3")
		cfg.Region = getEnvOrDefault("ARK_REGION", "cn-beijing")
	default:
		cfg.APIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
		cfg.Model = getEnvOrDefault("OPENAI_MODEL", "gpt-4.1-mini")
		cfg.BaseURL = getEnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	}
	return cfg, nil
}

// HistoryConfig bounds the per-user conversation.
type HistoryConfig struct {
	Capacity int
}

func loadHistoryConfig() (HistoryConfig, error) {
	capacity := 10
	override, err := parseOptionalIntEnv("HISTORY_CAPACITY")
	if err != nil {
		return HistoryConfig{}, err
	}
	if override != nil {
		if *override < 1 {
			return HistoryConfig{}, fmt.Errorf("invalid HISTORY_CAPACITY value %d: must be positive", *override)
		}
		capacity = *override
	}
	return HistoryConfig{Capacity: capacity}, nil
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string
	Format string
}

// ParamStoreConfig enables loading secrets from AWS SSM Parameter Store.
type ParamStoreConfig struct {
	Prefix string
}

// Enabled reports whether a parameter prefix was configured.
func (c ParamStoreConfig) Enabled() bool {
	return c.Prefix != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseDurationSecondsEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	seconds, err := parseOptionalIntEnv(key)
	if err != nil {
		return 0, err
	}
	if seconds == nil {
		return defaultValue, nil
	}
	if *seconds <= 0 {
		return 0, fmt.Errorf("invalid %s value %d: must be positive", key, *seconds)
	}
	return time.Duration(*seconds) * time.Second, nil
}

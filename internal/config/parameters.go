package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Qairow13/InstGPT/internal/integrations/paramstore"
)

// ParameterGetter reads a single named parameter.
type ParameterGetter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// ApplyParameters fills secrets that are still empty from the parameter store
// under c.ParamStore.Prefix. Values already present in the environment win.
// The provider key is read from "<provider>_api_key". A system prompt that does
// not exist is skipped; every other lookup failure is returned.
func (c *Config) ApplyParameters(ctx context.Context, getter ParameterGetter) error {
	if !c.ParamStore.Enabled() {
		return nil
	}
	if getter == nil {
		return errors.New("config: parameter getter must not be nil")
	}

	required := []struct {
		name   string
		target *string
		unset  string
	}{
		{"verify_token", &c.Webhook.VerifyToken, "VERIFY_TOKEN"},
		{"app_secret", &c.Webhook.AppSecret, "APP_SECRET"},
		{"page_token", &c.Messenger.PageToken, ""},
		{c.AI.Provider + "_api_key", &c.AI.APIKey, ""},
	}
	for _, p := range required {
		if *p.target != "" && *p.target != p.unset {
			continue
		}
		v, err := getter.GetParameter(ctx, c.ParamStore.Prefix+"/"+p.name)
		if err != nil {
			return fmt.Errorf("config: load %s: %w", p.name, err)
		}
		*p.target = strings.TrimSpace(v)
	}

	if strings.TrimSpace(c.AI.SystemPrompt) == "" {
		v, err := getter.GetParameter(ctx, c.ParamStore.Prefix+"/system_prompt")
		switch {
		case errors.Is(err, paramstore.ErrNotFound):
		case err != nil:
			return fmt.Errorf("config: load system_prompt: %w", err)
		default:
			c.AI.SystemPrompt = v
		}
	}
	return nil
}

package openrouter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/israelmirsky/claude-codex-usage/internal/keychain"
)

// KeyStatus reports whether an OpenRouter key is configured, with a
// masked preview safe to display.
type KeyStatus struct {
	Configured bool   `json:"configured"`
	MaskedKey  string `json:"masked_key,omitempty"`
}

// Status reports the stored key's state without exposing it.
func (c *Client) Status(ctx context.Context) (KeyStatus, error) {
	secret, err := c.secrets.GetSecret(ctx, keychainService, keychainAccount)
	if err != nil {
		if errors.Is(err, keychain.ErrNotFound) {
			return KeyStatus{}, nil
		}
		return KeyStatus{}, err
	}
	return KeyStatus{Configured: true, MaskedKey: maskKey(string(secret))}, nil
}

// StoreKey saves the API key to the keychain.
func (c *Client) StoreKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("openrouter: API key cannot be empty")
	}

	writer, ok := c.secrets.(keychain.SecretWriter)
	if !ok {
		return fmt.Errorf("openrouter: secret store is read-only")
	}
	return writer.SetSecret(ctx, keychainService, keychainAccount, []byte(key))
}

// ClearKey removes the stored API key. A missing key is not an error.
func (c *Client) ClearKey(ctx context.Context) error {
	writer, ok := c.secrets.(keychain.SecretWriter)
	if !ok {
		return fmt.Errorf("openrouter: secret store is read-only")
	}
	return writer.DeleteSecret(ctx, keychainService, keychainAccount)
}

func maskKey(key string) string {
	trimmed := strings.TrimSpace(key)
	if len(trimmed) <= 10 {
		return "********"
	}
	return trimmed[:6] + "..." + trimmed[len(trimmed)-4:]
}

// Package openrouter fetches the remaining OpenRouter credits balance.
//
// The API key lives in the OS keychain (managed through KeyStatus /
// StoreKey / ClearKey), with the OPENROUTER_API_KEY environment variable
// as a fallback for terminal and dev workflows.
package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/israelmirsky/claude-codex-usage/internal/keychain"
	"github.com/israelmirsky/claude-codex-usage/internal/logger"
	"github.com/israelmirsky/claude-codex-usage/internal/models"
	"github.com/israelmirsky/claude-codex-usage/internal/providers"
)

const (
	defaultBaseURL  = "https://openrouter.ai/api/v1"
	keychainService = "com.israelmirsky.claude-codex-usage.openrouter"
	keychainAccount = "openrouter_api_key"
	envKey          = "OPENROUTER_API_KEY"
)

// Client fetches the OpenRouter credits balance.
type Client struct {
	secrets keychain.SecretStore
	httpc   *http.Client
	baseURL string
}

// New creates a Client reading its API key from the given secret store.
func New(secrets keychain.SecretStore, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = providers.NewHTTPClient()
	}
	return &Client{secrets: secrets, httpc: httpc, baseURL: defaultBaseURL}
}

// Name identifies the provider in logs and metric keys.
func (c *Client) Name() string {
	return "OpenRouter"
}

// SetBaseURL overrides the API origin. Used in tests.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// creditsResponse mirrors the credits endpoint envelope. Numeric fields
// arrive as either JSON numbers or strings depending on account age.
type creditsResponse struct {
	Data *creditsPayload `json:"data"`
}

type creditsPayload struct {
	TotalCredits json.RawMessage `json:"total_credits"`
	TotalUsage   json.RawMessage `json:"total_usage"`
}

// apiKey resolves the OpenRouter key: keychain first, env fallback.
func (c *Client) apiKey(ctx context.Context) (string, error) {
	secret, err := c.secrets.GetSecret(ctx, keychainService, keychainAccount)
	if err == nil {
		return string(secret), nil
	}
	if !errors.Is(err, keychain.ErrNotFound) {
		return "", err
	}

	key := strings.TrimSpace(os.Getenv(envKey))
	if key == "" {
		// Still ErrNotFound so callers can treat "no key anywhere" as
		// the quiet unconfigured case, not a failure.
		return "", fmt.Errorf("%w: no API key configured (%s not set)", keychain.ErrNotFound, envKey)
	}
	return key, nil
}

// FetchCredits calls the credits endpoint and computes the remaining
// balance.
func (c *Client) FetchCredits(ctx context.Context) (*models.CreditsData, error) {
	key, err := c.apiKey(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/credits", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create credits request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openrouter request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	var payload creditsResponse
	if err := providers.DecodeResponse(c.Name(), resp, &payload); err != nil {
		return nil, err
	}

	var total, used float64
	if payload.Data != nil {
		total = rawToFloat(payload.Data.TotalCredits)
		used = rawToFloat(payload.Data.TotalUsage)
	}

	remaining := total - used
	if remaining < 0 {
		remaining = 0
	}

	return &models.CreditsData{
		TotalCredits:     total,
		TotalUsage:       used,
		RemainingCredits: remaining,
		FetchedAt:        models.Now(),
	}, nil
}

// rawToFloat tolerates numbers encoded as JSON numbers or strings;
// anything else counts as zero.
func rawToFloat(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return n
		}
	}
	return 0
}

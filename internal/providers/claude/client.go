// Package claude fetches usage from the claude.ai internal organizations
// API, authenticating with a session recovered from a local cookie store.
package claude

import (
	"context"
	"fmt"
	"net/http"

	"github.com/israelmirsky/claude-codex-usage/internal/cookies"
	"github.com/israelmirsky/claude-codex-usage/internal/logger"
	"github.com/israelmirsky/claude-codex-usage/internal/models"
	"github.com/israelmirsky/claude-codex-usage/internal/providers"
)

const defaultBaseURL = "https://claude.ai"

// CredentialSource supplies a claude.ai session for one fetch. The bundle
// is used for a single request and then discarded.
type CredentialSource interface {
	ReadCredentials(ctx context.Context) (*cookies.CredentialBundle, error)
}

// Client fetches claude.ai organization usage.
type Client struct {
	creds   CredentialSource
	httpc   *http.Client
	baseURL string
}

// New creates a Client over the given credential source.
func New(creds CredentialSource, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = providers.NewHTTPClient()
	}
	return &Client{creds: creds, httpc: httpc, baseURL: defaultBaseURL}
}

// Name implements providers.Provider.
func (c *Client) Name() string {
	return "Claude"
}

// SetBaseURL overrides the API origin. Used in tests.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// apiResponse mirrors the usage endpoint schema. Every field is optional;
// absent windows degrade to sentinel metrics rather than failing.
type apiResponse struct {
	FiveHour       *windowUsage   `json:"five_hour"`
	SevenDay       *windowUsage   `json:"seven_day"`
	SevenDaySonnet *windowUsage   `json:"seven_day_sonnet"`
	ExtraUsage     *apiExtraUsage `json:"extra_usage"`
}

type windowUsage struct {
	Utilization *float64 `json:"utilization"`
	ResetsAt    *string  `json:"resets_at"`
}

type apiExtraUsage struct {
	IsEnabled    *bool    `json:"is_enabled"`
	MonthlyLimit *float64 `json:"monthly_limit"`
	UsedCredits  *float64 `json:"used_credits"`
	Utilization  *float64 `json:"utilization"`
}

// Fetch reads fresh credentials, calls the usage endpoint, and normalizes
// the response.
func (c *Client) Fetch(ctx context.Context) (*models.UsageData, error) {
	bundle, err := c.creds.ReadCredentials(ctx)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/api/organizations/%s/usage", c.baseURL, bundle.OrgID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create usage request: %w", err)
	}
	req.Header.Set("Cookie", bundle.CookieHeader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Referer", c.baseURL+"/settings/usage")
	req.Header.Set("Origin", c.baseURL)
	req.Header.Set("User-Agent",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("claude usage request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	var api apiResponse
	if err := providers.DecodeResponse(c.Name(), resp, &api); err != nil {
		return nil, err
	}

	return convert(&api), nil
}

func convert(api *apiResponse) *models.UsageData {
	return &models.UsageData{
		Session:     windowMetric("Current session", api.FiveHour),
		WeeklyAll:   windowMetric("All models", api.SevenDay),
		WeeklyModel: windowMetric("Sonnet only", api.SevenDaySonnet),
		Extra:       extraUsage(api.ExtraUsage),
		FetchedAt:   models.Now(),
	}
}

func windowMetric(label string, w *windowUsage) models.UsageMetric {
	if w == nil {
		return models.EmptyMetric(label)
	}
	return models.UsageMetric{
		Label:       label,
		PercentUsed: floatOr(w.Utilization, 0),
		ResetInfo:   formatReset(w.ResetsAt),
	}
}

func formatReset(resetsAt *string) string {
	if resetsAt == nil || *resetsAt == "" {
		return models.NotAvailable
	}
	return providers.FormatResetAt(*resetsAt)
}

func extraUsage(eu *apiExtraUsage) models.ExtraUsage {
	if eu == nil {
		return models.EmptyExtraUsage()
	}

	used := floatOr(eu.UsedCredits, 0)
	limit := floatOr(eu.MonthlyLimit, 0)

	percent := floatOr(eu.Utilization, -1)
	if percent < 0 {
		percent = 0
		if limit > 0 {
			percent = used / limit * 100
		}
	}

	return models.ExtraUsage{
		DollarsSpent: used,
		PercentUsed:  percent,
		ResetDate:    "Monthly",
		Enabled:      eu.IsEnabled != nil && *eu.IsEnabled,
	}
}

func floatOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

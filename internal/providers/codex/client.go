// Package codex fetches usage from the ChatGPT backend usage API using the
// Codex CLI's stored bearer token.
package codex

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/israelmirsky/claude-codex-usage/internal/logger"
	"github.com/israelmirsky/claude-codex-usage/internal/models"
	"github.com/israelmirsky/claude-codex-usage/internal/providers"
)

const defaultBaseURL = "https://chatgpt.com/backend-api"

// Client fetches Codex rate-limit and credit usage.
type Client struct {
	httpc    *http.Client
	baseURL  string
	authPath string
}

// New creates a Client reading its token from the given auth.json path.
func New(authPath string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = providers.NewHTTPClient()
	}
	if authPath == "" {
		authPath = DefaultAuthPath()
	}
	return &Client{httpc: httpc, baseURL: defaultBaseURL, authPath: authPath}
}

// Name implements providers.Provider.
func (c *Client) Name() string {
	return "Codex"
}

// SetBaseURL overrides the API origin. Used in tests.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// usageResponse mirrors the wham/usage schema. Windows and credits are
// all optional; missing pieces degrade to sentinel values.
type usageResponse struct {
	PlanType             string                `json:"plan_type"`
	RateLimit            *rateLimitDetails     `json:"rate_limit"`
	AdditionalRateLimits []additionalRateLimit `json:"additional_rate_limits"`
	Credits              *credits              `json:"credits"`
}

type rateLimitDetails struct {
	LimitReached    bool            `json:"limit_reached"`
	PrimaryWindow   *windowSnapshot `json:"primary_window"`
	SecondaryWindow *windowSnapshot `json:"secondary_window"`
}

type windowSnapshot struct {
	UsedPercent        float64 `json:"used_percent"`
	LimitWindowSeconds int64   `json:"limit_window_seconds"`
	ResetAfterSeconds  int64   `json:"reset_after_seconds"`
}

type additionalRateLimit struct {
	LimitName string            `json:"limit_name"`
	RateLimit *rateLimitDetails `json:"rate_limit"`
}

type credits struct {
	HasCredits bool   `json:"has_credits"`
	Unlimited  bool   `json:"unlimited"`
	Balance    string `json:"balance"`
}

// Fetch calls the usage endpoint and normalizes the response.
func (c *Client) Fetch(ctx context.Context) (*models.UsageData, error) {
	token, err := readToken(c.authPath)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/wham/usage", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create usage request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", "codex-cli")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("codex usage request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	var payload usageResponse
	if err := providers.DecodeResponse(c.Name(), resp, &payload); err != nil {
		return nil, err
	}

	return convert(&payload), nil
}

func convert(payload *usageResponse) *models.UsageData {
	plan := payload.PlanType
	if plan == "" {
		plan = "unknown"
	}

	session := snapshotMetric("Session", primaryWindow(payload.RateLimit))
	if payload.RateLimit != nil && payload.RateLimit.LimitReached {
		session.ResetInfo = models.LimitPrefix + session.ResetInfo
	}

	weekly := snapshotMetric("Weekly", secondaryWindow(payload.RateLimit))

	return &models.UsageData{
		Session:     session,
		WeeklyAll:   weekly,
		WeeklyModel: modelMetric(payload.AdditionalRateLimits, plan),
		Extra:       creditUsage(payload.Credits),
		FetchedAt:   models.Now(),
	}
}

func primaryWindow(rl *rateLimitDetails) *windowSnapshot {
	if rl == nil {
		return nil
	}
	return rl.PrimaryWindow
}

func secondaryWindow(rl *rateLimitDetails) *windowSnapshot {
	if rl == nil {
		return nil
	}
	return rl.SecondaryWindow
}

func snapshotMetric(fallbackLabel string, w *windowSnapshot) models.UsageMetric {
	if w == nil {
		return models.EmptyMetric(fallbackLabel)
	}
	return models.UsageMetric{
		Label:       providers.WindowLabel(w.LimitWindowSeconds),
		PercentUsed: w.UsedPercent,
		ResetInfo:   providers.FormatResetSeconds(w.ResetAfterSeconds),
	}
}

// modelMetric surfaces the first additional rate limit (e.g. a
// model-specific window) or falls back to a plan placeholder.
func modelMetric(limits []additionalRateLimit, plan string) models.UsageMetric {
	for _, l := range limits {
		if l.RateLimit == nil || l.RateLimit.PrimaryWindow == nil {
			continue
		}
		w := l.RateLimit.PrimaryWindow
		return models.UsageMetric{
			Label:       l.LimitName,
			PercentUsed: w.UsedPercent,
			ResetInfo:   providers.FormatResetSeconds(w.ResetAfterSeconds),
		}
	}
	return models.UsageMetric{
		Label:       "Plan: " + plan,
		PercentUsed: 0,
		ResetInfo:   models.NotAvailable,
	}
}

func creditUsage(c *credits) models.ExtraUsage {
	if c == nil {
		return models.EmptyExtraUsage()
	}

	balance, err := strconv.ParseFloat(c.Balance, 64)
	if err != nil {
		balance = 0
	}

	resetDate := models.NotAvailable
	if c.Unlimited {
		resetDate = "Unlimited"
	}

	return models.ExtraUsage{
		DollarsSpent: balance,
		PercentUsed:  0,
		ResetDate:    resetDate,
		Enabled:      c.HasCredits || c.Unlimited,
	}
}

// Package providers defines the usage-provider contract and the response
// handling shared by all remote accounting clients.
package providers

import (
	"context"
	"net/http"
	"time"

	"github.com/israelmirsky/claude-codex-usage/internal/models"
)

// Provider fetches usage data from one remote accounting API.
type Provider interface {
	Name() string
	Fetch(ctx context.Context) (*models.UsageData, error)
}

// NewHTTPClient returns the HTTP client used by all providers. Retries
// and cancellation are the caller's responsibility; the clients perform
// a single attempt per fetch.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

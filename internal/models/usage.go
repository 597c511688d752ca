// Package models defines data structures and domain types.
package models

import "time"

// Sentinel strings used when an upstream payload omits a field. A
// UsageMetric never carries an empty ResetInfo; consumers rely on that.
const (
	NoData       = "No data"
	NotAvailable = "---"
	LimitPrefix  = "LIMIT REACHED - "
)

// UsageMetric is one rate-limit window normalized across providers.
type UsageMetric struct {
	Label       string  `json:"label"`
	PercentUsed float64 `json:"percent_used"`
	ResetInfo   string  `json:"reset_info"`
}

// EmptyMetric returns the placeholder metric for a window the provider
// did not report.
func EmptyMetric(label string) UsageMetric {
	return UsageMetric{
		Label:       label,
		PercentUsed: 0,
		ResetInfo:   NoData,
	}
}

// ExtraUsage models pay-as-you-go or overage allowances, which have a
// dollar balance rather than a reset window.
type ExtraUsage struct {
	DollarsSpent float64 `json:"dollars_spent"`
	PercentUsed  float64 `json:"percent_used"`
	ResetDate    string  `json:"reset_date"`
	Enabled      bool    `json:"enabled"`
}

// EmptyExtraUsage returns the placeholder for an absent extra-usage block.
func EmptyExtraUsage() ExtraUsage {
	return ExtraUsage{ResetDate: NotAvailable}
}

// UsageData is the canonical cross-provider fetch result. Each provider
// maps its own response schema onto these four slots.
type UsageData struct {
	Session     UsageMetric `json:"session"`
	WeeklyAll   UsageMetric `json:"weekly_all"`
	WeeklyModel UsageMetric `json:"weekly_model"`
	Extra       ExtraUsage  `json:"extra"`
	FetchedAt   string      `json:"fetched_at"`
}

// Now returns the current time formatted for the FetchedAt field.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// CreditsData holds the OpenRouter credits balance.
type CreditsData struct {
	TotalCredits     float64 `json:"total_credits"`
	TotalUsage       float64 `json:"total_usage"`
	RemainingCredits float64 `json:"remaining_credits"`
	FetchedAt        string  `json:"fetched_at"`
}

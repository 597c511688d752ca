// Package notify raises a desktop notification when a usage metric
// crosses a configured threshold.
//
// Each metric key carries a latch so a crossing fires exactly once; the
// latch re-arms silently when the metric drops back under the threshold.
package notify

import (
	"fmt"
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/israelmirsky/claude-codex-usage/internal/logger"
	"github.com/israelmirsky/claude-codex-usage/internal/models"
)

// Sink delivers one notification to the host facility. Delivery failures
// are logged and swallowed; they never reach the fetch caller.
type Sink interface {
	Notify(title, body string) error
}

// BeeepSink delivers notifications through the OS notification daemon.
type BeeepSink struct{}

// Notify implements Sink.
func (BeeepSink) Notify(title, body string) error {
	return beeep.Notify(title, body, "")
}

// Notifier is the per-metric edge detector. Safe for concurrent use.
type Notifier struct {
	mu       sync.Mutex
	notified map[string]bool
	sink     Sink
}

// New creates a Notifier delivering through the given sink. A nil sink
// uses the OS notification facility.
func New(sink Sink) *Notifier {
	if sink == nil {
		sink = BeeepSink{}
	}
	return &Notifier{
		notified: make(map[string]bool),
		sink:     sink,
	}
}

type metric struct {
	key     string
	label   string
	percent float64
	body    string
}

// Check evaluates all four metrics of a fetch result against the
// threshold, firing at most one notification per metric crossing.
// Threshold 0 means notifications are off. A failed fetch must not reach
// this method: detector state only advances on successful data.
func (n *Notifier) Check(provider string, data *models.UsageData, threshold int, enabled bool) {
	if !enabled || threshold <= 0 || data == nil {
		return
	}

	metrics := []metric{
		{
			key:     provider + "_session",
			label:   provider + " session",
			percent: data.Session.PercentUsed,
			body:    data.Session.ResetInfo,
		},
		{
			key:     provider + "_weekly",
			label:   provider + " weekly",
			percent: data.WeeklyAll.PercentUsed,
			body:    data.WeeklyAll.ResetInfo,
		},
		{
			key:     provider + "_model",
			label:   data.WeeklyModel.Label,
			percent: data.WeeklyModel.PercentUsed,
			body:    data.WeeklyModel.ResetInfo,
		},
		{
			key:     provider + "_extra",
			label:   provider + " extra usage",
			percent: data.Extra.PercentUsed,
			body:    data.Extra.ResetDate,
		},
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	limit := float64(threshold)
	for _, m := range metrics {
		switch {
		case m.percent >= limit && !n.notified[m.key]:
			title := fmt.Sprintf("%s at %.0f%%", m.label, m.percent)
			if err := n.sink.Notify(title, m.body); err != nil {
				logger.Warn("notification delivery failed", "metric", m.key, "error", err)
			}
			n.notified[m.key] = true

		case m.percent < limit && n.notified[m.key]:
			// Dropped back under the threshold; re-arm silently.
			n.notified[m.key] = false
		}
	}
}

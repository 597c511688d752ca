package dashboard

import (
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"github.com/israelmirsky/claude-codex-usage/internal/app"
	"github.com/israelmirsky/claude-codex-usage/internal/models"
)

func usageFixture() *models.UsageData {
	return &models.UsageData{
		Session:     models.UsageMetric{Label: "Current session", PercentUsed: 42, ResetInfo: "Resets in 1h 5m"},
		WeeklyAll:   models.UsageMetric{Label: "All models", PercentUsed: 61, ResetInfo: "Resets in 3h 0m"},
		WeeklyModel: models.EmptyMetric("Sonnet only"),
		Extra: models.ExtraUsage{
			DollarsSpent: 12.5,
			PercentUsed:  25,
			ResetDate:    "Monthly",
			Enabled:      true,
		},
		FetchedAt: models.Now(),
	}
}

func TestViewShowsSpinnerWhileLoading(t *testing.T) {
	state := app.NewAppState()
	m := New(state, nil)
	m.SetSize(80, 24)

	view := ansi.Strip(m.View())
	if !strings.Contains(view, "Fetching usage") {
		t.Errorf("loading view missing spinner label:\n%s", view)
	}
}

func TestViewRendersProviderMetrics(t *testing.T) {
	state := app.NewAppState()
	state.SetUsage("Claude", usageFixture())
	m := New(state, nil)
	m.SetSize(100, 40)

	view := ansi.Strip(m.View())

	for _, want := range []string{
		"Claude",
		"Current session", "42%", "Resets in 1h 5m",
		"All models", "61%",
		"Sonnet only", "No data",
		"$12.50 spent", "Monthly",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestViewHidesDisabledExtraUsage(t *testing.T) {
	state := app.NewAppState()
	data := usageFixture()
	data.Extra = models.EmptyExtraUsage()
	state.SetUsage("Claude", data)

	m := New(state, nil)
	m.SetSize(100, 40)

	if view := ansi.Strip(m.View()); strings.Contains(view, "Extra usage") {
		t.Error("disabled extra usage should not render")
	}
}

func TestViewShowsErrorWithoutData(t *testing.T) {
	state := app.NewAppState()
	state.SetFetchError("Codex", errors.New("auth token missing"))

	m := New(state, nil)
	m.SetSize(100, 40)

	view := ansi.Strip(m.View())
	if !strings.Contains(view, "auth token missing") {
		t.Errorf("view missing error text:\n%s", view)
	}
}

func TestViewShowsStaleWarning(t *testing.T) {
	state := app.NewAppState()
	state.SetUsage("Claude", usageFixture())
	state.SetFetchError("Claude", errors.New("502"))

	m := New(state, nil)
	m.SetSize(100, 40)

	view := ansi.Strip(m.View())
	if !strings.Contains(view, "Last fetch failed") {
		t.Error("stale data warning missing")
	}
	if !strings.Contains(view, "42%") {
		t.Error("cached metrics should still render")
	}
}

func TestViewRendersCredits(t *testing.T) {
	state := app.NewAppState()
	state.SetUsage("Claude", usageFixture())
	state.SetCredits(&models.CreditsData{
		TotalCredits:     20,
		TotalUsage:       4.5,
		RemainingCredits: 15.5,
	})

	m := New(state, nil)
	m.SetSize(100, 40)

	view := ansi.Strip(m.View())
	for _, want := range []string{"OpenRouter Credits", "$15.50", "$20.00", "$4.50"} {
		if !strings.Contains(view, want) {
			t.Errorf("credits card missing %q", want)
		}
	}
}

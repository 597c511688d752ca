package dashboard

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/israelmirsky/claude-codex-usage/internal/models"
	"github.com/israelmirsky/claude-codex-usage/internal/ui/styles"
)

// View renders the dashboard component.
func (m *Model) View() string {
	if m.state.IsLoading() {
		return styles.CenterBoth(m.spinner.ViewWithLabel(), m.width, m.height)
	}

	var sections []string

	sections = append(sections, m.renderTitle())

	for _, provider := range m.providers {
		sections = append(sections, m.renderProviderCard(provider))
	}

	if credits := m.state.GetCredits(); credits != nil {
		sections = append(sections, m.renderCreditsCard(credits))
	}

	sections = append(sections, m.renderFooter())

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Usage Overview")
	subtitle := styles.HelpStyle.Render("Claude and Codex rate-limit monitor")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) renderProviderCard(provider string) string {
	cardWidth := max(m.width-6, 40)
	contentWidth := max(cardWidth-6, 30)

	var rows []string
	rows = append(rows, styles.ProviderStyle(provider).Render(provider))
	rows = append(rows, "")

	data := m.state.GetUsage(provider)
	fetchErr := m.state.GetFetchError(provider)

	switch {
	case data == nil && fetchErr != nil:
		rows = append(rows, styles.ErrorTextStyle.Render(fmt.Sprintf("  %v", fetchErr)))

	case data == nil:
		rows = append(rows, styles.HelpStyle.Render("  Waiting for first fetch..."))

	default:
		rows = append(rows, m.usageBar.View(data.Session, contentWidth))
		rows = append(rows, m.usageBar.View(data.WeeklyAll, contentWidth))
		rows = append(rows, m.usageBar.View(data.WeeklyModel, contentWidth))

		if data.Extra.Enabled {
			rows = append(rows, "")
			rows = append(rows, m.renderExtraUsage(data.Extra))
		}

		if fetchErr != nil {
			rows = append(rows, "")
			rows = append(rows, styles.WarningTextStyle.Render(
				fmt.Sprintf("  Last fetch failed, showing data from %s", staleness(data.FetchedAt))))
		}
	}

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderExtraUsage(extra models.ExtraUsage) string {
	spent := fmt.Sprintf("$%.2f spent", extra.DollarsSpent)
	pct := styles.GetUsageStyle(extra.PercentUsed).Render(fmt.Sprintf("%.0f%%", extra.PercentUsed))

	line := fmt.Sprintf("%s %s (%s, resets %s)",
		styles.ProgressLabelStyle.Render("Extra usage"),
		spent, pct, extra.ResetDate)

	return line
}

func (m *Model) renderCreditsCard(credits *models.CreditsData) string {
	cardWidth := max(m.width-6, 40)

	var rows []string
	rows = append(rows, styles.ProviderStyle("OpenRouter").Render("OpenRouter Credits"))
	rows = append(rows, "")
	rows = append(rows, fmt.Sprintf("  Remaining  %s",
		styles.SuccessTextStyle.Render(fmt.Sprintf("$%.2f", credits.RemainingCredits))))
	rows = append(rows, fmt.Sprintf("  Purchased  $%.2f", credits.TotalCredits))
	rows = append(rows, fmt.Sprintf("  Used       $%.2f", credits.TotalUsage))

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderFooter() string {
	since := m.state.TimeSinceUpdate()
	if since == 0 {
		return ""
	}
	return styles.HelpStyle.Render(fmt.Sprintf("Updated %s ago · r to refresh", since.Round(time.Second)))
}

func staleness(fetchedAt string) string {
	t, err := time.Parse(time.RFC3339, fetchedAt)
	if err != nil {
		return fetchedAt
	}
	return time.Since(t).Round(time.Minute).String() + " ago"
}

package info

import (
	"fmt"
	"runtime"

	"github.com/charmbracelet/lipgloss"

	"github.com/israelmirsky/claude-codex-usage/internal/ui/styles"
	"github.com/israelmirsky/claude-codex-usage/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	var sections []string

	sections = append(sections, m.renderTitle())
	sections = append(sections, m.renderSettingsCard())
	sections = append(sections, m.renderOpenRouterCard())
	sections = append(sections, m.renderConfigCard())
	sections = append(sections, m.renderAboutCard())

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Settings, credentials and application information")
	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	w := m.width - 6
	if w < 50 {
		w = 50
	}
	if w > 80 {
		w = 80
	}
	return w
}

// renderSettingsCard renders the live settings with their key bindings.
func (m *Model) renderSettingsCard() string {
	notifState := "off"
	notifStyle := styles.ErrorTextStyle
	if m.settings.NotificationsEnabled {
		notifState = "on"
		notifStyle = styles.SuccessTextStyle
	}

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Settings"))
	rows = append(rows, "")
	rows = append(rows, m.renderRow("Notifications", notifStyle.Render(notifState)+styles.HelpStyle.Render("  (n to toggle)")))
	rows = append(rows, m.renderRow("Alert Threshold", fmt.Sprintf("%d%%", m.settings.NotifyThreshold)+styles.HelpStyle.Render("  (+/- to adjust)")))
	rows = append(rows, m.renderRow("Refresh Interval", m.settings.RefreshInterval().String()+styles.HelpStyle.Render("  ([/] to adjust)")))

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderOpenRouterCard renders the key status and credits.
func (m *Model) renderOpenRouterCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("OpenRouter"))
	rows = append(rows, "")

	if m.keyStatus.Configured {
		rows = append(rows, m.renderRow("API Key", m.keyStatus.MaskedKey))
	} else {
		rows = append(rows, m.renderRow("API Key", styles.HelpStyle.Render("not configured")))
	}

	if credits := m.state.GetCredits(); credits != nil {
		rows = append(rows, m.renderRow("Credits Left", fmt.Sprintf("$%.2f", credits.RemainingCredits)))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderConfigCard renders the configuration paths card.
func (m *Model) renderConfigCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Configuration"))
	rows = append(rows, "")

	if m.config != nil {
		rows = append(rows, m.renderRow("Settings File", m.config.SettingsPath))
		rows = append(rows, m.renderRow("Database", m.config.DatabasePath))
		rows = append(rows, m.renderRow("Codex Auth", m.config.CodexAuthPath))
	} else {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderAboutCard renders the about/version information card.
func (m *Model) renderAboutCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("About Claude/Codex Usage"))
	rows = append(rows, "")
	rows = append(rows, m.renderRow("Version", version.GetVersion()))
	rows = append(rows, m.renderRow("Commit", version.GetCommit()))
	rows = append(rows, m.renderRow("Built", version.GetDate()))
	rows = append(rows, m.renderRow("Go Version", runtime.Version()))
	rows = append(rows, m.renderRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)))

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

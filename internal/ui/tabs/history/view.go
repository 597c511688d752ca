package history

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/israelmirsky/claude-codex-usage/internal/ui/components"
	"github.com/israelmirsky/claude-codex-usage/internal/ui/styles"
)

// View renders the history tab.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var b strings.Builder

	b.WriteString(m.renderTitle())
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(styles.InfoTextStyle.Render("Loading history..."))
	case m.errorMsg != "":
		b.WriteString(styles.ErrorTextStyle.Render("Failed to load history: " + m.errorMsg))
	default:
		b.WriteString(m.renderChart())
	}

	b.WriteString("\n\n")
	b.WriteString(m.renderFooter())

	m.viewport.SetContent(b.String())
	return styles.DocStyle.Width(m.width).Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	provider := m.Provider()
	title := styles.TitleStyle.Render(fmt.Sprintf("%s Usage History", provider))
	sub := styles.SubTitleStyle.Render(m.metric.String() + " percentage over recorded snapshots")
	return lipgloss.JoinVertical(lipgloss.Left, title, sub)
}

func (m *Model) renderChart() string {
	values := m.series()
	if len(values) == 0 {
		return styles.InfoTextStyle.Render("No history recorded yet. Snapshots accumulate as usage is fetched.")
	}

	chartWidth := m.width - 12
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := m.height - 12
	if chartHeight < 5 {
		chartHeight = 5
	}

	caption := fmt.Sprintf("%s · %s %%", m.Provider(), m.metric)
	chart := components.RenderLineChart(values, chartWidth, chartHeight, caption)

	stats := m.renderStats(values)
	return lipgloss.JoinVertical(lipgloss.Left, chart, "", stats)
}

func (m *Model) renderStats(values []float64) string {
	minV, maxV := values[0], values[0]
	var sum float64
	for _, v := range values {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
		sum += v
	}
	avg := sum / float64(len(values))

	first := m.points[0].Timestamp
	last := m.points[len(m.points)-1].Timestamp

	line := fmt.Sprintf("%d samples · min %.1f%% · avg %.1f%% · max %.1f%%",
		len(values), minV, avg, maxV)
	span := fmt.Sprintf("%s - %s",
		first.Local().Format("Jan 2 15:04"), last.Local().Format("Jan 2 15:04"))

	return styles.ResetInfoStyle.Render(line + "\n" + span)
}

func (m *Model) renderFooter() string {
	return styles.HelpStyle.Render("p switch provider · m switch metric · r reload")
}

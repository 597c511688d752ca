// Package components provides reusable UI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/israelmirsky/claude-codex-usage/internal/logger"
	"github.com/israelmirsky/claude-codex-usage/internal/models"
	"github.com/israelmirsky/claude-codex-usage/internal/ui/styles"
)

// UsageBar renders a usage progress bar with label, percentage, and reset
// countdown. Bars fill up as quota is consumed.
type UsageBar struct {
	progress progress.Model
}

// NewUsageBar creates a new usage bar with gradient colors.
func NewUsageBar() UsageBar {
	p := progress.New(
		progress.WithScaledGradient("#51cf66", "#ff6b6b"),
		progress.WithWidth(30),
		progress.WithoutPercentage(),
	)
	return UsageBar{progress: p}
}

// View renders a metric as a full-width row: label, bar, percent, reset.
func (b UsageBar) View(metric models.UsageMetric, width int) string {
	labelStr := styles.ProgressLabelStyle.Render(metric.Label)
	percentStr := styles.GetUsageStyle(metric.PercentUsed).
		Width(7).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%.0f%%", metric.PercentUsed))

	resetStr := styles.ResetInfoStyle.Render(metric.ResetInfo)
	if strings.HasPrefix(metric.ResetInfo, models.LimitPrefix) {
		resetStr = styles.LimitReachedStyle.PaddingLeft(1).Render(metric.ResetInfo)
	}

	barWidth := width - lipgloss.Width(labelStr) - lipgloss.Width(percentStr) - lipgloss.Width(resetStr) - 2
	if barWidth < 10 {
		barWidth = 10
	}
	b.progress.Width = barWidth

	bar := b.progress.ViewAs(metric.PercentUsed / 100)

	return lipgloss.JoinHorizontal(
		lipgloss.Center,
		labelStr,
		bar,
		" ",
		percentStr,
		resetStr,
	)
}

// ViewCompact renders a bar and percentage without label or reset info.
func (b UsageBar) ViewCompact(percentUsed float64, width int) string {
	barWidth := width - 8
	if barWidth < 5 {
		barWidth = 5
	}
	b.progress.Width = barWidth

	bar := b.progress.ViewAs(percentUsed / 100)
	percentStr := styles.GetUsageStyle(percentUsed).Render(fmt.Sprintf("%.0f%%", percentUsed))

	return lipgloss.JoinHorizontal(lipgloss.Center, bar, " ", percentStr)
}

// RenderGradientBar renders just the bar characters with gradient colors.
func RenderGradientBar(percentUsed float64, width int) string {
	if width < 1 {
		return ""
	}

	filled := int(float64(width) * percentUsed / 100)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	var barChars []string
	for i := 0; i < width; i++ {
		if i < filled {
			t := float64(i) / float64(max(1, width-1))
			color := interpolateColor("#51cf66", "#ff6b6b", t)
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
			barChars = append(barChars, style.Render("█"))
		} else {
			style := lipgloss.NewStyle().Foreground(styles.Subtle)
			barChars = append(barChars, style.Render("░"))
		}
	}

	return strings.Join(barChars, "")
}

// SimpleUsageBar renders a plain ASCII usage bar with gradient colors.
func SimpleUsageBar(percentUsed float64, label string, width int) string {
	labelWidth := len(label) + 1
	percentWidth := 6
	barWidth := width - labelWidth - percentWidth - 4

	if barWidth < 5 {
		barWidth = 5
	}

	bar := RenderGradientBar(percentUsed, barWidth)

	labelStr := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Render(label)

	percentStr := styles.GetUsageStyle(percentUsed).
		Width(percentWidth).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%.0f%%", percentUsed))

	return fmt.Sprintf("%s [%s] %s", labelStr, bar, percentStr)
}

func interpolateColor(fromHex, toHex string, t float64) string {
	from := hexToRGB(fromHex)
	to := hexToRGB(toHex)

	r := int(float64(from[0]) + t*(float64(to[0])-float64(from[0])))
	g := int(float64(from[1]) + t*(float64(to[1])-float64(from[1])))
	b := int(float64(from[2]) + t*(float64(to[2])-float64(from[2])))

	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func hexToRGB(hex string) [3]int {
	hex = strings.TrimPrefix(hex, "#")
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		logger.Error("failed to parse hex color", "hex", hex, "error", err)
		return [3]int{0, 0, 0}
	}
	return [3]int{r, g, b}
}

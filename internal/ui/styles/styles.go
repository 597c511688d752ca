// Package styles defines the visual styling for the application.
package styles

import "github.com/charmbracelet/lipgloss"

// Color definitions for the usage monitor theme.
var (
	// Primary colors
	Primary   = lipgloss.Color("208") // Orange
	Secondary = lipgloss.Color("63")  // Purple
	Subtle    = lipgloss.Color("240") // Gray

	// Brand colors
	ClaudeColor     = lipgloss.Color("208") // Orange
	CodexColor      = lipgloss.Color("42")  // Green
	OpenRouterColor = lipgloss.Color("39")  // Blue

	// Status colors
	Success = lipgloss.Color("42")  // Green
	Error   = lipgloss.Color("196") // Red
	Warning = lipgloss.Color("220") // Yellow
	Info    = lipgloss.Color("39")  // Blue

	// Background colors
	BgDark  = lipgloss.Color("235")
	BgLight = lipgloss.Color("237")

	// Text colors
	TextPrimary   = lipgloss.Color("252")
	TextSecondary = lipgloss.Color("245")
	TextMuted     = lipgloss.Color("240")
)

// TitleStyle is used for main headings.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

// SubTitleStyle is used for section headings.
var SubTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Secondary).
	MarginBottom(1)

// DocStyle provides consistent document margins.
var DocStyle = lipgloss.NewStyle().
	Margin(1, 2).
	Padding(0, 1)

// ActiveTabStyle styles the currently selected tab.
var ActiveTabStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("229")).
	Background(Primary).
	Padding(0, 2).
	MarginRight(1)

// InactiveTabStyle styles non-selected tabs.
var InactiveTabStyle = lipgloss.NewStyle().
	Foreground(TextSecondary).
	Background(BgLight).
	Padding(0, 2).
	MarginRight(1)

// CardStyle creates a bordered card container.
var CardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Subtle).
	Padding(1, 2).
	MarginBottom(1)

// CardTitleStyle styles card headers.
var CardTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

// ProgressLabelStyle styles usage bar labels.
var ProgressLabelStyle = lipgloss.NewStyle().
	Foreground(TextSecondary).
	Width(18)

// ProgressPercentStyle styles the percentage display.
var ProgressPercentStyle = lipgloss.NewStyle().
	Foreground(TextPrimary).
	Width(7).
	Align(lipgloss.Right)

// ResetInfoStyle styles the reset countdown next to a usage bar.
var ResetInfoStyle = lipgloss.NewStyle().
	Foreground(TextMuted).
	PaddingLeft(1)

// HelpStyle is the base style for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(TextMuted)

// HelpKeyStyle styles keyboard shortcut keys.
var HelpKeyStyle = lipgloss.NewStyle().
	Foreground(Primary).
	Bold(true)

// HelpDescStyle styles help descriptions.
var HelpDescStyle = lipgloss.NewStyle().
	Foreground(TextSecondary)

// ErrorTextStyle for error messages.
var ErrorTextStyle = lipgloss.NewStyle().
	Foreground(Error)

// SuccessTextStyle for success messages.
var SuccessTextStyle = lipgloss.NewStyle().
	Foreground(Success)

// WarningTextStyle for warning messages.
var WarningTextStyle = lipgloss.NewStyle().
	Foreground(Warning)

// InfoTextStyle for info messages.
var InfoTextStyle = lipgloss.NewStyle().
	Foreground(Info)

// LimitReachedStyle flags windows that hit their cap.
var LimitReachedStyle = lipgloss.NewStyle().
	Foreground(Error).
	Bold(true)

// UsageLowStyle for lightly used windows (<50%).
var UsageLowStyle = lipgloss.NewStyle().
	Foreground(Success)

// UsageMediumStyle for moderately used windows (50-80%).
var UsageMediumStyle = lipgloss.NewStyle().
	Foreground(Warning)

// UsageHighStyle for nearly exhausted windows (>80%).
var UsageHighStyle = lipgloss.NewStyle().
	Foreground(Error)

// GetUsageStyle returns the appropriate style based on percent used.
func GetUsageStyle(percentUsed float64) lipgloss.Style {
	switch {
	case percentUsed >= 80:
		return UsageHighStyle
	case percentUsed >= 50:
		return UsageMediumStyle
	default:
		return UsageLowStyle
	}
}

// ProviderStyle returns a provider's accent style.
func ProviderStyle(provider string) lipgloss.Style {
	switch provider {
	case "Claude":
		return lipgloss.NewStyle().Foreground(ClaudeColor).Bold(true)
	case "Codex":
		return lipgloss.NewStyle().Foreground(CodexColor).Bold(true)
	case "OpenRouter":
		return lipgloss.NewStyle().Foreground(OpenRouterColor).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(TextPrimary).Bold(true)
	}
}

// CenterHorizontal centers content horizontally within a given width.
func CenterHorizontal(content string, width int) string {
	return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(content)
}

// CenterBoth centers content both horizontally and vertically.
func CenterBoth(content string, width, height int) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center).
		AlignVertical(lipgloss.Center).
		Render(content)
}

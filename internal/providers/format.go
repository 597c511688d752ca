package providers

import (
	"fmt"
	"time"
)

// FormatResetSeconds renders a reset countdown given the remaining
// seconds. Anything under a minute counts as "soon"; "Resets in 0m"
// reads like a bug.
func FormatResetSeconds(secs int64) string {
	if secs < 60 {
		return "Resets soon"
	}
	hours := secs / 3600
	mins := (secs % 3600) / 60
	if hours > 0 {
		return fmt.Sprintf("Resets in %dh %dm", hours, mins)
	}
	return fmt.Sprintf("Resets in %dm", mins)
}

// FormatResetAt renders a reset countdown given an absolute RFC 3339
// timestamp, measured against the current time. An unparseable timestamp
// is passed through unchanged rather than failing the fetch.
func FormatResetAt(resetsAt string) string {
	parsed, err := time.Parse(time.RFC3339, resetsAt)
	if err != nil {
		return resetsAt
	}
	return FormatResetSeconds(int64(time.Until(parsed).Seconds()))
}

// WindowLabel names a rate-limit window by its length: day granularity
// when the window is an exact number of days, hour granularity otherwise.
func WindowLabel(windowSeconds int64) string {
	hours := windowSeconds / 3600
	if hours >= 24 && hours%24 == 0 {
		return fmt.Sprintf("%d-day window", hours/24)
	}
	return fmt.Sprintf("%d-hour window", hours)
}

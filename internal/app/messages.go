package app

import (
	"time"

	"github.com/israelmirsky/claude-codex-usage/internal/config"
	"github.com/israelmirsky/claude-codex-usage/internal/db"
	"github.com/israelmirsky/claude-codex-usage/internal/models"
	"github.com/israelmirsky/claude-codex-usage/internal/services"
)

// TickMsg is sent periodically to expire notifications and refresh clocks.
type TickMsg struct {
	Time time.Time
}

// UsageLoadedMsg carries the cached usage data for every provider.
type UsageLoadedMsg struct {
	Usage   map[string]*models.UsageData
	Credits *models.CreditsData
}

// HistoryLoadedMsg carries usage history samples for a provider.
type HistoryLoadedMsg struct {
	Provider string
	Points   []db.UsagePoint
	Error    error
}

// RefreshMsg requests an immediate fetch of all providers.
type RefreshMsg struct{}

// StartLoadingMsg signals that a refresh has started.
type StartLoadingMsg struct{}

// SettingsUpdatedMsg contains the result of a settings change.
type SettingsUpdatedMsg struct {
	Settings config.Settings
	Error    error
}

// KeyStoredMsg contains the result of saving the OpenRouter API key.
type KeyStoredMsg struct {
	Error error
}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Type     NotificationType
	Message  string
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

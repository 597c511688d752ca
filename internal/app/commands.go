package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/israelmirsky/claude-codex-usage/internal/config"
	"github.com/israelmirsky/claude-codex-usage/internal/models"
	"github.com/israelmirsky/claude-codex-usage/internal/services"
)

const (
	// DefaultTickInterval is the default interval between ticks.
	DefaultTickInterval = 2 * time.Second

	// DefaultNotificationDuration is the default duration for notifications.
	DefaultNotificationDuration = 5 * time.Second

	// QuickNotificationDuration is for brief notifications.
	QuickNotificationDuration = 3 * time.Second

	// LongNotificationDuration is for important notifications.
	LongNotificationDuration = 10 * time.Second
)

// tickCmd returns a command that sends a TickMsg after the specified interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

func defaultTickCmd() tea.Cmd {
	return tickCmd(DefaultTickInterval)
}

// loadUsageCmd returns a command that reads the cached usage for every
// provider out of the manager.
func loadUsageCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		usage := make(map[string]*models.UsageData)
		for _, name := range mgr.Providers() {
			usage[name] = mgr.Usage(name)
		}
		return UsageLoadedMsg{
			Usage:   usage,
			Credits: mgr.Credits(),
		}
	}
}

// refreshCmd triggers an immediate fetch of all providers.
func refreshCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		mgr.Refresh()
		return StartLoadingMsg{}
	}
}

// loadHistoryCmd loads usage history samples for a provider.
func loadHistoryCmd(mgr *services.Manager, provider string, limit int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		points, err := mgr.History(ctx, provider, limit)
		return HistoryLoadedMsg{
			Provider: provider,
			Points:   points,
			Error:    err,
		}
	}
}

// updateSettingsCmd persists a settings change through the manager.
func updateSettingsCmd(mgr *services.Manager, fn func(*config.Settings)) tea.Cmd {
	return func() tea.Msg {
		settings, err := mgr.UpdateSettings(fn)
		return SettingsUpdatedMsg{Settings: settings, Error: err}
	}
}

// storeKeyCmd saves the OpenRouter API key to the keychain.
func storeKeyCmd(mgr *services.Manager, key string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return KeyStoredMsg{Error: mgr.OpenRouter().StoreKey(ctx, key)}
	}
}

// subscribeToServicesCmd returns a command that subscribes to service events.
func subscribeToServicesCmd(mgr *services.Manager) tea.Cmd {
	ch, _ := mgr.Subscribe()
	return func() tea.Msg {
		return SubscriptionEventMsg{Channel: ch}
	}
}

// waitForServiceEventCmd returns a command that waits for the next service event.
func waitForServiceEventCmd(ch <-chan services.ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return ServiceEventMsg{Event: event}
	}
}

// clearNotificationCmd returns a command that removes a notification after a delay.
func clearNotificationCmd(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return RemoveNotificationMsg{ID: id}
	})
}

// notifySuccessCmd returns a command that adds a success notification.
func notifySuccessCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationSuccess,
			Message:  message,
			Duration: DefaultNotificationDuration,
		}
	}
}

// notifyErrorCmd returns a command that adds an error notification.
func notifyErrorCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationError,
			Message:  message,
			Duration: LongNotificationDuration,
		}
	}
}

// notifyInfoCmd returns a command that adds an info notification.
func notifyInfoCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationInfo,
			Message:  message,
			Duration: QuickNotificationDuration,
		}
	}
}

// Commands provides a public interface to the command functions for tabs.
type Commands struct {
	manager *services.Manager
}

// NewCommands creates a new Commands instance.
func NewCommands(mgr *services.Manager) *Commands {
	return &Commands{manager: mgr}
}

// LoadUsage returns a command that loads cached usage for all providers.
func (c *Commands) LoadUsage() tea.Cmd {
	return loadUsageCmd(c.manager)
}

// Refresh returns a command that requests an immediate fetch.
func (c *Commands) Refresh() tea.Cmd {
	return refreshCmd(c.manager)
}

// LoadHistory returns a command that loads history for a provider.
func (c *Commands) LoadHistory(provider string, limit int) tea.Cmd {
	return loadHistoryCmd(c.manager, provider, limit)
}

// UpdateSettings returns a command that applies and persists a settings change.
func (c *Commands) UpdateSettings(fn func(*config.Settings)) tea.Cmd {
	return updateSettingsCmd(c.manager, fn)
}

// StoreKey returns a command that saves the OpenRouter API key.
func (c *Commands) StoreKey(key string) tea.Cmd {
	return storeKeyCmd(c.manager, key)
}

// NotifySuccess returns a command that adds a success notification.
func (c *Commands) NotifySuccess(message string) tea.Cmd {
	return notifySuccessCmd(message)
}

// NotifyError returns a command that adds an error notification.
func (c *Commands) NotifyError(message string) tea.Cmd {
	return notifyErrorCmd(message)
}

// NotifyInfo returns a command that adds an info notification.
func (c *Commands) NotifyInfo(message string) tea.Cmd {
	return notifyInfoCmd(message)
}

// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"sync"
	"time"

	"github.com/israelmirsky/claude-codex-usage/internal/models"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
	// NotificationLoading represents a loading notification with spinner.
	NotificationLoading
)

// LoadingNotificationID is the fixed ID for loading notifications.
const LoadingNotificationID = "__loading__"

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	case NotificationLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// Notification represents a user-facing notification message.
type Notification struct {
	ID        string
	Type      NotificationType
	Message   string
	CreatedAt time.Time
	Duration  time.Duration
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// AppState is the shared state read by every tab.
type AppState struct {
	mu sync.RWMutex

	usage       map[string]*models.UsageData
	fetchErrors map[string]error
	credits     *models.CreditsData

	loading     bool
	lastUpdated time.Time

	notifications   []Notification
	notificationSeq int
}

// NewAppState creates an empty application state.
func NewAppState() *AppState {
	return &AppState{
		usage:         make(map[string]*models.UsageData),
		fetchErrors:   make(map[string]error),
		notifications: make([]Notification, 0),
		loading:       true,
	}
}

// SetUsage stores the latest usage data for a provider and clears any
// previous fetch error.
func (s *AppState) SetUsage(provider string, data *models.UsageData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage[provider] = data
	delete(s.fetchErrors, provider)
	s.lastUpdated = time.Now()
	s.loading = false
}

// GetUsage returns the latest usage data for a provider, or nil.
func (s *AppState) GetUsage(provider string) *models.UsageData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usage[provider]
}

// SetFetchError records a failed fetch; previous usage data stays visible.
func (s *AppState) SetFetchError(provider string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchErrors[provider] = err
	s.loading = false
}

// GetFetchError returns the latest fetch error for a provider, or nil.
func (s *AppState) GetFetchError(provider string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetchErrors[provider]
}

// SetCredits stores the latest credits balance.
func (s *AppState) SetCredits(credits *models.CreditsData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credits = credits
}

// GetCredits returns the latest credits balance, or nil.
func (s *AppState) GetCredits() *models.CreditsData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credits
}

// SetLoading flips the global loading flag.
func (s *AppState) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = loading
}

// IsLoading returns true while the first fetch is in flight.
func (s *AppState) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// GetLastUpdated returns the last time usage data arrived.
func (s *AppState) GetLastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdated
}

// TimeSinceUpdate returns the duration since the last update.
func (s *AppState) TimeSinceUpdate() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastUpdated.IsZero() {
		return 0
	}
	return time.Since(s.lastUpdated)
}

// AddNotification adds a new notification and returns its ID.
func (s *AppState) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notificationSeq++
	id := time.Now().Format("20060102150405") + "-" + string(rune('A'+s.notificationSeq%26))

	s.notifications = append(s.notifications, Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	})

	// Keep only the last 10 notifications
	if len(s.notifications) > 10 {
		s.notifications = s.notifications[len(s.notifications)-10:]
	}

	return id
}

// RemoveNotification removes a notification by ID.
func (s *AppState) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *AppState) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	s.notifications = active
}

// GetNotifications returns a copy of all active notifications.
func (s *AppState) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	return active
}

// SetLoadingNotification sets a loading notification message.
func (s *AppState) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications[i].Message = message
			return
		}
	}

	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  0,
	})
}

// ClearLoadingNotification removes the loading notification.
func (s *AppState) ClearLoadingNotification() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

package app

import (
	"errors"
	"testing"
	"time"

	"github.com/israelmirsky/claude-codex-usage/internal/models"
)

func TestAppStateUsageRoundtrip(t *testing.T) {
	state := NewAppState()

	if got := state.GetUsage("Claude"); got != nil {
		t.Errorf("GetUsage on empty state = %+v, want nil", got)
	}
	if !state.IsLoading() {
		t.Error("fresh state should be loading")
	}

	data := &models.UsageData{
		Session:   models.UsageMetric{Label: "Current session", PercentUsed: 55},
		FetchedAt: models.Now(),
	}
	state.SetUsage("Claude", data)

	if got := state.GetUsage("Claude"); got == nil || got.Session.PercentUsed != 55 {
		t.Errorf("GetUsage = %+v", got)
	}
	if state.IsLoading() {
		t.Error("state should stop loading after first usage arrives")
	}
	if state.GetLastUpdated().IsZero() {
		t.Error("LastUpdated not set")
	}
}

func TestAppStateFetchErrorKeepsUsage(t *testing.T) {
	state := NewAppState()
	state.SetUsage("Codex", &models.UsageData{FetchedAt: models.Now()})

	fetchErr := errors.New("upstream down")
	state.SetFetchError("Codex", fetchErr)

	if got := state.GetFetchError("Codex"); !errors.Is(got, fetchErr) {
		t.Errorf("GetFetchError = %v", got)
	}
	if state.GetUsage("Codex") == nil {
		t.Error("fetch error must not clear cached usage")
	}

	// A new success clears the error.
	state.SetUsage("Codex", &models.UsageData{FetchedAt: models.Now()})
	if state.GetFetchError("Codex") != nil {
		t.Error("successful fetch should clear the error")
	}
}

func TestAppStateCredits(t *testing.T) {
	state := NewAppState()
	if state.GetCredits() != nil {
		t.Error("GetCredits on empty state should be nil")
	}

	state.SetCredits(&models.CreditsData{TotalCredits: 20, TotalUsage: 5, RemainingCredits: 15})
	if got := state.GetCredits(); got == nil || got.RemainingCredits != 15 {
		t.Errorf("GetCredits = %+v", got)
	}
}

func TestNotificationLifecycle(t *testing.T) {
	state := NewAppState()

	id := state.AddNotification(NotificationSuccess, "saved", time.Minute)
	if len(state.GetNotifications()) != 1 {
		t.Fatal("expected one notification")
	}

	state.RemoveNotification(id)
	if len(state.GetNotifications()) != 0 {
		t.Error("notification not removed")
	}
}

func TestNotificationExpiry(t *testing.T) {
	n := Notification{CreatedAt: time.Now().Add(-10 * time.Second), Duration: 5 * time.Second}
	if !n.IsExpired() {
		t.Error("old notification should be expired")
	}

	sticky := Notification{CreatedAt: time.Now().Add(-time.Hour), Duration: 0}
	if sticky.IsExpired() {
		t.Error("zero-duration notification never expires")
	}
}

func TestNotificationCap(t *testing.T) {
	state := NewAppState()
	for i := 0; i < 15; i++ {
		state.AddNotification(NotificationInfo, "msg", time.Minute)
	}
	if got := len(state.GetNotifications()); got > 10 {
		t.Errorf("notification count = %d, want <= 10", got)
	}
}

func TestLoadingNotificationSingleton(t *testing.T) {
	state := NewAppState()

	state.SetLoadingNotification("Loading...")
	state.SetLoadingNotification("Refreshing...")

	notifications := state.GetNotifications()
	if len(notifications) != 1 {
		t.Fatalf("len = %d, want 1", len(notifications))
	}
	if notifications[0].Message != "Refreshing..." {
		t.Errorf("Message = %q", notifications[0].Message)
	}

	state.ClearLoadingNotification()
	if len(state.GetNotifications()) != 0 {
		t.Error("loading notification not cleared")
	}
}

func TestNotificationTypeString(t *testing.T) {
	tests := []struct {
		typ  NotificationType
		want string
	}{
		{NotificationSuccess, "success"},
		{NotificationError, "error"},
		{NotificationWarning, "warning"},
		{NotificationInfo, "info"},
		{NotificationLoading, "loading"},
		{NotificationType(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.typ, got, tt.want)
		}
	}
}

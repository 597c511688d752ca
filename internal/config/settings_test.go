package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewSettingsStoreDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	store := NewSettingsStore(path)
	got := store.Get()

	want := DefaultSettings()
	if got != want {
		t.Errorf("Get() = %+v, want defaults %+v", got, want)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("store should not create the file until a save happens")
	}
}

func TestSettingsStoreUpdatePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	store := NewSettingsStore(path)

	updated, err := store.Update(func(s *Settings) {
		s.NotifyThreshold = 90
		s.NotificationsEnabled = false
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.NotifyThreshold != 90 || updated.NotificationsEnabled {
		t.Errorf("Update() returned %+v", updated)
	}

	// A fresh store picks up the persisted values.
	reopened := NewSettingsStore(path)
	got := reopened.Get()
	if got.NotifyThreshold != 90 {
		t.Errorf("NotifyThreshold = %d, want 90", got.NotifyThreshold)
	}
	if got.NotificationsEnabled {
		t.Error("NotificationsEnabled = true, want false")
	}
	if got.RefreshIntervalSecs != DefaultSettings().RefreshIntervalSecs {
		t.Errorf("RefreshIntervalSecs = %d, want default", got.RefreshIntervalSecs)
	}
}

func TestSettingsStoreReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	store := NewSettingsStore(path)

	content := `{"refresh_interval_secs": 120, "notify_threshold": 75, "notifications_enabled": true}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := store.Reload()
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if got.RefreshIntervalSecs != 120 {
		t.Errorf("RefreshIntervalSecs = %d, want 120", got.RefreshIntervalSecs)
	}
	if got.NotifyThreshold != 75 {
		t.Errorf("NotifyThreshold = %d, want 75", got.NotifyThreshold)
	}
}

func TestSettingsStoreReloadMissingFileKeepsCurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	store := NewSettingsStore(path)

	if _, err := store.Update(func(s *Settings) { s.NotifyThreshold = 65 }); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	got, err := store.Reload()
	if err == nil {
		t.Error("Reload() of a missing file should return an error")
	}
	if got.NotifyThreshold != 65 {
		t.Errorf("NotifyThreshold = %d, want 65 (unchanged)", got.NotifyThreshold)
	}
}

func TestNewSettingsStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	store := NewSettingsStore(path)
	if got := store.Get(); got != DefaultSettings() {
		t.Errorf("corrupt file should fall back to defaults, got %+v", got)
	}
}

func TestSettingsRefreshInterval(t *testing.T) {
	tests := []struct {
		name string
		secs int
		want time.Duration
	}{
		{"default", 300, 5 * time.Minute},
		{"minimum clamp", 5, 30 * time.Second},
		{"zero clamp", 0, 30 * time.Second},
		{"negative clamp", -10, 30 * time.Second},
		{"custom", 600, 10 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Settings{RefreshIntervalSecs: tt.secs}
			if got := s.RefreshInterval(); got != tt.want {
				t.Errorf("RefreshInterval() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSettingsPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`{"notify_threshold": 50}`), 0o600); err != nil {
		t.Fatal(err)
	}

	store := NewSettingsStore(path)
	got := store.Get()
	if got.NotifyThreshold != 50 {
		t.Errorf("NotifyThreshold = %d, want 50", got.NotifyThreshold)
	}
	if got.RefreshIntervalSecs != 300 {
		t.Errorf("RefreshIntervalSecs = %d, want default 300", got.RefreshIntervalSecs)
	}
}

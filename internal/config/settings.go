package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Settings are the persisted user preferences. They are stored as JSON so
// they survive restarts and can be edited by hand.
type Settings struct {
	RefreshIntervalSecs  int  `json:"refresh_interval_secs"`
	NotifyThreshold      int  `json:"notify_threshold"`
	NotificationsEnabled bool `json:"notifications_enabled"`
}

// DefaultSettings returns the settings used when no file exists yet.
func DefaultSettings() Settings {
	return Settings{
		RefreshIntervalSecs:  300,
		NotifyThreshold:      80,
		NotificationsEnabled: true,
	}
}

// RefreshInterval returns the refresh cadence as a duration, clamped to a
// minimum of 30 seconds so a bad settings file cannot hammer the APIs.
func (s Settings) RefreshInterval() time.Duration {
	secs := s.RefreshIntervalSecs
	if secs < 30 {
		secs = 30
	}
	return time.Duration(secs) * time.Second
}

// SettingsStore manages loading, saving, and reloading the settings file.
// All access goes through the store so concurrent readers always see a
// consistent snapshot.
type SettingsStore struct {
	mu       sync.Mutex
	path     string
	settings Settings
}

// NewSettingsStore loads settings from path, falling back to defaults when
// the file does not exist. A corrupt file is treated as missing rather than
// fatal; the defaults are returned and the file is rewritten on next save.
func NewSettingsStore(path string) *SettingsStore {
	s := &SettingsStore{path: path, settings: DefaultSettings()}
	if loaded, err := readSettingsFile(path); err == nil {
		s.settings = loaded
	}
	return s
}

// Path returns the location of the settings file.
func (s *SettingsStore) Path() string {
	return s.path
}

// Get returns the current settings snapshot.
func (s *SettingsStore) Get() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Update applies fn to a copy of the current settings, persists the result,
// and returns it. The file is only replaced once the new content has been
// fully written.
func (s *SettingsStore) Update(fn func(*Settings)) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.settings
	fn(&next)

	if err := writeSettingsFile(s.path, next); err != nil {
		return s.settings, err
	}

	s.settings = next
	return next, nil
}

// Reload re-reads the settings file from disk, picking up external edits.
// When the file is missing or unreadable the in-memory settings stay as-is.
func (s *SettingsStore) Reload() (Settings, error) {
	loaded, err := readSettingsFile(s.path)
	if err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.settings, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = loaded
	return loaded, nil
}

func readSettingsFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("parsing settings file: %w", err)
	}
	return settings, nil
}

func writeSettingsFile(path string, settings Settings) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".settings-*.json")
	if err != nil {
		return fmt.Errorf("creating settings temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing settings temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing settings file: %w", err)
	}
	return nil
}

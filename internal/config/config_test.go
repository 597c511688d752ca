package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestGetEnvString(t *testing.T) {
	t.Setenv("CCU_TEST_STRING", "from-env")

	if got := getEnvString("CCU_TEST_STRING", "fallback"); got != "from-env" {
		t.Errorf("getEnvString() = %q, want %q", got, "from-env")
	}
	if got := getEnvString("CCU_TEST_MISSING", "fallback"); got != "fallback" {
		t.Errorf("getEnvString() = %q, want %q", got, "fallback")
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"duration syntax", "45s", 45 * time.Second},
		{"minutes", "2m", 2 * time.Minute},
		{"bare seconds", "15", 15 * time.Second},
		{"garbage falls back", "soon", 30 * time.Second},
		{"empty falls back", "", 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CCU_TEST_DURATION", tt.value)
			got := getEnvDuration("CCU_TEST_DURATION", 30*time.Second)
			if got != tt.want {
				t.Errorf("getEnvDuration(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestLoadCreatesDirectories(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "config")
	t.Setenv("CCU_CONFIG_DIR", dir)
	t.Setenv("CCU_SETTINGS_PATH", "")
	t.Setenv("CCU_DATABASE_PATH", "")
	t.Setenv("CCU_HTTP_TIMEOUT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ConfigDir != dir {
		t.Errorf("ConfigDir = %q, want %q", cfg.ConfigDir, dir)
	}
	if want := filepath.Join(dir, "settings.json"); cfg.SettingsPath != want {
		t.Errorf("SettingsPath = %q, want %q", cfg.SettingsPath, want)
	}
	if want := filepath.Join(dir, "usage.db"); cfg.DatabasePath != want {
		t.Errorf("DatabasePath = %q, want %q", cfg.DatabasePath, want)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("HTTPTimeout = %v, want 30s", cfg.HTTPTimeout)
	}
}

// Package config contains everything related to configuration: env-derived
// paths and the persisted user settings file.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the per-run application configuration.
type Config struct {
	ConfigDir     string
	SettingsPath  string
	DatabasePath  string
	CodexAuthPath string
	HTTPTimeout   time.Duration
}

const defaultHTTPTimeout = 30 * time.Second

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	for _, path := range envPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	dir := getEnvString("CCU_CONFIG_DIR", defaultConfigDir())

	cfg := &Config{
		ConfigDir:     dir,
		SettingsPath:  getEnvString("CCU_SETTINGS_PATH", filepath.Join(dir, "settings.json")),
		DatabasePath:  getEnvString("CCU_DATABASE_PATH", filepath.Join(dir, "usage.db")),
		CodexAuthPath: getEnvString("CODEX_AUTH_PATH", ""),
		HTTPTimeout:   getEnvDuration("CCU_HTTP_TIMEOUT", defaultHTTPTimeout),
	}

	if err := ensureDir(cfg.ConfigDir); err != nil {
		return nil, err
	}
	if err := ensureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
		return nil, err
	}
	if err := ensureDir(filepath.Dir(cfg.SettingsPath)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// envPaths returns the locations checked for .env files.
func envPaths() []string {
	var paths []string

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "claude-codex-usage", ".env"),
			filepath.Join(home, ".claude-codex-usage", ".env"),
		)
	}

	return paths
}

func defaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "claude-codex-usage")
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the
// default. Accepts values like "30s", "1m", or bare seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if needed.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}

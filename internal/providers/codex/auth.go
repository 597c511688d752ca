package codex

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// authFile mirrors the Codex CLI's auth.json layout.
type authFile struct {
	Tokens *authTokens `json:"tokens"`
}

type authTokens struct {
	AccessToken string `json:"access_token"`
}

// DefaultAuthPath returns the Codex CLI auth file location.
func DefaultAuthPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".codex", "auth.json")
}

// readToken loads the bearer token from the Codex CLI auth file.
func readToken(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("codex: cannot locate auth.json (no home directory)")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("codex: not configured (%s not found)", path)
		}
		return "", fmt.Errorf("codex: failed to read auth.json: %w", err)
	}

	var auth authFile
	if err := json.Unmarshal(content, &auth); err != nil {
		return "", fmt.Errorf("codex: failed to parse auth.json: %w", err)
	}

	if auth.Tokens == nil || auth.Tokens.AccessToken == "" {
		return "", fmt.Errorf("codex: no access token in auth.json")
	}
	return auth.Tokens.AccessToken, nil
}

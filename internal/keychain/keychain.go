// Package keychain provides access to OS-protected secrets.
//
// Secrets are addressed by (service, account) generic-password names. On
// macOS the backing store is the login Keychain, queried through the
// `security` tool; reading a browser's Safe Storage entry may trigger a
// user permission prompt.
package keychain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

var (
	// ErrNotFound indicates the secret does not exist in the store.
	ErrNotFound = errors.New("keychain: secret not found")
	// ErrAccessDenied indicates the OS refused to release the secret,
	// typically because the user dismissed the permission prompt.
	ErrAccessDenied = errors.New("keychain: access denied")
)

// SecretStore retrieves OS-protected secrets by service and account name.
type SecretStore interface {
	GetSecret(ctx context.Context, service, account string) ([]byte, error)
}

// SecretWriter extends SecretStore with mutation, for stores that hold
// user-managed keys (e.g. the OpenRouter API key).
type SecretWriter interface {
	SecretStore
	SetSecret(ctx context.Context, service, account string, value []byte) error
	DeleteSecret(ctx context.Context, service, account string) error
}

const commandTimeout = 30 * time.Second

// SystemStore is the host keychain. Only macOS is supported; other
// platforms report ErrNotFound so callers can fall back to env vars.
type SystemStore struct{}

// NewSystemStore returns the host keychain store.
func NewSystemStore() *SystemStore {
	return &SystemStore{}
}

func securityPath() string {
	const std = "/usr/bin/security"
	if _, err := os.Stat(std); err == nil {
		return std
	}
	// Fallback for unusual setups; still prefer an absolute path.
	if lp, err := exec.LookPath("security"); err == nil && filepath.IsAbs(lp) {
		return lp
	}
	return std
}

// GetSecret reads a generic password from the login Keychain.
func (s *SystemStore) GetSecret(ctx context.Context, service, account string) ([]byte, error) {
	if runtime.GOOS != "darwin" {
		return nil, fmt.Errorf("%w: system keychain requires macOS", ErrNotFound)
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	args := []string{"find-generic-password", "-s", service, "-w"}
	if account != "" {
		args = append(args, "-a", account)
	}

	cmd := exec.CommandContext(ctx, securityPath(), args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, classifySecurityErr(stderr.String(), service)
	}

	secret := bytes.TrimSpace(stdout.Bytes())
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, service)
	}
	return secret, nil
}

// SetSecret upserts a generic password in the login Keychain.
func (s *SystemStore) SetSecret(ctx context.Context, service, account string, value []byte) error {
	if runtime.GOOS != "darwin" {
		return fmt.Errorf("system keychain requires macOS")
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, securityPath(),
		"add-generic-password", "-s", service, "-a", account, "-w", string(value), "-U")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("keychain: failed to store %s: %s", service, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// DeleteSecret removes a generic password. A missing entry is not an error.
func (s *SystemStore) DeleteSecret(ctx context.Context, service, account string) error {
	if runtime.GOOS != "darwin" {
		return fmt.Errorf("system keychain requires macOS")
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, securityPath(),
		"delete-generic-password", "-s", service, "-a", account)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if isNotFoundMessage(stderr.String()) {
			return nil
		}
		return fmt.Errorf("keychain: failed to delete %s: %s", service, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func classifySecurityErr(stderr, service string) error {
	msg := strings.ToLower(stderr)
	switch {
	case isNotFoundMessage(msg):
		return fmt.Errorf("%w: %s", ErrNotFound, service)
	case strings.Contains(msg, "user interaction is not allowed"),
		strings.Contains(msg, "denied"):
		return fmt.Errorf("%w: %s", ErrAccessDenied, service)
	default:
		return fmt.Errorf("%w: %s: %s", ErrAccessDenied, service, strings.TrimSpace(stderr))
	}
}

func isNotFoundMessage(stderr string) bool {
	return strings.Contains(strings.ToLower(stderr), "could not be found")
}

// EnvStore resolves secrets from environment variables, mapping
// (service, account) pairs to variable names. Used in tests and as
// a fallback on platforms without a supported keychain.
type EnvStore struct {
	vars map[string]string
}

// NewEnvStore creates an EnvStore. Keys are "service/account" pairs,
// values are environment variable names.
func NewEnvStore(vars map[string]string) *EnvStore {
	return &EnvStore{vars: vars}
}

// GetSecret looks up the mapped environment variable.
func (s *EnvStore) GetSecret(_ context.Context, service, account string) ([]byte, error) {
	name, ok := s.vars[service+"/"+account]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, service)
	}
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return nil, fmt.Errorf("%w: %s is not set", ErrNotFound, name)
	}
	return []byte(value), nil
}

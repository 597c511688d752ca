package cookies

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	// Register the pure-Go sqlite driver.
	_ "modernc.org/sqlite"

	"github.com/israelmirsky/claude-codex-usage/internal/keychain"
	"github.com/israelmirsky/claude-codex-usage/internal/logger"
)

// ErrStoreNotFound indicates the cookie database is absent. Not retryable
// until the user installs or signs into the source application.
var ErrStoreNotFound = errors.New("cookies: cookie store not found")

// RequiredCookieMissingError indicates the store was readable but held no
// usable value for a cookie the session needs. The user must log in to
// the source application.
type RequiredCookieMissingError struct {
	Name string
}

func (e *RequiredCookieMissingError) Error() string {
	return fmt.Sprintf("cookies: required cookie %q not found (log in to claude.ai first)", e.Name)
}

// Cookie names required to authenticate against the claude.ai API.
const (
	sessionCookieName = "sessionKey"
	orgCookieName     = "lastActiveOrg"
)

// CredentialBundle is a reconstructed claude.ai session. It is never
// persisted; callers discard it once the HTTP call completes.
type CredentialBundle struct {
	SessionKey   string
	OrgID        string
	CookieHeader string
}

// Store describes one cookie database variant: where it lives, which
// keychain entry guards it, and how its values are laid out.
type Store struct {
	Name             string
	Path             string
	KeychainService  string
	KeychainAccount  string
	Format           Format
	HostFilter       string
	UsePlainFallback bool
}

// ChromeStore describes the default Chrome profile's cookie database.
func ChromeStore() Store {
	return Store{
		Name:             "chrome",
		Path:             homePath("Library", "Application Support", "Google", "Chrome", "Default", "Cookies"),
		KeychainService:  "Chrome Safe Storage",
		KeychainAccount:  "Chrome",
		Format:           FormatChrome,
		HostFilter:       "%claude.ai",
		UsePlainFallback: true,
	}
}

// DesktopStore describes the Claude desktop app's cookie database.
func DesktopStore() Store {
	return Store{
		Name:            "desktop",
		Path:            homePath("Library", "Application Support", "Claude", "Cookies"),
		KeychainService: "Claude Safe Storage",
		KeychainAccount: "Claude",
		Format:          FormatDesktopApp,
		HostFilter:      "%claude.ai%",
	}
}

func homePath(elems ...string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(append([]string{home}, elems...)...)
}

// Reader reconstructs session credentials from one cookie store variant.
type Reader struct {
	store   Store
	secrets keychain.SecretStore
}

// NewReader creates a Reader over the given store and secret source.
func NewReader(store Store, secrets keychain.SecretStore) *Reader {
	return &Reader{store: store, secrets: secrets}
}

// Store returns the store description this reader operates on.
func (r *Reader) Store() Store {
	return r.store
}

// ReadCredentials snapshots the cookie database, decrypts every claude.ai
// row, and assembles a CredentialBundle.
//
// The live database may be locked by its owning application, so it is
// copied to a private temporary file first; the copy is removed on every
// exit path. Row order from the store breaks ties between duplicate
// names: first match wins.
func (r *Reader) ReadCredentials(ctx context.Context) (*CredentialBundle, error) {
	if r.store.Path == "" {
		return nil, fmt.Errorf("%w: no home directory", ErrStoreNotFound)
	}
	if _, err := os.Stat(r.store.Path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrStoreNotFound, r.store.Path)
	}

	tmpPath, err := snapshotFile(r.store.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot snapshot store: %v", ErrStoreNotFound, err)
	}
	defer func() {
		if rmErr := os.Remove(tmpPath); rmErr != nil {
			logger.Warn("failed to remove cookie snapshot", "path", tmpPath, "error", rmErr)
		}
	}()

	secret, err := r.secrets.GetSecret(ctx, r.store.KeychainService, r.store.KeychainAccount)
	if err != nil {
		return nil, err
	}
	key := DeriveKey(secret)

	return r.scanSnapshot(ctx, tmpPath, key)
}

func (r *Reader) scanSnapshot(ctx context.Context, path string, key []byte) (*CredentialBundle, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cookies: open snapshot: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.Warn("failed to close cookie snapshot", "error", closeErr)
		}
	}()

	rows, err := db.QueryContext(ctx,
		"SELECT name, encrypted_value, value FROM cookies WHERE host_key LIKE ? ORDER BY name, rowid",
		r.store.HostFilter)
	if err != nil {
		return nil, fmt.Errorf("cookies: query snapshot: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	values := make(map[string]string)
	var pairs []string

	for rows.Next() {
		var name, plain string
		var encrypted []byte
		if err := rows.Scan(&name, &encrypted, &plain); err != nil {
			return nil, fmt.Errorf("cookies: scan row: %w", err)
		}

		value, err := r.rowValue(encrypted, plain, key)
		if err != nil {
			return nil, err
		}
		if value == "" {
			continue
		}
		if _, seen := values[name]; seen {
			continue
		}
		values[name] = value
		pairs = append(pairs, name+"="+value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cookies: iterate rows: %w", err)
	}

	sessionKey, ok := values[sessionCookieName]
	if !ok {
		return nil, &RequiredCookieMissingError{Name: sessionCookieName}
	}
	orgID, ok := values[orgCookieName]
	if !ok {
		return nil, &RequiredCookieMissingError{Name: orgCookieName}
	}

	return &CredentialBundle{
		SessionKey:   sessionKey,
		OrgID:        orgID,
		CookieHeader: strings.Join(pairs, "; "),
	}, nil
}

func (r *Reader) rowValue(encrypted []byte, plain string, key []byte) (string, error) {
	if len(encrypted) > 0 {
		return Decrypt(r.store.Format, encrypted, key)
	}
	if r.store.UsePlainFallback {
		return plain, nil
	}
	return "", nil
}

// snapshotFile copies src to a unique temporary file and returns its path.
// Concurrent readers each get their own snapshot, so one caller's cleanup
// cannot race another's read.
func snapshotFile(src string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = in.Close()
	}()

	out, err := os.CreateTemp("", "ccu-cookies-*.sqlite")
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(out.Name())
		return "", err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(out.Name())
		return "", err
	}
	return out.Name(), nil
}

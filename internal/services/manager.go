// Package services provides service orchestration for the TUI.
package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"

	"github.com/israelmirsky/claude-codex-usage/internal/config"
	"github.com/israelmirsky/claude-codex-usage/internal/cookies"
	"github.com/israelmirsky/claude-codex-usage/internal/db"
	"github.com/israelmirsky/claude-codex-usage/internal/keychain"
	"github.com/israelmirsky/claude-codex-usage/internal/logger"
	"github.com/israelmirsky/claude-codex-usage/internal/models"
	"github.com/israelmirsky/claude-codex-usage/internal/notify"
	"github.com/israelmirsky/claude-codex-usage/internal/providers"
	"github.com/israelmirsky/claude-codex-usage/internal/providers/claude"
	"github.com/israelmirsky/claude-codex-usage/internal/providers/codex"
	"github.com/israelmirsky/claude-codex-usage/internal/providers/openrouter"
)

type (
	// UsageUpdatedEvent is emitted when a provider fetch succeeds.
	UsageUpdatedEvent struct {
		Provider string
		Data     *models.UsageData
	}

	// CreditsUpdatedEvent is emitted when the OpenRouter balance refreshes.
	CreditsUpdatedEvent struct {
		Credits *models.CreditsData
	}

	// SettingsChangedEvent is emitted when the settings file is edited or
	// updated through the UI.
	SettingsChangedEvent struct {
		Settings config.Settings
	}

	// ErrorEvent is emitted when a fetch or service operation fails.
	ErrorEvent struct {
		Service string
		Error   error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (UsageUpdatedEvent) isServiceEvent()    {}
func (CreditsUpdatedEvent) isServiceEvent()  {}
func (SettingsChangedEvent) isServiceEvent() {}
func (ErrorEvent) isServiceEvent()           {}

// UsageProvider is a named source of normalized usage data.
type UsageProvider interface {
	Name() string
	Fetch(ctx context.Context) (*models.UsageData, error)
}

// CreditsProvider is a source of a prepaid credits balance.
type CreditsProvider interface {
	FetchCredits(ctx context.Context) (*models.CreditsData, error)
}

// credentialChain tries each credential source in order and returns the
// first bundle found. Browser cookies win over the desktop app's.
type credentialChain []claude.CredentialSource

func (c credentialChain) ReadCredentials(ctx context.Context) (*cookies.CredentialBundle, error) {
	var errs []error
	for _, source := range c {
		bundle, err := source.ReadCredentials(ctx)
		if err == nil {
			return bundle, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, cookies.ErrStoreNotFound
	}
	return nil, errors.Join(errs...)
}

// Manager orchestrates fetching, caching, persistence, and event routing.
type Manager struct {
	mu         sync.RWMutex
	providers  []UsageProvider
	openrouter *openrouter.Client
	notifier   *notify.Notifier
	database   *db.DB
	settings   *config.SettingsStore
	watcher    *fsnotify.Watcher

	lastUsage   map[string]*models.UsageData
	lastErrors  map[string]error
	lastCredits *models.CreditsData

	refreshChan chan struct{}
	stopChan    chan struct{}
	closeOnce   sync.Once
	subscribers []chan<- ServiceEvent
}

// NewManager creates a new service manager wired to the real providers.
func NewManager(cfg *config.Config) (*Manager, error) {
	secrets := keychain.NewSystemStore()
	httpc := providers.NewHTTPClient()
	if cfg.HTTPTimeout > 0 {
		httpc.Timeout = cfg.HTTPTimeout
	}

	creds := credentialChain{
		cookies.NewReader(cookies.ChromeStore(), secrets),
		cookies.NewReader(cookies.DesktopStore(), secrets),
	}

	authPath := cfg.CodexAuthPath
	if authPath == "" {
		authPath = codex.DefaultAuthPath()
	}

	m := &Manager{
		providers: []UsageProvider{
			claude.New(creds, httpc),
			codex.New(authPath, httpc),
		},
		openrouter:  openrouter.New(secrets, httpc),
		notifier:    notify.New(nil),
		settings:    config.NewSettingsStore(cfg.SettingsPath),
		lastUsage:   make(map[string]*models.UsageData),
		lastErrors:  make(map[string]error),
		refreshChan: make(chan struct{}, 1),
		stopChan:    make(chan struct{}),
	}

	var err error
	m.database, err = db.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := m.watchSettings(); err != nil {
		logger.Warn("settings watch unavailable", "error", err)
	}

	go m.run()

	return m, nil
}

// newManagerForTest builds a manager around injected collaborators. Used by
// tests; the refresh loop is not started.
func newManagerForTest(provs []UsageProvider, notifier *notify.Notifier, database *db.DB, settings *config.SettingsStore) *Manager {
	return &Manager{
		providers:   provs,
		notifier:    notifier,
		database:    database,
		settings:    settings,
		lastUsage:   make(map[string]*models.UsageData),
		lastErrors:  make(map[string]error),
		refreshChan: make(chan struct{}, 1),
		stopChan:    make(chan struct{}),
	}
}

// watchSettings reloads settings whenever the file changes on disk.
func (m *Manager) watchSettings() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Watch the directory: editors replace the file, which drops a watch
	// placed on the file itself.
	if err := watcher.Add(filepath.Dir(m.settings.Path())); err != nil {
		watcher.Close()
		return err
	}
	m.watcher = watcher

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != m.settings.Path() {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if settings, err := m.settings.Reload(); err == nil {
					logger.Info("settings reloaded", "path", event.Name)
					m.broadcast(SettingsChangedEvent{Settings: settings})
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("settings watcher error", "error", err)

			case <-m.stopChan:
				return
			}
		}
	}()

	return nil
}

// run drives periodic refreshes, honoring interval changes between ticks.
func (m *Manager) run() {
	m.refreshAll()

	for {
		interval := m.settings.Get().RefreshInterval()
		timer := time.NewTimer(interval)

		select {
		case <-timer.C:
			m.refreshAll()

		case <-m.refreshChan:
			timer.Stop()
			m.refreshAll()

		case <-m.stopChan:
			timer.Stop()
			return
		}
	}
}

// refreshAll fetches every provider once and refreshes the credits balance.
func (m *Manager) refreshAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for _, p := range m.providers {
		wg.Add(1)
		go func(p UsageProvider) {
			defer wg.Done()
			m.fetchProvider(ctx, p)
		}(p)
	}

	if m.openrouter != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.fetchCredits(ctx)
		}()
	}

	wg.Wait()
}

// fetchProvider runs one fetch and folds the result into the cache. A
// failed fetch keeps the previous data visible and leaves notification
// state untouched.
func (m *Manager) fetchProvider(ctx context.Context, p UsageProvider) {
	name := p.Name()
	data, err := p.Fetch(ctx)
	if err != nil {
		logger.Warn("usage fetch failed", "provider", name, "error", err)
		m.mu.Lock()
		m.lastErrors[name] = err
		m.mu.Unlock()
		m.broadcast(ErrorEvent{Service: name, Error: err})
		return
	}

	m.mu.Lock()
	m.lastUsage[name] = data
	delete(m.lastErrors, name)
	m.mu.Unlock()

	settings := m.settings.Get()
	m.notifier.Check(name, data, settings.NotifyThreshold, settings.NotificationsEnabled)

	if m.database != nil {
		if err := m.database.RecordUsage(ctx, name, data); err != nil {
			logger.Warn("usage history write failed", "provider", name, "error", err)
		}
	}

	m.broadcast(UsageUpdatedEvent{Provider: name, Data: data})
}

func (m *Manager) fetchCredits(ctx context.Context) {
	credits, err := m.openrouter.FetchCredits(ctx)
	if err != nil {
		// No key configured is the common case; stay quiet about it.
		if !errors.Is(err, keychain.ErrNotFound) {
			logger.Warn("credits fetch failed", "error", err)
			m.broadcast(ErrorEvent{Service: "OpenRouter", Error: err})
		}
		return
	}

	m.mu.Lock()
	m.lastCredits = credits
	m.mu.Unlock()

	m.broadcast(CreditsUpdatedEvent{Credits: credits})
}

// Refresh requests an immediate fetch of all providers.
func (m *Manager) Refresh() {
	select {
	case m.refreshChan <- struct{}{}:
	default:
	}
}

// Usage returns the most recent successful fetch for a provider, or nil.
func (m *Manager) Usage(provider string) *models.UsageData {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastUsage[provider]
}

// LastError returns the most recent fetch error for a provider, cleared on
// the next success.
func (m *Manager) LastError(provider string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErrors[provider]
}

// Credits returns the most recent OpenRouter balance, or nil.
func (m *Manager) Credits() *models.CreditsData {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastCredits
}

// Providers returns the provider names in display order.
func (m *Manager) Providers() []string {
	names := make([]string, len(m.providers))
	for i, p := range m.providers {
		names[i] = p.Name()
	}
	return names
}

// Settings returns the current settings snapshot.
func (m *Manager) Settings() config.Settings {
	return m.settings.Get()
}

// UpdateSettings applies fn, persists the result, and notifies subscribers.
func (m *Manager) UpdateSettings(fn func(*config.Settings)) (config.Settings, error) {
	settings, err := m.settings.Update(fn)
	if err != nil {
		return settings, err
	}
	m.broadcast(SettingsChangedEvent{Settings: settings})
	return settings, nil
}

// OpenRouter returns the credits client for key management.
func (m *Manager) OpenRouter() *openrouter.Client {
	return m.openrouter
}

// History returns recent usage samples for a provider, oldest first.
func (m *Manager) History(ctx context.Context, provider string, limit int) ([]db.UsagePoint, error) {
	if m.database == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	return m.database.RecentUsage(ctx, provider, limit)
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, WaitForEvent(ch)
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return event
	}
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Close stops the refresh loop and releases all resources.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() { close(m.stopChan) })

	m.mu.Lock()
	for _, sub := range m.subscribers {
		close(sub)
	}
	m.subscribers = nil
	m.mu.Unlock()

	var errs []error

	if m.watcher != nil {
		if err := m.watcher.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if m.database != nil {
		if err := m.database.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

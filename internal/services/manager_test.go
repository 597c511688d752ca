package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/israelmirsky/claude-codex-usage/internal/config"
	"github.com/israelmirsky/claude-codex-usage/internal/cookies"
	"github.com/israelmirsky/claude-codex-usage/internal/db"
	"github.com/israelmirsky/claude-codex-usage/internal/keychain"
	"github.com/israelmirsky/claude-codex-usage/internal/models"
	"github.com/israelmirsky/claude-codex-usage/internal/notify"
	"github.com/israelmirsky/claude-codex-usage/internal/providers/openrouter"
)

type fakeProvider struct {
	name string
	data *models.UsageData
	err  error
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Fetch(context.Context) (*models.UsageData, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.data, nil
}

type silentSink struct{ count int }

func (s *silentSink) Notify(title, body string) error {
	s.count++
	return nil
}

func usageAt(session float64) *models.UsageData {
	return &models.UsageData{
		Session:     models.UsageMetric{Label: "Current session", PercentUsed: session, ResetInfo: "Resets in 1h 0m"},
		WeeklyAll:   models.EmptyMetric("All models"),
		WeeklyModel: models.EmptyMetric("Sonnet only"),
		Extra:       models.EmptyExtraUsage(),
		FetchedAt:   models.Now(),
	}
}

func testManager(t *testing.T, provs ...UsageProvider) (*Manager, *silentSink) {
	t.Helper()

	dir := t.TempDir()
	database, err := db.New(filepath.Join(dir, "usage.db"))
	if err != nil {
		t.Fatal(err)
	}

	sink := &silentSink{}
	m := newManagerForTest(provs, notify.New(sink), database,
		config.NewSettingsStore(filepath.Join(dir, "settings.json")))
	t.Cleanup(func() { m.Close() })
	return m, sink
}

func TestFetchProviderCachesSuccess(t *testing.T) {
	p := &fakeProvider{name: "Claude", data: usageAt(42)}
	m, _ := testManager(t, p)

	m.fetchProvider(context.Background(), p)

	got := m.Usage("Claude")
	if got == nil {
		t.Fatal("Usage() = nil after successful fetch")
	}
	if got.Session.PercentUsed != 42 {
		t.Errorf("Session.PercentUsed = %v, want 42", got.Session.PercentUsed)
	}
	if err := m.LastError("Claude"); err != nil {
		t.Errorf("LastError() = %v, want nil", err)
	}
}

func TestFetchProviderFailureKeepsLastGoodData(t *testing.T) {
	p := &fakeProvider{name: "Claude", data: usageAt(42)}
	m, sink := testManager(t, p)

	m.fetchProvider(context.Background(), p)

	p.err = errors.New("upstream down")
	m.fetchProvider(context.Background(), p)

	got := m.Usage("Claude")
	if got == nil || got.Session.PercentUsed != 42 {
		t.Errorf("failed fetch should keep cached data, got %+v", got)
	}
	if err := m.LastError("Claude"); err == nil {
		t.Error("LastError() = nil, want the fetch error")
	}
	if sink.count != 0 {
		t.Errorf("failed fetch must not notify, sink fired %d times", sink.count)
	}

	// Recovery clears the error.
	p.err = nil
	m.fetchProvider(context.Background(), p)
	if err := m.LastError("Claude"); err != nil {
		t.Errorf("LastError() after recovery = %v, want nil", err)
	}
}

func TestFetchProviderNotifiesAtThreshold(t *testing.T) {
	p := &fakeProvider{name: "Claude", data: usageAt(95)}
	m, sink := testManager(t, p)

	m.fetchProvider(context.Background(), p)

	if sink.count != 1 {
		t.Errorf("sink fired %d times, want 1", sink.count)
	}
}

func TestFetchProviderRecordsHistory(t *testing.T) {
	p := &fakeProvider{name: "Codex", data: usageAt(33)}
	m, _ := testManager(t, p)

	m.fetchProvider(context.Background(), p)

	points, err := m.History(context.Background(), "Codex", 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("len(points) = %d, want 1", len(points))
	}
	if points[0].SessionPct != 33 {
		t.Errorf("SessionPct = %v, want 33", points[0].SessionPct)
	}
}

func TestSubscribeReceivesUsageEvents(t *testing.T) {
	p := &fakeProvider{name: "Claude", data: usageAt(10)}
	m, _ := testManager(t, p)

	ch, _ := m.Subscribe()
	m.fetchProvider(context.Background(), p)

	select {
	case event := <-ch:
		updated, ok := event.(UsageUpdatedEvent)
		if !ok {
			t.Fatalf("event = %T, want UsageUpdatedEvent", event)
		}
		if updated.Provider != "Claude" {
			t.Errorf("Provider = %q", updated.Provider)
		}
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}

	m.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after Unsubscribe")
	}
}

func TestSubscribeReceivesErrorEvents(t *testing.T) {
	p := &fakeProvider{name: "Codex", err: errors.New("boom")}
	m, _ := testManager(t, p)

	ch, _ := m.Subscribe()
	defer m.Unsubscribe(ch)
	m.fetchProvider(context.Background(), p)

	select {
	case event := <-ch:
		errEvent, ok := event.(ErrorEvent)
		if !ok {
			t.Fatalf("event = %T, want ErrorEvent", event)
		}
		if errEvent.Service != "Codex" {
			t.Errorf("Service = %q", errEvent.Service)
		}
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestFetchCreditsQuietWhenKeyUnconfigured(t *testing.T) {
	m, _ := testManager(t)
	t.Setenv("OPENROUTER_API_KEY", "")
	m.openrouter = openrouter.New(keychain.NewEnvStore(nil), nil)

	ch, _ := m.Subscribe()
	defer m.Unsubscribe(ch)
	m.fetchCredits(context.Background())

	// No configured key is the normal state; it must not surface as an
	// error event on every refresh.
	select {
	case event := <-ch:
		t.Fatalf("event = %T (%v), want none", event, event)
	case <-time.After(100 * time.Millisecond):
	}
	if m.Credits() != nil {
		t.Errorf("Credits() = %+v, want nil", m.Credits())
	}
}

func TestUpdateSettingsBroadcasts(t *testing.T) {
	m, _ := testManager(t)

	ch, _ := m.Subscribe()
	defer m.Unsubscribe(ch)

	updated, err := m.UpdateSettings(func(s *config.Settings) {
		s.NotifyThreshold = 70
	})
	if err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}
	if updated.NotifyThreshold != 70 {
		t.Errorf("NotifyThreshold = %d, want 70", updated.NotifyThreshold)
	}

	select {
	case event := <-ch:
		changed, ok := event.(SettingsChangedEvent)
		if !ok {
			t.Fatalf("event = %T, want SettingsChangedEvent", event)
		}
		if changed.Settings.NotifyThreshold != 70 {
			t.Errorf("event threshold = %d, want 70", changed.Settings.NotifyThreshold)
		}
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

type stubCredSource struct {
	bundle *cookies.CredentialBundle
	err    error
}

func (s *stubCredSource) ReadCredentials(context.Context) (*cookies.CredentialBundle, error) {
	return s.bundle, s.err
}

func TestCredentialChainFallsBack(t *testing.T) {
	want := &cookies.CredentialBundle{SessionKey: "sk-ant-xyz", OrgID: "org-1"}

	chain := credentialChain{
		&stubCredSource{err: cookies.ErrStoreNotFound},
		&stubCredSource{bundle: want},
	}

	got, err := chain.ReadCredentials(context.Background())
	if err != nil {
		t.Fatalf("ReadCredentials() error = %v", err)
	}
	if got.SessionKey != want.SessionKey {
		t.Errorf("SessionKey = %q, want %q", got.SessionKey, want.SessionKey)
	}
}

func TestCredentialChainJoinsErrors(t *testing.T) {
	first := errors.New("chrome locked")
	chain := credentialChain{
		&stubCredSource{err: first},
		&stubCredSource{err: cookies.ErrStoreNotFound},
	}

	_, err := chain.ReadCredentials(context.Background())
	if err == nil {
		t.Fatal("ReadCredentials() error = nil, want joined errors")
	}
	if !errors.Is(err, first) || !errors.Is(err, cookies.ErrStoreNotFound) {
		t.Errorf("joined error missing causes: %v", err)
	}
}

func TestRefreshAllFetchesEveryProvider(t *testing.T) {
	claude := &fakeProvider{name: "Claude", data: usageAt(10)}
	codex := &fakeProvider{name: "Codex", data: usageAt(20)}
	m, _ := testManager(t, claude, codex)

	m.refreshAll()

	if m.Usage("Claude") == nil || m.Usage("Codex") == nil {
		t.Error("refreshAll should populate both providers")
	}
	if got := m.Providers(); len(got) != 2 || got[0] != "Claude" || got[1] != "Codex" {
		t.Errorf("Providers() = %v", got)
	}
}

package codex

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/israelmirsky/claude-codex-usage/internal/models"
	"github.com/israelmirsky/claude-codex-usage/internal/providers"
)

func writeAuthFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "auth.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	authPath := writeAuthFile(t, `{"tokens": {"access_token": "tok-123"}}`)
	c := New(authPath, srv.Client())
	c.SetBaseURL(srv.URL)
	return c
}

func TestReadToken(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantErr bool
	}{
		{"Valid", `{"tokens": {"access_token": "tok-abc"}}`, "tok-abc", false},
		{"EmptyToken", `{"tokens": {"access_token": ""}}`, "", true},
		{"NoTokens", `{}`, "", true},
		{"Malformed", `{nope`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeAuthFile(t, tt.content)
			got, err := readToken(path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("readToken() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("readToken() = %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("Missing", func(t *testing.T) {
		_, err := readToken(filepath.Join(t.TempDir(), "auth.json"))
		if err == nil || !strings.Contains(err.Error(), "not configured") {
			t.Errorf("readToken() error = %v, want not-configured", err)
		}
	})
}

func TestFetchFullPayload(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{
			"plan_type": "plus",
			"rate_limit": {
				"limit_reached": false,
				"primary_window": {"used_percent": 33.0, "limit_window_seconds": 18000, "reset_after_seconds": 5400},
				"secondary_window": {"used_percent": 72.0, "limit_window_seconds": 604800, "reset_after_seconds": 86400}
			},
			"additional_rate_limits": [
				{"limit_name": "gpt-5.3-codex-spark", "rate_limit": {"primary_window": {"used_percent": 12.0, "limit_window_seconds": 18000, "reset_after_seconds": 300}}}
			],
			"credits": {"has_credits": true, "unlimited": false, "balance": "14.50"}
		}`))
	})

	data, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q", gotAuth)
	}

	if data.Session.Label != "5-hour window" {
		t.Errorf("Session.Label = %q", data.Session.Label)
	}
	if data.Session.ResetInfo != "Resets in 1h 30m" {
		t.Errorf("Session.ResetInfo = %q", data.Session.ResetInfo)
	}
	if data.WeeklyAll.Label != "7-day window" {
		t.Errorf("WeeklyAll.Label = %q", data.WeeklyAll.Label)
	}
	if data.WeeklyAll.PercentUsed != 72.0 {
		t.Errorf("WeeklyAll.PercentUsed = %v", data.WeeklyAll.PercentUsed)
	}
	if data.WeeklyModel.Label != "gpt-5.3-codex-spark" {
		t.Errorf("WeeklyModel.Label = %q", data.WeeklyModel.Label)
	}
	if data.WeeklyModel.ResetInfo != "Resets in 5m" {
		t.Errorf("WeeklyModel.ResetInfo = %q", data.WeeklyModel.ResetInfo)
	}
	if data.Extra.DollarsSpent != 14.50 {
		t.Errorf("Extra.DollarsSpent = %v", data.Extra.DollarsSpent)
	}
	if !data.Extra.Enabled {
		t.Error("Extra.Enabled = false")
	}
}

func TestFetchLimitReachedPrefixesSession(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"rate_limit": {
				"limit_reached": true,
				"primary_window": {"used_percent": 100.0, "limit_window_seconds": 18000, "reset_after_seconds": 1200}
			}
		}`))
	})

	data, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if !strings.HasPrefix(data.Session.ResetInfo, models.LimitPrefix) {
		t.Errorf("Session.ResetInfo = %q, want %q prefix", data.Session.ResetInfo, models.LimitPrefix)
	}
	if data.Session.ResetInfo != "LIMIT REACHED - Resets in 20m" {
		t.Errorf("Session.ResetInfo = %q", data.Session.ResetInfo)
	}
}

func TestFetchEmptyPayloadDegrades(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	data, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if data.Session.Label != "Session" || data.Session.ResetInfo != models.NoData {
		t.Errorf("Session = %+v", data.Session)
	}
	if data.WeeklyAll.Label != "Weekly" {
		t.Errorf("WeeklyAll.Label = %q", data.WeeklyAll.Label)
	}
	if data.WeeklyModel.Label != "Plan: unknown" {
		t.Errorf("WeeklyModel.Label = %q", data.WeeklyModel.Label)
	}
	if data.Extra.Enabled {
		t.Error("Extra.Enabled = true")
	}
}

func TestFetchUnlimitedCredits(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"credits": {"has_credits": false, "unlimited": true, "balance": "not-a-number"}}`))
	})

	data, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if data.Extra.ResetDate != "Unlimited" {
		t.Errorf("Extra.ResetDate = %q", data.Extra.ResetDate)
	}
	if !data.Extra.Enabled {
		t.Error("Extra.Enabled = false")
	}
	if data.Extra.DollarsSpent != 0 {
		t.Errorf("Extra.DollarsSpent = %v, want 0 for unparseable balance", data.Extra.DollarsSpent)
	}
}

func TestFetchUpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	_, err := client.Fetch(context.Background())

	var upstream *providers.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("Fetch() error = %v, want UpstreamError", err)
	}
	if upstream.Status != http.StatusTooManyRequests {
		t.Errorf("Status = %d", upstream.Status)
	}
}

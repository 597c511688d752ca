package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestEmptyMetric(t *testing.T) {
	m := EmptyMetric("All models")

	if m.Label != "All models" {
		t.Errorf("Label = %q", m.Label)
	}
	if m.PercentUsed != 0 {
		t.Errorf("PercentUsed = %v, want 0", m.PercentUsed)
	}
	if m.ResetInfo != NoData {
		t.Errorf("ResetInfo = %q, want %q", m.ResetInfo, NoData)
	}
}

func TestEmptyExtraUsage(t *testing.T) {
	e := EmptyExtraUsage()

	if e.Enabled {
		t.Error("Enabled = true, want false")
	}
	if e.ResetDate != NotAvailable {
		t.Errorf("ResetDate = %q, want %q", e.ResetDate, NotAvailable)
	}
	if e.DollarsSpent != 0 || e.PercentUsed != 0 {
		t.Errorf("numeric fields not zero: %+v", e)
	}
}

func TestUsageDataJSONFieldNames(t *testing.T) {
	data := UsageData{
		Session:     UsageMetric{Label: "Current session", PercentUsed: 42.5, ResetInfo: "Resets in 1h 5m"},
		WeeklyAll:   EmptyMetric("All models"),
		WeeklyModel: EmptyMetric("Sonnet only"),
		Extra:       ExtraUsage{DollarsSpent: 12.5, PercentUsed: 25, ResetDate: "Monthly", Enabled: true},
		FetchedAt:   "2026-08-26T10:00:00Z",
	}

	out, err := json.Marshal(data)
	if err != nil {
		t.Fatal(err)
	}

	for _, field := range []string{
		`"session"`, `"weekly_all"`, `"weekly_model"`, `"extra"`, `"fetched_at"`,
		`"label"`, `"percent_used"`, `"reset_info"`,
		`"dollars_spent"`, `"reset_date"`, `"enabled"`,
	} {
		if !strings.Contains(string(out), field) {
			t.Errorf("serialized form missing %s: %s", field, out)
		}
	}

	var roundtrip UsageData
	if err := json.Unmarshal(out, &roundtrip); err != nil {
		t.Fatal(err)
	}
	if roundtrip.Session.PercentUsed != 42.5 {
		t.Errorf("Session.PercentUsed = %v after roundtrip", roundtrip.Session.PercentUsed)
	}
}

func TestNowIsRFC3339UTC(t *testing.T) {
	got := Now()

	parsed, err := time.Parse(time.RFC3339, got)
	if err != nil {
		t.Fatalf("Now() = %q, not RFC3339: %v", got, err)
	}
	if parsed.Location() != time.UTC {
		t.Errorf("Now() = %q, want UTC offset", got)
	}
	if !strings.HasSuffix(got, "Z") {
		t.Errorf("Now() = %q, want Z suffix", got)
	}
}

package db

import (
	"context"
	"fmt"
	"time"

	"github.com/israelmirsky/claude-codex-usage/internal/models"
)

var timeFormats = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func parseTimeString(s string) (time.Time, bool) {
	for _, format := range timeFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// UsagePoint is one recorded usage sample for a provider.
type UsagePoint struct {
	Timestamp  time.Time
	SessionPct float64
	WeeklyPct  float64
	ModelPct   float64
	ExtraPct   float64
}

// RecordUsage stores a usage sample for later charting. A nil data is a
// no-op so callers can record unconditionally after a fetch.
func (db *DB) RecordUsage(ctx context.Context, provider string, data *models.UsageData) error {
	if data == nil {
		return nil
	}

	query := `
	INSERT INTO usage_snapshots (timestamp, provider, session_pct, weekly_pct, model_pct, extra_pct)
	VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := db.ExecContext(ctx, query,
		time.Now().UTC().Format("2006-01-02 15:04:05"),
		provider,
		data.Session.PercentUsed,
		data.WeeklyAll.PercentUsed,
		data.WeeklyModel.PercentUsed,
		data.Extra.PercentUsed,
	)
	if err != nil {
		return fmt.Errorf("failed to record usage snapshot: %w", err)
	}
	return nil
}

// RecentUsage returns up to limit samples for a provider, oldest first.
func (db *DB) RecentUsage(ctx context.Context, provider string, limit int) ([]UsagePoint, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
	SELECT timestamp, session_pct, weekly_pct, model_pct, extra_pct
	FROM usage_snapshots
	WHERE provider = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT ?
	`
	rows, err := db.QueryContext(ctx, query, provider, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage snapshots: %w", err)
	}
	defer rows.Close()

	var points []UsagePoint
	for rows.Next() {
		var (
			p      UsagePoint
			tsText string
		)
		if err := rows.Scan(&tsText, &p.SessionPct, &p.WeeklyPct, &p.ModelPct, &p.ExtraPct); err != nil {
			return nil, fmt.Errorf("failed to scan usage snapshot: %w", err)
		}
		if t, ok := parseTimeString(tsText); ok {
			p.Timestamp = t
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse so the series reads left-to-right in time.
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points, nil
}

// PruneBefore deletes samples older than cutoff and returns how many rows
// were removed.
func (db *DB) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := db.ExecContext(ctx,
		"DELETE FROM usage_snapshots WHERE timestamp < ?",
		cutoff.UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune usage snapshots: %w", err)
	}
	return result.RowsAffected()
}

package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/spartanofurioso/platform/internal/domain/analytics"
	"github.com/spartanofurioso/platform/internal/pkg/errors"
	"github.com/spartanofurioso/platform/internal/pkg/metrics"
)

// AnalyticsRepository implements analytics.Repository
type AnalyticsRepository struct {
	db *sql.DB
}

// NewAnalyticsRepository creates a new analytics repository
func NewAnalyticsRepository(db *sql.DB) analytics.Repository {
	return &AnalyticsRepository{db: db}
}

const secondsPerDay = 86400

// Create stores a tracked event
func (r *AnalyticsRepository) Create(ctx context.Context, e *analytics.Event) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	var metadata sql.NullString
	if len(e.Metadata) > 0 {
		metadata = sql.NullString{String: string(e.Metadata), Valid: true}
	}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO analytics_events (session_id, user_id, type, path, referrer, metadata, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, e.SessionID, nullInt64(e.UserID), string(e.Type), e.Path, e.Referrer, metadata, e.UserAgent,
		e.CreatedAt.Unix(),
	).Scan(&e.ID)
	if err != nil {
		return errors.DatabaseError("Failed to record analytics event", err)
	}
	return nil
}

// Stats aggregates events in [from, to)
func (r *AnalyticsRepository) Stats(ctx context.Context, from, to time.Time, topN int) (*analytics.Stats, error) {
	stats := &analytics.Stats{
		From:     from,
		To:       to,
		TopPages: []analytics.PageCount{},
		ByType:   map[analytics.EventType]int64{},
		Daily:    []analytics.DayCount{},
	}
	lo, hi := from.Unix(), to.Unix()
	defer func(start time.Time) {
		metrics.RecordDBQuery("aggregate", "analytics_events", time.Since(start))
	}(time.Now())

	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT session_id), COUNT(DISTINCT user_id)
		FROM analytics_events WHERE created_at >= $1 AND created_at < $2
	`, lo, hi).Scan(&stats.TotalEvents, &stats.UniqueSessions, &stats.UniqueUsers)
	if err != nil {
		return nil, errors.DatabaseError("Failed to aggregate analytics", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT type, COUNT(*) FROM analytics_events
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY type
	`, lo, hi)
	if err != nil {
		return nil, errors.DatabaseError("Failed to aggregate analytics by type", err)
	}
	for rows.Next() {
		var typ string
		var n int64
		if err := rows.Scan(&typ, &n); err != nil {
			rows.Close()
			return nil, errors.DatabaseError("Failed to scan analytics by type", err)
		}
		stats.ByType[analytics.EventType(typ)] = n
	}
	rows.Close()
	stats.PageViews = stats.ByType[analytics.EventPageView]

	rows, err = r.db.QueryContext(ctx, `
		SELECT path, COUNT(*) AS views FROM analytics_events
		WHERE type = $1 AND created_at >= $2 AND created_at < $3
		GROUP BY path
		ORDER BY views DESC, path
		LIMIT $4
	`, string(analytics.EventPageView), lo, hi, topN)
	if err != nil {
		return nil, errors.DatabaseError("Failed to aggregate top pages", err)
	}
	for rows.Next() {
		var pc analytics.PageCount
		if err := rows.Scan(&pc.Path, &pc.Views); err != nil {
			rows.Close()
			return nil, errors.DatabaseError("Failed to scan top pages", err)
		}
		stats.TopPages = append(stats.TopPages, pc)
	}
	rows.Close()

	rows, err = r.db.QueryContext(ctx, `
		SELECT created_at / $1 AS day, COUNT(*) FROM analytics_events
		WHERE created_at >= $2 AND created_at < $3
		GROUP BY day
		ORDER BY day
	`, int64(secondsPerDay), lo, hi)
	if err != nil {
		return nil, errors.DatabaseError("Failed to aggregate daily analytics", err)
	}
	defer rows.Close()
	for rows.Next() {
		var day, n int64
		if err := rows.Scan(&day, &n); err != nil {
			return nil, errors.DatabaseError("Failed to scan daily analytics", err)
		}
		stats.Daily = append(stats.Daily, analytics.DayCount{
			Day:    time.Unix(day*secondsPerDay, 0).UTC().Format("2006-01-02"),
			Events: n,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to aggregate daily analytics", err)
	}

	return stats, nil
}

package reporter

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Event distinguishes the playback report kinds understood by the
// server.
type Event string

const (
	EventStart    Event = "start"
	EventProgress Event = "progress"
	EventStop     Event = "stop"
)

// Queue manages a persistent queue of playback reports using SQLite.
// Reports are queued locally when the server is unreachable and flushed
// later, so watch history survives network drops.
type Queue struct {
	db *sql.DB
}

// Report is one playback state change waiting to be delivered.
type Report struct {
	ID            int64
	Event         Event
	ItemID        string
	ItemName      string
	PositionTicks int64
	PlaySessionID string
	Timestamp     time.Time
	Sent          bool
	Error         string
}

// NewQueue creates a new report queue backed by SQLite
func NewQueue(dbPath string) (*Queue, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps in-memory databases consistent and is
	// plenty for this workload.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA journal_mode = WAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA cache_size = -64000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS reports (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			event TEXT NOT NULL,
			item_id TEXT NOT NULL,
			item_name TEXT,
			position_ticks INTEGER NOT NULL DEFAULT 0,
			play_session_id TEXT,
			timestamp INTEGER NOT NULL,
			sent BOOLEAN DEFAULT 0,
			error TEXT,
			created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
		);

		CREATE INDEX IF NOT EXISTS idx_sent ON reports(sent, timestamp);
		CREATE INDEX IF NOT EXISTS idx_timestamp ON reports(timestamp);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Queue{db: db}, nil
}

// Close closes the database connection
func (q *Queue) Close() error {
	if q.db != nil {
		return q.db.Close()
	}
	return nil
}

// Add adds a new report to the queue
func (q *Queue) Add(ctx context.Context, report Report) (int64, error) {
	query := `
		INSERT INTO reports (event, item_id, item_name, position_ticks, play_session_id, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	ts := report.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	result, err := q.db.ExecContext(ctx, query,
		string(report.Event),
		report.ItemID,
		report.ItemName,
		report.PositionTicks,
		report.PlaySessionID,
		ts.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert report: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get insert id: %w", err)
	}

	return id, nil
}

// MarkSent marks a report as successfully delivered
func (q *Queue) MarkSent(ctx context.Context, id int64) error {
	query := `
		UPDATE reports
		SET sent = 1, error = NULL
		WHERE id = ?
	`

	result, err := q.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark report as sent: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("report with id %d not found", id)
	}

	return nil
}

// MarkError records a delivery failure against a report
func (q *Queue) MarkError(ctx context.Context, id int64, errMsg string) error {
	query := `
		UPDATE reports
		SET error = ?
		WHERE id = ?
	`

	result, err := q.db.ExecContext(ctx, query, errMsg, id)
	if err != nil {
		return fmt.Errorf("failed to mark report error: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("report with id %d not found", id)
	}

	return nil
}

// MarkRejected records that the server refused a report. The entry is
// taken out of the pending set but keeps the failure reason for
// inspection.
func (q *Queue) MarkRejected(ctx context.Context, id int64, errMsg string) error {
	query := `
		UPDATE reports
		SET sent = 1, error = ?
		WHERE id = ?
	`

	result, err := q.db.ExecContext(ctx, query, errMsg, id)
	if err != nil {
		return fmt.Errorf("failed to mark report rejected: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("report with id %d not found", id)
	}

	return nil
}

// Pending retrieves undelivered reports ordered by timestamp.
// Optionally limits the number of results.
func (q *Queue) Pending(ctx context.Context, limit int) ([]Report, error) {
	query := `
		SELECT id, event, item_id, COALESCE(item_name, ''), position_ticks, COALESCE(play_session_id, ''), timestamp, sent, COALESCE(error, '')
		FROM reports
		WHERE sent = 0
		ORDER BY timestamp ASC
	`

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	return q.queryReports(ctx, query)
}

// All retrieves every report, newest first (for debugging/testing)
func (q *Queue) All(ctx context.Context) ([]Report, error) {
	query := `
		SELECT id, event, item_id, COALESCE(item_name, ''), position_ticks, COALESCE(play_session_id, ''), timestamp, sent, COALESCE(error, '')
		FROM reports
		ORDER BY timestamp DESC
	`

	return q.queryReports(ctx, query)
}

func (q *Queue) queryReports(ctx context.Context, query string) ([]Report, error) {
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		var r Report
		var event string
		var timestampUnix int64

		err := rows.Scan(
			&r.ID,
			&event,
			&r.ItemID,
			&r.ItemName,
			&r.PositionTicks,
			&r.PlaySessionID,
			&timestampUnix,
			&r.Sent,
			&r.Error,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}

		r.Event = Event(event)
		r.Timestamp = time.Unix(timestampUnix, 0)
		reports = append(reports, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}

	return reports, nil
}

// Cleanup removes delivered reports older than maxAge to prevent
// unbounded growth. Undelivered reports are always kept.
func (q *Queue) Cleanup(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).Unix()

	query := `
		DELETE FROM reports
		WHERE sent = 1
		AND timestamp < ?
	`

	result, err := q.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old reports: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}

// Count returns the number of reports in the queue.
// If includeSent is false, only pending reports are counted.
func (q *Queue) Count(ctx context.Context, includeSent bool) (int, error) {
	query := "SELECT COUNT(*) FROM reports"
	if !includeSent {
		query += " WHERE sent = 0"
	}

	var count int
	err := q.db.QueryRowContext(ctx, query).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}

	return count, nil
}

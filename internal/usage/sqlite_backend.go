package usage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nghyane/oc-bridge/internal/config"
	_ "modernc.org/sqlite"
)

// SQLiteBackend implements the Backend interface using SQLite.
type SQLiteBackend struct {
	*batcher
	db     *sql.DB
	dbPath string
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS usage_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	provider TEXT NOT NULL DEFAULT '',
	model TEXT NOT NULL,
	session_id TEXT NOT NULL DEFAULT '',
	source TEXT NOT NULL DEFAULT '',
	requested_at TIMESTAMP NOT NULL,
	latency_ms INTEGER NOT NULL DEFAULT 0,
	failed BOOLEAN NOT NULL DEFAULT 0,
	input_tokens INTEGER NOT NULL DEFAULT 0,
	output_tokens INTEGER NOT NULL DEFAULT 0,
	measured_tokens INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_usage_requested_at ON usage_records(requested_at);
CREATE INDEX IF NOT EXISTS idx_usage_provider_model ON usage_records(provider, model);
`

// NewSQLiteBackend creates a new SQLite-backed persistence layer.
// The backend must be started with Start() before use.
func NewSQLiteBackend(dbPath string, cfg BackendConfig) (*SQLiteBackend, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("SQLite path is required")
	}
	dbPath, err := config.ExpandPath(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to expand database path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	b := &SQLiteBackend{
		batcher: newBatcher(cfg),
		db:      db,
		dbPath:  dbPath,
	}
	b.batcher.writeBatch = b.writeBatch
	b.batcher.cleanup = b.Cleanup
	return b, nil
}

// Start begins background workers (write loop, cleanup loop).
func (b *SQLiteBackend) Start() error {
	b.start()
	return nil
}

// Stop gracefully shuts down the backend, flushing pending writes.
func (b *SQLiteBackend) Stop() error {
	if b == nil {
		return nil
	}
	return b.stop(b.db.Close)
}

// Enqueue adds a usage record to the write queue.
func (b *SQLiteBackend) Enqueue(record UsageRecord) {
	if b == nil {
		return
	}
	b.enqueue(record)
}

// Flush forces pending records to be written to storage.
func (b *SQLiteBackend) Flush(ctx context.Context) error {
	if b == nil {
		return nil
	}
	return b.flush(ctx)
}

func (b *SQLiteBackend) writeBatch(ctx context.Context, records []UsageRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO usage_records (
			provider, model, session_id, source, requested_at, latency_ms,
			failed, input_tokens, output_tokens, measured_tokens
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			r.Provider, r.Model, r.SessionID, r.Source,
			sqliteTime(r.RequestedAt), r.Latency.Milliseconds(),
			r.Failed, r.InputTokens, r.OutputTokens, r.MeasuredTokens,
		); err != nil {
			return fmt.Errorf("failed to insert record: %w", err)
		}
	}

	return tx.Commit()
}

// sqliteTime renders t in a form both lexically ordered and understood by
// SQLite's date functions.
func sqliteTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05.000")
}

// QueryGlobalStats returns aggregate statistics since the given time.
func (b *SQLiteBackend) QueryGlobalStats(ctx context.Context, since time.Time) (*AggregatedStats, error) {
	row := b.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN failed = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN failed = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(input_tokens), 0),
			COALESCE(SUM(output_tokens), 0),
			COALESCE(SUM(measured_tokens), 0)
		FROM usage_records
		WHERE requested_at >= ?
	`, sqliteTime(since))

	var stats AggregatedStats
	if err := row.Scan(
		&stats.TotalRequests, &stats.SuccessCount, &stats.FailureCount,
		&stats.InputTokens, &stats.OutputTokens, &stats.MeasuredTokens,
	); err != nil {
		return nil, fmt.Errorf("failed to query global stats: %w", err)
	}
	return &stats, nil
}

// QueryDailyStats returns per-day statistics since the given time.
func (b *SQLiteBackend) QueryDailyStats(ctx context.Context, since time.Time) ([]DailyStats, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT
			DATE(requested_at) AS day,
			COUNT(*),
			COALESCE(SUM(measured_tokens), 0)
		FROM usage_records
		WHERE requested_at >= ?
		GROUP BY day
		HAVING day IS NOT NULL
		ORDER BY day
	`, sqliteTime(since))
	if err != nil {
		return nil, fmt.Errorf("failed to query daily stats: %w", err)
	}
	defer rows.Close()

	var results []DailyStats
	for rows.Next() {
		var d DailyStats
		var day sql.NullString
		if err := rows.Scan(&day, &d.Requests, &d.Tokens); err != nil {
			return nil, err
		}
		if day.Valid && day.String != "" {
			d.Day = day.String
			results = append(results, d)
		}
	}
	return results, rows.Err()
}

// QueryModelStats returns per-model statistics since the given time.
func (b *SQLiteBackend) QueryModelStats(ctx context.Context, since time.Time) ([]ModelStats, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT
			model,
			COALESCE(NULLIF(provider, ''), 'unknown'),
			COUNT(*) AS requests,
			COALESCE(SUM(CASE WHEN failed = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(measured_tokens), 0)
		FROM usage_records
		WHERE requested_at >= ?
		GROUP BY model, provider
		ORDER BY requests DESC, model
	`, sqliteTime(since))
	if err != nil {
		return nil, fmt.Errorf("failed to query model stats: %w", err)
	}
	defer rows.Close()

	var results []ModelStats
	for rows.Next() {
		var m ModelStats
		if err := rows.Scan(&m.Model, &m.Provider, &m.Requests, &m.FailureCount, &m.MeasuredTokens); err != nil {
			return nil, err
		}
		results = append(results, m)
	}
	return results, rows.Err()
}

// Cleanup removes records older than before.
func (b *SQLiteBackend) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	result, err := b.db.ExecContext(ctx, `DELETE FROM usage_records WHERE requested_at < ?`, sqliteTime(before))
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old records: %w", err)
	}
	return result.RowsAffected()
}

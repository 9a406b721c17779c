package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresBackend implements the Backend interface using PostgreSQL with pgx.
type PostgresBackend struct {
	*batcher
	pool *pgxpool.Pool
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS usage_records (
	id BIGSERIAL PRIMARY KEY,
	provider TEXT NOT NULL DEFAULT '',
	model TEXT NOT NULL,
	session_id TEXT NOT NULL DEFAULT '',
	source TEXT NOT NULL DEFAULT '',
	requested_at TIMESTAMPTZ NOT NULL,
	latency_ms BIGINT NOT NULL DEFAULT 0,
	failed BOOLEAN NOT NULL DEFAULT FALSE,
	input_tokens BIGINT NOT NULL DEFAULT 0,
	output_tokens BIGINT NOT NULL DEFAULT 0,
	measured_tokens BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_usage_requested_at ON usage_records(requested_at);
CREATE INDEX IF NOT EXISTS idx_usage_provider_model ON usage_records(provider, model);
`

// NewPostgresBackend creates a new PostgreSQL-backed persistence layer.
// The backend must be started with Start() before use.
func NewPostgresBackend(dsn string, cfg BackendConfig) (*PostgresBackend, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	b := &PostgresBackend{
		batcher: newBatcher(cfg),
		pool:    pool,
	}
	b.batcher.writeBatch = b.writeBatch
	b.batcher.cleanup = b.Cleanup
	return b, nil
}

// Start begins background workers (write loop, cleanup loop).
func (b *PostgresBackend) Start() error {
	b.start()
	return nil
}

// Stop gracefully shuts down the backend, flushing pending writes.
func (b *PostgresBackend) Stop() error {
	if b == nil {
		return nil
	}
	return b.stop(func() error {
		b.pool.Close()
		return nil
	})
}

// Enqueue adds a usage record to the write queue.
func (b *PostgresBackend) Enqueue(record UsageRecord) {
	if b == nil {
		return
	}
	b.enqueue(record)
}

// Flush forces pending records to be written to storage.
func (b *PostgresBackend) Flush(ctx context.Context) error {
	if b == nil {
		return nil
	}
	return b.flush(ctx)
}

// writeBatch writes a batch of records using CopyFrom.
func (b *PostgresBackend) writeBatch(ctx context.Context, records []UsageRecord) error {
	if len(records) == 0 {
		return nil
	}

	columns := []string{
		"provider", "model", "session_id", "source", "requested_at",
		"latency_ms", "failed", "input_tokens", "output_tokens", "measured_tokens",
	}

	_, err := b.pool.CopyFrom(
		ctx,
		pgx.Identifier{"usage_records"},
		columns,
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			r := records[i]
			return []any{
				r.Provider,
				r.Model,
				r.SessionID,
				r.Source,
				r.RequestedAt,
				r.Latency.Milliseconds(),
				r.Failed,
				r.InputTokens,
				r.OutputTokens,
				r.MeasuredTokens,
			}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to copy records: %w", err)
	}
	return nil
}

// QueryGlobalStats returns aggregate statistics since the given time.
func (b *PostgresBackend) QueryGlobalStats(ctx context.Context, since time.Time) (*AggregatedStats, error) {
	var stats AggregatedStats
	err := b.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE NOT failed),
			COUNT(*) FILTER (WHERE failed),
			COALESCE(SUM(input_tokens), 0),
			COALESCE(SUM(output_tokens), 0),
			COALESCE(SUM(measured_tokens), 0)
		FROM usage_records
		WHERE requested_at >= $1
	`, since).Scan(
		&stats.TotalRequests, &stats.SuccessCount, &stats.FailureCount,
		&stats.InputTokens, &stats.OutputTokens, &stats.MeasuredTokens,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query global stats: %w", err)
	}
	return &stats, nil
}

// QueryDailyStats returns per-day statistics since the given time.
func (b *PostgresBackend) QueryDailyStats(ctx context.Context, since time.Time) ([]DailyStats, error) {
	rows, err := b.pool.Query(ctx, `
		SELECT
			TO_CHAR(DATE(requested_at), 'YYYY-MM-DD') AS day,
			COUNT(*),
			COALESCE(SUM(measured_tokens), 0)
		FROM usage_records
		WHERE requested_at >= $1
		GROUP BY day
		ORDER BY day
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily stats: %w", err)
	}
	defer rows.Close()

	var results []DailyStats
	for rows.Next() {
		var d DailyStats
		if err := rows.Scan(&d.Day, &d.Requests, &d.Tokens); err != nil {
			return nil, err
		}
		results = append(results, d)
	}
	return results, rows.Err()
}

// QueryModelStats returns per-model statistics since the given time.
func (b *PostgresBackend) QueryModelStats(ctx context.Context, since time.Time) ([]ModelStats, error) {
	rows, err := b.pool.Query(ctx, `
		SELECT
			model,
			COALESCE(NULLIF(provider, ''), 'unknown'),
			COUNT(*) AS requests,
			COUNT(*) FILTER (WHERE failed),
			COALESCE(SUM(measured_tokens), 0)
		FROM usage_records
		WHERE requested_at >= $1
		GROUP BY model, provider
		ORDER BY requests DESC, model
	`, since)
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
func (b *PostgresBackend) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	tag, err := b.pool.Exec(ctx, `DELETE FROM usage_records WHERE requested_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old records: %w", err)
	}
	return tag.RowsAffected(), nil
}

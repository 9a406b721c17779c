// Package usage keeps the dashboard counters and, when a DSN is configured,
// a persisted history of chat translations.
package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/nghyane/oc-bridge/internal/config"
)

// Backend defines the persistence contract for usage records.
// Implementations must be safe for concurrent use.
type Backend interface {
	// Enqueue adds a record to the write queue without blocking.
	Enqueue(record UsageRecord)

	// Flush forces pending records to be written to storage.
	Flush(ctx context.Context) error

	QueryGlobalStats(ctx context.Context, since time.Time) (*AggregatedStats, error)
	QueryDailyStats(ctx context.Context, since time.Time) ([]DailyStats, error)
	QueryModelStats(ctx context.Context, since time.Time) ([]ModelStats, error)

	// Cleanup removes records older than before.
	Cleanup(ctx context.Context, before time.Time) (int64, error)

	// Start begins background workers (write loop, cleanup loop).
	Start() error

	// Stop flushes pending writes and releases the store.
	Stop() error
}

// BackendConfig holds parameters for backend initialization.
type BackendConfig struct {
	DSN           string
	BatchSize     int
	FlushInterval time.Duration
	RetentionDays int
}

// BackendConfigFrom maps the YAML usage block onto BackendConfig.
func BackendConfigFrom(cfg config.UsageConfig) BackendConfig {
	return BackendConfig{
		DSN:           cfg.DSN,
		BatchSize:     cfg.BatchSize,
		FlushInterval: config.MustDuration(cfg.FlushInterval),
		RetentionDays: cfg.RetentionDays,
	}
}

// NewBackend creates the backend selected by the DSN scheme.
func NewBackend(cfg BackendConfig) (Backend, error) {
	parsed, err := config.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, err
	}
	if parsed == nil {
		return nil, fmt.Errorf("DSN is required (use sqlite:// or postgres://)")
	}

	switch parsed.Backend {
	case "postgres":
		return NewPostgresBackend(parsed.URL, cfg)
	case "sqlite":
		return NewSQLiteBackend(parsed.Path, cfg)
	default:
		return nil, fmt.Errorf("unknown backend type: %q", parsed.Backend)
	}
}

// Summarize runs the dashboard queries against b.
func Summarize(ctx context.Context, b Backend, since time.Time) (*Summary, error) {
	global, err := b.QueryGlobalStats(ctx, since)
	if err != nil {
		return nil, err
	}
	daily, err := b.QueryDailyStats(ctx, since)
	if err != nil {
		return nil, err
	}
	models, err := b.QueryModelStats(ctx, since)
	if err != nil {
		return nil, err
	}
	return &Summary{Since: since, Global: global, ByDay: daily, ByModel: models}, nil
}

package usage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestSQLite(t *testing.T) *SQLiteBackend {
	t.Helper()
	b, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "usage.db"), BackendConfig{
		BatchSize:     2,
		FlushInterval: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewSQLiteBackend: %v", err)
	}
	if err := b.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = b.Stop() })
	return b
}

func TestSQLiteBackendStats(t *testing.T) {
	b := newTestSQLite(t)
	ctx := context.Background()
	now := time.Now()

	records := []UsageRecord{
		{Provider: "opencode", Model: "opencode/grok-code", RequestedAt: now, InputTokens: 4, OutputTokens: 2, MeasuredTokens: 30},
		{Provider: "opencode", Model: "opencode/grok-code", RequestedAt: now, InputTokens: 1, OutputTokens: 1, MeasuredTokens: 10},
		{Provider: "anthropic", Model: "anthropic/claude", RequestedAt: now, Failed: true, InputTokens: 3},
	}
	for _, r := range records {
		b.Enqueue(r)
	}
	if err := b.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	since := now.Add(-time.Hour)
	global, err := b.QueryGlobalStats(ctx, since)
	if err != nil {
		t.Fatalf("QueryGlobalStats: %v", err)
	}
	if global.TotalRequests != 3 || global.SuccessCount != 2 || global.FailureCount != 1 {
		t.Errorf("global counts = %+v", global)
	}
	if global.InputTokens != 8 || global.OutputTokens != 3 || global.MeasuredTokens != 40 {
		t.Errorf("global tokens = %+v", global)
	}

	models, err := b.QueryModelStats(ctx, since)
	if err != nil {
		t.Fatalf("QueryModelStats: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("len(models) = %d, want 2", len(models))
	}
	if models[0].Model != "opencode/grok-code" || models[0].Requests != 2 || models[0].MeasuredTokens != 40 {
		t.Errorf("models[0] = %+v", models[0])
	}
	if models[1].FailureCount != 1 {
		t.Errorf("models[1] = %+v", models[1])
	}

	daily, err := b.QueryDailyStats(ctx, since)
	if err != nil {
		t.Fatalf("QueryDailyStats: %v", err)
	}
	var total int64
	for _, d := range daily {
		total += d.Requests
	}
	if total != 3 {
		t.Errorf("daily requests sum = %d, want 3", total)
	}
}

func TestSQLiteBackendCleanup(t *testing.T) {
	b := newTestSQLite(t)
	ctx := context.Background()
	now := time.Now()

	b.Enqueue(UsageRecord{Model: "old", RequestedAt: now.AddDate(0, 0, -40)})
	b.Enqueue(UsageRecord{Model: "new", RequestedAt: now})
	if err := b.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	deleted, err := b.Cleanup(ctx, now.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	global, err := b.QueryGlobalStats(ctx, time.Time{})
	if err != nil {
		t.Fatalf("QueryGlobalStats: %v", err)
	}
	if global.TotalRequests != 1 {
		t.Errorf("remaining = %d, want 1", global.TotalRequests)
	}
}

func TestRecorderSummary(t *testing.T) {
	b := newTestSQLite(t)
	r := &Recorder{counters: NewCounters(), backend: b}

	r.Success(UsageRecord{Model: "m", MeasuredTokens: 5})
	r.Failure(UsageRecord{Model: "m"})

	sum, err := r.Summary(context.Background(), time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.Global.TotalRequests != 2 || sum.Global.FailureCount != 1 {
		t.Errorf("global = %+v", sum.Global)
	}
	if snap := r.Counters().Snapshot(); snap.TotalRequests != 1 {
		t.Errorf("counters = %+v, want 1 request", snap)
	}
}

func TestRecorderSummaryDisabled(t *testing.T) {
	r := NewRecorder(nil)
	if _, err := r.Summary(context.Background(), time.Now()); !errors.Is(err, ErrHistoryDisabled) {
		t.Errorf("err = %v, want ErrHistoryDisabled", err)
	}
}

func TestNewBackendRejectsUnknownScheme(t *testing.T) {
	if _, err := NewBackend(BackendConfig{DSN: "mysql://localhost/db"}); err == nil {
		t.Error("expected error for mysql DSN")
	}
}

package usage

import (
	"context"
	"errors"
	"time"
)

// ErrHistoryDisabled is returned by Summary when no DSN is configured.
var ErrHistoryDisabled = errors.New("usage history is disabled")

// Recorder couples the live counters with the optional persisted history.
// A nil *Recorder accepts every call and records nothing.
type Recorder struct {
	counters *Counters
	backend  Backend
}

// NewRecorder creates a Recorder. backend may be nil.
func NewRecorder(backend Backend) *Recorder {
	return &Recorder{counters: NewCounters(), backend: backend}
}

// Counters returns the live counter set.
func (r *Recorder) Counters() *Counters {
	if r == nil {
		return nil
	}
	return r.counters
}

// Success bumps the counters and queues the record for persistence.
func (r *Recorder) Success(rec UsageRecord) {
	if r == nil {
		return
	}
	r.counters.Record(rec.MeasuredTokens)
	r.persist(rec)
}

// Failure queues a failed record. Counters are left untouched.
func (r *Recorder) Failure(rec UsageRecord) {
	if r == nil {
		return
	}
	rec.Failed = true
	r.persist(rec)
}

func (r *Recorder) persist(rec UsageRecord) {
	if r.backend == nil {
		return
	}
	if rec.RequestedAt.IsZero() {
		rec.RequestedAt = time.Now()
	}
	r.backend.Enqueue(rec)
}

// HistoryEnabled reports whether a persistence backend is attached.
func (r *Recorder) HistoryEnabled() bool {
	return r != nil && r.backend != nil
}

// Summary flushes pending writes and aggregates the history since since.
func (r *Recorder) Summary(ctx context.Context, since time.Time) (*Summary, error) {
	if !r.HistoryEnabled() {
		return nil, ErrHistoryDisabled
	}
	if err := r.backend.Flush(ctx); err != nil {
		return nil, err
	}
	return Summarize(ctx, r.backend, since)
}

// Close stops the persistence backend, flushing pending records.
func (r *Recorder) Close() error {
	if !r.HistoryEnabled() {
		return nil
	}
	return r.backend.Stop()
}

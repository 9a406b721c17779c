package usage

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/nghyane/oc-bridge/internal/logging"
)

const (
	defaultBatchSize         = 100
	defaultFlushInterval     = 5 * time.Second
	defaultRetentionDays     = 30
	defaultChannelBufferSize = 1000
)

// batcher owns the queue, write loop and retention loop shared by the SQL
// backends. The store only supplies writeBatch and cleanup.
type batcher struct {
	recordChan    chan UsageRecord
	flushReq      chan chan error
	stopChan      chan struct{}
	running       atomic.Bool
	stopOnce      sync.Once
	wg            sync.WaitGroup
	batchSize     int
	flushInterval time.Duration
	retentionDays int

	writeBatch func(ctx context.Context, records []UsageRecord) error
	cleanup    func(ctx context.Context, before time.Time) (int64, error)
}

func newBatcher(cfg BackendConfig) *batcher {
	b := &batcher{
		recordChan:    make(chan UsageRecord, defaultChannelBufferSize),
		flushReq:      make(chan chan error),
		stopChan:      make(chan struct{}),
		batchSize:     cfg.BatchSize,
		flushInterval: cfg.FlushInterval,
		retentionDays: cfg.RetentionDays,
	}
	if b.batchSize <= 0 {
		b.batchSize = defaultBatchSize
	}
	if b.flushInterval <= 0 {
		b.flushInterval = defaultFlushInterval
	}
	if b.retentionDays <= 0 {
		b.retentionDays = defaultRetentionDays
	}
	return b
}

func (b *batcher) start() {
	b.running.Store(true)
	b.wg.Add(2)
	go b.writeLoop()
	go b.cleanupLoop()
}

// stop signals the loops, waits for the final flush, then calls closeFn once.
func (b *batcher) stop(closeFn func() error) error {
	var err error
	b.stopOnce.Do(func() {
		close(b.stopChan)
		b.wg.Wait()
		if closeFn != nil {
			err = closeFn()
		}
	})
	return err
}

func (b *batcher) enqueue(record UsageRecord) {
	select {
	case b.recordChan <- record:
	default:
		log.Warnf("Usage persistence queue full, dropping record for %s", record.Model)
	}
}

// flush writes everything queued so far. While the write loop runs the
// request is served by the loop so its partial batch is included.
func (b *batcher) flush(ctx context.Context) error {
	if !b.running.Load() {
		return b.drain(ctx, nil)
	}
	reply := make(chan error, 1)
	select {
	case b.flushReq <- reply:
	case <-b.stopChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// drain appends every queued record to batch and writes the result.
func (b *batcher) drain(ctx context.Context, batch []UsageRecord) error {
	for {
		select {
		case record := <-b.recordChan:
			batch = append(batch, record)
			if len(batch) >= b.batchSize {
				if err := b.writeBatch(ctx, batch); err != nil {
					return err
				}
				batch = batch[:0]
			}
		default:
			if len(batch) > 0 {
				return b.writeBatch(ctx, batch)
			}
			return nil
		}
	}
}

func (b *batcher) writeLoop() {
	defer b.wg.Done()

	ticker := time.NewTicker(b.flushInterval)
	defer ticker.Stop()

	batch := make([]UsageRecord, 0, b.batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := b.writeBatch(ctx, batch); err != nil {
			log.Errorf("Failed to write usage batch: %v", err)
		}
		cancel()
		batch = batch[:0]
	}

	for {
		select {
		case record := <-b.recordChan:
			batch = append(batch, record)
			if len(batch) >= b.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case reply := <-b.flushReq:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			reply <- b.drain(ctx, batch)
			cancel()
			batch = batch[:0]
		case <-b.stopChan:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := b.drain(ctx, batch); err != nil {
				log.Errorf("Failed to write usage batch: %v", err)
			}
			cancel()
			return
		}
	}
}

func (b *batcher) cleanupLoop() {
	defer b.wg.Done()

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().AddDate(0, 0, -b.retentionDays)
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			deleted, err := b.cleanup(ctx, cutoff)
			cancel()
			if err != nil {
				log.Errorf("Failed to cleanup old usage records: %v", err)
			} else if deleted > 0 {
				log.Infof("Cleaned up %d usage records older than %d days", deleted, b.retentionDays)
			}
		case <-b.stopChan:
			return
		}
	}
}

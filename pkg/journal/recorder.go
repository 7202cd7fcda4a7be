package journal

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Writer persists a single entry. *Store implements it.
type Writer interface {
	Record(ctx context.Context, e Entry) error
}

// Counter observes recorder outcomes. *metrics.Collector implements it.
type Counter interface {
	RecordJournalWrite()
	RecordJournalDrop()
}

// RecorderConfig contains configuration for the async recorder.
type RecorderConfig struct {
	// BufferSize is the queue length. Entries beyond it are dropped.
	// Default: 1000
	BufferSize int

	// WriteTimeout bounds a single write.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// Recorder queues entries and writes them on a background goroutine so
// request handlers never wait on the database. When the queue is full
// new entries are dropped and counted.
type Recorder struct {
	writer  Writer
	config  RecorderConfig
	metrics Counter
	logger  *slog.Logger

	entries chan Entry
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once

	written atomic.Int64
	dropped atomic.Int64
}

// NewRecorder starts a recorder writing to w. metrics may be nil.
func NewRecorder(w Writer, cfg RecorderConfig, logger *slog.Logger, metrics Counter) *Recorder {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1000
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Recorder{
		writer:  w,
		config:  cfg,
		metrics: metrics,
		logger:  logger.With("component", "journal.recorder"),
		entries: make(chan Entry, cfg.BufferSize),
		done:    make(chan struct{}),
	}

	r.wg.Add(1)
	go r.worker()
	return r
}

// Record enqueues e without blocking. It returns false if the entry was
// dropped because the queue is full or the recorder is closed.
func (r *Recorder) Record(e Entry) bool {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	select {
	case <-r.done:
		r.drop()
		return false
	default:
	}

	select {
	case r.entries <- e:
		return true
	default:
		r.drop()
		return false
	}
}

func (r *Recorder) drop() {
	if r.dropped.Add(1) == 1 {
		r.logger.Warn("journal queue full, dropping entries", "buffer_size", r.config.BufferSize)
	}
	if r.metrics != nil {
		r.metrics.RecordJournalDrop()
	}
}

// Written returns the number of entries persisted.
func (r *Recorder) Written() int64 {
	return r.written.Load()
}

// Dropped returns the number of entries discarded.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Close stops accepting entries, writes everything already queued, and
// waits for the worker to exit. It is safe to call more than once.
func (r *Recorder) Close() error {
	r.once.Do(func() {
		close(r.done)
		r.wg.Wait()
		r.logger.Info("journal recorder stopped",
			"written", r.written.Load(),
			"dropped", r.dropped.Load(),
		)
	})
	return nil
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case e := <-r.entries:
			r.write(e)

		case <-r.done:
			// Drain remaining entries before exit
			for {
				select {
				case e := <-r.entries:
					r.write(e)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(e Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	if err := r.writer.Record(ctx, e); err != nil {
		r.logger.Error("failed to write journal entry",
			"entry_id", e.ID.String(),
			"request_id", e.RequestID,
			"error", err,
		)
		return
	}

	r.written.Add(1)
	if r.metrics != nil {
		r.metrics.RecordJournalWrite()
	}
}

package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	apperrors "github.com/yanqian/snow-agent/pkg/errors"
)

// LogDispatcher delivers interaction records to the log sink off the request
// path. Dispatch never blocks: when the buffer is full the record is dropped
// and counted. Append failures are reported through the logger only; they can
// never affect a response that has already been computed.
type LogDispatcher struct {
	sink    InteractionLog
	queue   chan InteractionRecord
	timeout time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	dropped int64
	once    sync.Once
	done    chan struct{}
}

// NewLogDispatcher starts the background worker. A nil sink disables logging
// entirely.
func NewLogDispatcher(sink InteractionLog, buffer int, timeout time.Duration, logger *slog.Logger) *LogDispatcher {
	if buffer <= 0 {
		buffer = 64
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	d := &LogDispatcher{
		sink:    sink,
		queue:   make(chan InteractionRecord, buffer),
		timeout: timeout,
		logger:  logger.With("component", "chat.logdispatcher"),
		done:    make(chan struct{}),
	}
	go d.consume()
	return d
}

// Dispatch enqueues a record without blocking the caller.
func (d *LogDispatcher) Dispatch(rec InteractionRecord) {
	if d == nil || d.sink == nil {
		return
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	select {
	case d.queue <- rec:
	default:
		d.mu.Lock()
		d.dropped++
		dropped := d.dropped
		d.mu.Unlock()
		d.logger.Warn("chat log queue full, record dropped", "dropped_total", dropped)
	}
}

// Dropped returns how many records were discarded due to a full queue.
func (d *LogDispatcher) Dropped() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}

// Close stops the worker after draining buffered records.
func (d *LogDispatcher) Close() {
	d.once.Do(func() {
		close(d.queue)
		<-d.done
	})
}

func (d *LogDispatcher) consume() {
	defer close(d.done)
	for rec := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := d.sink.Append(ctx, rec); err != nil {
			failure := apperrors.WrapStage(apperrors.CodeLoggingFailure, string(StageLogging), "chat log append failed", err)
			d.logger.Warn("interaction record not persisted",
				"session_id", rec.SessionID, "code", apperrors.CodeOf(failure), "stage", apperrors.StageOf(failure), "error", failure)
		}
		cancel()
	}
}

package chatlog

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/snow-agent/internal/domain/chat"
)

// MemoryLog buffers interaction records in memory for tests and local runs.
type MemoryLog struct {
	mu      sync.Mutex
	records []chat.InteractionRecord
}

// NewMemoryLog constructs an empty log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

// Append stores the record.
func (l *MemoryLog) Append(_ context.Context, rec chat.InteractionRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
	return nil
}

// Records returns a copy of everything appended so far.
func (l *MemoryLog) Records() []chat.InteractionRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]chat.InteractionRecord, len(l.records))
	copy(out, l.records)
	return out
}

var _ chat.InteractionLog = (*MemoryLog)(nil)

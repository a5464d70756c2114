package trending

import (
	"context"
	"sort"
	"sync"

	"github.com/yanqian/snow-agent/internal/domain/chat"
)

// MemoryStore is the in-process fallback when no Valkey is configured.
type MemoryStore struct {
	mu       sync.Mutex
	counts   map[string]int64
	displays map[string]string
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counts:   make(map[string]int64),
		displays: make(map[string]string),
	}
}

// Increment bumps the counter for a canonical question.
func (s *MemoryStore) Increment(_ context.Context, canonical, display string) error {
	if canonical == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[canonical]++
	if _, seen := s.displays[canonical]; !seen && display != "" {
		s.displays[canonical] = display
	}
	return nil
}

// Top returns the most asked questions, highest count first. Equal counts are
// ordered by canonical form so the result is deterministic.
func (s *MemoryStore) Top(_ context.Context, limit int) ([]chat.TrendingQuestion, error) {
	if limit <= 0 {
		limit = 10
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	canonicals := make([]string, 0, len(s.counts))
	for canonical := range s.counts {
		canonicals = append(canonicals, canonical)
	}
	sort.Slice(canonicals, func(i, j int) bool {
		if s.counts[canonicals[i]] != s.counts[canonicals[j]] {
			return s.counts[canonicals[i]] > s.counts[canonicals[j]]
		}
		return canonicals[i] < canonicals[j]
	})
	if len(canonicals) > limit {
		canonicals = canonicals[:limit]
	}

	out := make([]chat.TrendingQuestion, 0, len(canonicals))
	for _, canonical := range canonicals {
		display := s.displays[canonical]
		if display == "" {
			display = canonical
		}
		out = append(out, chat.TrendingQuestion{Question: display, Count: s.counts[canonical]})
	}
	return out, nil
}

var _ chat.TrendingStore = (*MemoryStore)(nil)

package knowledge

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/yanqian/snow-agent/internal/domain/chat"
	apperrors "github.com/yanqian/snow-agent/pkg/errors"
)

// MemoryStore keeps FAQ records in memory. It backs tests and local
// development where no Postgres or warehouse is available.
type MemoryStore struct {
	mu      sync.RWMutex
	records []chat.FAQRecord
	dim     int
}

// NewMemoryStore constructs an empty store expecting dim-width embeddings.
func NewMemoryStore(dim int) *MemoryStore {
	return &MemoryStore{dim: dim}
}

// InsertBatch appends records in order; insertion order is the tie-break
// order for equal similarities.
func (s *MemoryStore) InsertBatch(_ context.Context, records []chat.FAQRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		if len(rec.Embedding) != s.dim {
			return apperrors.Wrap(apperrors.CodeDimensionMismatch,
				fmt.Sprintf("record embedding has %d dimensions, store expects %d", len(rec.Embedding), s.dim), nil)
		}
		rec.ID = int64(len(s.records) + 1)
		s.records = append(s.records, rec)
	}
	return nil
}

// Retrieve scores every record by cosine similarity and returns the top k.
func (s *MemoryStore) Retrieve(_ context.Context, embedding []float32, k int) ([]chat.RetrievedMatch, error) {
	if len(embedding) != s.dim {
		return nil, apperrors.Wrap(apperrors.CodeDimensionMismatch,
			fmt.Sprintf("query embedding has %d dimensions, store expects %d", len(embedding), s.dim), nil)
	}
	if k <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	scored := make([]chat.RetrievedMatch, 0, len(s.records))
	for _, rec := range s.records {
		scored = append(scored, chat.RetrievedMatch{
			Question:   rec.Question,
			Answer:     rec.Answer,
			Similarity: cosineSimilarity(embedding, rec.Embedding),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// Len reports how many records are stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

var _ chat.Retriever = (*MemoryStore)(nil)

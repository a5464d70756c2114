package knowledge

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/yanqian/snow-agent/internal/domain/chat"
	apperrors "github.com/yanqian/snow-agent/pkg/errors"
)

// PostgresStore serves similarity lookups from a pgvector table.
type PostgresStore struct {
	pool *pgxpool.Pool
	dim  int
}

// NewPostgresStore constructs the store. dim is the embedding column width.
func NewPostgresStore(pool *pgxpool.Pool, dim int) *PostgresStore {
	return &PostgresStore{pool: pool, dim: dim}
}

// Retrieve returns up to k matches ordered by cosine similarity descending.
// Ties are broken by insertion order (primary key) so results are stable.
func (s *PostgresStore) Retrieve(ctx context.Context, embedding []float32, k int) ([]chat.RetrievedMatch, error) {
	if len(embedding) != s.dim {
		return nil, apperrors.Wrap(apperrors.CodeDimensionMismatch,
			fmt.Sprintf("query embedding has %d dimensions, store expects %d", len(embedding), s.dim), nil)
	}
	if k <= 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT question, answer, 1 - (embedding <=> $1) AS similarity
		FROM faq_entries
		ORDER BY embedding <=> $1 ASC, id ASC
		LIMIT $2
	`, pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeRetrievalUnavailable, "pgvector query failed", err)
	}
	defer rows.Close()

	matches := make([]chat.RetrievedMatch, 0, k)
	for rows.Next() {
		var match chat.RetrievedMatch
		if err := rows.Scan(&match.Question, &match.Answer, &match.Similarity); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeRetrievalUnavailable, "pgvector row scan failed", err)
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeRetrievalUnavailable, "pgvector result iteration failed", err)
	}
	return matches, nil
}

// InsertBatch writes ingested FAQ records. Serving never calls this; it
// exists for the offline ingestion job.
func (s *PostgresStore) InsertBatch(ctx context.Context, records []chat.FAQRecord) error {
	for _, rec := range records {
		if len(rec.Embedding) != s.dim {
			return apperrors.Wrap(apperrors.CodeDimensionMismatch,
				fmt.Sprintf("record embedding has %d dimensions, store expects %d", len(rec.Embedding), s.dim), nil)
		}
		_, err := s.pool.Exec(ctx, `
			INSERT INTO faq_entries (question, answer, embedding)
			VALUES ($1, $2, $3)
		`, rec.Question, rec.Answer, pgvector.NewVector(rec.Embedding))
		if err != nil {
			return fmt.Errorf("insert faq entry: %w", err)
		}
	}
	return nil
}

var _ chat.Retriever = (*PostgresStore)(nil)

package knowledge

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	// Registers the "bigquery" database/sql driver.
	_ "github.com/viant/bigquery"

	"github.com/yanqian/snow-agent/internal/domain/chat"
	apperrors "github.com/yanqian/snow-agent/pkg/errors"
)

var tableIDPattern = regexp.MustCompile(`^[A-Za-z0-9_\-]+(\.[A-Za-z0-9_\-]+){1,2}$`)

// BigQueryStore serves similarity lookups from a warehouse table via
// VECTOR_SEARCH. The table holds question, answer and an ARRAY<FLOAT64>
// embedding column.
type BigQueryStore struct {
	db      *sql.DB
	tableID string
	dim     int
}

// OpenBigQueryStore opens the warehouse connection and validates the table
// identifier (project.dataset.table) so it can be spliced into queries.
func OpenBigQueryStore(dsn, tableID string, dim int) (*BigQueryStore, error) {
	if !tableIDPattern.MatchString(tableID) {
		return nil, fmt.Errorf("invalid knowledge table identifier %q", tableID)
	}
	db, err := sql.Open("bigquery", dsn)
	if err != nil {
		return nil, fmt.Errorf("open bigquery: %w", err)
	}
	return &BigQueryStore{db: db, tableID: tableID, dim: dim}, nil
}

// NewBigQueryStore wraps an existing handle, mainly for tests.
func NewBigQueryStore(db *sql.DB, tableID string, dim int) *BigQueryStore {
	return &BigQueryStore{db: db, tableID: tableID, dim: dim}
}

// Retrieve issues one read-only VECTOR_SEARCH query. Cosine distance is
// converted to similarity. The table schema is exactly question, answer and
// embedding, so equal-distance ordering is left to the engine.
func (s *BigQueryStore) Retrieve(ctx context.Context, embedding []float32, k int) ([]chat.RetrievedMatch, error) {
	if len(embedding) != s.dim {
		return nil, apperrors.Wrap(apperrors.CodeDimensionMismatch,
			fmt.Sprintf("query embedding has %d dimensions, store expects %d", len(embedding), s.dim), nil)
	}
	if k <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, vectorSearchQuery(s.tableID, embedding, k))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeRetrievalUnavailable, "vector search query failed", err)
	}
	defer rows.Close()

	matches := make([]chat.RetrievedMatch, 0, k)
	for rows.Next() {
		var (
			match    chat.RetrievedMatch
			distance float64
		)
		if err := rows.Scan(&match.Question, &match.Answer, &distance); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeRetrievalUnavailable, "vector search row scan failed", err)
		}
		match.Similarity = 1 - distance
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeRetrievalUnavailable, "vector search iteration failed", err)
	}
	return matches, nil
}

// InsertBatch appends ingested FAQ records to the warehouse table.
func (s *BigQueryStore) InsertBatch(ctx context.Context, records []chat.FAQRecord) error {
	for _, rec := range records {
		if len(rec.Embedding) != s.dim {
			return apperrors.Wrap(apperrors.CodeDimensionMismatch,
				fmt.Sprintf("record embedding has %d dimensions, store expects %d", len(rec.Embedding), s.dim), nil)
		}
		query := fmt.Sprintf("INSERT INTO %s (question, answer, embedding) VALUES (?, ?, %s)",
			"`"+s.tableID+"`", vectorLiteral(rec.Embedding))
		if _, err := s.db.ExecContext(ctx, query, rec.Question, rec.Answer); err != nil {
			return fmt.Errorf("insert faq entry: %w", err)
		}
	}
	return nil
}

// Close releases the warehouse connection.
func (s *BigQueryStore) Close() error {
	return s.db.Close()
}

// vectorSearchQuery builds the retrieval statement. Only the mandated
// columns (question, answer, embedding) may be referenced.
func vectorSearchQuery(tableID string, embedding []float32, k int) string {
	return fmt.Sprintf(`
		SELECT base.question, base.answer, distance
		FROM VECTOR_SEARCH(
			TABLE %s,
			'embedding',
			(SELECT %s AS embedding),
			top_k => %d,
			distance_type => 'COSINE'
		)
		ORDER BY distance ASC
	`, "`"+tableID+"`", vectorLiteral(embedding), k)
}

// vectorLiteral renders an embedding as a SQL array literal. Values come from
// the embedder, never from user text.
func vectorLiteral(embedding []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range embedding {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

var _ chat.Retriever = (*BigQueryStore)(nil)

package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/yanqian/snow-agent/internal/domain/chat"
)

// Source yields the raw delimited text to ingest.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// KnowledgeWriter persists embedded FAQ records.
type KnowledgeWriter interface {
	InsertBatch(ctx context.Context, records []chat.FAQRecord) error
}

// Loader runs the offline ingestion job: read question/answer rows, embed
// each question, write FAQ records in batches.
type Loader struct {
	source    Source
	embedder  chat.Embedder
	writer    KnowledgeWriter
	batchSize int
	logger    *slog.Logger
}

// NewLoader constructs the job.
func NewLoader(source Source, embedder chat.Embedder, writer KnowledgeWriter, batchSize int, logger *slog.Logger) *Loader {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Loader{
		source:    source,
		embedder:  embedder,
		writer:    writer,
		batchSize: batchSize,
		logger:    logger.With("component", "ingest.loader"),
	}
}

// Run ingests the whole source and returns how many records were written.
// Rows must have two columns, question then answer; a leading header row
// named "question" is skipped.
func (l *Loader) Run(ctx context.Context) (int, error) {
	reader, err := l.source.Open(ctx)
	if err != nil {
		return 0, fmt.Errorf("open source: %w", err)
	}
	defer reader.Close()

	records := csv.NewReader(reader)
	records.FieldsPerRecord = 2

	var (
		batch   []chat.FAQRecord
		written int
		rowNum  int
	)
	for {
		row, err := records.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return written, fmt.Errorf("read row %d: %w", rowNum+1, err)
		}
		rowNum++
		question := strings.TrimSpace(row[0])
		answer := strings.TrimSpace(row[1])
		if rowNum == 1 && strings.EqualFold(question, "question") {
			continue
		}
		if question == "" || answer == "" {
			l.logger.Warn("skipping incomplete row", "row", rowNum)
			continue
		}

		embedding, err := l.embedder.EmbedQuery(ctx, question)
		if err != nil {
			return written, fmt.Errorf("embed row %d: %w", rowNum, err)
		}
		batch = append(batch, chat.FAQRecord{
			Question:  question,
			Answer:    answer,
			Embedding: embedding,
		})
		if len(batch) >= l.batchSize {
			if err := l.writer.InsertBatch(ctx, batch); err != nil {
				return written, fmt.Errorf("write batch: %w", err)
			}
			written += len(batch)
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := l.writer.InsertBatch(ctx, batch); err != nil {
			return written, fmt.Errorf("write batch: %w", err)
		}
		written += len(batch)
	}
	l.logger.Info("ingestion complete", "rows", rowNum, "written", written)
	return written, nil
}

package chatlog

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	// Registers the "bigquery" database/sql driver.
	_ "github.com/viant/bigquery"

	"github.com/yanqian/snow-agent/internal/domain/chat"
)

var logTableIDPattern = regexp.MustCompile(`^[A-Za-z0-9_\-]+(\.[A-Za-z0-9_\-]+){1,2}$`)

// BigQueryLog appends interaction records to a warehouse table.
type BigQueryLog struct {
	db      *sql.DB
	tableID string
}

// OpenBigQueryLog opens the warehouse connection for the log sink.
func OpenBigQueryLog(dsn, tableID string) (*BigQueryLog, error) {
	if !logTableIDPattern.MatchString(tableID) {
		return nil, fmt.Errorf("invalid log table identifier %q", tableID)
	}
	db, err := sql.Open("bigquery", dsn)
	if err != nil {
		return nil, fmt.Errorf("open bigquery: %w", err)
	}
	return &BigQueryLog{db: db, tableID: tableID}, nil
}

// NewBigQueryLog wraps an existing handle, mainly for tests.
func NewBigQueryLog(db *sql.DB, tableID string) *BigQueryLog {
	return &BigQueryLog{db: db, tableID: tableID}
}

// Append inserts one record into the append-only log table.
func (l *BigQueryLog) Append(ctx context.Context, rec chat.InteractionRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	query := fmt.Sprintf(
		"INSERT INTO %s (session_id, question, retrieved_context, answer, blocked, ts) VALUES (?, ?, ?, ?, ?, ?)",
		"`"+l.tableID+"`")
	_, err := l.db.ExecContext(ctx, query,
		rec.SessionID, rec.Question, rec.RetrievedContext, rec.Answer, rec.Blocked, rec.CreatedAt.Format(time.RFC3339))
	return err
}

// Close releases the warehouse connection.
func (l *BigQueryLog) Close() error {
	return l.db.Close()
}

var _ chat.InteractionLog = (*BigQueryLog)(nil)

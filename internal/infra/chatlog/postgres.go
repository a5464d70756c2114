package chatlog

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/snow-agent/internal/domain/chat"
)

// PostgresLog appends interaction records to the chat_logs table.
type PostgresLog struct {
	pool *pgxpool.Pool
}

// NewPostgresLog constructs the sink.
func NewPostgresLog(pool *pgxpool.Pool) *PostgresLog {
	return &PostgresLog{pool: pool}
}

// Append inserts one record. The table is append-only; nothing updates or
// deletes rows from the serving path.
func (l *PostgresLog) Append(ctx context.Context, rec chat.InteractionRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := l.pool.Exec(ctx, `
		INSERT INTO chat_logs (session_id, question, retrieved_context, answer, blocked, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rec.SessionID, rec.Question, rec.RetrievedContext, rec.Answer, rec.Blocked, rec.CreatedAt)
	return err
}

var _ chat.InteractionLog = (*PostgresLog)(nil)

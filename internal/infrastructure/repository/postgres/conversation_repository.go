package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/antonvels/edu-rag-chat/internal/core/domain"
)

// ConversationRepository is the durable record of chat threads and their
// messages. Thread memory itself stays in-process; this table only preserves
// what was said, so a restarted service can seed memory from history.
type ConversationRepository struct {
	db *sql.DB
}

func NewConversationRepository(db *sql.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) EnsureThread(ctx context.Context, threadID string) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
INSERT INTO threads (id, created_at, updated_at)
VALUES ($1, $2, $2)
ON CONFLICT (id) DO UPDATE SET updated_at = $2
`, threadID, now)
	if err != nil {
		return fmt.Errorf("ensure thread: %w", err)
	}
	return nil
}

func (r *ConversationRepository) AppendMessage(ctx context.Context, threadID, role, content string) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO thread_messages (thread_id, role, content, created_at)
VALUES ($1, $2, $3, $4)
`, threadID, role, content, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("append thread message: %w", err)
	}
	return nil
}

func (r *ConversationRepository) ListRecentMessages(ctx context.Context, threadID string, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT role, content, created_at
FROM (
	SELECT id, role, content, created_at
	FROM thread_messages
	WHERE thread_id = $1
	ORDER BY created_at DESC, id DESC
	LIMIT $2
) recent
ORDER BY created_at ASC, id ASC
`, threadID, limit)
	if err != nil {
		return nil, fmt.Errorf("list thread messages: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ChatMessage, 0, limit)
	for rows.Next() {
		var msg domain.ChatMessage
		if err := rows.Scan(&msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan thread message: %w", err)
		}
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate thread messages: %w", err)
	}
	return out, nil
}

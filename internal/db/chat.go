package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/career-compass/internal/types"
)

// SaveChatMessage appends an exchange to the user's transcript.
func (db *DB) SaveChatMessage(ctx context.Context, msg *types.ChatMessage) error {
	msg.ID = uuid.New()
	if msg.Timestamp.IsZero() {
		msg.Timestamp = db.now()
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO chat_messages (id, user_id, message, response, sent_at) VALUES ($1, $2, $3, $4, $5)`,
		msg.ID, msg.UserID, msg.Message, msg.Response, msg.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to save chat message: %w", err)
	}
	return nil
}

// ListChatMessages returns the most recent limit exchanges, oldest first.
func (db *DB) ListChatMessages(ctx context.Context, userID uuid.UUID, limit int) ([]types.ChatMessage, error) {
	if limit <= 0 {
		limit = DefaultChatHistoryLimit
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, message, response, sent_at FROM (
		     SELECT * FROM chat_messages WHERE user_id = $1 ORDER BY sent_at DESC, id DESC LIMIT $2
		 ) recent ORDER BY sent_at, id`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	defer rows.Close()

	msgs := []types.ChatMessage{}
	for rows.Next() {
		var m types.ChatMessage
		if err := rows.Scan(&m.ID, &m.UserID, &m.Message, &m.Response, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

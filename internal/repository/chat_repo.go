package repository

import (
	"context"
	"fmt"

	"piggybank/internal/database"
	"piggybank/internal/models"
)

// ChatRepository handles database operations for chat history
type ChatRepository struct {
	db database.DBTX
}

// NewChatRepository creates a new chat repository
func NewChatRepository(db database.DBTX) *ChatRepository {
	return &ChatRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *ChatRepository) WithTx(tx database.DBTX) *ChatRepository {
	return &ChatRepository{db: tx}
}

// CreateMessage appends a message and sets its ID
func (r *ChatRepository) CreateMessage(ctx context.Context, msg *models.ChatMessage) error {
	query := `
		INSERT INTO chat_messages (user_id, session_id, role, content, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		msg.UserID, msg.SessionID, string(msg.Role), msg.Content, msg.Metadata, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create chat message: %w", err)
	}
	msg.ID = id
	return nil
}

// ListSessionHistory returns the last limit messages of a user's chat session, oldest first
func (r *ChatRepository) ListSessionHistory(ctx context.Context, userID, sessionID string, limit int) ([]models.ChatMessage, error) {
	query := `
		SELECT id, user_id, session_id, role, content, metadata, created_at
		FROM chat_messages
		WHERE user_id = ? AND session_id = ?
		ORDER BY id DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, userID, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat messages: %w", err)
	}
	defer rows.Close()

	messages := []models.ChatMessage{}
	for rows.Next() {
		var msg models.ChatMessage
		if err := rows.Scan(&msg.ID, &msg.UserID, &msg.SessionID, &msg.Role, &msg.Content, &msg.Metadata, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

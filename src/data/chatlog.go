package data

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// LogChatMessage appends one turn to the chat audit log.
func LogChatMessage(ctx context.Context, db *gorm.DB, msg *ChatMessage) error {
	if err := db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("data: log chat message: %w", err)
	}
	return nil
}

// ChatHistory returns the most recent limit turns of a session, oldest first.
// limit <= 0 returns everything.
func ChatHistory(ctx context.Context, db *gorm.DB, sessionID string, limit int) ([]ChatMessage, error) {
	q := db.WithContext(ctx).Where("session_id = ?", sessionID).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var msgs []ChatMessage
	if err := q.Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("data: chat history: %w", err)
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

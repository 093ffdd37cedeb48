package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dvloznov/diane/internal/domain"
)

// AppendChatMessage appends one message to the conversation log.
func (s *Store) AppendChatMessage(ctx context.Context, role domain.ChatRole, content string) error {
	if _, err := s.db.ExecContext(ctx, "INSERT INTO chat_messages (role, content) VALUES (?, ?)", string(role), content); err != nil {
		return fmt.Errorf("AppendChatMessage: inserting: %w", err)
	}
	return nil
}

// AppendChatTurn appends the user message followed by the assistant reply.
// Both rows are written or neither is.
func (s *Store) AppendChatTurn(ctx context.Context, userMessage, reply string) error {
	return s.Transaction(ctx, func(tx *sql.Tx) error {
		for _, m := range []struct {
			role    domain.ChatRole
			content string
		}{
			{domain.RoleUser, userMessage},
			{domain.RoleAssistant, reply},
		} {
			if _, err := tx.ExecContext(ctx, "INSERT INTO chat_messages (role, content) VALUES (?, ?)", string(m.role), m.content); err != nil {
				return fmt.Errorf("AppendChatTurn: inserting %s message: %w", m.role, err)
			}
		}
		return nil
	})
}

// RecentChat returns the last limit messages, oldest first.
func (s *Store) RecentChat(ctx context.Context, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		return []domain.ChatMessage{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, role, content, created_at FROM chat_messages ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("RecentChat: querying: %w", err)
	}
	defer rows.Close()

	var msgs []domain.ChatMessage
	for rows.Next() {
		var m domain.ChatMessage
		var role string
		if err := rows.Scan(&m.ID, &role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("RecentChat: scanning row: %w", err)
		}
		m.Role = domain.ChatRole(role)
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("RecentChat: iterating rows: %w", err)
	}

	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

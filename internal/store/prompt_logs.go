package store

import (
	"context"
	"fmt"

	"github.com/dvloznov/diane/internal/domain"
)

// PromptLogFilter pages through the audit trail. An empty Kind matches all.
type PromptLogFilter struct {
	Limit  int
	Offset int
	Kind   domain.PromptKind
}

// InsertPromptLog records one generation call and returns the stored row.
func (s *Store) InsertPromptLog(ctx context.Context, log domain.PromptLog) (*domain.PromptLog, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO prompt_logs (kind, prompt_text, response_text, model) VALUES (?, ?, ?, ?)",
		string(log.Kind), log.PromptText, log.ResponseText, log.Model,
	)
	if err != nil {
		return nil, fmt.Errorf("InsertPromptLog: inserting: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("InsertPromptLog: reading id: %w", err)
	}

	stored := log
	stored.ID = id
	if err := s.db.QueryRowContext(ctx, "SELECT created_at FROM prompt_logs WHERE id = ?", id).Scan(&stored.CreatedAt); err != nil {
		return nil, fmt.Errorf("InsertPromptLog: reading created_at: %w", err)
	}
	return &stored, nil
}

// ListPromptLogs returns audit records newest first.
func (s *Store) ListPromptLogs(ctx context.Context, f PromptLogFilter) ([]domain.PromptLog, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	query := "SELECT id, kind, prompt_text, response_text, model, created_at FROM prompt_logs"
	var args []any
	if f.Kind != "" {
		query += " WHERE kind = ?"
		args = append(args, string(f.Kind))
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListPromptLogs: querying: %w", err)
	}
	defer rows.Close()

	logs := []domain.PromptLog{}
	for rows.Next() {
		var l domain.PromptLog
		var kind string
		if err := rows.Scan(&l.ID, &kind, &l.PromptText, &l.ResponseText, &l.Model, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListPromptLogs: scanning row: %w", err)
		}
		l.Kind = domain.PromptKind(kind)
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListPromptLogs: iterating rows: %w", err)
	}
	return logs, nil
}

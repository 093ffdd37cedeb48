package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dvloznov/diane/internal/domain"
)

func (s *Store) seedCategories(ctx context.Context) error {
	for _, name := range domain.SeedCategories {
		if _, err := s.db.ExecContext(ctx, "INSERT OR IGNORE INTO categories (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("seedCategories: inserting %q: %w", name, err)
		}
	}
	return nil
}

// ListCategories returns all categories ordered by name.
func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, created_at FROM categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("ListCategories: querying: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListCategories: scanning row: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListCategories: iterating rows: %w", err)
	}
	return categories, nil
}

// CreateCategory inserts a new category. Duplicate names are rejected.
func (s *Store) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: nome da categoria é obrigatório", domain.ErrInvalid)
	}

	res, err := s.db.ExecContext(ctx, "INSERT INTO categories (name) VALUES (?)", name)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: categoria já existe", domain.ErrInvalid)
		}
		return nil, fmt.Errorf("CreateCategory: inserting: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("CreateCategory: reading id: %w", err)
	}
	return s.getCategory(ctx, id)
}

// GetOrCreateCategory returns the id of the category with exactly this
// name, creating it if absent.
func (s *Store) GetOrCreateCategory(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = domain.DefaultCategoryName
	}
	id, err := upsertByName(ctx, s.db, "categories", name)
	if err != nil {
		return 0, fmt.Errorf("GetOrCreateCategory: %w", err)
	}
	return id, nil
}

func (s *Store) getCategory(ctx context.Context, id int64) (*domain.Category, error) {
	var c domain.Category
	err := s.db.QueryRowContext(ctx, "SELECT id, name, created_at FROM categories WHERE id = ?", id).
		Scan(&c.ID, &c.Name, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: categoria %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getCategory: scanning: %w", err)
	}
	return &c, nil
}

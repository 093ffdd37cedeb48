package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// querier is satisfied by both *sql.DB and *sql.Tx so helpers can run
// inside or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

// isForeignKeyViolation reports whether err is a FOREIGN KEY constraint failure.
func isForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}

// upsertByName inserts name into table if absent and returns the row id.
// table is always a package constant.
func upsertByName(ctx context.Context, q querier, table, name string) (int64, error) {
	insert := fmt.Sprintf("INSERT INTO %s (name) VALUES (?) ON CONFLICT(name) DO NOTHING", table)
	if _, err := q.ExecContext(ctx, insert, name); err != nil {
		return 0, fmt.Errorf("upsertByName: inserting into %s: %w", table, err)
	}

	var id int64
	sel := fmt.Sprintf("SELECT id FROM %s WHERE name = ?", table)
	if err := q.QueryRowContext(ctx, sel, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("upsertByName: selecting from %s: %w", table, err)
	}
	return id, nil
}

// normalizeName is the comparison key for case-insensitive name matching.
func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

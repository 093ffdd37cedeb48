package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/diane/internal/domain"
)

// Transaction listing limits.
const (
	DefaultTransactionLimit = 100
	MaxTransactionLimit     = 500
)

// TransactionFilter narrows ListTransactions. Zero Year/Month mean "any".
type TransactionFilter struct {
	Limit int
	Year  int
	Month int
}

const transactionSelect = `
	SELECT t.id, t.amount, t.description, t.category_id, c.name,
	       t.account_id, a.name, t.tx_date, t.created_at
	FROM transactions t
	JOIN categories c ON c.id = t.category_id
	LEFT JOIN accounts a ON a.id = t.account_id
`

// CreateTransaction inserts a transaction and returns it with category and
// account names resolved.
func (s *Store) CreateTransaction(ctx context.Context, nt domain.NewTransaction) (*domain.Transaction, error) {
	if nt.Amount <= 0 {
		return nil, fmt.Errorf("%w: valor deve ser positivo", domain.ErrInvalid)
	}
	if !nt.TxDate.IsValid() {
		return nil, fmt.Errorf("%w: data inválida", domain.ErrInvalid)
	}
	desc := strings.TrimSpace(nt.Description)
	if desc == "" {
		desc = domain.DefaultDescription
	}

	var accountID sql.NullInt64
	if nt.AccountID != nil {
		accountID = sql.NullInt64{Int64: *nt.AccountID, Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO transactions (amount, description, category_id, account_id, tx_date) VALUES (?, ?, ?, ?, ?)",
		nt.Amount, desc, nt.CategoryID, accountID, nt.TxDate.String(),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: categoria ou conta inexistente", domain.ErrInvalid)
		}
		return nil, fmt.Errorf("CreateTransaction: inserting: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("CreateTransaction: reading id: %w", err)
	}
	return s.GetTransaction(ctx, id)
}

// GetTransaction returns one transaction by id.
func (s *Store) GetTransaction(ctx context.Context, id int64) (*domain.Transaction, error) {
	row := s.db.QueryRowContext(ctx, transactionSelect+" WHERE t.id = ?", id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: transação %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("GetTransaction: %w", err)
	}
	return tx, nil
}

// ListTransactions returns the newest transactions first, optionally
// restricted to one year or one month of a year.
func (s *Store) ListTransactions(ctx context.Context, f TransactionFilter) ([]domain.Transaction, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultTransactionLimit
	}
	if limit > MaxTransactionLimit {
		limit = MaxTransactionLimit
	}

	query := transactionSelect
	var args []any
	switch {
	case f.Year > 0 && f.Month >= 1 && f.Month <= 12:
		start, end := monthBounds(f.Year, f.Month)
		query += " WHERE t.tx_date >= ? AND t.tx_date < ?"
		args = append(args, start.String(), end.String())
	case f.Year > 0:
		query += " WHERE t.tx_date >= ? AND t.tx_date < ?"
		args = append(args,
			civil.Date{Year: f.Year, Month: 1, Day: 1}.String(),
			civil.Date{Year: f.Year + 1, Month: 1, Day: 1}.String())
	}
	query += " ORDER BY t.tx_date DESC, t.id DESC LIMIT ?"
	args = append(args, limit)

	return s.queryTransactions(ctx, "ListTransactions", query, args...)
}

// ListTransactionsByDateRange returns transactions with start <= tx_date <= end,
// oldest first.
func (s *Store) ListTransactionsByDateRange(ctx context.Context, start, end civil.Date) ([]domain.Transaction, error) {
	query := transactionSelect + " WHERE t.tx_date >= ? AND t.tx_date <= ? ORDER BY t.tx_date, t.id"
	return s.queryTransactions(ctx, "ListTransactionsByDateRange", query, start.String(), end.String())
}

func (s *Store) queryTransactions(ctx context.Context, op, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: querying: %w", op, err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		txs = append(txs, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterating rows: %w", op, err)
	}
	return txs, nil
}

func scanTransaction(r rowScanner) (*domain.Transaction, error) {
	var (
		tx          domain.Transaction
		accountID   sql.NullInt64
		accountName sql.NullString
		txDate      string
	)
	if err := r.Scan(&tx.ID, &tx.Amount, &tx.Description, &tx.CategoryID, &tx.CategoryName,
		&accountID, &accountName, &txDate, &tx.CreatedAt); err != nil {
		return nil, err
	}
	if accountID.Valid {
		id := accountID.Int64
		tx.AccountID = &id
	}
	if accountName.Valid {
		name := accountName.String
		tx.AccountName = &name
	}
	d, err := civil.ParseDate(txDate)
	if err != nil {
		return nil, fmt.Errorf("parsing tx_date %q: %w", txDate, err)
	}
	tx.TxDate = d
	return &tx, nil
}

// monthBounds returns the first day of the month and the first day of the next.
func monthBounds(year, month int) (civil.Date, civil.Date) {
	start := civil.Date{Year: year, Month: time.Month(month), Day: 1}
	return start, start.AddMonths(1)
}

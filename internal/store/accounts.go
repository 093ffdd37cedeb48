package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dvloznov/diane/internal/domain"
)

// AccountUpdate carries the optional fields of an account update.
type AccountUpdate struct {
	Name    *string
	Balance *float64
}

const accountStatsQuery = `
	SELECT a.id, a.name, a.balance, a.created_at,
	       COALESCE(SUM(t.amount), 0) AS spending
	FROM accounts a
	LEFT JOIN transactions t ON t.account_id = a.id
`

// CreateAccount inserts a new account with an initial balance.
func (s *Store) CreateAccount(ctx context.Context, name string, balance float64) (*domain.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: nome da conta é obrigatório", domain.ErrInvalid)
	}

	res, err := s.db.ExecContext(ctx, "INSERT INTO accounts (name, balance) VALUES (?, ?)", name, balance)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: conta já existe", domain.ErrInvalid)
		}
		return nil, fmt.Errorf("CreateAccount: inserting: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("CreateAccount: reading id: %w", err)
	}
	return s.GetAccount(ctx, id)
}

// ListAccounts returns every account with derived spending and effective balance.
func (s *Store) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := s.db.QueryContext(ctx, accountStatsQuery+" GROUP BY a.id ORDER BY a.name")
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: querying: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("ListAccounts: %w", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListAccounts: iterating rows: %w", err)
	}
	return accounts, nil
}

// GetAccount returns one account with its derived figures.
func (s *Store) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	row := s.db.QueryRowContext(ctx, accountStatsQuery+" WHERE a.id = ? GROUP BY a.id", id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: conta %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("GetAccount: %w", err)
	}
	return a, nil
}

// UpdateAccount changes the name and/or balance of an account.
func (s *Store) UpdateAccount(ctx context.Context, id int64, upd AccountUpdate) (*domain.Account, error) {
	if _, err := s.GetAccount(ctx, id); err != nil {
		return nil, err
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: nome da conta é obrigatório", domain.ErrInvalid)
		}
		if _, err := s.db.ExecContext(ctx, "UPDATE accounts SET name = ? WHERE id = ?", name, id); err != nil {
			if isUniqueViolation(err) {
				return nil, fmt.Errorf("%w: conta já existe", domain.ErrInvalid)
			}
			return nil, fmt.Errorf("UpdateAccount: updating name: %w", err)
		}
	}
	if upd.Balance != nil {
		if _, err := s.db.ExecContext(ctx, "UPDATE accounts SET balance = ? WHERE id = ?", *upd.Balance, id); err != nil {
			return nil, fmt.Errorf("UpdateAccount: updating balance: %w", err)
		}
	}
	return s.GetAccount(ctx, id)
}

// DeleteAccount removes an account. Accounts referenced by transactions
// cannot be deleted.
func (s *Store) DeleteAccount(ctx context.Context, id int64) error {
	if _, err := s.GetAccount(ctx, id); err != nil {
		return err
	}

	var refs int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions WHERE account_id = ?", id).Scan(&refs); err != nil {
		return fmt.Errorf("DeleteAccount: counting transactions: %w", err)
	}
	if refs > 0 {
		return fmt.Errorf("%w: não é possível excluir conta com transações vinculadas", domain.ErrInvalid)
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM accounts WHERE id = ?", id); err != nil {
		return fmt.Errorf("DeleteAccount: deleting: %w", err)
	}
	return nil
}

// GetOrCreateAccount returns the id of the account with exactly this name,
// creating it with a zero balance if absent.
func (s *Store) GetOrCreateAccount(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: nome da conta é obrigatório", domain.ErrInvalid)
	}
	id, err := upsertByName(ctx, s.db, "accounts", name)
	if err != nil {
		return 0, fmt.Errorf("GetOrCreateAccount: %w", err)
	}
	return id, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(r rowScanner) (*domain.Account, error) {
	var a domain.Account
	if err := r.Scan(&a.ID, &a.Name, &a.Balance, &a.CreatedAt, &a.Spending); err != nil {
		return nil, err
	}
	a.EffectiveBalance = a.Balance - a.Spending
	return &a, nil
}

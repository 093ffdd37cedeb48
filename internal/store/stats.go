package store

import (
	"context"
	"fmt"

	"github.com/dvloznov/diane/internal/domain"
)

// MonthlySpending returns the total and per-category spending of one month.
func (s *Store) MonthlySpending(ctx context.Context, year, month int) (*domain.MonthlySpending, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: mês inválido %d", domain.ErrInvalid, month)
	}
	start, end := monthBounds(year, month)

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.name, SUM(t.amount) AS total
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.tx_date >= ? AND t.tx_date < ?
		GROUP BY c.id
		ORDER BY total DESC, c.name`,
		start.String(), end.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("MonthlySpending: querying: %w", err)
	}
	defer rows.Close()

	ms := &domain.MonthlySpending{Year: year, Month: month, ByCategory: []domain.CategoryTotal{}}
	for rows.Next() {
		var ct domain.CategoryTotal
		if err := rows.Scan(&ct.CategoryName, &ct.Total); err != nil {
			return nil, fmt.Errorf("MonthlySpending: scanning row: %w", err)
		}
		ms.Total += ct.Total
		ms.ByCategory = append(ms.ByCategory, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("MonthlySpending: iterating rows: %w", err)
	}
	return ms, nil
}

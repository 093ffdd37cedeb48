package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dvloznov/diane/internal/domain"
)

// PriceUpdate carries the optional fields of a price correction.
type PriceUpdate struct {
	ProductName *string
	MarketName  *string
	Price       *float64
}

const priceSelect = "SELECT id, product_name, market_name, price, recorded_at FROM product_prices"

// InsertPrice records a price observation stamped with the current time.
func (s *Store) InsertPrice(ctx context.Context, product, market string, price float64) (*domain.ProductPrice, error) {
	product, market = strings.TrimSpace(product), strings.TrimSpace(market)
	if product == "" || market == "" {
		return nil, fmt.Errorf("%w: produto e mercado são obrigatórios", domain.ErrInvalid)
	}
	if price <= 0 {
		return nil, fmt.Errorf("%w: preço deve ser positivo", domain.ErrInvalid)
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO product_prices (product_name, market_name, price) VALUES (?, ?, ?)", product, market, price)
	if err != nil {
		return nil, fmt.Errorf("InsertPrice: inserting: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("InsertPrice: reading id: %w", err)
	}
	return s.GetPrice(ctx, id)
}

// OtherMarketPrices returns the most recent price of product at every market
// other than excludeMarket. Product and market names compare
// case-insensitively after trimming; one row per market.
func (s *Store) OtherMarketPrices(ctx context.Context, product, excludeMarket string) ([]domain.ProductPrice, error) {
	all, err := s.queryPrices(ctx, "OtherMarketPrices", priceSelect+" ORDER BY recorded_at DESC, id DESC")
	if err != nil {
		return nil, err
	}

	productKey, excludeKey := normalizeName(product), normalizeName(excludeMarket)
	seen := make(map[string]bool)
	var out []domain.ProductPrice
	for _, p := range all {
		if normalizeName(p.ProductName) != productKey {
			continue
		}
		marketKey := normalizeName(p.MarketName)
		if marketKey == excludeKey || seen[marketKey] {
			continue
		}
		seen[marketKey] = true
		out = append(out, p)
	}
	return out, nil
}

// ListPricesGrouped returns the current price of every (product, market)
// pair grouped by market. A listing is flagged as best price when it is the
// lowest current price of that product across markets.
func (s *Store) ListPricesGrouped(ctx context.Context) ([]domain.MarketPrices, error) {
	all, err := s.queryPrices(ctx, "ListPricesGrouped", priceSelect+" ORDER BY recorded_at DESC, id DESC")
	if err != nil {
		return nil, err
	}

	type pairKey struct{ product, market string }
	seen := make(map[pairKey]bool)
	best := make(map[string]float64)
	var current []domain.ProductPrice
	for _, p := range all {
		k := pairKey{normalizeName(p.ProductName), normalizeName(p.MarketName)}
		if seen[k] {
			continue
		}
		seen[k] = true
		current = append(current, p)
		if b, ok := best[k.product]; !ok || p.Price < b {
			best[k.product] = p.Price
		}
	}

	byMarket := make(map[string]*domain.MarketPrices)
	var order []string
	for _, p := range current {
		mk := normalizeName(p.MarketName)
		group, ok := byMarket[mk]
		if !ok {
			group = &domain.MarketPrices{MarketName: p.MarketName}
			byMarket[mk] = group
			order = append(order, mk)
		}
		group.Items = append(group.Items, domain.PriceListing{
			ProductPrice: p,
			IsBestPrice:  p.Price == best[normalizeName(p.ProductName)],
		})
	}

	sort.Strings(order)
	out := make([]domain.MarketPrices, 0, len(order))
	for _, mk := range order {
		group := byMarket[mk]
		sort.SliceStable(group.Items, func(i, j int) bool {
			return normalizeName(group.Items[i].ProductName) < normalizeName(group.Items[j].ProductName)
		})
		out = append(out, *group)
	}
	return out, nil
}

// GetPrice returns one price record.
func (s *Store) GetPrice(ctx context.Context, id int64) (*domain.ProductPrice, error) {
	var p domain.ProductPrice
	err := s.db.QueryRowContext(ctx, priceSelect+" WHERE id = ?", id).
		Scan(&p.ID, &p.ProductName, &p.MarketName, &p.Price, &p.RecordedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: preço %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("GetPrice: scanning: %w", err)
	}
	return &p, nil
}

// UpdatePrice corrects a recorded observation. recorded_at is preserved.
func (s *Store) UpdatePrice(ctx context.Context, id int64, upd PriceUpdate) (*domain.ProductPrice, error) {
	p, err := s.GetPrice(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.ProductName != nil {
		p.ProductName = strings.TrimSpace(*upd.ProductName)
	}
	if upd.MarketName != nil {
		p.MarketName = strings.TrimSpace(*upd.MarketName)
	}
	if upd.Price != nil {
		p.Price = *upd.Price
	}
	if p.ProductName == "" || p.MarketName == "" {
		return nil, fmt.Errorf("%w: produto e mercado são obrigatórios", domain.ErrInvalid)
	}
	if p.Price <= 0 {
		return nil, fmt.Errorf("%w: preço deve ser positivo", domain.ErrInvalid)
	}

	if _, err := s.db.ExecContext(ctx,
		"UPDATE product_prices SET product_name = ?, market_name = ?, price = ? WHERE id = ?",
		p.ProductName, p.MarketName, p.Price, id); err != nil {
		return nil, fmt.Errorf("UpdatePrice: updating: %w", err)
	}
	return s.GetPrice(ctx, id)
}

// DeletePrice removes one price record.
func (s *Store) DeletePrice(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM product_prices WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("DeletePrice: deleting: %w", err)
	}
	return requireAffected(res, "preço não encontrado")
}

func (s *Store) queryPrices(ctx context.Context, op, query string, args ...any) ([]domain.ProductPrice, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: querying: %w", op, err)
	}
	defer rows.Close()

	var prices []domain.ProductPrice
	for rows.Next() {
		var p domain.ProductPrice
		if err := rows.Scan(&p.ID, &p.ProductName, &p.MarketName, &p.Price, &p.RecordedAt); err != nil {
			return nil, fmt.Errorf("%s: scanning row: %w", op, err)
		}
		prices = append(prices, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterating rows: %w", op, err)
	}
	return prices, nil
}

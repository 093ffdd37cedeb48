package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dvloznov/diane/internal/domain"
)

// DefaultListName names lists created without an explicit name.
const DefaultListName = "Nova lista"

// CreateList creates a list and makes it the only active one. The clear and
// insert statements are not atomic; a crash in between leaves no active list.
func (s *Store) CreateList(ctx context.Context, name string) (*domain.ShoppingList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultListName
	}

	if _, err := s.db.ExecContext(ctx, "UPDATE shopping_lists SET active = 0 WHERE active = 1"); err != nil {
		return nil, fmt.Errorf("CreateList: clearing active flag: %w", err)
	}
	res, err := s.db.ExecContext(ctx, "INSERT INTO shopping_lists (name, active) VALUES (?, 1)", name)
	if err != nil {
		return nil, fmt.Errorf("CreateList: inserting: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("CreateList: reading id: %w", err)
	}
	return s.GetList(ctx, id)
}

// ListLists returns all lists with their items, most recently updated first.
func (s *Store) ListLists(ctx context.Context) ([]domain.ShoppingList, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, active, created_at, updated_at FROM shopping_lists ORDER BY updated_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("ListLists: querying: %w", err)
	}

	lists := []domain.ShoppingList{}
	for rows.Next() {
		var l domain.ShoppingList
		if err := rows.Scan(&l.ID, &l.Name, &l.Active, &l.CreatedAt, &l.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("ListLists: scanning row: %w", err)
		}
		lists = append(lists, l)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("ListLists: iterating rows: %w", err)
	}
	rows.Close()

	for i := range lists {
		items, err := s.listItems(ctx, s.db, lists[i].ID)
		if err != nil {
			return nil, fmt.Errorf("ListLists: %w", err)
		}
		lists[i].Items = items
	}
	return lists, nil
}

// GetList returns one list with its items in insertion order.
func (s *Store) GetList(ctx context.Context, id int64) (*domain.ShoppingList, error) {
	var l domain.ShoppingList
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, active, created_at, updated_at FROM shopping_lists WHERE id = ?", id).
		Scan(&l.ID, &l.Name, &l.Active, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: lista não encontrada", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetList: scanning: %w", err)
	}

	items, err := s.listItems(ctx, s.db, id)
	if err != nil {
		return nil, fmt.Errorf("GetList: %w", err)
	}
	l.Items = items
	return &l, nil
}

// GetActiveList returns the active list, or nil when there is none.
func (s *Store) GetActiveList(ctx context.Context) (*domain.ShoppingList, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM shopping_lists WHERE active = 1 ORDER BY updated_at DESC, id DESC LIMIT 1").Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetActiveList: querying: %w", err)
	}
	return s.GetList(ctx, id)
}

// ActivateList clears the active flag on every list, then sets it on id.
func (s *Store) ActivateList(ctx context.Context, id int64) (*domain.ShoppingList, error) {
	if _, err := s.GetList(ctx, id); err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx, "UPDATE shopping_lists SET active = 0 WHERE active = 1"); err != nil {
		return nil, fmt.Errorf("ActivateList: clearing active flag: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		"UPDATE shopping_lists SET active = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("ActivateList: setting active flag: %w", err)
	}
	return s.GetList(ctx, id)
}

// RenameList changes a list's name.
func (s *Store) RenameList(ctx context.Context, id int64, name string) (*domain.ShoppingList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: nome da lista é obrigatório", domain.ErrInvalid)
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE shopping_lists SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", name, id)
	if err != nil {
		return nil, fmt.Errorf("RenameList: updating: %w", err)
	}
	if err := requireAffected(res, "lista não encontrada"); err != nil {
		return nil, err
	}
	return s.GetList(ctx, id)
}

// DeleteList removes a list and, by cascade, its items.
func (s *Store) DeleteList(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM shopping_lists WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("DeleteList: deleting: %w", err)
	}
	return requireAffected(res, "lista não encontrada")
}

// AddItems appends unchecked items to a list. Blank names are skipped.
func (s *Store) AddItems(ctx context.Context, listID int64, names []string) ([]domain.ShoppingListItem, error) {
	if _, err := s.GetList(ctx, listID); err != nil {
		return nil, err
	}

	var added []int64
	err := s.Transaction(ctx, func(tx *sql.Tx) error {
		for _, n := range names {
			n = strings.TrimSpace(n)
			if n == "" {
				continue
			}
			res, err := tx.ExecContext(ctx, "INSERT INTO shopping_list_items (list_id, name) VALUES (?, ?)", listID, n)
			if err != nil {
				return fmt.Errorf("AddItems: inserting %q: %w", n, err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("AddItems: reading id: %w", err)
			}
			added = append(added, id)
		}
		if len(added) == 0 {
			return nil
		}
		return touchList(ctx, tx, listID)
	})
	if err != nil {
		return nil, err
	}

	items, err := s.listItems(ctx, s.db, listID)
	if err != nil {
		return nil, fmt.Errorf("AddItems: %w", err)
	}
	wanted := make(map[int64]bool, len(added))
	for _, id := range added {
		wanted[id] = true
	}
	out := make([]domain.ShoppingListItem, 0, len(added))
	for _, it := range items {
		if wanted[it.ID] {
			out = append(out, it)
		}
	}
	return out, nil
}

// CheckItemsByNames marks, for each requested name, the first unchecked item
// whose name matches case-insensitively. An item is checked at most once per
// call and unmatched names are ignored. It returns the checked items.
func (s *Store) CheckItemsByNames(ctx context.Context, listID int64, names []string) ([]domain.ShoppingListItem, error) {
	var checked []domain.ShoppingListItem
	err := s.Transaction(ctx, func(tx *sql.Tx) error {
		items, err := s.listItems(ctx, tx, listID)
		if err != nil {
			return fmt.Errorf("CheckItemsByNames: %w", err)
		}

		used := make(map[int64]bool)
		for _, n := range names {
			key := normalizeName(n)
			if key == "" {
				continue
			}
			for _, it := range items {
				if it.Checked || used[it.ID] || normalizeName(it.Name) != key {
					continue
				}
				if _, err := tx.ExecContext(ctx, "UPDATE shopping_list_items SET checked = 1 WHERE id = ?", it.ID); err != nil {
					return fmt.Errorf("CheckItemsByNames: checking item %d: %w", it.ID, err)
				}
				used[it.ID] = true
				it.Checked = true
				checked = append(checked, it)
				break
			}
		}
		if len(checked) == 0 {
			return nil
		}
		return touchList(ctx, tx, listID)
	})
	if err != nil {
		return nil, err
	}
	return checked, nil
}

// ToggleItem flips an item's checked state.
func (s *Store) ToggleItem(ctx context.Context, listID, itemID int64) (*domain.ShoppingListItem, error) {
	err := s.Transaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE shopping_list_items SET checked = 1 - checked WHERE id = ? AND list_id = ?", itemID, listID)
		if err != nil {
			return fmt.Errorf("ToggleItem: updating: %w", err)
		}
		if err := requireAffected(res, "item não encontrado"); err != nil {
			return err
		}
		return touchList(ctx, tx, listID)
	})
	if err != nil {
		return nil, err
	}
	return s.getItem(ctx, listID, itemID)
}

// RenameItem changes an item's name.
func (s *Store) RenameItem(ctx context.Context, listID, itemID int64, name string) (*domain.ShoppingListItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: nome do item é obrigatório", domain.ErrInvalid)
	}
	err := s.Transaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE shopping_list_items SET name = ? WHERE id = ? AND list_id = ?", name, itemID, listID)
		if err != nil {
			return fmt.Errorf("RenameItem: updating: %w", err)
		}
		if err := requireAffected(res, "item não encontrado"); err != nil {
			return err
		}
		return touchList(ctx, tx, listID)
	})
	if err != nil {
		return nil, err
	}
	return s.getItem(ctx, listID, itemID)
}

// DeleteItem removes one item from a list.
func (s *Store) DeleteItem(ctx context.Context, listID, itemID int64) error {
	return s.Transaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM shopping_list_items WHERE id = ? AND list_id = ?", itemID, listID)
		if err != nil {
			return fmt.Errorf("DeleteItem: deleting: %w", err)
		}
		if err := requireAffected(res, "item não encontrado"); err != nil {
			return err
		}
		return touchList(ctx, tx, listID)
	})
}

func (s *Store) getItem(ctx context.Context, listID, itemID int64) (*domain.ShoppingListItem, error) {
	var it domain.ShoppingListItem
	err := s.db.QueryRowContext(ctx,
		"SELECT id, list_id, name, checked, created_at FROM shopping_list_items WHERE id = ? AND list_id = ?",
		itemID, listID).Scan(&it.ID, &it.ListID, &it.Name, &it.Checked, &it.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: item não encontrado", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getItem: scanning: %w", err)
	}
	return &it, nil
}

func (s *Store) listItems(ctx context.Context, q querier, listID int64) ([]domain.ShoppingListItem, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT id, list_id, name, checked, created_at FROM shopping_list_items WHERE list_id = ? ORDER BY id", listID)
	if err != nil {
		return nil, fmt.Errorf("listItems: querying: %w", err)
	}
	defer rows.Close()

	items := []domain.ShoppingListItem{}
	for rows.Next() {
		var it domain.ShoppingListItem
		if err := rows.Scan(&it.ID, &it.ListID, &it.Name, &it.Checked, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("listItems: scanning row: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listItems: iterating rows: %w", err)
	}
	return items, nil
}

func touchList(ctx context.Context, q querier, listID int64) error {
	if _, err := q.ExecContext(ctx, "UPDATE shopping_lists SET updated_at = CURRENT_TIMESTAMP WHERE id = ?", listID); err != nil {
		return fmt.Errorf("touchList: %w", err)
	}
	return nil
}

func requireAffected(res sql.Result, notFound string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, notFound)
	}
	return nil
}

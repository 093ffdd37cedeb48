package handlers

import (
	"context"

	"github.com/dvloznov/diane/internal/chat"
	"github.com/dvloznov/diane/internal/domain"
	"github.com/dvloznov/diane/internal/store"
)

// ChatService runs one conversation turn.
type ChatService interface {
	HandleMessage(ctx context.Context, message string) (*chat.Response, error)
}

// ChatHistory reads past chat messages, oldest first.
type ChatHistory interface {
	RecentChat(ctx context.Context, limit int) ([]domain.ChatMessage, error)
}

// AccountStore provides account operations.
type AccountStore interface {
	CreateAccount(ctx context.Context, name string, balance float64) (*domain.Account, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	UpdateAccount(ctx context.Context, id int64, upd store.AccountUpdate) (*domain.Account, error)
	DeleteAccount(ctx context.Context, id int64) error
}

// CategoryStore provides category operations.
type CategoryStore interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, name string) (*domain.Category, error)
}

// TransactionStore provides transaction and statistics operations.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, nt domain.NewTransaction) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, f store.TransactionFilter) ([]domain.Transaction, error)
	MonthlySpending(ctx context.Context, year, month int) (*domain.MonthlySpending, error)
}

// ShoppingStore provides shopping list operations.
type ShoppingStore interface {
	CreateList(ctx context.Context, name string) (*domain.ShoppingList, error)
	ListLists(ctx context.Context) ([]domain.ShoppingList, error)
	GetList(ctx context.Context, id int64) (*domain.ShoppingList, error)
	ActivateList(ctx context.Context, id int64) (*domain.ShoppingList, error)
	RenameList(ctx context.Context, id int64, name string) (*domain.ShoppingList, error)
	DeleteList(ctx context.Context, id int64) error
	AddItems(ctx context.Context, listID int64, names []string) ([]domain.ShoppingListItem, error)
	CheckItemsByNames(ctx context.Context, listID int64, names []string) ([]domain.ShoppingListItem, error)
	ToggleItem(ctx context.Context, listID, itemID int64) (*domain.ShoppingListItem, error)
	RenameItem(ctx context.Context, listID, itemID int64, name string) (*domain.ShoppingListItem, error)
	DeleteItem(ctx context.Context, listID, itemID int64) error
}

// PriceStore provides product price operations.
type PriceStore interface {
	InsertPrice(ctx context.Context, product, market string, price float64) (*domain.ProductPrice, error)
	ListPricesGrouped(ctx context.Context) ([]domain.MarketPrices, error)
	UpdatePrice(ctx context.Context, id int64, upd store.PriceUpdate) (*domain.ProductPrice, error)
	DeletePrice(ctx context.Context, id int64) error
}

// PromptLogStore reads the audit trail.
type PromptLogStore interface {
	ListPromptLogs(ctx context.Context, f store.PromptLogFilter) ([]domain.PromptLog, error)
}

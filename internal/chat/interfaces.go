package chat

import (
	"context"

	"github.com/dvloznov/diane/internal/domain"
	"github.com/dvloznov/diane/internal/extraction"
)

// Store is the persistence the orchestrator needs. *store.Store satisfies it.
type Store interface {
	GetOrCreateCategory(ctx context.Context, name string) (int64, error)
	GetOrCreateAccount(ctx context.Context, name string) (int64, error)
	CreateTransaction(ctx context.Context, nt domain.NewTransaction) (*domain.Transaction, error)

	GetActiveList(ctx context.Context) (*domain.ShoppingList, error)
	GetList(ctx context.Context, id int64) (*domain.ShoppingList, error)
	CreateList(ctx context.Context, name string) (*domain.ShoppingList, error)
	AddItems(ctx context.Context, listID int64, names []string) ([]domain.ShoppingListItem, error)
	CheckItemsByNames(ctx context.Context, listID int64, names []string) ([]domain.ShoppingListItem, error)

	InsertPrice(ctx context.Context, product, market string, price float64) (*domain.ProductPrice, error)
	OtherMarketPrices(ctx context.Context, product, excludeMarket string) ([]domain.ProductPrice, error)

	ListAccounts(ctx context.Context) ([]domain.Account, error)
	MonthlySpending(ctx context.Context, year, month int) (*domain.MonthlySpending, error)

	RecentChat(ctx context.Context, limit int) ([]domain.ChatMessage, error)
	AppendChatTurn(ctx context.Context, userMessage, reply string) error
	InsertPromptLog(ctx context.Context, log domain.PromptLog) (*domain.PromptLog, error)
}

// Extractor runs the three intent extractors. *extraction.Extractor satisfies it.
type Extractor interface {
	Transaction(ctx context.Context, message string) extraction.Outcome
	Shopping(ctx context.Context, message string) extraction.Outcome
	Price(ctx context.Context, message string) extraction.Outcome
}

// Mirror receives records to copy into external systems. Implementations
// must not block the turn.
type Mirror interface {
	MirrorPromptLog(ctx context.Context, log domain.PromptLog)
	MirrorTransaction(ctx context.Context, tx domain.Transaction)
}

type noopMirror struct{}

func (noopMirror) MirrorPromptLog(context.Context, domain.PromptLog)     {}
func (noopMirror) MirrorTransaction(context.Context, domain.Transaction) {}

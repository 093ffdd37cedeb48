package domain

import (
	"time"

	"cloud.google.com/go/civil"
)

// Account is a named wallet, bank account or card. Spending and
// EffectiveBalance are derived from the transactions that reference it.
type Account struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Balance          float64   `json:"balance"`
	Spending         float64   `json:"spending"`
	EffectiveBalance float64   `json:"effective_balance"`
	CreatedAt        time.Time `json:"created_at"`
}

// Category groups transactions. Names are unique as stored.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Transaction is one recorded expense or income. It is never updated once created.
type Transaction struct {
	ID           int64      `json:"id"`
	Amount       float64    `json:"amount"`
	Description  string     `json:"description"`
	CategoryID   int64      `json:"category_id"`
	CategoryName string     `json:"category_name"`
	AccountID    *int64     `json:"account_id"`
	AccountName  *string    `json:"account_name"`
	TxDate       civil.Date `json:"tx_date"`
	CreatedAt    time.Time  `json:"created_at"`
}

// NewTransaction carries the fields needed to insert a transaction.
type NewTransaction struct {
	Amount      float64
	Description string
	CategoryID  int64
	AccountID   *int64
	TxDate      civil.Date
}

// CategoryTotal is the spending of one category over a period.
type CategoryTotal struct {
	CategoryName string  `json:"category_name"`
	Total        float64 `json:"total"`
}

// MonthlySpending summarizes one calendar month.
type MonthlySpending struct {
	Year       int             `json:"year"`
	Month      int             `json:"month"`
	Total      float64         `json:"total"`
	ByCategory []CategoryTotal `json:"by_category"`
}

// ChatRole identifies the author of a chat message.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage is one entry of the append-only conversation log.
type ChatMessage struct {
	ID        int64     `json:"id"`
	Role      ChatRole  `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ShoppingList owns an ordered collection of items. At most one list is active.
type ShoppingList struct {
	ID        int64              `json:"id"`
	Name      string             `json:"name"`
	Active    bool               `json:"active"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
	Items     []ShoppingListItem `json:"items"`
}

// ShoppingListItem belongs to exactly one list.
type ShoppingListItem struct {
	ID        int64     `json:"id"`
	ListID    int64     `json:"list_id"`
	Name      string    `json:"name"`
	Checked   bool      `json:"checked"`
	CreatedAt time.Time `json:"created_at"`
}

// PromptKind tags the stage that issued a generation call.
type PromptKind string

const (
	PromptKindTransaction  PromptKind = "extraction_tx"
	PromptKindShopping     PromptKind = "extraction_shopping"
	PromptKindProductPrice PromptKind = "extraction_product_price"
	PromptKindChat         PromptKind = "chat"
)

// PromptLog is the audit record of one generation call.
type PromptLog struct {
	ID           int64      `json:"id"`
	Kind         PromptKind `json:"kind"`
	PromptText   string     `json:"prompt_text"`
	ResponseText string     `json:"response_text"`
	Model        string     `json:"model"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ProductPrice is one observation of a product's price at a market.
type ProductPrice struct {
	ID          int64     `json:"id"`
	ProductName string    `json:"product_name"`
	MarketName  string    `json:"market_name"`
	Price       float64   `json:"price"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// PriceListing is the current price of a product at one market, flagged
// when it is the cheapest current price for that product.
type PriceListing struct {
	ProductPrice
	IsBestPrice bool `json:"is_best_price"`
}

// MarketPrices groups the current listings of one market.
type MarketPrices struct {
	MarketName string         `json:"market_name"`
	Items      []PriceListing `json:"items"`
}

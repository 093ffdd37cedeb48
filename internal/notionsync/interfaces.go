package notionsync

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jomei/notionapi"

	"github.com/dvloznov/diane/internal/domain"
)

// NotionService defines the interface for interacting with Notion API.
// This interface enables mocking and testing of Notion operations.
type NotionService interface {
	// CreatePage creates a new page in a Notion database with the given properties.
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)

	// UpdatePage updates an existing Notion page with the given properties.
	UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error)

	// QueryDatabase queries a Notion database with the given filter.
	QueryDatabase(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
}

// TransactionSource lists locally recorded transactions by calendar date, inclusive.
type TransactionSource interface {
	ListTransactionsByDateRange(ctx context.Context, start, end civil.Date) ([]domain.Transaction, error)
}

// SyncResult counts what a sync did, or would do in a dry run.
type SyncResult struct {
	Total   int
	Created int
	Updated int
	Failed  int
	Elapsed time.Duration
}

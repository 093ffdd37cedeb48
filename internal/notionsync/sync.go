package notionsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jomei/notionapi"

	"github.com/dvloznov/diane/internal/domain"
	"github.com/dvloznov/diane/internal/logger"
)

const (
	// BatchSize defines the number of transactions to process in a single batch
	BatchSize = 100

	queryPageSize = 100
)

// Syncer writes transactions into one Notion database.
type Syncer struct {
	client     NotionService
	databaseID string
}

// NewSyncer creates a Syncer for databaseID.
func NewSyncer(client NotionService, databaseID string) *Syncer {
	return &Syncer{client: client, databaseID: databaseID}
}

// MirrorTransaction creates or updates the page of a single transaction,
// looked up by its "Transaction ID" property.
func (s *Syncer) MirrorTransaction(ctx context.Context, tx domain.Transaction) error {
	if tx.ID == 0 {
		return errors.New("MirrorTransaction: transaction has no id")
	}

	resp, err := s.client.QueryDatabase(ctx, s.databaseID, &notionapi.DatabaseQueryRequest{
		Filter: &notionapi.PropertyFilter{
			Property: PropTransactionID,
			RichText: &notionapi.TextFilterCondition{Equals: transactionKey(tx.ID)},
		},
		PageSize: 1,
	})
	if err != nil {
		return fmt.Errorf("MirrorTransaction: looking up page: %w", err)
	}

	props := TransactionToNotionProperties(tx)
	if len(resp.Results) > 0 {
		if _, err := s.client.UpdatePage(ctx, string(resp.Results[0].ID), props); err != nil {
			return fmt.Errorf("MirrorTransaction: %w", err)
		}
		return nil
	}

	if _, err := s.client.CreatePage(ctx, s.databaseID, props); err != nil {
		return fmt.Errorf("MirrorTransaction: %w", err)
	}
	return nil
}

// SyncTransactions mirrors every transaction dated between start and end,
// inclusive. Existing pages are matched on "Transaction ID" and updated, so
// running it twice creates nothing new. Failures of single pages are counted
// and logged; the sync continues. With dryRun nothing is written.
func (s *Syncer) SyncTransactions(ctx context.Context, src TransactionSource, start, end civil.Date, dryRun bool) (*SyncResult, error) {
	log := logger.FromContext(ctx)
	began := time.Now()

	if end.Before(start) {
		return nil, fmt.Errorf("SyncTransactions: %w: end date %s before start date %s", domain.ErrInvalid, end, start)
	}

	log.Info().
		Str("start_date", start.String()).
		Str("end_date", end.String()).
		Bool("dry_run", dryRun).
		Msg("Starting transaction sync to Notion")

	transactions, err := src.ListTransactionsByDateRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("SyncTransactions: listing transactions: %w", err)
	}
	log.Info().Int("transaction_count", len(transactions)).Msg("Retrieved local transactions")

	pages, err := queryAllNotionPages(ctx, s.client, s.databaseID)
	if err != nil {
		return nil, fmt.Errorf("SyncTransactions: %w", err)
	}

	existing := make(map[string]string, len(pages))
	for _, page := range pages {
		if id := extractTransactionID(page); id != "" {
			existing[id] = string(page.ID)
		}
	}
	log.Info().Int("notion_page_count", len(pages)).Int("keyed_pages", len(existing)).Msg("Retrieved existing Notion pages")

	result := &SyncResult{Total: len(transactions)}
	for i := 0; i < len(transactions); i += BatchSize {
		end := min(i+BatchSize, len(transactions))
		batch := transactions[i:end]
		log.Debug().Int("batch_start", i).Int("batch_end", end).Msg("Processing batch")

		for _, tx := range batch {
			if err := ctx.Err(); err != nil {
				return result, fmt.Errorf("SyncTransactions: %w", err)
			}

			key := transactionKey(tx.ID)
			pageID, found := existing[key]

			if dryRun {
				if found {
					log.Info().Str("transaction_id", key).Str("page_id", pageID).Msg("[DRY RUN] Would update existing Notion page")
					result.Updated++
				} else {
					log.Info().Str("transaction_id", key).Msg("[DRY RUN] Would create new Notion page")
					result.Created++
				}
				continue
			}

			props := TransactionToNotionProperties(tx)
			if found {
				if _, err := s.client.UpdatePage(ctx, pageID, props); err != nil {
					log.Warn().Err(err).Str("transaction_id", key).Str("page_id", pageID).Msg("Failed to update Notion page")
					result.Failed++
					continue
				}
				result.Updated++
				continue
			}

			page, err := s.client.CreatePage(ctx, s.databaseID, props)
			if err != nil {
				log.Warn().Err(err).Str("transaction_id", key).Msg("Failed to create Notion page")
				result.Failed++
				continue
			}
			existing[key] = string(page.ID)
			result.Created++
		}
	}

	result.Elapsed = time.Since(began)
	log.Info().
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("failed", result.Failed).
		Int("total", result.Total).
		Dur("elapsed", result.Elapsed).
		Msg("Transaction sync completed")

	return result, nil
}

// queryAllNotionPages queries all pages from a Notion database and returns them.
// Handles pagination automatically.
func queryAllNotionPages(ctx context.Context, client NotionService, databaseID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{PageSize: queryPageSize}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := client.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}

		allPages = append(allPages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return allPages, nil
}

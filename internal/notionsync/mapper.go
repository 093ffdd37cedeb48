package notionsync

import (
	"strconv"
	"time"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/diane/internal/domain"
)

// Property names of the Notion transactions database.
const (
	PropDescription   = "Description"
	PropDate          = "Date"
	PropAmount        = "Amount"
	PropCurrency      = "Currency"
	PropCategory      = "Category"
	PropAccount       = "Account"
	PropTransactionID = "Transaction ID"
	PropRecordedAt    = "Recorded At"

	currencyBRL = "BRL"
)

// TransactionToNotionProperties converts a recorded transaction to Notion properties.
// "Transaction ID" carries the local id and is the key used for idempotent syncs.
func TransactionToNotionProperties(tx domain.Transaction) notionapi.Properties {
	date := notionapi.Date(tx.TxDate.In(time.UTC))

	props := notionapi.Properties{
		PropDescription: notionapi.TitleProperty{
			Title: []notionapi.RichText{richText(tx.Description)},
		},
		PropDate: notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &date},
		},
		PropAmount: notionapi.NumberProperty{
			Number: tx.Amount,
		},
		PropCurrency: notionapi.SelectProperty{
			Select: notionapi.Option{Name: currencyBRL},
		},
		PropTransactionID: notionapi.RichTextProperty{
			RichText: []notionapi.RichText{richText(transactionKey(tx.ID))},
		},
	}

	if tx.CategoryName != "" {
		props[PropCategory] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: tx.CategoryName},
		}
	}

	if tx.AccountName != nil && *tx.AccountName != "" {
		props[PropAccount] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{richText(*tx.AccountName)},
		}
	}

	if !tx.CreatedAt.IsZero() {
		recorded := notionapi.Date(tx.CreatedAt.UTC())
		props[PropRecordedAt] = notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &recorded},
		}
	}

	return props
}

func richText(content string) notionapi.RichText {
	return notionapi.RichText{
		Type: notionapi.ObjectTypeText,
		Text: &notionapi.Text{Content: content},
	}
}

func transactionKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

// extractTransactionID extracts the transaction ID from a Notion page's properties.
// Returns empty string if not found.
func extractTransactionID(page notionapi.Page) string {
	prop, ok := page.Properties[PropTransactionID]
	if !ok {
		return ""
	}
	if rt, ok := prop.(*notionapi.RichTextProperty); ok && len(rt.RichText) > 0 {
		if rt.RichText[0].PlainText != "" {
			return rt.RichText[0].PlainText
		}
		if rt.RichText[0].Text != nil {
			return rt.RichText[0].Text.Content
		}
	}
	return ""
}

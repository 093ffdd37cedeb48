package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/diane/internal/llm"
)

// Extractor runs the three intent extractors against one generator.
type Extractor struct {
	gen llm.Generator
	now func() time.Time
}

// New creates an Extractor. A nil generator behaves as llm.Disabled.
func New(gen llm.Generator) *Extractor {
	if gen == nil {
		gen = llm.Disabled{}
	}
	return &Extractor{gen: gen, now: time.Now}
}

// WithClock overrides the clock used for "today" in prompts.
func (e *Extractor) WithClock(now func() time.Time) *Extractor {
	e.now = now
	return e
}

// call issues one generation call. A NoMatch outcome is returned when the
// service is absent or fails; otherwise the completed audit is returned.
func (e *Extractor) call(ctx context.Context, prompt string) (Audit, *Outcome) {
	if !llm.IsConfigured(e.gen) {
		o := noMatch(ReasonUnavailable, Audit{})
		return Audit{}, &o
	}

	resp, err := e.gen.Generate(ctx, prompt, llm.ExtractionTemperature)
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) {
			o := noMatch(ReasonUnavailable, Audit{})
			return Audit{}, &o
		}
		o := Outcome{Result: NoMatch{Reason: ReasonCallFailed}, Err: err}
		return Audit{}, &o
	}

	return Audit{Called: true, Prompt: prompt, Response: resp}, nil
}

type transactionPayload struct {
	Extract *struct {
		Amount      *flexNumber `json:"amount"`
		Description *string     `json:"description"`
		Category    *string     `json:"category"`
		Account     *string     `json:"account"`
		TxDate      *string     `json:"tx_date"`
	} `json:"extract"`
}

// Transaction extracts an expense or income from message.
func (e *Extractor) Transaction(ctx context.Context, message string) Outcome {
	audit, failed := e.call(ctx, buildTransactionPrompt(message, e.now()))
	if failed != nil {
		return *failed
	}
	return Outcome{Result: parseTransaction(audit.Response), Audit: audit}
}

func parseTransaction(raw string) Result {
	var p transactionPayload
	if err := decodeModelJSON(raw, &p); err != nil {
		return NoMatch{Reason: ReasonMalformed}
	}
	if p.Extract == nil {
		return NoMatch{Reason: ReasonNoIntent}
	}

	x := p.Extract
	if x.Amount == nil || float64(*x.Amount) <= 0 {
		return NoMatch{Reason: ReasonMalformed}
	}

	intent := TransactionIntent{
		Amount:      float64(*x.Amount),
		Description: cleanOptional(x.Description),
		Category:    cleanOptional(x.Category),
	}
	if acc := cleanOptional(x.Account); acc != "" {
		intent.Account = &acc
	}
	if ds := cleanOptional(x.TxDate); ds != "" {
		if d, err := civil.ParseDate(ds); err == nil {
			intent.TxDate = &d
		}
	}
	return intent
}

type shoppingPayload struct {
	Action   *string         `json:"action"`
	ListName *string         `json:"list_name"`
	Items    json.RawMessage `json:"items"`
}

// Shopping extracts a shopping-list action from message.
func (e *Extractor) Shopping(ctx context.Context, message string) Outcome {
	audit, failed := e.call(ctx, buildShoppingPrompt(message))
	if failed != nil {
		return *failed
	}
	return Outcome{Result: parseShopping(audit.Response), Audit: audit}
}

func parseShopping(raw string) Result {
	var p shoppingPayload
	if err := decodeModelJSON(raw, &p); err != nil {
		return NoMatch{Reason: ReasonMalformed}
	}

	action := cleanOptional(p.Action)
	if action == "" {
		return NoMatch{Reason: ReasonNoIntent}
	}
	switch ShoppingAction(action) {
	case ActionCreateList, ActionAddItems, ActionCheckItems:
	default:
		return NoMatch{Reason: ReasonMalformed}
	}

	// items that are not an array count as empty
	var rawItems []any
	_ = json.Unmarshal(p.Items, &rawItems)

	items := make([]string, 0, len(rawItems))
	for _, it := range rawItems {
		s, ok := it.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			items = append(items, s)
		}
	}

	return ShoppingIntent{
		Action:   ShoppingAction(action),
		ListName: cleanOptional(p.ListName),
		Items:    items,
	}
}

type pricePayload struct {
	Product *string     `json:"product"`
	Market  *string     `json:"market"`
	Price   *flexNumber `json:"price"`
}

// Price extracts a product price report from message. Partial reports are
// not matches.
func (e *Extractor) Price(ctx context.Context, message string) Outcome {
	audit, failed := e.call(ctx, buildPricePrompt(message))
	if failed != nil {
		return *failed
	}
	return Outcome{Result: parsePrice(audit.Response), Audit: audit}
}

func parsePrice(raw string) Result {
	var p pricePayload
	if err := decodeModelJSON(raw, &p); err != nil {
		return NoMatch{Reason: ReasonMalformed}
	}
	if p.Product == nil && p.Market == nil && p.Price == nil {
		return NoMatch{Reason: ReasonNoIntent}
	}

	product, market := cleanOptional(p.Product), cleanOptional(p.Market)
	if product == "" || market == "" || p.Price == nil || float64(*p.Price) <= 0 {
		return NoMatch{Reason: ReasonMalformed}
	}
	return PriceReport{Product: product, Market: market, Price: float64(*p.Price)}
}

// Package extraction turns one free-text user message into a structured
// intent by asking the generation service for strict JSON.
package extraction

import (
	"cloud.google.com/go/civil"
)

// Result is one of NoMatch, TransactionIntent, ShoppingIntent or PriceReport.
type Result interface {
	isResult()
}

// NoMatchReason says why an extractor produced no intent. The orchestrator
// treats every reason the same way; the distinction is kept for logging.
type NoMatchReason string

const (
	ReasonUnavailable NoMatchReason = "unavailable" // generation service not configured
	ReasonCallFailed  NoMatchReason = "call_failed" // the service returned an error
	ReasonMalformed   NoMatchReason = "malformed"   // the completion did not fit the schema
	ReasonNoIntent    NoMatchReason = "no_intent"   // valid answer saying "nothing here"
)

// NoMatch means the message carries no intent of the extractor's kind.
type NoMatch struct {
	Reason NoMatchReason
}

// TransactionIntent is an expense or income described by the user.
type TransactionIntent struct {
	Amount      float64
	Description string
	Category    string
	Account     *string
	// TxDate is nil when the model gave no usable date.
	TxDate *civil.Date
}

// ShoppingAction is the closed set of shopping-list actions.
type ShoppingAction string

const (
	ActionCreateList ShoppingAction = "create_list"
	ActionAddItems   ShoppingAction = "add_items"
	ActionCheckItems ShoppingAction = "check_items"
)

// ShoppingIntent is a shopping-list action with its item names.
type ShoppingIntent struct {
	Action   ShoppingAction
	ListName string
	Items    []string
}

// PriceReport is a complete product price observation at one market.
type PriceReport struct {
	Product string
	Market  string
	Price   float64
}

func (NoMatch) isResult()           {}
func (TransactionIntent) isResult() {}
func (ShoppingIntent) isResult()    {}
func (PriceReport) isResult()       {}

// Audit is the prompt/response pair of a completed generation call.
// Called is false when no call was made or the call failed.
type Audit struct {
	Called   bool
	Prompt   string
	Response string
}

// Outcome is what every extractor returns. Err holds the service error when
// Result is NoMatch{ReasonCallFailed}.
type Outcome struct {
	Result Result
	Audit  Audit
	Err    error
}

// Matched reports whether the outcome carries an intent.
func (o Outcome) Matched() bool {
	_, none := o.Result.(NoMatch)
	return o.Result != nil && !none
}

func noMatch(reason NoMatchReason, audit Audit) Outcome {
	return Outcome{Result: NoMatch{Reason: reason}, Audit: audit}
}

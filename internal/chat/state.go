package chat

import (
	"context"
	"time"

	"github.com/dvloznov/diane/internal/domain"
	"github.com/dvloznov/diane/internal/reply"
)

// Stage is one ordered step of a conversation turn.
type Stage interface {
	Name() string
	Execute(ctx context.Context, state *TurnState) error
}

// TurnState holds the shared state across the stages of one turn.
type TurnState struct {
	Message string
	Now     time.Time

	Transaction     *domain.Transaction
	ShoppingSummary string
	PriceReply      string

	Context string
	History []domain.ChatMessage

	Generated string
	ErrorKind reply.ErrorKind

	Reply string
}

// Response is the outcome of one turn.
type Response struct {
	Reply       string
	Transaction *domain.Transaction
	ErrorKind   reply.ErrorKind
}

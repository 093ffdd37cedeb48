// Package chat runs one conversation turn: intent extraction, side effects,
// context gathering, the generated reply, composition and persistence.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/diane/internal/domain"
	"github.com/dvloznov/diane/internal/extraction"
	"github.com/dvloznov/diane/internal/llm"
)

// DefaultHistoryLimit is the number of chat messages given to the model.
const DefaultHistoryLimit = 20

// Service orchestrates conversation turns.
type Service struct {
	store        Store
	extractor    Extractor
	gen          llm.Generator
	mirror       Mirror
	historyLimit int
	now          func() time.Time
	log          zerolog.Logger
	stages       []Stage
}

// Option configures a Service.
type Option func(*Service)

// WithMirror sets the receiver of prompt logs and created transactions.
func WithMirror(m Mirror) Option {
	return func(s *Service) {
		if m != nil {
			s.mirror = m
		}
	}
}

// WithHistoryLimit overrides DefaultHistoryLimit.
func WithHistoryLimit(n int) Option {
	return func(s *Service) { s.historyLimit = n }
}

// WithClock overrides the clock used for default dates and the monthly summary.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the service logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// NewService creates a Service. gen may be llm.Disabled.
func NewService(st Store, ex Extractor, gen llm.Generator, opts ...Option) *Service {
	if gen == nil {
		gen = llm.Disabled{}
	}
	s := &Service{
		store:        st,
		extractor:    ex,
		gen:          gen,
		mirror:       noopMirror{},
		historyLimit: DefaultHistoryLimit,
		now:          time.Now,
		log:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.stages = []Stage{
		&TransactionStage{svc: s},
		&ShoppingStage{svc: s},
		&PriceStage{svc: s},
		&ContextStage{svc: s},
		&ReplyStage{svc: s},
		&ComposeStage{},
		&PersistStage{svc: s},
	}
	return s
}

// HandleMessage runs every stage for one user message, in order. Extraction
// stages never fail the turn; context and persistence errors do.
func (s *Service) HandleMessage(ctx context.Context, message string) (*Response, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: mensagem vazia", domain.ErrInvalid)
	}

	state := &TurnState{Message: message, Now: s.now()}
	for _, st := range s.stages {
		s.log.Debug().Str("stage", st.Name()).Msg("running stage")
		if err := st.Execute(ctx, state); err != nil {
			return nil, fmt.Errorf("HandleMessage: %s stage: %w", st.Name(), err)
		}
	}

	return &Response{
		Reply:       state.Reply,
		Transaction: state.Transaction,
		ErrorKind:   state.ErrorKind,
	}, nil
}

// recordAudit stores the prompt/response of a completed call and hands the
// stored row to the mirror. Calls with an empty prompt or response are not
// recorded. Audit failures are logged only.
func (s *Service) recordAudit(ctx context.Context, kind domain.PromptKind, out extraction.Outcome) {
	if !out.Audit.Called || out.Audit.Prompt == "" || strings.TrimSpace(out.Audit.Response) == "" {
		return
	}
	stored, err := s.store.InsertPromptLog(ctx, domain.PromptLog{
		Kind:         kind,
		PromptText:   out.Audit.Prompt,
		ResponseText: out.Audit.Response,
		Model:        s.gen.Model(),
	})
	if err != nil {
		s.log.Warn().Err(err).Str("kind", string(kind)).Msg("failed to write prompt log")
		return
	}
	s.mirror.MirrorPromptLog(ctx, *stored)
}

func (s *Service) logNoMatch(stage string, out extraction.Outcome) {
	ev := s.log.Debug()
	if out.Err != nil {
		ev = s.log.Warn().Err(out.Err)
	}
	if nm, ok := out.Result.(extraction.NoMatch); ok {
		ev = ev.Str("reason", string(nm.Reason))
	}
	ev.Str("stage", stage).Msg("no intent extracted")
}

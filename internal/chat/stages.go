package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/diane/internal/domain"
	"github.com/dvloznov/diane/internal/extraction"
	"github.com/dvloznov/diane/internal/llm"
	"github.com/dvloznov/diane/internal/reply"
	"github.com/dvloznov/diane/internal/store"
)

// Stage 1: TransactionStage records an expense or income found in the message.
// Failures are logged and absorbed.
type TransactionStage struct{ svc *Service }

func (s *TransactionStage) Name() string { return "transaction" }

func (s *TransactionStage) Execute(ctx context.Context, state *TurnState) error {
	out := s.svc.extractor.Transaction(ctx, state.Message)
	s.svc.recordAudit(ctx, domain.PromptKindTransaction, out)

	intent, ok := out.Result.(extraction.TransactionIntent)
	if !ok {
		s.svc.logNoMatch(s.Name(), out)
		return nil
	}

	tx, err := s.svc.applyTransaction(ctx, intent, state.Now)
	if err != nil {
		s.svc.log.Warn().Err(err).Str("stage", s.Name()).Msg("failed to record extracted transaction")
		return nil
	}
	state.Transaction = tx
	s.svc.mirror.MirrorTransaction(ctx, *tx)
	s.svc.log.Debug().Int64("transaction_id", tx.ID).Float64("amount", tx.Amount).Msg("transaction recorded")
	return nil
}

func (s *Service) applyTransaction(ctx context.Context, intent extraction.TransactionIntent, now time.Time) (*domain.Transaction, error) {
	catID, err := s.store.GetOrCreateCategory(ctx, domain.CanonicalCategoryName(intent.Category))
	if err != nil {
		return nil, fmt.Errorf("applyTransaction: resolving category: %w", err)
	}

	var accountID *int64
	if intent.Account != nil {
		id, err := s.store.GetOrCreateAccount(ctx, *intent.Account)
		if err != nil {
			return nil, fmt.Errorf("applyTransaction: resolving account: %w", err)
		}
		accountID = &id
	}

	txDate := civil.DateOf(now)
	if intent.TxDate != nil {
		txDate = *intent.TxDate
	}

	tx, err := s.store.CreateTransaction(ctx, domain.NewTransaction{
		Amount:      intent.Amount,
		Description: intent.Description,
		CategoryID:  catID,
		AccountID:   accountID,
		TxDate:      txDate,
	})
	if err != nil {
		return nil, fmt.Errorf("applyTransaction: creating transaction: %w", err)
	}
	return tx, nil
}

// Stage 2: ShoppingStage applies a shopping-list action to the active list.
// create_list with items and add_items produce a list-state summary;
// check_items does not.
type ShoppingStage struct{ svc *Service }

func (s *ShoppingStage) Name() string { return "shopping" }

func (s *ShoppingStage) Execute(ctx context.Context, state *TurnState) error {
	out := s.svc.extractor.Shopping(ctx, state.Message)
	s.svc.recordAudit(ctx, domain.PromptKindShopping, out)

	intent, ok := out.Result.(extraction.ShoppingIntent)
	if !ok {
		s.svc.logNoMatch(s.Name(), out)
		return nil
	}

	summary, err := s.svc.applyShopping(ctx, intent)
	if err != nil {
		s.svc.log.Warn().Err(err).Str("stage", s.Name()).Str("action", string(intent.Action)).Msg("failed to apply shopping action")
		return nil
	}
	state.ShoppingSummary = summary
	return nil
}

func (s *Service) applyShopping(ctx context.Context, intent extraction.ShoppingIntent) (string, error) {
	active, err := s.store.GetActiveList(ctx)
	if err != nil {
		return "", fmt.Errorf("applyShopping: loading active list: %w", err)
	}

	switch intent.Action {
	case extraction.ActionCreateList:
		list, err := s.store.CreateList(ctx, intent.ListName)
		if err != nil {
			return "", fmt.Errorf("applyShopping: creating list: %w", err)
		}
		if len(intent.Items) == 0 {
			return "", nil
		}
		return s.addAndSummarize(ctx, list.ID, intent.Items)

	case extraction.ActionAddItems:
		if len(intent.Items) == 0 {
			return "", nil
		}
		if active == nil {
			if active, err = s.store.CreateList(ctx, store.DefaultListName); err != nil {
				return "", fmt.Errorf("applyShopping: creating default list: %w", err)
			}
		}
		return s.addAndSummarize(ctx, active.ID, intent.Items)

	case extraction.ActionCheckItems:
		if len(intent.Items) == 0 || active == nil {
			return "", nil
		}
		checked, err := s.store.CheckItemsByNames(ctx, active.ID, intent.Items)
		if err != nil {
			return "", fmt.Errorf("applyShopping: checking items: %w", err)
		}
		s.log.Debug().Int64("list_id", active.ID).Int("checked", len(checked)).Msg("items checked")
		return "", nil
	}
	return "", nil
}

func (s *Service) addAndSummarize(ctx context.Context, listID int64, items []string) (string, error) {
	if _, err := s.store.AddItems(ctx, listID, items); err != nil {
		return "", fmt.Errorf("addAndSummarize: adding items: %w", err)
	}
	list, err := s.store.GetList(ctx, listID)
	if err != nil {
		return "", fmt.Errorf("addAndSummarize: reloading list: %w", err)
	}
	return reply.FormatListState(list.Name, list.Items), nil
}

// Stage 3: PriceStage records a product price report and compares it with
// other markets.
type PriceStage struct{ svc *Service }

func (s *PriceStage) Name() string { return "price" }

func (s *PriceStage) Execute(ctx context.Context, state *TurnState) error {
	out := s.svc.extractor.Price(ctx, state.Message)
	s.svc.recordAudit(ctx, domain.PromptKindProductPrice, out)

	report, ok := out.Result.(extraction.PriceReport)
	if !ok {
		s.svc.logNoMatch(s.Name(), out)
		return nil
	}

	if _, err := s.svc.store.InsertPrice(ctx, report.Product, report.Market, report.Price); err != nil {
		s.svc.log.Warn().Err(err).Str("stage", s.Name()).Msg("failed to record price")
		return nil
	}
	others, err := s.svc.store.OtherMarketPrices(ctx, report.Product, report.Market)
	if err != nil {
		s.svc.log.Warn().Err(err).Str("stage", s.Name()).Msg("failed to load other market prices")
		return nil
	}
	state.PriceReply = reply.PriceComparison(report.Product, report.Market, report.Price, others)
	return nil
}

// Stage 4: ContextStage gathers the financial snapshot and the chat history.
type ContextStage struct{ svc *Service }

func (s *ContextStage) Name() string { return "context" }

func (s *ContextStage) Execute(ctx context.Context, state *TurnState) error {
	accounts, err := s.svc.store.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("listing accounts: %w", err)
	}
	spending, err := s.svc.store.MonthlySpending(ctx, state.Now.Year(), int(state.Now.Month()))
	if err != nil {
		return fmt.Errorf("loading monthly spending: %w", err)
	}
	active, err := s.svc.store.GetActiveList(ctx)
	if err != nil {
		return fmt.Errorf("loading active list: %w", err)
	}
	history, err := s.svc.store.RecentChat(ctx, s.svc.historyLimit)
	if err != nil {
		return fmt.Errorf("loading chat history: %w", err)
	}

	state.Context = buildContext(accounts, spending, reply.FormatShoppingSummary(active))
	state.History = history
	return nil
}

// Stage 5: ReplyStage asks the generation service for the conversational
// reply. Failures become a classified user-visible message.
type ReplyStage struct{ svc *Service }

func (s *ReplyStage) Name() string { return "reply" }

func (s *ReplyStage) Execute(ctx context.Context, state *TurnState) error {
	if !llm.IsConfigured(s.svc.gen) {
		state.Generated = reply.NotConfiguredMessage
		return nil
	}

	prompt := buildChatPrompt(state.Context, state.History, state.Message)
	resp, err := s.svc.gen.Generate(ctx, prompt, llm.ChatTemperature)
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) {
			state.Generated = reply.NotConfiguredMessage
			return nil
		}
		state.Generated, state.ErrorKind = reply.ClassifyLLMError(err)
		s.svc.log.Warn().Err(err).Str("error_kind", string(state.ErrorKind)).Msg("chat reply failed")
		return nil
	}

	state.Generated = resp
	s.svc.recordAudit(ctx, domain.PromptKindChat, extraction.Outcome{
		Audit: extraction.Audit{Called: true, Prompt: prompt, Response: resp},
	})
	return nil
}

// Stage 6: ComposeStage prepends the shopping summary and price comparison.
type ComposeStage struct{}

func (s *ComposeStage) Name() string { return "compose" }

func (s *ComposeStage) Execute(_ context.Context, state *TurnState) error {
	state.Reply = reply.Compose(state.Generated, state.ShoppingSummary, state.PriceReply)
	return nil
}

// Stage 7: PersistStage appends the user message and the composed reply to
// the chat log.
type PersistStage struct{ svc *Service }

func (s *PersistStage) Name() string { return "persist" }

func (s *PersistStage) Execute(ctx context.Context, state *TurnState) error {
	if err := s.svc.store.AppendChatTurn(ctx, state.Message, state.Reply); err != nil {
		return fmt.Errorf("appending chat turn: %w", err)
	}
	return nil
}

package jobs

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dvloznov/diane/internal/domain"
)

// Mirror turns records produced by a chat turn into export jobs. A nil
// publisher or a disabled record kind drops the record. Records are enqueued
// without waiting, so a stalled export drops records instead of stalling the turn.
type Mirror struct {
	pub          Publisher
	log          zerolog.Logger
	promptLogs   bool
	transactions bool
}

// NewMirror creates a Mirror. promptLogs and transactions enable each kind.
func NewMirror(pub Publisher, log zerolog.Logger, promptLogs, transactions bool) *Mirror {
	return &Mirror{pub: pub, log: log, promptLogs: promptLogs, transactions: transactions}
}

// MirrorPromptLog enqueues a prompt-log export.
func (m *Mirror) MirrorPromptLog(ctx context.Context, l domain.PromptLog) {
	if m.pub == nil || !m.promptLogs {
		return
	}
	job := &ExportJob{Type: JobTypeMirrorPromptLog, PromptLog: &l}
	if err := m.pub.TryPublish(context.WithoutCancel(ctx), job); err != nil {
		m.log.Warn().Err(err).Int64("prompt_log_id", l.ID).Msg("failed to enqueue prompt log export")
	}
}

// MirrorTransaction enqueues a transaction export.
func (m *Mirror) MirrorTransaction(ctx context.Context, tx domain.Transaction) {
	if m.pub == nil || !m.transactions {
		return
	}
	job := &ExportJob{Type: JobTypeMirrorTransaction, Transaction: &tx}
	if err := m.pub.TryPublish(context.WithoutCancel(ctx), job); err != nil {
		m.log.Warn().Err(err).Int64("transaction_id", tx.ID).Msg("failed to enqueue transaction export")
	}
}

// Handlers are the export functions invoked by Route.
type Handlers struct {
	PromptLog   func(ctx context.Context, l domain.PromptLog) error
	Transaction func(ctx context.Context, tx domain.Transaction) error
}

// Route returns a JobHandler dispatching export jobs to h.
func Route(h Handlers) JobHandler {
	return func(ctx context.Context, export *ExportJob) error {
		switch export.Type {
		case JobTypeMirrorPromptLog:
			if h.PromptLog == nil || export.PromptLog == nil {
				return fmt.Errorf("no prompt log handler or payload for job %s", export.JobID)
			}
			return h.PromptLog(ctx, *export.PromptLog)
		case JobTypeMirrorTransaction:
			if h.Transaction == nil || export.Transaction == nil {
				return fmt.Errorf("no transaction handler or payload for job %s", export.JobID)
			}
			return h.Transaction(ctx, *export.Transaction)
		default:
			return fmt.Errorf("unknown job type %q", export.Type)
		}
	}
}

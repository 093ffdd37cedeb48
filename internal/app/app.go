// Package app wires configuration, storage, generation and exports into a
// ready conversation service for the executables.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dvloznov/diane/internal/chat"
	"github.com/dvloznov/diane/internal/config"
	"github.com/dvloznov/diane/internal/extraction"
	infraBQ "github.com/dvloznov/diane/internal/infra/bigquery"
	"github.com/dvloznov/diane/internal/jobs"
	"github.com/dvloznov/diane/internal/jobs/inmemory"
	"github.com/dvloznov/diane/internal/llm"
	"github.com/dvloznov/diane/internal/notionsync"
	"github.com/dvloznov/diane/internal/store"
)

const queueBufferSize = 100

// App holds the long-lived components of one process.
type App struct {
	Config    *config.Config
	Log       zerolog.Logger
	Store     *store.Store
	Generator llm.Generator
	Chat      *chat.Service
	Jobs      *inmemory.Store

	queue    *inmemory.Queue
	handlers jobs.Handlers
	closers  []func() error
}

// New opens the store and builds the chat service. Prompt-log and
// transaction exports are enabled by their configuration keys.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log}

	st, err := store.Open(ctx, cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("app.New: %w", err)
	}
	a.Store = st
	a.closers = append(a.closers, st.Close)

	gen, err := llm.New(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("app.New: %w", err)
	}
	if !llm.IsConfigured(gen) {
		log.Warn().Msg("GEMINI_API_KEY not set - chat replies and extraction are disabled")
	}
	a.Generator = gen

	if err := a.buildExporters(ctx); err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("app.New: %w", err)
	}

	opts := []chat.Option{
		chat.WithHistoryLimit(cfg.ChatHistoryLimit),
		chat.WithLogger(log),
	}
	if a.queue != nil {
		mirror := jobs.NewMirror(a.queue, log, a.handlers.PromptLog != nil, a.handlers.Transaction != nil)
		opts = append(opts, chat.WithMirror(mirror))
	}
	a.Chat = chat.NewService(st, extraction.New(gen), gen, opts...)

	return a, nil
}

func (a *App) buildExporters(ctx context.Context) error {
	a.Jobs = inmemory.NewStore()

	if a.Config.BigQueryEnabled() {
		repo, err := infraBQ.NewPromptLogRepository(ctx, a.Config.BigQuery.ProjectID, a.Config.BigQuery.DatasetID)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, repo.Close)
		a.handlers.PromptLog = repo.MirrorPromptLog
		a.Log.Info().Str("project", a.Config.BigQuery.ProjectID).Str("dataset", a.Config.BigQuery.DatasetID).Msg("Prompt log export to BigQuery enabled")
	}

	if a.Config.NotionEnabled() {
		client, err := notionsync.NewNotionClient(a.Config.Notion.Token)
		if err != nil {
			return err
		}
		a.handlers.Transaction = notionsync.NewSyncer(client, a.Config.Notion.DatabaseID).MirrorTransaction
		a.Log.Info().Msg("Transaction export to Notion enabled")
	}

	if a.handlers.PromptLog != nil || a.handlers.Transaction != nil {
		a.queue = inmemory.NewQueue(queueBufferSize, a.Jobs)
	}
	return nil
}

// StartExports starts the export workers. It is a no-op when no export is enabled.
func (a *App) StartExports(ctx context.Context) error {
	if a.queue == nil {
		return nil
	}
	a.Log.Info().Msg("Starting export workers")
	return a.queue.Start(ctx, jobs.Route(a.handlers))
}

// Close waits for queued exports, then releases every resource. ctx bounds
// the wait.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.queue != nil {
		if err := a.queue.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stopping export queue: %w", err))
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

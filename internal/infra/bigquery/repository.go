// Package bigquery mirrors the prompt-log audit trail into a BigQuery dataset.
package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/diane/internal/domain"
)

// PromptLogRepository is the mirror of prompt logs in BigQuery. It holds a
// shared client so each export does not open a new connection.
type PromptLogRepository struct {
	client    *bigquery.Client
	projectID string
	datasetID string
	now       func() time.Time
}

// NewPromptLogRepository creates a repository writing to projectID.datasetID.
func NewPromptLogRepository(ctx context.Context, projectID, datasetID string) (*PromptLogRepository, error) {
	if _, err := tableName(projectID, datasetID, promptLogsTable); err != nil {
		return nil, fmt.Errorf("NewPromptLogRepository: %w", err)
	}
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewPromptLogRepository: creating client: %w", err)
	}
	return &PromptLogRepository{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
		now:       time.Now,
	}, nil
}

// Close closes the BigQuery client connection.
func (r *PromptLogRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// MirrorPromptLog inserts one local prompt log.
func (r *PromptLogRepository) MirrorPromptLog(ctx context.Context, l domain.PromptLog) error {
	return InsertPromptLogWithClient(ctx, r.client, r.projectID, r.datasetID, NewPromptLogRow(l, r.now()))
}

// ApplyMigrations runs pending warehouse migrations against the repository's dataset.
func (r *PromptLogRepository) ApplyMigrations(ctx context.Context, appliedBy string) (int, error) {
	return ApplyMigrationsWithClient(ctx, r.client, r.projectID, r.datasetID, appliedBy)
}

// CountPromptLogsByKind delegates to CountPromptLogsByKindWithClient with the shared client.
func (r *PromptLogRepository) CountPromptLogsByKind(ctx context.Context, since time.Time) ([]KindCount, error) {
	return CountPromptLogsByKindWithClient(ctx, r.client, r.projectID, r.datasetID, since)
}

package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"

	"github.com/dvloznov/diane/internal/domain"
)

const promptLogsTable = "prompt_logs"

// PromptLogRow is one generation call as stored in <dataset>.prompt_logs.
type PromptLogRow struct {
	RowID    string `bigquery:"row_id"`    // REQUIRED
	SourceID int64  `bigquery:"source_id"` // REQUIRED, id in the local database
	Kind     string `bigquery:"kind"`      // REQUIRED

	PromptText   string              `bigquery:"prompt_text"`   // REQUIRED
	ResponseText bigquery.NullString `bigquery:"response_text"` // NULLABLE
	ModelName    string              `bigquery:"model_name"`    // REQUIRED

	CreatedTS  bigquery.NullTimestamp `bigquery:"created_ts"`  // REQUIRED
	MirroredTS bigquery.NullTimestamp `bigquery:"mirrored_ts"` // REQUIRED
}

// NewPromptLogRow maps a local prompt log to a row with a fresh row_id.
func NewPromptLogRow(l domain.PromptLog, mirroredAt time.Time) *PromptLogRow {
	row := &PromptLogRow{
		RowID:      uuid.New().String(),
		SourceID:   l.ID,
		Kind:       string(l.Kind),
		PromptText: l.PromptText,
		ModelName:  l.Model,
		MirroredTS: bigquery.NullTimestamp{Timestamp: mirroredAt.UTC(), Valid: true},
	}
	if l.ResponseText != "" {
		row.ResponseText = bigquery.NullString{StringVal: l.ResponseText, Valid: true}
	}
	if !l.CreatedAt.IsZero() {
		row.CreatedTS = bigquery.NullTimestamp{Timestamp: l.CreatedAt.UTC(), Valid: true}
	} else {
		row.CreatedTS = row.MirroredTS
	}
	return row
}

// KindCount is the number of mirrored prompt logs of one kind.
type KindCount struct {
	Kind  string `bigquery:"kind"`
	Count int64  `bigquery:"count"`
}

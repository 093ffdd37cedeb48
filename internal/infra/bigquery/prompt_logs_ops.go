package bigquery

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// tableName returns the backquoted, fully qualified name of a table.
func tableName(projectID, datasetID, table string) (string, error) {
	if !identifierPattern.MatchString(projectID) || !identifierPattern.MatchString(datasetID) {
		return "", fmt.Errorf("invalid project %q or dataset %q", projectID, datasetID)
	}
	return "`" + projectID + "." + datasetID + "." + table + "`", nil
}

// InsertPromptLogWithClient inserts a single PromptLogRow into <dataset>.prompt_logs
// using the provided BigQuery client. Uses DML INSERT to avoid streaming buffer issues.
func InsertPromptLogWithClient(ctx context.Context, client *bigquery.Client, projectID, datasetID string, row *PromptLogRow) error {
	table, err := tableName(projectID, datasetID, promptLogsTable)
	if err != nil {
		return fmt.Errorf("InsertPromptLog: %w", err)
	}

	q := client.Query(`
		INSERT INTO ` + table + ` (
			row_id, source_id, kind,
			prompt_text, response_text, model_name,
			created_ts, mirrored_ts
		)
		VALUES (
			@row_id, @source_id, @kind,
			@prompt_text, @response_text, @model_name,
			@created_ts, @mirrored_ts
		)
	`)

	q.Parameters = []bigquery.QueryParameter{
		{Name: "row_id", Value: row.RowID},
		{Name: "source_id", Value: row.SourceID},
		{Name: "kind", Value: row.Kind},
		{Name: "prompt_text", Value: row.PromptText},
		{Name: "response_text", Value: row.ResponseText},
		{Name: "model_name", Value: row.ModelName},
		{Name: "created_ts", Value: row.CreatedTS},
		{Name: "mirrored_ts", Value: row.MirroredTS},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("InsertPromptLog: running insert query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("InsertPromptLog: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("InsertPromptLog: job error: %w", err)
	}

	return nil
}

// CountPromptLogsByKindWithClient counts mirrored prompt logs created at or
// after since, grouped by kind, most frequent first.
func CountPromptLogsByKindWithClient(ctx context.Context, client *bigquery.Client, projectID, datasetID string, since time.Time) ([]KindCount, error) {
	table, err := tableName(projectID, datasetID, promptLogsTable)
	if err != nil {
		return nil, fmt.Errorf("CountPromptLogsByKind: %w", err)
	}

	q := client.Query(`
		SELECT kind, COUNT(*) AS count
		FROM ` + table + `
		WHERE created_ts >= @since
		GROUP BY kind
		ORDER BY count DESC, kind
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "since", Value: since.UTC()},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("CountPromptLogsByKind: query.Read: %w", err)
	}

	var counts []KindCount
	for {
		var c KindCount
		err := it.Next(&c)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("CountPromptLogsByKind: iterating rows: %w", err)
		}
		counts = append(counts, c)
	}

	return counts, nil
}

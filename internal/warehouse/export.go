package warehouse

import (
	"context"
	"fmt"
	"log/slog"

	bq "google.golang.org/api/bigquery/v2"

	apperrors "github.com/ayyoubmarroun/pykemen/internal/errors"
	"github.com/ayyoubmarroun/pykemen/internal/exporter"
)

// SaveQueryToCSV runs query and writes every result row to filename. The
// header row comes from the result schema unless header overrides it.
// It returns the number of data rows written.
func (c *Client) SaveQueryToCSV(ctx context.Context, filename, project, query string, header []string, delimiter rune, legacy bool) (int, error) {
	project = c.projectOr(project)

	job, err := c.runQuery(ctx, project, query, nil, legacy)
	if err != nil {
		return 0, err
	}
	ref := job.JobReference

	var sw *exporter.StreamWriter
	rows := 0
	pageToken := ""

	for {
		call := c.service.Jobs.GetQueryResults(ref.ProjectId, ref.JobId).Context(ctx)
		if ref.Location != "" {
			call = call.Location(ref.Location)
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			if sw != nil {
				sw.Abort()
			}
			return 0, err
		}

		if sw == nil {
			columns, err := headerFor(resp.Schema, header)
			if err != nil {
				return 0, err
			}
			sw, err = c.writer.CreateStreamWriter(filename, columns, delimiter, false)
			if err != nil {
				return 0, apperrors.NewStorageError("failed to create export file", err).WithContext("file", filename)
			}
		}

		for _, row := range resp.Rows {
			if err := sw.WriteRecord(cells(row)); err != nil {
				sw.Abort()
				return 0, apperrors.NewStorageError("failed to write export row", err).WithContext("file", filename)
			}
			rows++
		}

		pageToken = resp.PageToken
		if pageToken == "" {
			break
		}
	}

	if err := sw.Close(); err != nil {
		return 0, apperrors.NewStorageError("failed to finish export file", err).WithContext("file", filename)
	}

	c.logger.InfoContext(ctx, "query exported",
		slog.String("file", filename),
		slog.String("job_id", ref.JobId),
		slog.Int("rows", rows))
	return rows, nil
}

func headerFor(schema *bq.TableSchema, override []string) ([]string, error) {
	var names []string
	if schema != nil {
		for _, f := range schema.Fields {
			names = append(names, f.Name)
		}
	}
	if len(override) == 0 {
		return names, nil
	}
	if len(names) > 0 && len(override) != len(names) {
		return nil, apperrors.InvalidField("header",
			fmt.Sprintf("has %d columns, query returns %d", len(override), len(names)))
	}
	return override, nil
}

// cells renders a result row as text. NULL becomes an empty cell.
func cells(row *bq.TableRow) []string {
	out := make([]string, len(row.F))
	for i, cell := range row.F {
		if cell == nil || cell.V == nil {
			continue
		}
		if s, ok := cell.V.(string); ok {
			out[i] = s
		} else {
			out[i] = fmt.Sprint(cell.V)
		}
	}
	return out
}

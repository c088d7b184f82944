package warehouse

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	bq "google.golang.org/api/bigquery/v2"
	"google.golang.org/api/googleapi"

	apperrors "github.com/ayyoubmarroun/pykemen/internal/errors"
)

const dayMillis = 24 * 60 * 60 * 1000

func tableRef(project, dataset, table string) *bq.TableReference {
	return &bq.TableReference{ProjectId: project, DatasetId: dataset, TableId: table}
}

// CreateTable stores the result of query in table, creating it when missing
// and replacing its contents otherwise.
func (c *Client) CreateTable(ctx context.Context, project, dataset, table, query string, legacy bool) error {
	return c.queryInto(ctx, project, dataset, table, query, CreateIfNeeded, WriteTruncate, legacy)
}

// OverwriteTable replaces the contents of an existing table with the result of query
func (c *Client) OverwriteTable(ctx context.Context, project, dataset, table, query string, legacy bool) error {
	return c.queryInto(ctx, project, dataset, table, query, CreateNever, WriteTruncate, legacy)
}

// AppendTable appends the result of query to an existing table
func (c *Client) AppendTable(ctx context.Context, project, dataset, table, query string, legacy bool) error {
	return c.queryInto(ctx, project, dataset, table, query, CreateNever, WriteAppend, legacy)
}

func (c *Client) queryInto(ctx context.Context, project, dataset, table, query, create, write string, legacy bool) error {
	project = c.projectOr(project)
	_, err := c.runQuery(ctx, project, query, &destination{
		table:             tableRef(project, dataset, table),
		createDisposition: create,
		writeDisposition:  write,
	}, legacy)
	return err
}

// CreateEmptyTable creates table with schema. When partitionField is set the
// table is partitioned by day on that field, and a positive expirationDays
// sets the partition expiration.
func (c *Client) CreateEmptyTable(ctx context.Context, project, dataset, table string, schema []*bq.TableFieldSchema, partitionField string, expirationDays int) (*bq.Table, error) {
	if len(schema) == 0 {
		return nil, apperrors.InvalidField("schema", "must have at least one field")
	}
	project = c.projectOr(project)

	t := &bq.Table{
		TableReference: tableRef(project, dataset, table),
		Schema:         &bq.TableSchema{Fields: schema},
	}
	if partitionField != "" {
		t.TimePartitioning = &bq.TimePartitioning{Type: "DAY", Field: partitionField}
		if expirationDays > 0 {
			t.TimePartitioning.ExpirationMs = int64(expirationDays) * dayMillis
		}
	}

	created, err := c.service.Tables.Insert(project, dataset, t).Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "table created",
		slog.String("project", project),
		slog.String("dataset", dataset),
		slog.String("table", table),
		slog.Int("fields", len(schema)))
	return created, nil
}

// DeleteTable removes a table
func (c *Client) DeleteTable(ctx context.Context, project, dataset, table string) error {
	project = c.projectOr(project)
	if err := c.service.Tables.Delete(project, dataset, table).Context(ctx).Do(); err != nil {
		return err
	}
	c.logger.InfoContext(ctx, "table deleted",
		slog.String("project", project),
		slog.String("dataset", dataset),
		slog.String("table", table))
	return nil
}

// IsTableCreated reports whether table exists. A not-found response is not
// an error.
func (c *Client) IsTableCreated(ctx context.Context, project, dataset, table string) (bool, error) {
	_, err := c.TableProperties(ctx, project, dataset, table)
	if err != nil {
		if hasStatus(err, http.StatusNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// TableProperties returns the table resource
func (c *Client) TableProperties(ctx context.Context, project, dataset, table string) (*bq.Table, error) {
	return c.service.Tables.Get(c.projectOr(project), dataset, table).Context(ctx).Do()
}

// CreateDataset creates dataset in location. A dataset that already exists
// counts as success.
func (c *Client) CreateDataset(ctx context.Context, project, dataset, location string) error {
	project = c.projectOr(project)
	if location == "" {
		location = c.location
	}

	_, err := c.service.Datasets.Insert(project, &bq.Dataset{
		DatasetReference: &bq.DatasetReference{ProjectId: project, DatasetId: dataset},
		Location:         location,
	}).Context(ctx).Do()
	if err != nil {
		if hasStatus(err, http.StatusConflict) {
			c.logger.DebugContext(ctx, "dataset already exists", slog.String("dataset", dataset))
			return nil
		}
		return err
	}

	c.logger.InfoContext(ctx, "dataset created",
		slog.String("project", project),
		slog.String("dataset", dataset),
		slog.String("location", location))
	return nil
}

func hasStatus(err error, code int) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == code
}

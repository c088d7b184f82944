package report

import (
	"context"

	apperrors "github.com/ayyoubmarroun/pykemen/internal/errors"
	"github.com/ayyoubmarroun/pykemen/internal/exporter"
	"github.com/ayyoubmarroun/pykemen/pkg/contracts/domain"
)

// Report is the outcome of a Fetch. It keeps the spec and cache location so
// the table can be re-read later without contacting the reporting service.
type Report struct {
	Spec domain.ReportSpec
	Key  string
	Dir  string
	// Result is the table assembled by Fetch
	Result *domain.Table
	// Sampled is set when any response fetched by this call held sampled data
	Sampled bool
	// Fetched lists the cache file names fetched from the service by this call
	Fetched []string

	cache *Cache
}

// Table returns the report data. With caching enabled it is re-read from
// disk; otherwise the table captured at fetch time is returned.
func (r *Report) Table(ctx context.Context) (*domain.Table, error) {
	if !r.Spec.Cache {
		return r.Result, nil
	}
	return r.cache.Read(ctx, r.Spec)
}

// WriteCSV exports the report table to path
func (r *Report) WriteCSV(ctx context.Context, path string) error {
	table, err := r.Table(ctx)
	if err != nil {
		return err
	}

	if err := r.cache.writer.WriteCSV(path, exporter.WriteOptions{
		Headers: table.Columns(),
		Records: table.Records(),
	}); err != nil {
		return apperrors.NewStorageError("failed to export report", err).WithContext("file", path)
	}
	return nil
}

// WriteXLSX exports the report table to a workbook with a single sheet
func (r *Report) WriteXLSX(ctx context.Context, path, sheet string) error {
	table, err := r.Table(ctx)
	if err != nil {
		return err
	}

	if err := exporter.WriteXLSX(path, sheet, table.Columns(), table.Values()); err != nil {
		return apperrors.NewStorageError("failed to export report", err).WithContext("file", path)
	}
	return nil
}

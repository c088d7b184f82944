package report

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/ayyoubmarroun/pykemen/pkg/contracts/domain"
)

// Querier issues one request against the reporting service
type Querier interface {
	Query(ctx context.Context, q domain.Query) (*domain.Page, error)
}

// QuerierFunc adapts a function to Querier
type QuerierFunc func(ctx context.Context, q domain.Query) (*domain.Page, error)

// Query calls f
func (f QuerierFunc) Query(ctx context.Context, q domain.Query) (*domain.Page, error) {
	return f(ctx, q)
}

// fetchAll requests every page of spec for [start, end], advancing
// start_index by the page size until a page comes back without a next link.
// Rows are concatenated in request order. Querier errors are returned as is.
func (c *Cache) fetchAll(ctx context.Context, spec domain.ReportSpec, start, end string) ([][]string, bool, error) {
	maxResults := spec.MaxResults
	if maxResults <= 0 {
		maxResults = c.maxResults
	}

	var rows [][]string
	sampled := false

	for iteration := 0; ; iteration++ {
		if err := c.pacer.Wait(ctx); err != nil {
			return nil, false, err
		}

		q := spec.Query(start, end, maxResults, 1+maxResults*iteration)
		c.metrics.Requests.Add(ctx, 1)

		page, err := c.querier.Query(ctx, q)
		if err != nil {
			return nil, false, err
		}
		if page == nil {
			break
		}

		sampled = sampled || page.ContainsSampledData
		rows = append(rows, page.Rows...)

		if page.NextLink == "" {
			break
		}
	}

	if sampled {
		c.metrics.SampledResponses.Add(ctx, 1, metric.WithAttributes(attribute.String("profile", ProfileID(spec.IDs))))
		c.logger.WarnContext(ctx, "report contains sampled data",
			slog.String("ids", spec.IDs),
			slog.Any("dimensions", spec.Dimensions),
			slog.Any("metrics", spec.Metrics),
			slog.String("start_date", start),
			slog.String("end_date", end))
	}

	return rows, sampled, nil
}

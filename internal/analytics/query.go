package analytics

import (
	"context"
	"log/slog"

	"github.com/ayyoubmarroun/pykemen/pkg/contracts/domain"
)

// Query fetches one page of a Core Reporting request. Empty optional fields
// are not sent.
func (c *Client) Query(ctx context.Context, q domain.Query) (*domain.Page, error) {
	call := c.service.Data.Ga.Get(q.IDs, q.StartDate, q.EndDate, q.Metrics).Context(ctx)
	if q.Dimensions != "" {
		call = call.Dimensions(q.Dimensions)
	}
	if q.Filters != "" {
		call = call.Filters(q.Filters)
	}
	if q.Segments != "" {
		call = call.Segment(q.Segments)
	}
	if q.Sort != "" {
		call = call.Sort(q.Sort)
	}
	if q.MaxResults > 0 {
		call = call.MaxResults(int64(q.MaxResults))
	}
	if q.StartIndex > 0 {
		call = call.StartIndex(int64(q.StartIndex))
	}

	data, err := call.Do()
	if err != nil {
		c.logger.ErrorContext(ctx, "report query failed",
			slog.String("ids", q.IDs),
			slog.String("start_date", q.StartDate),
			slog.String("end_date", q.EndDate),
			slog.Int("start_index", q.StartIndex),
			slog.String("error", err.Error()))
		return nil, err
	}

	c.logger.DebugContext(ctx, "report page received",
		slog.String("ids", q.IDs),
		slog.Int("start_index", q.StartIndex),
		slog.Int("rows", len(data.Rows)),
		slog.Bool("has_next", data.NextLink != ""))

	return &domain.Page{
		Rows:                data.Rows,
		NextLink:            data.NextLink,
		ContainsSampledData: data.ContainsSampledData,
	}, nil
}

package analytics

import (
	"context"
	"fmt"
	"log/slog"

	ga "google.golang.org/api/analytics/v3"
	"google.golang.org/api/option"

	"github.com/ayyoubmarroun/pykemen/internal/config"
	"github.com/ayyoubmarroun/pykemen/internal/infrastructure"
	"github.com/ayyoubmarroun/pykemen/internal/report"
	"github.com/ayyoubmarroun/pykemen/internal/throttle"
)

var _ report.Querier = (*Client)(nil)

// Client wraps an Analytics v3 service
type Client struct {
	service *ga.Service
	poller  *throttle.Poller
	logger  *slog.Logger
	metrics *infrastructure.ReportMetrics
}

// NewClient creates the Analytics service with opts and wraps it.
// Authentication comes from opts, typically option.WithHTTPClient with a
// client from the auth package.
func NewClient(ctx context.Context, cfg config.AnalyticsConfig, logger *slog.Logger, opts ...option.ClientOption) (*Client, error) {
	service, err := ga.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create analytics service: %w", err)
	}
	return NewClientFromService(service, cfg, logger), nil
}

// NewClientFromService wraps an existing service
func NewClientFromService(service *ga.Service, cfg config.AnalyticsConfig, logger *slog.Logger) *Client {
	return &Client{
		service: service,
		poller:  throttle.NewPoller(cfg.UploadPollInterval),
		logger:  infrastructure.WithComponent(logger, "analytics"),
		metrics: infrastructure.NoopReportMetrics(),
	}
}

// SetMetrics sets the metric instruments used for upload polling
func (c *Client) SetMetrics(metrics *infrastructure.ReportMetrics) {
	if metrics != nil {
		c.metrics = metrics
	}
}

// SetPoller replaces the poller used while waiting for uploads
func (c *Client) SetPoller(poller *throttle.Poller) {
	if poller != nil {
		c.poller = poller
	}
}

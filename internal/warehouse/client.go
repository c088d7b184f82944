package warehouse

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
	bq "google.golang.org/api/bigquery/v2"
	"google.golang.org/api/option"

	"github.com/ayyoubmarroun/pykemen/internal/config"
	"github.com/ayyoubmarroun/pykemen/internal/exporter"
	"github.com/ayyoubmarroun/pykemen/internal/infrastructure"
	"github.com/ayyoubmarroun/pykemen/internal/throttle"
)

// Client wraps a BigQuery v2 service
type Client struct {
	service  *bq.Service
	project  string
	location string
	poller   *throttle.Poller
	writer   *exporter.CSVWriter
	logger   *slog.Logger
	metrics  *infrastructure.ReportMetrics
	tracer   trace.Tracer
}

// NewClient creates the BigQuery service with opts and wraps it
func NewClient(ctx context.Context, cfg config.WarehouseConfig, logger *slog.Logger, opts ...option.ClientOption) (*Client, error) {
	service, err := bq.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bigquery service: %w", err)
	}
	return NewClientFromService(service, cfg, logger), nil
}

// NewClientFromService wraps an existing service
func NewClientFromService(service *bq.Service, cfg config.WarehouseConfig, logger *slog.Logger) *Client {
	logger = infrastructure.WithComponent(logger, "warehouse")
	return &Client{
		service:  service,
		project:  cfg.ProjectID,
		location: cfg.Location,
		poller:   throttle.NewPoller(cfg.PollInterval),
		writer:   exporter.NewCSVWriter(logger),
		logger:   logger,
		metrics:  infrastructure.NoopReportMetrics(),
		tracer:   infrastructure.Tracer(),
	}
}

// SetMetrics sets the metric instruments used for job polling
func (c *Client) SetMetrics(metrics *infrastructure.ReportMetrics) {
	if metrics != nil {
		c.metrics = metrics
	}
}

// SetPoller replaces the poller used while waiting for jobs
func (c *Client) SetPoller(poller *throttle.Poller) {
	if poller != nil {
		c.poller = poller
	}
}

// projectOr returns project, or the configured project when empty
func (c *Client) projectOr(project string) string {
	if project == "" {
		return c.project
	}
	return project
}

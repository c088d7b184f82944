// Package pykemen fetches Google Analytics reports through an on-disk cache
// and wraps the BigQuery, Gmail and Analytics management APIs.
//
// A Runtime owns the process logger and telemetry providers and builds the
// individual clients:
//
//	rt, err := pykemen.New(nil)
//	if err != nil {
//		return err
//	}
//	defer rt.Shutdown(ctx)
//
//	ga, err := rt.NewAnalytics(ctx)
//	if err != nil {
//		return err
//	}
//	report, err := rt.NewReportCache(ga).Fetch(ctx, pykemen.ReportSpec{...})
package pykemen

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"google.golang.org/api/option"

	"github.com/ayyoubmarroun/pykemen/internal/analytics"
	"github.com/ayyoubmarroun/pykemen/internal/auth"
	"github.com/ayyoubmarroun/pykemen/internal/config"
	"github.com/ayyoubmarroun/pykemen/internal/infrastructure"
	"github.com/ayyoubmarroun/pykemen/internal/mail"
	"github.com/ayyoubmarroun/pykemen/internal/report"
	"github.com/ayyoubmarroun/pykemen/internal/warehouse"
	"github.com/ayyoubmarroun/pykemen/pkg/contracts/domain"
)

// Public names for the types returned by Runtime
type (
	Config          = config.Config
	ReportSpec      = domain.ReportSpec
	Table           = domain.Table
	Report          = report.Report
	ReportCache     = report.Cache
	Querier         = report.Querier
	AnalyticsClient = analytics.Client
	WarehouseClient = warehouse.Client
	MailSender      = mail.Sender
	Prompter        = auth.Prompter
)

// LoadConfig reads configuration from the environment and config.yaml
func LoadConfig() (*Config, error) {
	return config.Load()
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return config.Default()
}

// Runtime holds the shared logger, telemetry and configuration
type Runtime struct {
	Config    *Config
	Logger    *slog.Logger
	Telemetry *infrastructure.OTelProviders
	Metrics   *infrastructure.ReportMetrics

	prompter auth.Prompter
}

// New initializes logging and telemetry for cfg. A nil cfg uses DefaultConfig.
func New(cfg *Config) (*Runtime, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, err
	}

	metrics, err := infrastructure.NewReportMetrics(providers.Meter)
	if err != nil {
		return nil, errors.Join(err, providers.Shutdown(context.Background()))
	}

	logger.Info("pykemen initialized",
		slog.String("version", config.AppVersion),
		slog.String("cache_dir", cfg.Cache.Dir),
		slog.Bool("telemetry", cfg.Telemetry.Enabled))

	return &Runtime{
		Config:    cfg,
		Logger:    logger,
		Telemetry: providers,
		Metrics:   metrics,
	}, nil
}

// SetPrompter sets the prompter used when no user token is stored yet
func (r *Runtime) SetPrompter(p Prompter) {
	r.prompter = p
}

// NewReportCache creates a report cache backed by q
func (r *Runtime) NewReportCache(q Querier) *ReportCache {
	return report.NewCache(q, r.Config,
		report.WithLogger(r.Logger),
		report.WithMetrics(r.Metrics),
		report.WithTracer(r.Telemetry.Tracer))
}

// NewAnalytics creates an authorized Analytics client
func (r *Runtime) NewAnalytics(ctx context.Context) (*AnalyticsClient, error) {
	hc, err := r.httpClient(ctx, config.AnalyticsScopes)
	if err != nil {
		return nil, err
	}
	client, err := analytics.NewClient(ctx, r.Config.Analytics, r.Logger, option.WithHTTPClient(hc))
	if err != nil {
		return nil, err
	}
	client.SetMetrics(r.Metrics)
	return client, nil
}

// NewWarehouse creates an authorized BigQuery client
func (r *Runtime) NewWarehouse(ctx context.Context) (*WarehouseClient, error) {
	hc, err := r.httpClient(ctx, config.WarehouseScopes)
	if err != nil {
		return nil, err
	}
	client, err := warehouse.NewClient(ctx, r.Config.Warehouse, r.Logger, option.WithHTTPClient(hc))
	if err != nil {
		return nil, err
	}
	client.SetMetrics(r.Metrics)
	return client, nil
}

// NewMailer creates an authorized Gmail sender
func (r *Runtime) NewMailer(ctx context.Context) (*MailSender, error) {
	hc, err := r.httpClient(ctx, config.MailScopes)
	if err != nil {
		return nil, err
	}
	return mail.NewSender(ctx, r.Config.Mail, r.Logger, option.WithHTTPClient(hc))
}

func (r *Runtime) httpClient(ctx context.Context, scopes []string) (*http.Client, error) {
	return auth.NewHTTPClient(ctx, r.Config.Auth, scopes, r.prompter, r.Logger)
}

// MetricsHandler serves the Prometheus metrics, or nil when the Prometheus
// exporter is not enabled.
func (r *Runtime) MetricsHandler() http.Handler {
	return r.Telemetry.PrometheusHTTP
}

// Shutdown flushes telemetry and closes the log file
func (r *Runtime) Shutdown(ctx context.Context) error {
	return errors.Join(r.Telemetry.Shutdown(ctx), infrastructure.CloseLogFile())
}

package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	apperrors "github.com/ayyoubmarroun/pykemen/internal/errors"
)

// ReportMetrics holds the instruments recorded by the report cache and the
// service collaborators.
type ReportMetrics struct {
	CacheHits        metric.Int64Counter
	CacheMisses      metric.Int64Counter
	Requests         metric.Int64Counter
	SampledResponses metric.Int64Counter
	FetchDuration    metric.Float64Histogram
	JobPolls         metric.Int64Counter
	FilesPurged      metric.Int64Counter
}

// NewReportMetrics creates the report instruments on meter.
// A nil meter yields no-op instruments.
func NewReportMetrics(meter metric.Meter) (*ReportMetrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(MeterName)
	}

	cacheHits, err := meter.Int64Counter(
		"report_cache_hits_total",
		metric.WithDescription("Cache files reused instead of fetched"),
	)
	if err != nil {
		return nil, err
	}

	cacheMisses, err := meter.Int64Counter(
		"report_cache_misses_total",
		metric.WithDescription("Cache files missing and fetched from the reporting service"),
	)
	if err != nil {
		return nil, err
	}

	requests, err := meter.Int64Counter(
		"report_requests_total",
		metric.WithDescription("Paginated requests issued to the reporting service"),
	)
	if err != nil {
		return nil, err
	}

	sampled, err := meter.Int64Counter(
		"report_sampled_responses_total",
		metric.WithDescription("Responses flagged as containing sampled data"),
	)
	if err != nil {
		return nil, err
	}

	fetchDuration, err := meter.Float64Histogram(
		"report_fetch_duration_seconds",
		metric.WithDescription("Report fetch duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	jobPolls, err := meter.Int64Counter(
		"job_polls_total",
		metric.WithDescription("Status polls of asynchronous jobs"),
	)
	if err != nil {
		return nil, err
	}

	purged, err := meter.Int64Counter(
		"report_cache_files_purged_total",
		metric.WithDescription("Per-day cache files removed by purge"),
	)
	if err != nil {
		return nil, err
	}

	return &ReportMetrics{
		CacheHits:        cacheHits,
		CacheMisses:      cacheMisses,
		Requests:         requests,
		SampledResponses: sampled,
		FetchDuration:    fetchDuration,
		JobPolls:         jobPolls,
		FilesPurged:      purged,
	}, nil
}

// NoopReportMetrics returns instruments that record nothing
func NoopReportMetrics() *ReportMetrics {
	m, _ := NewReportMetrics(nil)
	return m
}

// RecordFetch records the outcome of one report fetch. Failures carry the
// error type of err.
func (m *ReportMetrics) RecordFetch(ctx context.Context, mode string, duration time.Duration, err error) {
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{attribute.String("mode", mode)}
	if err != nil {
		attrs = append(attrs,
			attribute.String("status", "failure"),
			attribute.String("error_type", string(apperrors.TypeOf(err))))
	} else {
		attrs = append(attrs, attribute.String("status", "success"))
	}
	m.FetchDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

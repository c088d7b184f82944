package report

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/ayyoubmarroun/pykemen/internal/config"
	apperrors "github.com/ayyoubmarroun/pykemen/internal/errors"
	"github.com/ayyoubmarroun/pykemen/internal/exporter"
	"github.com/ayyoubmarroun/pykemen/internal/files"
	"github.com/ayyoubmarroun/pykemen/internal/infrastructure"
	"github.com/ayyoubmarroun/pykemen/internal/throttle"
	"github.com/ayyoubmarroun/pykemen/pkg/contracts/domain"
)

// Cache fetches reports through a Querier and keeps them on disk
type Cache struct {
	querier    Querier
	maxResults int
	maxAgeDays int
	pacer      throttle.Pacer
	files      *files.Manager
	discovery  *files.Discovery
	writer     *exporter.CSVWriter
	logger     *slog.Logger
	metrics    *infrastructure.ReportMetrics
	tracer     trace.Tracer
	now        func() time.Time
}

// Option customizes a Cache
type Option func(*Cache)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// WithMetrics sets the metric instruments
func WithMetrics(metrics *infrastructure.ReportMetrics) Option {
	return func(c *Cache) { c.metrics = metrics }
}

// WithPacer replaces the request pacer
func WithPacer(pacer throttle.Pacer) Option {
	return func(c *Cache) { c.pacer = pacer }
}

// WithClock replaces the clock used by Purge
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithTracer sets the tracer
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Cache) { c.tracer = tracer }
}

// NewCache creates a report cache rooted at cfg.Cache.Dir. A nil cfg uses
// config.Default().
func NewCache(querier Querier, cfg *config.Config, opts ...Option) *Cache {
	if cfg == nil {
		cfg = config.Default()
	}

	c := &Cache{
		querier:    querier,
		maxResults: cfg.Analytics.MaxResults,
		maxAgeDays: cfg.Cache.MaxAgeDays,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.logger = infrastructure.WithComponent(c.logger, "report_cache")
	if c.metrics == nil {
		c.metrics = infrastructure.NoopReportMetrics()
	}
	if c.pacer == nil {
		c.pacer = throttle.NewRateLimiter(cfg.Analytics.RequestInterval, c.logger)
	}
	if c.tracer == nil {
		c.tracer = infrastructure.Tracer()
	}
	if c.maxResults <= 0 {
		c.maxResults = config.Default().Analytics.MaxResults
	}

	c.files = files.NewManager(cfg.Cache.Dir, c.logger)
	c.discovery = files.NewDiscovery(cfg.Cache.Dir)
	c.writer = exporter.NewCSVWriter(c.logger)

	return c
}

// Dir returns the cache directory of spec
func (c *Cache) Dir(spec domain.ReportSpec) string {
	return c.files.Path(relDir(spec))
}

// relDir is the cache directory of spec relative to the cache root
func relDir(spec domain.ReportSpec) string {
	return filepath.Join(ProfileID(spec.IDs), CacheKey(spec))
}

// Fetch resolves spec from the cache and the reporting service and returns
// the reassembled report. With spec.Cache unset the cache directory is never
// touched; only data fetched by this call contributes to the result.
func (c *Cache) Fetch(ctx context.Context, spec domain.ReportSpec) (report *Report, err error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	mode := modeOf(spec)

	ctx, span := c.tracer.Start(ctx, "report.Fetch", trace.WithAttributes(
		attribute.String("report.ids", spec.IDs),
		attribute.String("report.mode", mode),
		attribute.Bool("report.cache", spec.Cache),
	))
	defer span.End()

	started := time.Now()
	defer func() {
		c.metrics.RecordFetch(ctx, mode, time.Since(started), err)
		if err != nil {
			infrastructure.RecordError(ctx, err)
		}
	}()

	start, end, err := ValidateSpec(spec)
	if err != nil {
		return nil, err
	}

	report = &Report{
		Spec:  spec,
		Key:   CacheKey(spec),
		Dir:   c.Dir(spec),
		cache: c,
	}

	if spec.Cache {
		if err := c.files.EnsureDirectory(relDir(spec)); err != nil {
			return nil, apperrors.NewStorageError("failed to create cache directory", err).
				WithContext("dir", report.Dir)
		}
	}

	var fresh [][]string
	if spec.Unsampled {
		fresh, err = c.resolveDays(ctx, report, start, end)
	} else {
		fresh, err = c.resolveRange(ctx, report)
	}
	if err != nil {
		return nil, err
	}

	if spec.Cache {
		report.Result, err = c.Read(ctx, spec)
		if err != nil {
			return nil, err
		}
	} else {
		report.Result, err = aggregate(spec.Dimensions, spec.Metrics, fresh)
		if err != nil {
			return nil, err
		}
		sortTable(report.Result, spec.Sort)
	}

	c.logger.InfoContext(ctx, "report fetched",
		slog.String("ids", spec.IDs),
		slog.String("key", report.Key),
		slog.String("mode", mode),
		slog.Int("fetched", len(report.Fetched)),
		slog.Int("rows", report.Result.Len()),
		slog.Bool("sampled", report.Sampled))

	return report, nil
}

// resolveRange fetches the whole range in one paginated request unless the
// exact range file is already cached. It returns the rows fetched by this call.
func (c *Cache) resolveRange(ctx context.Context, report *Report) ([][]string, error) {
	spec := report.Spec
	name := rangeFileName(spec.StartDate, spec.EndDate)
	return c.resolve(ctx, report, name, spec.StartDate, spec.EndDate)
}

// resolveDays resolves every day of [start, end] independently. Cached days
// are skipped; missing days are fetched and, with caching on, written to their
// own file.
func (c *Cache) resolveDays(ctx context.Context, report *Report, start, end time.Time) ([][]string, error) {
	var fresh [][]string

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		date := day.Format(domain.DateLayout)

		dayCtx, span := c.tracer.Start(ctx, "report.resolveDay",
			trace.WithAttributes(attribute.String("report.date", date)))
		rows, err := c.resolve(dayCtx, report, dayFileName(date), date, date)
		if err != nil {
			infrastructure.RecordError(dayCtx, err)
			span.End()
			return nil, err
		}
		span.End()

		fresh = append(fresh, rows...)
	}

	return fresh, nil
}

// resolve makes sure the cache file name holds [start, end], fetching it when
// caching is off or the file is missing.
func (c *Cache) resolve(ctx context.Context, report *Report, name, start, end string) ([][]string, error) {
	spec := report.Spec
	mode := attribute.String("mode", modeOf(spec))
	rel := filepath.Join(relDir(spec), name)
	path := c.files.Path(rel)

	if spec.Cache && c.files.FileExists(rel) {
		c.metrics.CacheHits.Add(ctx, 1, metric.WithAttributes(mode))
		c.logger.DebugContext(ctx, "cache hit", slog.String("file", path))
		return nil, nil
	}
	c.metrics.CacheMisses.Add(ctx, 1, metric.WithAttributes(mode))

	rows, sampled, err := c.fetchAll(ctx, spec, start, end)
	if err != nil {
		return nil, err
	}
	report.Sampled = report.Sampled || sampled
	report.Fetched = append(report.Fetched, name)

	if !spec.Cache {
		return rows, nil
	}

	table, err := aggregate(spec.Dimensions, spec.Metrics, rows)
	if err != nil {
		return nil, err
	}
	if err := c.writer.WriteCSV(path, exporter.WriteOptions{
		Headers: table.Columns(),
		Records: table.Records(),
	}); err != nil {
		return nil, apperrors.NewStorageError("failed to write cache file", err).WithContext("file", path)
	}
	c.logger.InfoContext(ctx, "saved cache file", slog.String("file", path), slog.Int("rows", table.Len()))

	return rows, nil
}

// Read reassembles spec from cache files only, without contacting the
// reporting service. A range with no cached files yields an empty table with
// the requested columns. Read returns ErrCacheDisabled when spec.Cache is unset.
func (c *Cache) Read(ctx context.Context, spec domain.ReportSpec) (*domain.Table, error) {
	start, end, err := ValidateSpec(spec)
	if err != nil {
		return nil, err
	}
	if !spec.Cache {
		return nil, apperrors.ErrCacheDisabled
	}

	dir := relDir(spec)
	paths, err := c.cachedFiles(dir, spec, start, end)
	if err != nil {
		return nil, err
	}

	agg := newAggregator(spec.Dimensions, spec.Metrics)
	columns := append(append([]string(nil), spec.Dimensions...), spec.Metrics...)

	for _, path := range paths {
		header, records, err := exporter.ReadCSV(path, ',')
		if err != nil {
			return nil, apperrors.NewParsingError("failed to read cache file", err).WithContext("file", path)
		}
		if header == nil {
			continue
		}
		records, err = project(header, columns, records)
		if err != nil {
			return nil, apperrors.NewParsingError(err.Error(), nil).WithContext("file", path)
		}
		if err := agg.AddAll(records); err != nil {
			return nil, err
		}
	}

	table, err := agg.Table()
	if err != nil {
		return nil, err
	}
	sortTable(table, spec.Sort)

	c.logger.DebugContext(ctx, "report read from cache",
		slog.String("dir", dir),
		slog.Int("files", len(paths)),
		slog.Int("rows", table.Len()))

	return table, nil
}

// cachedFiles lists the files of dir belonging to spec's range, ordered by name
func (c *Cache) cachedFiles(dir string, spec domain.ReportSpec, start, end time.Time) ([]string, error) {
	var paths []string

	if spec.Unsampled {
		dated, err := c.discovery.FindDatedFiles(dir, dayFilePattern, domain.DateLayout)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, nil
			}
			return nil, apperrors.NewStorageError("failed to list cache files", err)
		}
		for _, f := range files.FilterByDateRange(dated, start, end) {
			paths = append(paths, f.Path)
		}
		return paths, nil
	}

	found, err := c.discovery.FindByPattern(dir, rangeFilePattern)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, apperrors.NewStorageError("failed to list cache files", err)
	}
	want := rangeFileName(spec.StartDate, spec.EndDate)
	for _, f := range found {
		if f.Name == want {
			paths = append(paths, f.Path)
		}
	}
	return paths, nil
}

// project reorders records from header's column order into columns
func project(header, columns []string, records [][]string) ([][]string, error) {
	idx := make([]int, len(columns))
	for i, col := range columns {
		idx[i] = indexOf(header, col)
		if idx[i] < 0 {
			return nil, fmt.Errorf("cache file lacks column %s", col)
		}
	}

	out := make([][]string, 0, len(records))
	for _, rec := range records {
		row := make([]string, len(columns))
		for i, j := range idx {
			if j < len(rec) {
				row[i] = rec[j]
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func modeOf(spec domain.ReportSpec) string {
	if spec.Unsampled {
		return "unsampled"
	}
	return "range"
}

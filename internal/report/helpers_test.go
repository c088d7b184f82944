package report

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/ayyoubmarroun/pykemen/internal/config"
	"github.com/ayyoubmarroun/pykemen/internal/throttle"
	"github.com/ayyoubmarroun/pykemen/pkg/contracts/domain"
)

// stubQuerier records every query and answers through pages
type stubQuerier struct {
	mu      sync.Mutex
	queries []domain.Query
	pages   func(q domain.Query) (*domain.Page, error)
}

func (s *stubQuerier) Query(_ context.Context, q domain.Query) (*domain.Page, error) {
	s.mu.Lock()
	s.queries = append(s.queries, q)
	s.mu.Unlock()
	return s.pages(q)
}

func (s *stubQuerier) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queries)
}

func (s *stubQuerier) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = nil
}

// mockQuerier is a Querier driven by testify expectations
type mockQuerier struct {
	mock.Mock
}

func (m *mockQuerier) Query(ctx context.Context, q domain.Query) (*domain.Page, error) {
	args := m.Called(ctx, q)
	page, _ := args.Get(0).(*domain.Page)
	return page, args.Error(1)
}

// dailyQuerier serves one single-page response per day from rows
func dailyQuerier(rows map[string][][]string) *stubQuerier {
	return &stubQuerier{pages: func(q domain.Query) (*domain.Page, error) {
		return &domain.Page{Rows: rows[q.StartDate]}, nil
	}}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestCache(t *testing.T, q Querier, opts ...Option) (*Cache, string) {
	t.Helper()

	root := filepath.Join(t.TempDir(), "cache")
	cfg := config.Default()
	cfg.Cache.Dir = root

	opts = append([]Option{WithPacer(throttle.Unpaced{}), WithLogger(discardLogger())}, opts...)
	return NewCache(q, cfg, opts...), root
}

func countrySpec(start, end string) domain.ReportSpec {
	return domain.ReportSpec{
		IDs:        "ga:1234",
		StartDate:  start,
		EndDate:    end,
		Dimensions: []string{"ga:country"},
		Metrics:    []string{"ga:sessions"},
		Unsampled:  true,
		Cache:      true,
	}
}

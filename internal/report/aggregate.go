package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cockroachdb/apd/v3"

	apperrors "github.com/ayyoubmarroun/pykemen/internal/errors"
	"github.com/ayyoubmarroun/pykemen/pkg/contracts/domain"
)

var sumContext = apd.BaseContext.WithPrecision(34)

type group struct {
	dimensions []string
	sums       []apd.Decimal
}

// aggregator sums metric columns per distinct dimension tuple. Sums are kept
// as exact decimals and converted to float64 only when the table is built.
type aggregator struct {
	dimensions []string
	metrics    []string
	groups     map[string]*group
}

func newAggregator(dimensions, metrics []string) *aggregator {
	return &aggregator{
		dimensions: dimensions,
		metrics:    metrics,
		groups:     make(map[string]*group),
	}
}

// Add folds one record laid out as dimension values followed by metric values.
// Empty metric cells count as zero.
func (a *aggregator) Add(record []string) error {
	nd := len(a.dimensions)
	if len(record) != nd+len(a.metrics) {
		return apperrors.NewParsingError(
			fmt.Sprintf("row has %d columns, want %d", len(record), nd+len(a.metrics)), nil)
	}

	key := strings.Join(record[:nd], "\x00")
	g, ok := a.groups[key]
	if !ok {
		g = &group{
			dimensions: append([]string(nil), record[:nd]...),
			sums:       make([]apd.Decimal, len(a.metrics)),
		}
		a.groups[key] = g
	}

	for i, cell := range record[nd:] {
		if cell == "" {
			continue
		}
		var v apd.Decimal
		if _, _, err := v.SetString(cell); err != nil {
			return apperrors.NewParsingError(
				fmt.Sprintf("metric %s: invalid value %q", a.metrics[i], cell), err)
		}
		if _, err := sumContext.Add(&g.sums[i], &g.sums[i], &v); err != nil {
			return apperrors.NewParsingError(fmt.Sprintf("metric %s: sum overflow", a.metrics[i]), err)
		}
	}

	return nil
}

// AddAll folds every record
func (a *aggregator) AddAll(records [][]string) error {
	for _, record := range records {
		if err := a.Add(record); err != nil {
			return err
		}
	}
	return nil
}

// Table returns one row per group, ordered ascending by dimension tuple
func (a *aggregator) Table() (*domain.Table, error) {
	table := domain.NewTable(a.dimensions, a.metrics)

	for _, g := range a.groups {
		row := domain.Row{
			Dimensions: g.dimensions,
			Metrics:    make([]float64, len(g.sums)),
		}
		for i := range g.sums {
			f, err := g.sums[i].Float64()
			if err != nil {
				return nil, apperrors.NewParsingError(fmt.Sprintf("metric %s: not representable", a.metrics[i]), err)
			}
			row.Metrics[i] = f
		}
		table.Rows = append(table.Rows, row)
	}

	sort.Slice(table.Rows, func(i, j int) bool {
		return lessTuple(table.Rows[i].Dimensions, table.Rows[j].Dimensions)
	})

	return table, nil
}

func lessTuple(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// aggregate groups records and sums their metrics in one step
func aggregate(dimensions, metrics []string, records [][]string) (*domain.Table, error) {
	agg := newAggregator(dimensions, metrics)
	if err := agg.AddAll(records); err != nil {
		return nil, err
	}
	return agg.Table()
}

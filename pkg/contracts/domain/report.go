package domain

import (
	"strconv"
	"strings"
)

// DateLayout is the textual calendar date format used by report specs and cache file names.
const DateLayout = "2006-01-02"

// ReportSpec describes one analytics report request
type ReportSpec struct {
	IDs        string   `json:"ids" yaml:"ids" validate:"required"`
	StartDate  string   `json:"start_date" yaml:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string   `json:"end_date" yaml:"end_date" validate:"required,datetime=2006-01-02"`
	Dimensions []string `json:"dimensions,omitempty" yaml:"dimensions" validate:"dive,required"`
	Metrics    []string `json:"metrics" yaml:"metrics" validate:"required,min=1,dive,required"`
	Filters    string   `json:"filters,omitempty" yaml:"filters"`
	Segments   string   `json:"segments,omitempty" yaml:"segments"`
	Sort       []string `json:"sort,omitempty" yaml:"sort"`
	Unsampled  bool     `json:"unsampled" yaml:"unsampled"`
	Cache      bool     `json:"cache" yaml:"cache"`
	MaxResults int      `json:"max_results,omitempty" yaml:"max_results" validate:"gte=0,lte=10000"`
}

// Query converts the spec into a single collaborator request for the given range
func (s ReportSpec) Query(startDate, endDate string, maxResults, startIndex int) Query {
	return Query{
		IDs:        s.IDs,
		StartDate:  startDate,
		EndDate:    endDate,
		Dimensions: strings.Join(s.Dimensions, ","),
		Metrics:    strings.Join(s.Metrics, ","),
		Filters:    s.Filters,
		Segments:   s.Segments,
		Sort:       strings.Join(s.Sort, ","),
		MaxResults: maxResults,
		StartIndex: startIndex,
	}
}

// Query is one paginated request against the reporting service
type Query struct {
	IDs        string `json:"ids"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Dimensions string `json:"dimensions,omitempty"`
	Metrics    string `json:"metrics"`
	Filters    string `json:"filters,omitempty"`
	Segments   string `json:"segment,omitempty"`
	Sort       string `json:"sort,omitempty"`
	MaxResults int    `json:"max_results"`
	StartIndex int    `json:"start_index"`
}

// Page is a bounded slice of report rows plus an optional continuation pointer
type Page struct {
	Rows                [][]string `json:"rows,omitempty"`
	NextLink            string     `json:"nextLink,omitempty"`
	ContainsSampledData bool       `json:"containsSampledData,omitempty"`
}

// Row is one aggregated report row
type Row struct {
	Dimensions []string  `json:"dimensions"`
	Metrics    []float64 `json:"metrics"`
}

// Table is a reassembled report: dimension columns first, then metric columns.
// Dimension values are always text and metric values always float64.
type Table struct {
	Dimensions []string `json:"dimensions"`
	Metrics    []string `json:"metrics"`
	Rows       []Row    `json:"rows"`
}

// NewTable returns an empty table with the given columns
func NewTable(dimensions, metrics []string) *Table {
	return &Table{
		Dimensions: append([]string(nil), dimensions...),
		Metrics:    append([]string(nil), metrics...),
		Rows:       []Row{},
	}
}

// Columns returns dimension names followed by metric names
func (t *Table) Columns() []string {
	cols := make([]string, 0, len(t.Dimensions)+len(t.Metrics))
	cols = append(cols, t.Dimensions...)
	return append(cols, t.Metrics...)
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// Records renders the rows as text records in column order
func (t *Table) Records() [][]string {
	records := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		record := make([]string, 0, len(row.Dimensions)+len(row.Metrics))
		record = append(record, row.Dimensions...)
		for _, m := range row.Metrics {
			record = append(record, strconv.FormatFloat(m, 'f', -1, 64))
		}
		records = append(records, record)
	}
	return records
}

// Values returns the rows as typed cell values in column order
func (t *Table) Values() [][]interface{} {
	values := make([][]interface{}, 0, len(t.Rows))
	for _, row := range t.Rows {
		cells := make([]interface{}, 0, len(row.Dimensions)+len(row.Metrics))
		for _, d := range row.Dimensions {
			cells = append(cells, d)
		}
		for _, m := range row.Metrics {
			cells = append(cells, m)
		}
		values = append(values, cells)
	}
	return values
}

package report

import (
	"sort"
	"strings"

	"github.com/ayyoubmarroun/pykemen/pkg/contracts/domain"
)

// sortTable applies keys in listed order as successive stable sorts, so
// the last key is the primary order and earlier keys break its ties.
// A leading "-" sorts descending. Dimensions compare as text and metrics
// numerically. Empty and unknown keys are skipped.
func sortTable(table *domain.Table, keys []string) {
	for _, key := range keys {
		desc := strings.HasPrefix(key, "-")
		name := strings.TrimPrefix(key, "-")
		if name == "" {
			continue
		}

		var less func(a, b domain.Row) bool
		if i := indexOf(table.Dimensions, name); i >= 0 {
			less = func(a, b domain.Row) bool { return a.Dimensions[i] < b.Dimensions[i] }
		} else if i := indexOf(table.Metrics, name); i >= 0 {
			less = func(a, b domain.Row) bool { return a.Metrics[i] < b.Metrics[i] }
		} else {
			continue
		}

		rows := table.Rows
		sort.SliceStable(rows, func(a, b int) bool {
			if desc {
				return less(rows[b], rows[a])
			}
			return less(rows[a], rows[b])
		})
	}
}

// Package report implements the on-disk cache in front of the analytics
// reporting service.
//
// A report is identified by its profile and a cache key derived from its
// dimensions, metrics, filters and segments. Fetched data lives under
//
//	{root}/{profile}/{key}/report_{start}_{end}.csv       whole-range reports
//	{root}/{profile}/{key}/unsampled_report_{date}.csv    one file per day
//
// Range reports are reused only for the exact same range. Unsampled reports
// are fetched one day at a time, and any later request covering a cached day
// reuses that day's file. Results are reassembled by grouping rows on the
// full dimension tuple and summing the metrics, then sorting.
package report

// Package exporter writes and reads the delimited text files of the report
// cache and exports report tables to CSV and XLSX.
//
// CSVWriter writes every file through a temporary file in the destination
// directory that is renamed into place on success, so readers never observe
// a partially written file. StreamWriter does the same for exports that are
// produced page by page.
//
// Example usage:
//
//	w := exporter.NewCSVWriter(logger)
//	err := w.WriteCSV("cache/1234/abcd/report_2024-01-01_2024-01-31.csv", exporter.WriteOptions{
//	    Headers: []string{"ga:country", "ga:sessions"},
//	    Records: records,
//	})
package exporter

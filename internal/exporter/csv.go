package exporter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	Delimiter rune // defaults to ','
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV atomically replaces filePath with the given header and records.
// The parent directory must already exist.
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	w.logger.Debug("Writing CSV file",
		slog.String("file_path", filePath),
		slog.Int("record_count", len(options.Records)))

	sw, err := w.CreateStreamWriter(filePath, options.Headers, options.Delimiter, options.BOMPrefix)
	if err != nil {
		return err
	}

	for i, record := range options.Records {
		if err := sw.WriteRecord(record); err != nil {
			sw.Abort()
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	return sw.Close()
}

// ReadCSV reads a delimited file, returning its header row and data rows.
// An empty file yields no header and no rows.
func ReadCSV(filePath string, delimiter rune) ([]string, [][]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	reader := csv.NewReader(skipBOM(file))
	if delimiter != 0 {
		reader.Comma = delimiter
	}
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", filePath, err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}

	return records[0], records[1:], nil
}

func skipBOM(r io.Reader) io.Reader {
	buf := make([]byte, len(utf8BOM))
	n, _ := io.ReadFull(r, buf)
	if n == len(utf8BOM) && bytes.Equal(buf, utf8BOM) {
		return r
	}
	return io.MultiReader(bytes.NewReader(buf[:n]), r)
}

// StreamWriter writes records to a temporary file that becomes visible at
// its final path only when Close succeeds.
type StreamWriter struct {
	file   *os.File
	writer *csv.Writer
	path   string
	logger *slog.Logger
}

// CreateStreamWriter opens a streaming writer for filePath
func (w *CSVWriter) CreateStreamWriter(filePath string, headers []string, delimiter rune, bom bool) (*StreamWriter, error) {
	dir := filepath.Dir(filePath)
	file, err := os.CreateTemp(dir, "."+filepath.Base(filePath)+".tmp*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	sw := &StreamWriter{
		file:   file,
		writer: csv.NewWriter(file),
		path:   filePath,
		logger: w.logger,
	}
	if delimiter != 0 {
		sw.writer.Comma = delimiter
	}

	if bom {
		if _, err := file.Write(utf8BOM); err != nil {
			sw.Abort()
			return nil, fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	if len(headers) > 0 {
		if err := sw.writer.Write(headers); err != nil {
			sw.Abort()
			return nil, fmt.Errorf("failed to write headers: %w", err)
		}
	}

	return sw, nil
}

// WriteRecord writes a single record to the stream
func (s *StreamWriter) WriteRecord(record []string) error {
	return s.writer.Write(record)
}

// Close flushes the records and renames the temporary file into place
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.Abort()
		return err
	}
	if err := s.file.Close(); err != nil {
		_ = os.Remove(s.file.Name())
		return err
	}
	if err := os.Chmod(s.file.Name(), 0644); err != nil {
		_ = os.Remove(s.file.Name())
		return err
	}
	if err := os.Rename(s.file.Name(), s.path); err != nil {
		_ = os.Remove(s.file.Name())
		return fmt.Errorf("failed to move %s into place: %w", s.path, err)
	}
	return nil
}

// Abort discards everything written so far
func (s *StreamWriter) Abort() {
	_ = s.file.Close()
	if err := os.Remove(s.file.Name()); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove temp file",
			slog.String("path", s.file.Name()),
			slog.String("error", err.Error()))
	}
}

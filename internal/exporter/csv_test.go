package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestWriteCSV(t *testing.T) {
	tests := []struct {
		name     string
		options  WriteOptions
		expected string
	}{
		{
			name: "header and records",
			options: WriteOptions{
				Headers: []string{"ga:country", "ga:sessions"},
				Records: [][]string{{"US", "3"}, {"ES", "4.5"}},
			},
			expected: "ga:country,ga:sessions\nUS,3\nES,4.5\n",
		},
		{
			name: "header only",
			options: WriteOptions{
				Headers: []string{"ga:country", "ga:sessions"},
			},
			expected: "ga:country,ga:sessions\n",
		},
		{
			name: "custom delimiter",
			options: WriteOptions{
				Headers:   []string{"a", "b"},
				Records:   [][]string{{"1", "x,y"}},
				Delimiter: ';',
			},
			expected: "a;b\n1;x,y\n",
		},
		{
			name: "quoted values",
			options: WriteOptions{
				Headers: []string{"ga:pagePath"},
				Records: [][]string{{"/a,b"}},
			},
			expected: "ga:pagePath\n\"/a,b\"\n",
		},
		{
			name: "bom prefix",
			options: WriteOptions{
				Headers:   []string{"a"},
				BOMPrefix: true,
			},
			expected: "\xEF\xBB\xBFa\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out.csv")

			require.NoError(t, NewCSVWriter(nil).WriteCSV(path, tt.options))

			content, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(content))
		})
	}
}

func TestWriteCSV_ReplacesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")
	w := NewCSVWriter(nil)

	require.NoError(t, w.WriteCSV(path, WriteOptions{Headers: []string{"a"}, Records: [][]string{{"1"}, {"2"}}}))
	require.NoError(t, w.WriteCSV(path, WriteOptions{Headers: []string{"a"}, Records: [][]string{{"3"}}}))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\n3\n", string(content))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestWriteCSV_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent", "out.csv")

	err := NewCSVWriter(nil).WriteCSV(path, WriteOptions{Headers: []string{"a"}})
	assert.Error(t, err)
}

func TestWriteCSV_ConcurrentWritersNeverLeavePartialFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "unsampled_report_2024-01-01.csv")
	w := NewCSVWriter(nil)

	const writers = 8
	const rows = 200

	var g errgroup.Group
	for i := 0; i < writers; i++ {
		i := i
		g.Go(func() error {
			records := make([][]string, rows)
			for r := range records {
				records[r] = []string{fmt.Sprintf("writer-%d", i), fmt.Sprint(r)}
			}
			return w.WriteCSV(path, WriteOptions{
				Headers: []string{"ga:source", "ga:sessions"},
				Records: records,
			})
		})
	}
	require.NoError(t, g.Wait())

	header, records, err := ReadCSV(path, ',')
	require.NoError(t, err)
	assert.Equal(t, []string{"ga:source", "ga:sessions"}, header)
	require.Len(t, records, rows)

	owner := records[0][0]
	for _, rec := range records {
		assert.Equal(t, owner, rec[0], "file mixes rows from different writers")
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestReadCSV(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		delimiter   rune
		wantHeader  []string
		wantRecords [][]string
	}{
		{
			name:        "header and rows",
			content:     "a,b\n1,2\n3,4\n",
			wantHeader:  []string{"a", "b"},
			wantRecords: [][]string{{"1", "2"}, {"3", "4"}},
		},
		{
			name:        "header only",
			content:     "a,b\n",
			wantHeader:  []string{"a", "b"},
			wantRecords: [][]string{},
		},
		{
			name:    "empty file",
			content: "",
		},
		{
			name:        "bom is stripped",
			content:     "\xEF\xBB\xBFa\n1\n",
			wantHeader:  []string{"a"},
			wantRecords: [][]string{{"1"}},
		},
		{
			name:        "tab delimited",
			content:     "a\tb\n1\t2\n",
			delimiter:   '\t',
			wantHeader:  []string{"a", "b"},
			wantRecords: [][]string{{"1", "2"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "in.csv")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			header, records, err := ReadCSV(path, tt.delimiter)
			require.NoError(t, err)
			assert.Equal(t, tt.wantHeader, header)
			assert.Equal(t, tt.wantRecords, records)
		})
	}
}

func TestReadCSV_Errors(t *testing.T) {
	_, _, err := ReadCSV(filepath.Join(t.TempDir(), "absent.csv"), ',')
	assert.True(t, os.IsNotExist(err))

	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("a\n\"unterminated\n"), 0644))
	_, _, err = ReadCSV(path, ',')
	assert.Error(t, err)
}

func TestStreamWriter_AbortLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "export.csv")

	sw, err := NewCSVWriter(nil).CreateStreamWriter(path, []string{"a"}, ',', false)
	require.NoError(t, err)
	require.NoError(t, sw.WriteRecord([]string{"1"}))
	sw.Abort()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStreamWriter_VisibleOnlyAfterClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "export.csv")

	sw, err := NewCSVWriter(nil).CreateStreamWriter(path, []string{"a", "b"}, '|', false)
	require.NoError(t, err)
	require.NoError(t, sw.WriteRecord([]string{"1", "2"}))

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, sw.Close())
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a|b\n1|2\n", string(content))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(info.Name(), "."))
}

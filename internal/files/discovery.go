package files

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
	IsDir   bool
}

// DatedFile is a file whose name encodes a calendar date
type DatedFile struct {
	FileInfo
	Date time.Time
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}

// FindByPattern returns the regular files in dir whose names match pattern,
// ordered by name. A missing dir yields an error wrapping fs.ErrNotExist.
func (d *Discovery) FindByPattern(dir string, pattern *regexp.Regexp) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !pattern.MatchString(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	return files, nil
}

// FindDatedFiles returns files matching pattern whose first capture group
// parses as a date in layout. Names that match but carry an invalid date
// are skipped.
func (d *Discovery) FindDatedFiles(dir string, pattern *regexp.Regexp, layout string) ([]DatedFile, error) {
	files, err := d.FindByPattern(dir, pattern)
	if err != nil {
		return nil, err
	}

	dated := make([]DatedFile, 0, len(files))
	for _, file := range files {
		m := pattern.FindStringSubmatch(file.Name)
		if len(m) < 2 {
			continue
		}
		date, err := time.Parse(layout, m[1])
		if err != nil {
			continue
		}
		dated = append(dated, DatedFile{FileInfo: file, Date: date})
	}

	return dated, nil
}

// ListDirectories lists all subdirectories in the specified directory
func (d *Discovery) ListDirectories(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var dirs []FileInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		dirs = append(dirs, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			ModTime: info.ModTime(),
			IsDir:   true,
		})
	}

	return dirs, nil
}

// FilterByDateRange keeps the files dated within [start, end], inclusive
func FilterByDateRange(files []DatedFile, start, end time.Time) []DatedFile {
	var filtered []DatedFile
	for _, file := range files {
		if !file.Date.Before(start) && !file.Date.After(end) {
			filtered = append(filtered, file)
		}
	}
	return filtered
}

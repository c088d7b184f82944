package report

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	apperrors "github.com/ayyoubmarroun/pykemen/internal/errors"
	"github.com/ayyoubmarroun/pykemen/pkg/contracts/domain"
)

// Purge removes cached reports and returns how many files it deleted.
//
// With an empty profileID the whole cache root is removed and the count is
// zero. Otherwise every per-day file of that profile dated strictly before
// today minus maxAgeDays is deleted; a file dated exactly on that boundary is
// kept. Range files and directories are left in place.
func (c *Cache) Purge(ctx context.Context, profileID string, maxAgeDays int) (int, error) {
	if profileID == "" {
		c.logger.InfoContext(ctx, "purging whole cache", slog.String("root", c.files.Root()))
		if err := c.files.RemoveAll(""); err != nil {
			return 0, apperrors.NewStorageError("failed to remove cache", err)
		}
		return 0, nil
	}
	if maxAgeDays < 0 {
		return 0, apperrors.InvalidField("max_age_days", "must not be negative")
	}

	profile := ProfileID(profileID)
	y, m, d := c.now().Date()
	cutoff := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -maxAgeDays)

	keys, err := c.discovery.ListDirectories(profile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, apperrors.NewStorageError("failed to list cache keys", err)
	}

	removed := 0
	for _, key := range keys {
		dir := filepath.Join(profile, key.Name)
		dated, err := c.discovery.FindDatedFiles(dir, dayFilePattern, domain.DateLayout)
		if err != nil {
			return removed, apperrors.NewStorageError("failed to list cache files", err)
		}

		for _, f := range dated {
			if !f.Date.Before(cutoff) {
				continue
			}
			if err := c.files.DeleteFile(filepath.Join(dir, f.Name)); err != nil {
				return removed, apperrors.NewStorageError("failed to remove cache file", err).
					WithContext("file", f.Path)
			}
			removed++
			c.logger.InfoContext(ctx, "removed cache file", slog.String("file", f.Path))
		}
	}

	c.metrics.FilesPurged.Add(ctx, int64(removed), metric.WithAttributes(attribute.String("profile", profile)))
	return removed, nil
}

// PurgeExpired removes the per-day files of profileID older than the
// configured maximum age.
func (c *Cache) PurgeExpired(ctx context.Context, profileID string) (int, error) {
	return c.Purge(ctx, profileID, c.maxAgeDays)
}

package analytics

import (
	"context"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	ga "google.golang.org/api/analytics/v3"
	"google.golang.org/api/googleapi"

	apperrors "github.com/ayyoubmarroun/pykemen/internal/errors"
)

// Upload states reported by the management API
const (
	UploadPending   = "PENDING"
	UploadCompleted = "COMPLETED"
	UploadFailed    = "FAILED"
)

// DataImport uploads filename to a custom data source and blocks until the
// upload is processed. A FAILED upload returns *errors.UploadFailedError.
func (c *Client) DataImport(ctx context.Context, accountID, webPropertyID, dataSourceID, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return apperrors.NewStorageError("failed to open upload file", err).WithContext("file", filename)
	}
	defer file.Close()

	uploads := c.service.Management.Uploads

	upload, err := uploads.UploadData(accountID, webPropertyID, dataSourceID).
		Media(file, googleapi.ContentType("application/octet-stream")).
		Context(ctx).
		Do()
	if err != nil {
		return err
	}

	c.logger.InfoContext(ctx, "data import uploaded",
		slog.String("upload_id", upload.Id),
		slog.String("data_source", dataSourceID),
		slog.String("status", upload.Status))

	// the upload response is the first status; later checks refresh it
	first := true
	err = c.poller.Poll(ctx, func(ctx context.Context) (bool, error) {
		if !first {
			c.metrics.JobPolls.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", "upload")))
			next, err := uploads.Get(accountID, webPropertyID, dataSourceID, upload.Id).Context(ctx).Do()
			if err != nil {
				return false, err
			}
			upload = next
		}
		first = false
		return upload.Status != UploadPending, nil
	})
	if err != nil {
		return err
	}

	return c.uploadResult(ctx, upload)
}

func (c *Client) uploadResult(ctx context.Context, upload *ga.Upload) error {
	if upload.Status == UploadFailed {
		c.logger.ErrorContext(ctx, "data import failed",
			slog.String("upload_id", upload.Id),
			slog.Any("errors", upload.Errors))
		return &apperrors.UploadFailedError{UploadID: upload.Id, Errors: upload.Errors}
	}

	c.logger.InfoContext(ctx, "data import finished",
		slog.String("upload_id", upload.Id),
		slog.String("status", upload.Status))
	return nil
}

package warehouse

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	bq "google.golang.org/api/bigquery/v2"
	"google.golang.org/api/googleapi"

	apperrors "github.com/ayyoubmarroun/pykemen/internal/errors"
	"github.com/ayyoubmarroun/pykemen/internal/infrastructure"
)

// Table create and write dispositions
const (
	CreateIfNeeded = "CREATE_IF_NEEDED"
	CreateNever    = "CREATE_NEVER"
	WriteTruncate  = "WRITE_TRUNCATE"
	WriteAppend    = "WRITE_APPEND"
)

const stateDone = "DONE"

// destination is where a query job stores its result
type destination struct {
	table             *bq.TableReference
	createDisposition string
	writeDisposition  string
}

func newJobID() string {
	return "pykemen_" + uuid.NewString()
}

// runQuery starts a query job and waits for it to finish. A nil dest keeps
// the result in the job's anonymous table.
func (c *Client) runQuery(ctx context.Context, project, query string, dest *destination, legacy bool) (*bq.Job, error) {
	qc := &bq.JobConfigurationQuery{
		Query:        query,
		UseLegacySql: googleapi.Bool(legacy),
	}
	if dest != nil {
		qc.DestinationTable = dest.table
		qc.CreateDisposition = dest.createDisposition
		qc.WriteDisposition = dest.writeDisposition
		qc.AllowLargeResults = true
	}

	job := &bq.Job{
		JobReference: &bq.JobReference{
			ProjectId: project,
			JobId:     newJobID(),
			Location:  c.location,
		},
		Configuration: &bq.JobConfiguration{Query: qc},
	}
	return c.runJob(ctx, job)
}

// runJob inserts job and polls it until DONE
func (c *Client) runJob(ctx context.Context, job *bq.Job) (*bq.Job, error) {
	ref := job.JobReference

	ctx, span := c.tracer.Start(ctx, "warehouse.job", trace.WithAttributes(
		attribute.String("warehouse.project", ref.ProjectId),
		attribute.String("warehouse.job_id", ref.JobId),
	))
	defer span.End()

	inserted, err := c.service.Jobs.Insert(ref.ProjectId, job).Context(ctx).Do()
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}
	if inserted.JobReference == nil {
		inserted.JobReference = ref
	}

	c.logger.InfoContext(ctx, "job started",
		slog.String("project", ref.ProjectId),
		slog.String("job_id", inserted.JobReference.JobId))

	done, err := c.wait(ctx, inserted)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}
	return done, nil
}

// wait polls job until its state is DONE. The job passed in counts as the
// first observation.
func (c *Client) wait(ctx context.Context, job *bq.Job) (*bq.Job, error) {
	ref := job.JobReference
	first := true

	err := c.poller.Poll(ctx, func(ctx context.Context) (bool, error) {
		if !first {
			c.metrics.JobPolls.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", "job")))

			call := c.service.Jobs.Get(ref.ProjectId, ref.JobId).Context(ctx)
			if ref.Location != "" {
				call = call.Location(ref.Location)
			}
			next, err := call.Do()
			if err != nil {
				return false, err
			}
			job = next
		}
		first = false
		return job.Status != nil && job.Status.State == stateDone, nil
	})
	if err != nil {
		return nil, err
	}
	if job.JobReference == nil {
		job.JobReference = ref
	}

	if job.Status.ErrorResult != nil {
		failed := jobFailed(ref.JobId, job.Status)
		c.logger.ErrorContext(ctx, "job failed",
			slog.String("job_id", ref.JobId),
			slog.String("payload", failed.Payload()))
		return nil, failed
	}

	c.logger.InfoContext(ctx, "job done", slog.String("job_id", ref.JobId))
	return job, nil
}

func jobFailed(jobID string, status *bq.JobStatus) *apperrors.JobFailedError {
	failed := &apperrors.JobFailedError{
		JobID:  jobID,
		Result: jobError(status.ErrorResult),
	}
	for _, e := range status.Errors {
		failed.Errors = append(failed.Errors, jobError(e))
	}
	return failed
}

func jobError(e *bq.ErrorProto) apperrors.JobError {
	if e == nil {
		return apperrors.JobError{}
	}
	return apperrors.JobError{Reason: e.Reason, Location: e.Location, Message: e.Message}
}

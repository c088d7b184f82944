// Package warehouse manages BigQuery tables, datasets and query jobs.
//
// Every query runs as an asynchronous job that is polled until its state is
// DONE. A finished job carrying an error result is reported as
// *errors.JobFailedError with the job's error payload attached.
package warehouse

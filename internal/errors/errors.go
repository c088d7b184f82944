package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared by the report cache and the collaborators
var (
	ErrInvalidSpec      = errors.New("invalid report spec")
	ErrInvalidDateRange = errors.New("end date is before start date")
	ErrCacheDisabled    = errors.New("cache disabled for report")
	ErrJobFailed        = errors.New("job failed")
	ErrUploadFailed     = errors.New("upload failed")
)

// JobError is one entry of a warehouse job error payload
type JobError struct {
	Reason   string `json:"reason,omitempty"`
	Location string `json:"location,omitempty"`
	Message  string `json:"message,omitempty"`
}

// JobFailedError is returned when an asynchronous warehouse job reaches a
// terminal state with an error result.
type JobFailedError struct {
	JobID  string     `json:"job_id"`
	Result JobError   `json:"error_result"`
	Errors []JobError `json:"errors,omitempty"`
}

// Error implements the error interface
func (e *JobFailedError) Error() string {
	msg := e.Result.Message
	if e.Result.Reason != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Result.Reason)
	}
	return fmt.Sprintf("job %s failed: %s", e.JobID, msg)
}

// Is reports whether target is ErrJobFailed
func (e *JobFailedError) Is(target error) bool {
	return target == ErrJobFailed
}

// Payload returns the job error payload as indented JSON
func (e *JobFailedError) Payload() string {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return e.Error()
	}
	return string(data)
}

// UploadFailedError is returned when a data import upload ends in FAILED status
type UploadFailedError struct {
	UploadID string   `json:"upload_id"`
	Errors   []string `json:"errors,omitempty"`
}

// Error implements the error interface
func (e *UploadFailedError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("upload %s failed", e.UploadID)
	}
	return fmt.Sprintf("upload %s failed: %s", e.UploadID, strings.Join(e.Errors, "; "))
}

// Is reports whether target is ErrUploadFailed
func (e *UploadFailedError) Is(target error) bool {
	return target == ErrUploadFailed
}

// InvalidDateRange creates a validation error for a reversed date range
func InvalidDateRange(start, end string) *AppError {
	return NewAppError(ErrTypeValidation,
		fmt.Sprintf("invalid date range %s to %s", start, end), ErrInvalidDateRange).
		WithContext("start_date", start).
		WithContext("end_date", end)
}

// InvalidField creates a validation error for a single spec field
func InvalidField(field, message string) *AppError {
	return NewValidationError(fmt.Sprintf("%s: %s", field, message)).WithContext("field", field)
}

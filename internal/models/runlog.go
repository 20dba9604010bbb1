package models

import "time"

// Run statuses
const (
	RunStatusRunning = "running"
	RunStatusSuccess = "success"
	RunStatusFailed  = "failed"
)

// RunLog records one orchestration execution. It is created in running
// state before the first pipeline step so startup failures stay observable.
type RunLog struct {
	LogID           string    `json:"log_id" dynamodbav:"log_id"`
	RunDate         time.Time `json:"run_date" dynamodbav:"run_date"`
	Status          string    `json:"status" dynamodbav:"status"`
	EventsFound     int       `json:"events_found" dynamodbav:"events_found"`
	EventsAnalyzed  int       `json:"events_analyzed" dynamodbav:"events_analyzed"`
	ErrorMessage    *string   `json:"error_message" dynamodbav:"error_message"`
	DurationSeconds float64   `json:"duration_seconds" dynamodbav:"duration_seconds"`
}

// NewRunLog creates a run log in the running state.
func NewRunLog(now time.Time) *RunLog {
	return &RunLog{
		LogID:   GenerateLogID(),
		RunDate: now,
		Status:  RunStatusRunning,
	}
}

// Complete marks the run successful with its final counts.
func (r *RunLog) Complete(found, analyzed int, elapsed time.Duration) {
	r.Status = RunStatusSuccess
	r.EventsFound = found
	r.EventsAnalyzed = analyzed
	r.DurationSeconds = elapsed.Seconds()
}

// Fail marks the run failed, retaining the error message for operators.
func (r *RunLog) Fail(err error, elapsed time.Duration) {
	r.Status = RunStatusFailed
	msg := err.Error()
	r.ErrorMessage = &msg
	r.DurationSeconds = elapsed.Seconds()
}

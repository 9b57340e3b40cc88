package domain

import "time"

// JobStatus is the lifecycle state of an ingestion job.
type JobStatus string

const (
	StatusIdle       JobStatus = "idle"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusError      JobStatus = "error"
)

// JobState is a point-in-time snapshot of an ingestion job, as published to
// progress subscribers.
//
// Processed counts rows accepted into the persisted output. Skipped counts
// rows dropped for a missing or malformed date/time. Progress is derived from
// rows iterated (Processed+Skipped) over Total and only reaches 100 once the
// job has completed.
type JobState struct {
	Status    JobStatus `json:"status"`
	Progress  int       `json:"progress"`
	Processed int       `json:"processed"`
	Skipped   int       `json:"skipped"`
	Total     int       `json:"total"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}

// Terminal reports whether no further state changes will follow.
func (s JobState) Terminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusError
}

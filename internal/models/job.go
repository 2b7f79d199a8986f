package models

import (
	"encoding/json"
	"time"
)

// JobStatus defines the possible statuses for a queued job.
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobDone       JobStatus = "done"
	JobFailed     JobStatus = "failed"
)

// Job represents a unit of asynchronous work handed out to at most one
// worker at a time. The payload is producer-defined; the hub never
// inspects it.
type Job struct {
	JobID     string          `json:"job_id"`
	UserID    string          `json:"user_id"`
	Status    JobStatus       `json:"status"`
	Payload   json.RawMessage `json:"payload"`
	Result    string          `json:"result,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// JobClaim is what a worker receives from a successful claim: enough to
// process the job and nothing about its bookkeeping.
type JobClaim struct {
	JobID   string          `json:"job_id"`
	UserID  string          `json:"user_id"`
	Payload json.RawMessage `json:"payload"`
}

// JobSummary is the compact dashboard view of a recently touched job.
type JobSummary struct {
	JobID     string    `json:"job_id"`
	UserID    string    `json:"user_id"`
	Status    JobStatus `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

package debate

import "time"

// JobStatus represents the current state of an asynchronous debate job.
type JobStatus string

const (
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobError   JobStatus = "error"
)

// Job tracks one asynchronous debate run from submission to completion.
type Job struct {
	ID              string     `json:"id"`
	Status          JobStatus  `json:"status"`
	Progress        string     `json:"progress,omitempty"`
	Result          string     `json:"result,omitempty"`
	RoundsCompleted int        `json:"rounds_completed"`
	StopReason      StopReason `json:"stop_reason,omitempty"`
	JudgeReason     string     `json:"judge_reason,omitempty"`
	Error           string     `json:"error,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// SubmitRequest holds the fields needed to start a new debate job.
type SubmitRequest struct {
	Text       string `json:"text"`
	Supplement string `json:"supplement,omitempty"`
	Rounds     int    `json:"rounds,omitempty"`
	AutoStop   *bool  `json:"auto_stop,omitempty"`
}

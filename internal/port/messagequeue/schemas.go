package messagequeue

// DebateStartedPayload is the schema for debates.started messages.
type DebateStartedPayload struct {
	JobID     string `json:"job_id"`
	Rounds    int    `json:"rounds"`
	AutoStop  bool   `json:"auto_stop"`
	TextChars int    `json:"text_chars"`
}

// DebateRoundPayload is the schema for debates.round messages.
type DebateRoundPayload struct {
	JobID    string `json:"job_id"`
	Round    int    `json:"round"`
	Reviewer string `json:"reviewer,omitempty"`
	Progress string `json:"progress"`
}

// DebateConvergencePayload is the schema for debates.convergence messages.
type DebateConvergencePayload struct {
	JobID      string `json:"job_id"`
	Round      int    `json:"round"`
	ShouldStop bool   `json:"should_stop"`
	Confidence int    `json:"confidence"`
	Reason     string `json:"reason,omitempty"`
}

// DebateCompletedPayload is the schema for debates.completed messages.
type DebateCompletedPayload struct {
	JobID           string `json:"job_id"`
	RoundsCompleted int    `json:"rounds_completed"`
	StopReason      string `json:"stop_reason"`
}

// DebateFailedPayload is the schema for debates.failed messages.
type DebateFailedPayload struct {
	JobID string `json:"job_id"`
	Error string `json:"error"`
}

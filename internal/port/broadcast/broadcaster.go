// Package broadcast defines the port for pushing live debate events to
// connected clients.
package broadcast

import "context"

// Event types carried in the envelope's "type" field.
const (
	EventDebateStatus      = "debate.status"
	EventDebateRound       = "debate.round"
	EventDebateConvergence = "debate.convergence"
)

// DebateRoundEvent is emitted whenever a reviewer starts working.
type DebateRoundEvent struct {
	JobID    string `json:"job_id"`
	Round    int    `json:"round"`
	Reviewer string `json:"reviewer"`
	Progress string `json:"progress"`
}

// DebateConvergenceEvent is emitted after each convergence check.
type DebateConvergenceEvent struct {
	JobID      string `json:"job_id"`
	Round      int    `json:"round"`
	ShouldStop bool   `json:"should_stop"`
	Confidence int    `json:"confidence"`
}

// Broadcaster fans a typed event out to every connected client.
type Broadcaster interface {
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}

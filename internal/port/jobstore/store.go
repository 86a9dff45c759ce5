// Package jobstore defines the persistence port for debate jobs.
package jobstore

import (
	"context"

	"github.com/maure-club/strategieclub/internal/domain/debate"
)

// Store is the port interface for debate job persistence.
type Store interface {
	Create(ctx context.Context, job *debate.Job) error
	// Update replaces the stored job state under the job's ID.
	Update(ctx context.Context, job *debate.Job) error
	Get(ctx context.Context, id string) (*debate.Job, error)
	List(ctx context.Context, limit int) ([]debate.Job, error)
}

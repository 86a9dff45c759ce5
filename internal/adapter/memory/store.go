// Package memory provides an in-memory job store for running without a
// database.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/maure-club/strategieclub/internal/domain"
	"github.com/maure-club/strategieclub/internal/domain/debate"
)

// Store keeps debate jobs in a mutex-guarded map. All methods return copies,
// callers never share the stored value.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]debate.Job
}

// NewStore creates an empty in-memory job store.
func NewStore() *Store {
	return &Store{jobs: make(map[string]debate.Job)}
}

func (s *Store) Create(_ context.Context, job *debate.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = *job
	return nil
}

func (s *Store) Update(_ context.Context, job *debate.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; !ok {
		return domain.ErrJobNotFound
	}
	s.jobs[job.ID] = *job
	return nil
}

func (s *Store) Get(_ context.Context, id string) (*debate.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return &job, nil
}

// List returns jobs newest first, at most limit entries (0 means all).
func (s *Store) List(_ context.Context, limit int) ([]debate.Job, error) {
	s.mu.RLock()
	out := make([]debate.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, job)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maure-club/strategieclub/internal/domain"
	"github.com/maure-club/strategieclub/internal/domain/debate"
)

// Store implements jobstore.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const jobColumns = `id, status, progress, result, rounds_completed, stop_reason, judge_reason, error, created_at, updated_at`

// scannable abstracts pgx.Row and pgx.Rows for shared scan helpers.
type scannable interface {
	Scan(dest ...any) error
}

func scanJob(row scannable) (debate.Job, error) {
	var j debate.Job
	err := row.Scan(&j.ID, &j.Status, &j.Progress, &j.Result, &j.RoundsCompleted,
		&j.StopReason, &j.JudgeReason, &j.Error, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return debate.Job{}, fmt.Errorf("scan job: %w", err)
	}
	return j, nil
}

func (s *Store) Create(ctx context.Context, job *debate.Job) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO debate_jobs (`+jobColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		job.ID, job.Status, job.Progress, job.Result, job.RoundsCompleted,
		job.StopReason, job.JudgeReason, job.Error, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, job *debate.Job) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE debate_jobs
		 SET status = $2, progress = $3, result = $4, rounds_completed = $5,
		     stop_reason = $6, judge_reason = $7, error = $8, updated_at = $9
		 WHERE id = $1`,
		job.ID, job.Status, job.Progress, job.Result, job.RoundsCompleted,
		job.StopReason, job.JudgeReason, job.Error, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*debate.Job, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM debate_jobs WHERE id = $1`, id)
	j, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, err
	}
	return &j, nil
}

// List returns jobs newest first, at most limit entries (0 means all).
func (s *Store) List(ctx context.Context, limit int) ([]debate.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM debate_jobs ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []debate.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

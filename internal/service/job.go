package service

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/maure-club/strategieclub/internal/adapter/checkpoint"
	scotel "github.com/maure-club/strategieclub/internal/adapter/otel"
	"github.com/maure-club/strategieclub/internal/domain/debate"
	"github.com/maure-club/strategieclub/internal/port/broadcast"
	"github.com/maure-club/strategieclub/internal/port/cache"
	"github.com/maure-club/strategieclub/internal/port/jobstore"
	"github.com/maure-club/strategieclub/internal/port/messagequeue"
)

const (
	jobIDLength  = 12
	maxJobRounds = 6
)

// JobConfig carries the per-job defaults applied when a submission leaves a
// field unset.
type JobConfig struct {
	Rounds               int
	MinRounds            int
	AutoStop             bool
	ConvergenceThreshold int
	Models               debate.Models
	MaxTokens            int
	CompressMaxChars     int
	MaxConcurrent        int64
	ResultTTL            time.Duration
}

// JobService runs debates asynchronously: Submit returns immediately with a
// job ID, the debate itself executes in a background goroutine bounded by a
// weighted semaphore. Progress and results go to the job store; the hub and
// queue receive live events when configured.
type JobService struct {
	store   jobstore.Store
	debates *DebateService
	synth   *Synthesizer
	cfg     JobConfig
	sem     *semaphore.Weighted
	wg      sync.WaitGroup

	hub     broadcast.Broadcaster // optional
	queue   messagequeue.Queue    // optional
	results cache.Cache           // optional

	now   func() time.Time // for testing
	newID func() string
}

// NewJobService creates a JobService with the required dependencies. Hub,
// queue and cache are attached through the setters when the deployment has
// them.
func NewJobService(store jobstore.Store, debates *DebateService, synth *Synthesizer, cfg JobConfig) *JobService {
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = time.Hour
	}
	return &JobService{
		store:   store,
		debates: debates,
		synth:   synth,
		cfg:     cfg,
		sem:     semaphore.NewWeighted(cfg.MaxConcurrent),
		now:     time.Now,
		newID:   newJobID,
	}
}

// SetBroadcaster attaches a live event hub.
func (s *JobService) SetBroadcaster(hub broadcast.Broadcaster) { s.hub = hub }

// SetQueue attaches a message queue for debate events.
func (s *JobService) SetQueue(q messagequeue.Queue) { s.queue = q }

// SetResultCache attaches a cache for finished job lookups.
func (s *JobService) SetResultCache(c cache.Cache) { s.results = c }

func newJobID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])[:jobIDLength]
}

// Submit validates the request, records a running job and starts the debate
// in the background. The returned job carries the ID to poll with.
func (s *JobService) Submit(ctx context.Context, req debate.SubmitRequest) (*debate.Job, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, fmt.Errorf("text must not be empty")
	}
	if sup := strings.TrimSpace(req.Supplement); sup != "" {
		text += fmt.Sprintf("\n\n---\n\n**Zusätzlicher Kontext:**\n%s", sup)
	}

	rounds := req.Rounds
	if rounds == 0 {
		rounds = s.cfg.Rounds
	}
	if rounds < 1 {
		rounds = 1
	}
	if rounds > maxJobRounds {
		rounds = maxJobRounds
	}
	autoStop := s.cfg.AutoStop
	if req.AutoStop != nil {
		autoStop = *req.AutoStop
	}

	now := s.now()
	job := &debate.Job{
		ID:        s.newID(),
		Status:    debate.JobRunning,
		Progress:  "wartet auf Start",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	s.publish(ctx, messagequeue.SubjectDebateStarted, messagequeue.DebateStartedPayload{
		JobID:     job.ID,
		Rounds:    rounds,
		AutoStop:  autoStop,
		TextChars: len(text),
	})
	s.broadcastStatus(ctx, job)

	s.wg.Add(1)
	go s.execute(job.ID, text, rounds, autoStop)

	slog.Info("debate job submitted", "job_id", job.ID, "rounds", rounds, "auto_stop", autoStop)
	return job, nil
}

// resultKey builds the cache key for a finished job. Keys are shared with
// the JetStream KV result bucket, which only accepts [-/_=.a-zA-Z0-9], so
// the separator is a dot.
func resultKey(id string) string { return "job." + id }

// Get returns the job state, serving finished jobs from the result cache
// when one is attached.
func (s *JobService) Get(ctx context.Context, id string) (*debate.Job, error) {
	if s.results != nil {
		if data, ok, _ := s.results.Get(ctx, resultKey(id)); ok {
			var job debate.Job
			if err := json.Unmarshal(data, &job); err == nil {
				return &job, nil
			}
		}
	}

	job, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != debate.JobRunning && s.results != nil {
		if data, err := json.Marshal(job); err == nil {
			if err := s.results.Set(ctx, resultKey(id), data, s.cfg.ResultTTL); err != nil {
				slog.Warn("cache finished job", "job_id", id, "error", err)
			}
		}
	}
	return job, nil
}

// List returns recent jobs, newest first.
func (s *JobService) List(ctx context.Context, limit int) ([]debate.Job, error) {
	return s.store.List(ctx, limit)
}

// Wait blocks until all background debates have finished. Used on shutdown.
func (s *JobService) Wait() {
	s.wg.Wait()
}

func (s *JobService) execute(jobID, text string, rounds int, autoStop bool) {
	defer s.wg.Done()

	// Detached from the submitting request on purpose: the debate outlives
	// the HTTP call that started it.
	ctx := context.Background()
	if err := s.sem.Acquire(ctx, 1); err != nil {
		s.fail(ctx, jobID, err)
		return
	}
	defer s.sem.Release(1)

	ctx, span := scotel.StartDebateSpan(ctx, jobID, rounds)
	defer span.End()

	dir, err := os.MkdirTemp("", "msc_api_")
	if err != nil {
		s.fail(ctx, jobID, fmt.Errorf("create run dir: %w", err))
		return
	}
	defer os.RemoveAll(dir)

	hooks := Hooks{
		OnReviewerStart: func(round int, reviewer string) {
			progress := fmt.Sprintf("Runde %d/%d – %s prüft", round, rounds, reviewer)
			s.progress(ctx, jobID, progress)
			s.publish(ctx, messagequeue.SubjectDebateRound, messagequeue.DebateRoundPayload{
				JobID:    jobID,
				Round:    round,
				Reviewer: reviewer,
				Progress: progress,
			})
			if s.hub != nil {
				s.hub.BroadcastEvent(ctx, broadcast.EventDebateRound, broadcast.DebateRoundEvent{
					JobID:    jobID,
					Round:    round,
					Reviewer: reviewer,
					Progress: progress,
				})
			}
		},
		OnConvergence: func(round int, v debate.Verdict) {
			s.publish(ctx, messagequeue.SubjectDebateConvergence, messagequeue.DebateConvergencePayload{
				JobID:      jobID,
				Round:      round,
				ShouldStop: v.ShouldStop,
				Confidence: v.Confidence,
				Reason:     v.Reason,
			})
			if s.hub != nil {
				s.hub.BroadcastEvent(ctx, broadcast.EventDebateConvergence, broadcast.DebateConvergenceEvent{
					JobID:      jobID,
					Round:      round,
					ShouldStop: v.ShouldStop,
					Confidence: v.Confidence,
				})
			}
		},
	}

	res, err := s.debates.Run(ctx, text, RunConfig{
		MaxRounds:            rounds,
		MinRounds:            s.cfg.MinRounds,
		AutoStop:             autoStop,
		ConvergenceThreshold: s.cfg.ConvergenceThreshold,
		Models:               s.cfg.Models,
		MaxTokens:            s.cfg.MaxTokens,
		CompressMaxChars:     s.cfg.CompressMaxChars,
	}, checkpoint.NewStore(dir), hooks)
	if err != nil {
		s.fail(ctx, jobID, err)
		return
	}

	s.progress(ctx, jobID, "Synthese läuft")
	sctx, sspan := scotel.StartSynthesisSpan(ctx, res.RoundsCompleted)
	final, err := s.synth.Synthesize(sctx, res.Document, res.Log.FullText(), s.cfg.Models.Synthesis)
	sspan.End()
	if err != nil {
		s.fail(ctx, jobID, err)
		return
	}

	scotel.CountDebateCompleted(ctx, res.RoundsCompleted, res.StopReason == debate.StopConverged)

	job, err := s.store.Get(ctx, jobID)
	if err != nil {
		slog.Error("finished debate lost its job record", "job_id", jobID, "error", err)
		return
	}
	job.Status = debate.JobDone
	job.Progress = "abgeschlossen"
	job.Result = final
	job.RoundsCompleted = res.RoundsCompleted
	job.StopReason = res.StopReason
	job.JudgeReason = res.JudgeReason
	job.UpdatedAt = s.now()
	if err := s.store.Update(ctx, job); err != nil {
		slog.Error("update finished job", "job_id", jobID, "error", err)
		return
	}

	s.publish(ctx, messagequeue.SubjectDebateCompleted, messagequeue.DebateCompletedPayload{
		JobID:           jobID,
		RoundsCompleted: res.RoundsCompleted,
		StopReason:      string(res.StopReason),
	})
	s.broadcastStatus(ctx, job)
	slog.Info("debate job finished", "job_id", jobID, "rounds", res.RoundsCompleted, "stop_reason", res.StopReason)
}

func (s *JobService) progress(ctx context.Context, jobID, progress string) {
	job, err := s.store.Get(ctx, jobID)
	if err != nil {
		return
	}
	job.Progress = progress
	job.UpdatedAt = s.now()
	if err := s.store.Update(ctx, job); err != nil {
		slog.Warn("update job progress", "job_id", jobID, "error", err)
		return
	}
	s.broadcastStatus(ctx, job)
}

func (s *JobService) fail(ctx context.Context, jobID string, cause error) {
	slog.Error("debate job failed", "job_id", jobID, "error", cause)
	job, err := s.store.Get(ctx, jobID)
	if err != nil {
		return
	}
	job.Status = debate.JobError
	job.Error = cause.Error()
	job.UpdatedAt = s.now()
	if err := s.store.Update(ctx, job); err != nil {
		slog.Error("update failed job", "job_id", jobID, "error", err)
		return
	}
	s.publish(ctx, messagequeue.SubjectDebateFailed, messagequeue.DebateFailedPayload{
		JobID: jobID,
		Error: cause.Error(),
	})
	s.broadcastStatus(ctx, job)
}

func (s *JobService) broadcastStatus(ctx context.Context, job *debate.Job) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastEvent(ctx, broadcast.EventDebateStatus, job)
}

func (s *JobService) publish(ctx context.Context, subject string, payload any) {
	if s.queue == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := s.queue.Publish(ctx, subject, data); err != nil {
		slog.Warn("publish debate event", "subject", subject, "error", err)
	}
}

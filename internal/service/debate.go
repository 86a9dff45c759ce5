package service

import (
	"context"
	"fmt"
	"log/slog"

	scotel "github.com/maure-club/strategieclub/internal/adapter/otel"
	"github.com/maure-club/strategieclub/internal/domain/debate"
	"github.com/maure-club/strategieclub/internal/port/llm"
	"github.com/maure-club/strategieclub/internal/resilience"
)

// CheckpointStore persists per-cell reviewer output and reconstructs run
// state for resume.
type CheckpointStore interface {
	Save(round int, reviewer, document, critique string) error
	ResumeScan(maxRounds int) (round, step int, document string, log *debate.Log, err error)
}

// RunConfig configures one debate run.
type RunConfig struct {
	MaxRounds            int
	MinRounds            int
	AutoStop             bool
	ConvergenceThreshold int // 0..100, compared against the judge's confidence
	Models               debate.Models
	Resume               bool
	MaxTokens            int
	CompressMaxChars     int
}

// Hooks lets callers observe run progress without coupling the round loop to
// any presentation surface. All fields are optional.
type Hooks struct {
	OnResume        func(round, step int)
	OnReviewerStart func(round int, reviewer string)
	OnReviewerDone  func(round int, reviewer, critique string, structured bool)
	OnRoundComplete func(round int)
	OnConvergence   func(round int, v debate.Verdict)
}

// DebateService drives the round-robin critique loop: three reviewers in
// fixed order per round, each consuming its predecessor's document, with an
// optional convergence check between rounds. Strictly sequential; there is
// nothing to parallelize when every step depends on the previous one.
type DebateService struct {
	backends map[string]llm.Backend
	judge    *ConvergenceJudge
	retryer  *resilience.Retryer
}

// NewDebateService wires the three reviewer backends, the convergence judge
// and the shared retry policy.
func NewDebateService(claude, perplexity, chatgpt llm.Backend, judge *ConvergenceJudge, retryer *resilience.Retryer) *DebateService {
	return &DebateService{
		backends: map[string]llm.Backend{
			debate.ReviewerClaude:     claude,
			debate.ReviewerPerplexity: perplexity,
			debate.ReviewerChatGPT:    chatgpt,
		},
		judge:   judge,
		retryer: retryer,
	}
}

// Run executes the debate over inputText and returns the final state. Every
// completed (round, reviewer) cell is checkpointed through store; with
// cfg.Resume the run continues from the last contiguous checkpoint prefix.
func (s *DebateService) Run(ctx context.Context, inputText string, cfg RunConfig, store CheckpointStore, hooks Hooks) (*debate.Result, error) {
	if cfg.MaxRounds < 1 {
		return nil, fmt.Errorf("max rounds must be >= 1, got %d", cfg.MaxRounds)
	}
	minRounds := cfg.MinRounds
	if minRounds < 1 {
		minRounds = 1
	}
	if minRounds > cfg.MaxRounds {
		minRounds = cfg.MaxRounds
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 8192
	}

	document := inputText
	log := &debate.Log{}
	startRound, startStep := 1, 0

	if cfg.Resume {
		round, step, doc, resumedLog, err := store.ResumeScan(cfg.MaxRounds)
		if err != nil {
			return nil, fmt.Errorf("resume scan: %w", err)
		}
		if resumedLog.Len() > 0 {
			document = doc
			log = resumedLog
			startRound, startStep = round, step
			slog.Info("debate resumed", "round", round, "step", step, "entries", log.Len())
			if hooks.OnResume != nil {
				hooks.OnResume(round, step)
			}
		}
		if startRound > cfg.MaxRounds {
			return &debate.Result{
				Document:        document,
				Log:             log,
				RoundsCompleted: cfg.MaxRounds,
				StopReason:      debate.StopAllRounds,
			}, nil
		}
	}

	for round := startRound; round <= cfg.MaxRounds; round++ {
		roundCtx, roundSpan := scotel.StartRoundSpan(ctx, round, cfg.MaxRounds)

		docBefore := document
		critiqueForRound := log.Compressed(cfg.CompressMaxChars)

		for i, reviewer := range debate.ReviewerOrder {
			if round == startRound && i < startStep {
				continue
			}

			doc, critique, err := s.reviewerStep(roundCtx, reviewer, document, critiqueForRound, cfg.Models, maxTokens, round, hooks)
			if err != nil {
				roundSpan.End()
				return nil, err
			}
			document = doc
			log.Append(round, reviewer, critique)

			if err := store.Save(round, reviewer, doc, critique); err != nil {
				roundSpan.End()
				return nil, err
			}
		}
		roundSpan.End()

		if hooks.OnRoundComplete != nil {
			hooks.OnRoundComplete(round)
		}

		// Convergence is only ever judged strictly between completed rounds.
		// The final round always runs to completion unchecked.
		if cfg.AutoStop && round >= minRounds && round < cfg.MaxRounds {
			verdict, err := s.judge.Check(ctx, docBefore, document, log.RoundText(round), round, cfg.Models.Judge)
			if err != nil {
				slog.Warn("convergence check failed, continuing debate", "round", round, "error", err)
				continue
			}
			if hooks.OnConvergence != nil {
				hooks.OnConvergence(round, verdict)
			}
			slog.Info("convergence checked",
				"round", round,
				"should_stop", verdict.ShouldStop,
				"confidence", verdict.Confidence,
			)
			if verdict.ShouldStop && verdict.Confidence >= cfg.ConvergenceThreshold {
				return &debate.Result{
					Document:        document,
					Log:             log,
					RoundsCompleted: round,
					StopReason:      debate.StopConverged,
					JudgeReason:     verdict.Reason,
				}, nil
			}
		}
	}

	return &debate.Result{
		Document:        document,
		Log:             log,
		RoundsCompleted: cfg.MaxRounds,
		StopReason:      debate.StopAllRounds,
	}, nil
}

// reviewerStep runs one reviewer call through retry and parsing and reports
// it to the hooks. The returned error aborts the run (non-transient backend
// failures and exhausted retries); malformed replies degrade instead.
func (s *DebateService) reviewerStep(ctx context.Context, reviewer, document, critiqueHistory string, models debate.Models, maxTokens, round int, hooks Hooks) (doc, critique string, err error) {
	if hooks.OnReviewerStart != nil {
		hooks.OnReviewerStart(round, reviewer)
	}

	ctx, span := scotel.StartReviewerSpan(ctx, round, reviewer)
	defer span.End()

	model := modelFor(reviewer, models)
	raw, err := resilience.Do(ctx, s.retryer, func() (string, error) {
		return s.backends[reviewer].Complete(ctx, llm.Request{
			Model:     model,
			System:    systemPrompt(reviewer),
			User:      reviewerUserMessage(document, critiqueHistory),
			MaxTokens: maxTokens,
		})
	})
	if err != nil {
		return "", "", fmt.Errorf("reviewer %s (round %d): %w", reviewer, round, err)
	}
	scotel.CountReviewerCall(ctx, reviewer, model)

	doc, critique, structured := ParseStructuredReply(raw)
	if !structured {
		slog.Warn("unstructured reviewer reply, using raw text as document", "round", round, "reviewer", reviewer)
	}

	if hooks.OnReviewerDone != nil {
		hooks.OnReviewerDone(round, reviewer, critique, structured)
	}
	return doc, critique, nil
}

func modelFor(reviewer string, m debate.Models) string {
	switch reviewer {
	case debate.ReviewerClaude:
		return m.Claude
	case debate.ReviewerPerplexity:
		return m.Perplexity
	case debate.ReviewerChatGPT:
		return m.ChatGPT
	}
	return ""
}

package service

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/maure-club/strategieclub/internal/domain/debate"
	"github.com/maure-club/strategieclub/internal/port/llm"
	"github.com/maure-club/strategieclub/internal/resilience"
)

// fallbackJudgeReason is used when the judge reply carried no REASON section.
const fallbackJudgeReason = "(kein Grund extrahiert)"

// Verdict contract markers.
var (
	verdictPattern    = regexp.MustCompile(`(?s)---VERDICT---\s*\n(.*?)---CONFIDENCE---`)
	confidencePattern = regexp.MustCompile(`(?s)---CONFIDENCE---\s*\n(.*?)---REASON---`)
	reasonPattern     = regexp.MustCompile(`(?s)---REASON---\s*\n(.*?)---ENDE---`)
)

// ConvergenceJudge asks an independent model whether further debate rounds
// are still worth their cost.
type ConvergenceJudge struct {
	backend llm.Backend
	retryer *resilience.Retryer
}

// NewConvergenceJudge creates a judge on the given backend.
func NewConvergenceJudge(backend llm.Backend, retryer *resilience.Retryer) *ConvergenceJudge {
	return &ConvergenceJudge{backend: backend, retryer: retryer}
}

// Check judges one completed round. Errors are returned to the caller; the
// orchestrator treats them as "continue debating".
func (j *ConvergenceJudge) Check(ctx context.Context, docBefore, docAfter, roundCritique string, round int, model string) (debate.Verdict, error) {
	user := judgeUserMessage(docBefore, docAfter, roundCritique, round)

	raw, err := resilience.Do(ctx, j.retryer, func() (string, error) {
		return j.backend.Complete(ctx, llm.Request{
			Model:     model,
			System:    promptJudge,
			User:      user,
			MaxTokens: 1024,
		})
	})
	if err != nil {
		return debate.Verdict{}, err
	}

	return parseVerdict(raw), nil
}

// parseVerdict extracts the verdict with per-section defaults: a missing
// verdict means CONTINUE, missing confidence means 50, missing reason gets a
// placeholder. Partial replies never fail.
func parseVerdict(raw string) debate.Verdict {
	v := debate.Verdict{Confidence: 50, Reason: fallbackJudgeReason}

	if m := verdictPattern.FindStringSubmatch(raw); m != nil {
		v.ShouldStop = strings.EqualFold(strings.TrimSpace(m[1]), "STOP")
	}
	if m := confidencePattern.FindStringSubmatch(raw); m != nil {
		if n, err := strconv.Atoi(strings.TrimSpace(m[1])); err == nil {
			if n < 0 {
				n = 0
			}
			if n > 100 {
				n = 100
			}
			v.Confidence = n
		}
	}
	if m := reasonPattern.FindStringSubmatch(raw); m != nil {
		if reason := strings.TrimSpace(m[1]); reason != "" {
			v.Reason = reason
		}
	}
	return v
}

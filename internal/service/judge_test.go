package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/maure-club/strategieclub/internal/domain/debate"
	"github.com/maure-club/strategieclub/internal/port/llm"
	"github.com/maure-club/strategieclub/internal/resilience"
	"github.com/maure-club/strategieclub/internal/service"
)

// scriptedBackend returns canned replies (or errors) in order.
type scriptedBackend struct {
	replies []string
	errs    []error
	calls   int
	reqs    []llm.Request
}

func (b *scriptedBackend) Complete(_ context.Context, req llm.Request) (string, error) {
	i := b.calls
	b.calls++
	b.reqs = append(b.reqs, req)
	if i < len(b.errs) && b.errs[i] != nil {
		return "", b.errs[i]
	}
	if i < len(b.replies) {
		return b.replies[i], nil
	}
	return "", errors.New("scripted backend exhausted")
}

func TestJudgeCheckStopVerdict(t *testing.T) {
	backend := &scriptedBackend{replies: []string{
		"---VERDICT---\nSTOP\n---CONFIDENCE---\n85\n---REASON---\nNur noch Kosmetik in Runde 2.\n---ENDE---",
	}}
	judge := service.NewConvergenceJudge(backend, resilience.NewRetryer(1))

	v, err := judge.Check(context.Background(), "vorher", "nachher", "- [GEÄNDERT] x", 2, "claude-sonnet-4-20250514")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !v.ShouldStop {
		t.Fatal("expected STOP verdict")
	}
	if v.Confidence != 85 {
		t.Fatalf("expected confidence 85, got %d", v.Confidence)
	}
	if v.Reason != "Nur noch Kosmetik in Runde 2." {
		t.Fatalf("unexpected reason: %q", v.Reason)
	}
}

func TestJudgeCheckContinueVerdict(t *testing.T) {
	backend := &scriptedBackend{replies: []string{
		"---VERDICT---\nCONTINUE\n---CONFIDENCE---\n40\n---REASON---\nOffene Dissens-Punkte.\n---ENDE---",
	}}
	judge := service.NewConvergenceJudge(backend, resilience.NewRetryer(1))

	v, err := judge.Check(context.Background(), "a", "b", "k", 1, "m")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if v.ShouldStop {
		t.Fatal("expected CONTINUE verdict")
	}
}

func TestJudgeCheckPartialReplyDefaults(t *testing.T) {
	cases := []struct {
		name  string
		reply string
		want  debate.Verdict
	}{
		{
			name:  "no markers at all",
			reply: "Ich denke, ihr solltet aufhören.",
			want:  debate.Verdict{ShouldStop: false, Confidence: 50, Reason: "(kein Grund extrahiert)"},
		},
		{
			name:  "verdict only",
			reply: "---VERDICT---\nSTOP\n---CONFIDENCE---\nsehr sicher\n---REASON---\n\n---ENDE---",
			want:  debate.Verdict{ShouldStop: true, Confidence: 50, Reason: "(kein Grund extrahiert)"},
		},
		{
			name:  "confidence out of range clamped",
			reply: "---VERDICT---\nSTOP\n---CONFIDENCE---\n150\n---REASON---\nok\n---ENDE---",
			want:  debate.Verdict{ShouldStop: true, Confidence: 100, Reason: "ok"},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			backend := &scriptedBackend{replies: []string{c.reply}}
			judge := service.NewConvergenceJudge(backend, resilience.NewRetryer(1))
			v, err := judge.Check(context.Background(), "a", "b", "k", 1, "m")
			if err != nil {
				t.Fatalf("Check failed: %v", err)
			}
			if v != c.want {
				t.Fatalf("got %+v, want %+v", v, c.want)
			}
		})
	}
}

func TestJudgeCheckPropagatesCallError(t *testing.T) {
	backend := &scriptedBackend{errs: []error{errors.New("bad auth")}, replies: []string{""}}
	judge := service.NewConvergenceJudge(backend, resilience.NewRetryer(1))

	if _, err := judge.Check(context.Background(), "a", "b", "k", 1, "m"); err == nil {
		t.Fatal("expected error to propagate to the orchestrator")
	}
}

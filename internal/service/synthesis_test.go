package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/maure-club/strategieclub/internal/resilience"
	"github.com/maure-club/strategieclub/internal/service"
)

func TestSynthesizeReturnsRawReply(t *testing.T) {
	backend := &scriptedBackend{replies: []string{"# Finale Strategie\n\n## Dissens-Register\n- offen"}}
	s := service.NewSynthesizer(backend, resilience.NewRetryer(1))

	got, err := s.Synthesize(context.Background(), "dokument", "[Runde 1 – Claude]\nkritik", "claude-test")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !strings.Contains(got, "Dissens-Register") {
		t.Errorf("unexpected result: %q", got)
	}
	if backend.calls != 1 {
		t.Fatalf("expected 1 backend call, got %d", backend.calls)
	}

	req := backend.reqs[0]
	if req.Model != "claude-test" {
		t.Errorf("model = %q", req.Model)
	}
	if !strings.Contains(req.User, "dokument") || !strings.Contains(req.User, "kritik") {
		t.Errorf("user message missing document or log: %q", req.User)
	}
}

func TestSynthesizeWrapsError(t *testing.T) {
	backend := &scriptedBackend{errs: []error{errors.New("boom")}}
	s := service.NewSynthesizer(backend, resilience.NewRetryer(1))

	_, err := s.Synthesize(context.Background(), "doc", "", "m")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "final synthesis") {
		t.Errorf("error not wrapped: %v", err)
	}
}

package service

import (
	"context"
	"fmt"

	"github.com/maure-club/strategieclub/internal/port/llm"
	"github.com/maure-club/strategieclub/internal/resilience"
)

// Synthesizer turns the final document plus the full critique log into the
// deliverable: a clean document ending in the Dissens-Register.
type Synthesizer struct {
	backend llm.Backend
	retryer *resilience.Retryer
}

// NewSynthesizer creates a Synthesizer on the given backend.
func NewSynthesizer(backend llm.Backend, retryer *resilience.Retryer) *Synthesizer {
	return &Synthesizer{backend: backend, retryer: retryer}
}

// Synthesize runs the single terminal call. The raw reply is the final
// output; there is no format contract to enforce at this point, so even a
// malformed reply is returned as-is.
func (s *Synthesizer) Synthesize(ctx context.Context, document, fullLog, model string) (string, error) {
	user := synthesisUserMessage(document, fullLog)

	result, err := resilience.Do(ctx, s.retryer, func() (string, error) {
		return s.backend.Complete(ctx, llm.Request{
			Model:     model,
			System:    promptSynthesis,
			User:      user,
			MaxTokens: 8192,
		})
	})
	if err != nil {
		return "", fmt.Errorf("final synthesis: %w", err)
	}
	return result, nil
}

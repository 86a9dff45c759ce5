package otel

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "strategieclub"

// StartDebateSpan starts a span covering a whole debate run.
func StartDebateSpan(ctx context.Context, jobID string, maxRounds int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "debate",
		trace.WithAttributes(
			attribute.String("debate.job_id", jobID),
			attribute.Int("debate.max_rounds", maxRounds),
		),
	)
}

// StartRoundSpan starts a span for one critique round.
func StartRoundSpan(ctx context.Context, round, maxRounds int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "debate.round "+strconv.Itoa(round),
		trace.WithAttributes(
			attribute.Int("debate.round", round),
			attribute.Int("debate.max_rounds", maxRounds),
		),
	)
}

// StartReviewerSpan starts a span for a single reviewer call within a round.
func StartReviewerSpan(ctx context.Context, round int, reviewer string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "debate.reviewer",
		trace.WithAttributes(
			attribute.Int("debate.round", round),
			attribute.String("debate.reviewer", reviewer),
		),
	)
}

// StartSynthesisSpan starts a span for the final synthesis call.
func StartSynthesisSpan(ctx context.Context, rounds int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "debate.synthesis",
		trace.WithAttributes(attribute.Int("debate.rounds_completed", rounds)),
	)
}

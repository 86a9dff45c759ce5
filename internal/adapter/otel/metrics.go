package otel

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "strategieclub"

var (
	instrumentsOnce sync.Once
	reviewerCalls   metric.Int64Counter
	runsConverged   metric.Int64Counter
	runsCompleted   metric.Int64Counter
	backendRetries  metric.Int64Counter
	roundsPerRun    metric.Int64Histogram
)

// The global meter upgrades in place once a provider is installed, so lazy
// creation here is safe regardless of init order.
func instruments() {
	instrumentsOnce.Do(func() {
		meter := otel.Meter(meterName)
		reviewerCalls, _ = meter.Int64Counter("strategieclub.reviewer.calls",
			metric.WithDescription("Number of reviewer model calls"))
		runsConverged, _ = meter.Int64Counter("strategieclub.debates.converged",
			metric.WithDescription("Number of debates stopped by the convergence judge"))
		runsCompleted, _ = meter.Int64Counter("strategieclub.debates.completed",
			metric.WithDescription("Number of debates finished"))
		backendRetries, _ = meter.Int64Counter("strategieclub.backend.retries",
			metric.WithDescription("Number of backend calls retried after a transient failure"))
		roundsPerRun, _ = meter.Int64Histogram("strategieclub.debate.rounds",
			metric.WithDescription("Rounds completed per debate"))
	})
}

// CountReviewerCall records one successful reviewer model call.
func CountReviewerCall(ctx context.Context, reviewer, model string) {
	instruments()
	reviewerCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reviewer", reviewer),
		attribute.String("model", model),
	))
}

// CountRetry records one retried backend call.
func CountRetry(ctx context.Context) {
	instruments()
	backendRetries.Add(ctx, 1)
}

// CountDebateCompleted records a finished debate and its round count.
func CountDebateCompleted(ctx context.Context, rounds int, converged bool) {
	instruments()
	runsCompleted.Add(ctx, 1)
	if converged {
		runsConverged.Add(ctx, 1)
	}
	roundsPerRun.Record(ctx, int64(rounds))
}

package service_test

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/maure-club/strategieclub/internal/adapter/memory"
	"github.com/maure-club/strategieclub/internal/domain/debate"
	"github.com/maure-club/strategieclub/internal/port/broadcast"
	"github.com/maure-club/strategieclub/internal/resilience"
	"github.com/maure-club/strategieclub/internal/service"
)

func newJobService(t *testing.T, claude, pplx, chatgpt, synth *scriptedBackend, cfg service.JobConfig) (*service.JobService, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	debates := service.NewDebateService(claude, pplx, chatgpt,
		service.NewConvergenceJudge(&scriptedBackend{}, resilience.NewRetryer(1)),
		resilience.NewRetryer(1))
	svc := service.NewJobService(store, debates, service.NewSynthesizer(synth, resilience.NewRetryer(1)), cfg)
	return svc, store
}

func TestJobRunsToCompletion(t *testing.T) {
	claude := reviewerScript(debate.ReviewerClaude, 1)
	pplx := reviewerScript(debate.ReviewerPerplexity, 1)
	chatgpt := reviewerScript(debate.ReviewerChatGPT, 1)
	synth := &scriptedBackend{replies: []string{"# Finales Strategiedokument"}}
	svc, _ := newJobService(t, claude, pplx, chatgpt, synth, service.JobConfig{
		Rounds: 1,
		Models: testModels(),
	})

	job, err := svc.Submit(context.Background(), debate.SubmitRequest{Text: "Strategieentwurf"})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if len(job.ID) != 12 {
		t.Fatalf("expected 12-char job ID, got %q", job.ID)
	}
	if job.Status != debate.JobRunning {
		t.Fatalf("expected running, got %q", job.Status)
	}

	svc.Wait()

	done, err := svc.Get(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if done.Status != debate.JobDone {
		t.Fatalf("expected done, got %q (error: %s)", done.Status, done.Error)
	}
	if done.Result != "# Finales Strategiedokument" {
		t.Fatalf("unexpected result: %q", done.Result)
	}
	if done.RoundsCompleted != 1 || done.StopReason != debate.StopAllRounds {
		t.Fatalf("unexpected run stats: %+v", done)
	}
}

func TestJobRejectsEmptyText(t *testing.T) {
	svc, _ := newJobService(t, &scriptedBackend{}, &scriptedBackend{}, &scriptedBackend{}, &scriptedBackend{}, service.JobConfig{Rounds: 1, Models: testModels()})
	if _, err := svc.Submit(context.Background(), debate.SubmitRequest{Text: "   "}); err == nil {
		t.Fatal("expected error for empty text")
	}
}

func TestJobFailureRecorded(t *testing.T) {
	// Exhausting its single reply makes the Claude backend error out.
	claude := &scriptedBackend{}
	svc, _ := newJobService(t, claude, &scriptedBackend{}, &scriptedBackend{}, &scriptedBackend{}, service.JobConfig{Rounds: 1, Models: testModels()})

	job, err := svc.Submit(context.Background(), debate.SubmitRequest{Text: "Entwurf"})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	svc.Wait()

	failed, err := svc.Get(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if failed.Status != debate.JobError {
		t.Fatalf("expected error status, got %q", failed.Status)
	}
	if !strings.Contains(failed.Error, debate.ReviewerClaude) {
		t.Fatalf("error should name the failing reviewer: %q", failed.Error)
	}
}

func TestJobAppendsSupplement(t *testing.T) {
	claude := reviewerScript(debate.ReviewerClaude, 1)
	pplx := reviewerScript(debate.ReviewerPerplexity, 1)
	chatgpt := reviewerScript(debate.ReviewerChatGPT, 1)
	synth := &scriptedBackend{replies: []string{"final"}}
	svc, _ := newJobService(t, claude, pplx, chatgpt, synth, service.JobConfig{Rounds: 1, Models: testModels()})

	_, err := svc.Submit(context.Background(), debate.SubmitRequest{
		Text:       "Haupttext",
		Supplement: "Budget max. 50k",
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	svc.Wait()

	user := claude.reqs[0].User
	if !strings.Contains(user, "**Zusätzlicher Kontext:**") || !strings.Contains(user, "Budget max. 50k") {
		t.Fatalf("supplement not appended to reviewed text: %q", user)
	}
}

func TestJobClampsRounds(t *testing.T) {
	claude := reviewerScript(debate.ReviewerClaude, 1)
	pplx := reviewerScript(debate.ReviewerPerplexity, 1)
	chatgpt := reviewerScript(debate.ReviewerChatGPT, 1)
	synth := &scriptedBackend{replies: []string{"final"}}
	svc, _ := newJobService(t, claude, pplx, chatgpt, synth, service.JobConfig{Rounds: 3, Models: testModels()})

	job, err := svc.Submit(context.Background(), debate.SubmitRequest{Text: "Entwurf", Rounds: -4})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	svc.Wait()

	done, _ := svc.Get(context.Background(), job.ID)
	if done.Status != debate.JobDone {
		t.Fatalf("expected done, got %q (error: %s)", done.Status, done.Error)
	}
	if done.RoundsCompleted != 1 {
		t.Fatalf("negative rounds should clamp to 1, got %d", done.RoundsCompleted)
	}
}

// capturingCache records every key it sees so tests can check the key shape
// shared with the JetStream KV result bucket.
type capturingCache struct {
	mu   sync.Mutex
	data map[string][]byte
	keys []string
}

func newCapturingCache() *capturingCache {
	return &capturingCache{data: make(map[string][]byte)}
}

func (c *capturingCache) Get(_ context.Context, key string) (data []byte, ok bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = append(c.keys, key)
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *capturingCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = append(c.keys, key)
	c.data[key] = value
	return nil
}

func (c *capturingCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// kvKeyPattern is the key charset JetStream KV accepts.
var kvKeyPattern = regexp.MustCompile(`^[-/_=.a-zA-Z0-9]+$`)

func TestJobResultCacheKeysAreKVSafe(t *testing.T) {
	claude := reviewerScript(debate.ReviewerClaude, 1)
	pplx := reviewerScript(debate.ReviewerPerplexity, 1)
	chatgpt := reviewerScript(debate.ReviewerChatGPT, 1)
	synth := &scriptedBackend{replies: []string{"final"}}
	svc, _ := newJobService(t, claude, pplx, chatgpt, synth, service.JobConfig{Rounds: 1, Models: testModels()})

	results := newCapturingCache()
	svc.SetResultCache(results)

	job, err := svc.Submit(context.Background(), debate.SubmitRequest{Text: "Entwurf"})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	svc.Wait()

	// First Get caches the finished job, second is served from the cache.
	if _, err := svc.Get(context.Background(), job.ID); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	cached, err := svc.Get(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("cached Get failed: %v", err)
	}
	if cached.Status != debate.JobDone {
		t.Fatalf("expected done from cache, got %q", cached.Status)
	}

	results.mu.Lock()
	defer results.mu.Unlock()
	if len(results.keys) == 0 {
		t.Fatal("result cache was never touched")
	}
	for _, key := range results.keys {
		if !kvKeyPattern.MatchString(key) {
			t.Fatalf("cache key %q is not a valid JetStream KV key", key)
		}
	}
	if want := "job." + job.ID; results.keys[len(results.keys)-1] != want {
		t.Fatalf("expected key %q, got %q", want, results.keys[len(results.keys)-1])
	}
}

// capturingHub records broadcast events.
type capturingHub struct {
	mu     sync.Mutex
	events []hubEvent
}

type hubEvent struct {
	eventType string
	payload   any
}

func (h *capturingHub) BroadcastEvent(_ context.Context, eventType string, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, hubEvent{eventType: eventType, payload: payload})
}

func (h *capturingHub) byType(eventType string) []hubEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []hubEvent
	for _, e := range h.events {
		if e.eventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

func TestJobBroadcastsTypedEvents(t *testing.T) {
	claude := reviewerScript(debate.ReviewerClaude, 2)
	pplx := reviewerScript(debate.ReviewerPerplexity, 2)
	chatgpt := reviewerScript(debate.ReviewerChatGPT, 2)
	judge := &scriptedBackend{replies: []string{
		"---VERDICT---\nCONTINUE\n---CONFIDENCE---\n40\n---REASON---\nnoch offene Differenzen\n---ENDE---",
	}}
	synth := &scriptedBackend{replies: []string{"final"}}

	store := memory.NewStore()
	debates := service.NewDebateService(claude, pplx, chatgpt,
		service.NewConvergenceJudge(judge, resilience.NewRetryer(1)),
		resilience.NewRetryer(1))
	svc := service.NewJobService(store, debates, service.NewSynthesizer(synth, resilience.NewRetryer(1)), service.JobConfig{
		Rounds:               2,
		MinRounds:            1,
		AutoStop:             true,
		ConvergenceThreshold: 70,
		Models:               testModels(),
	})

	hub := &capturingHub{}
	svc.SetBroadcaster(hub)

	job, err := svc.Submit(context.Background(), debate.SubmitRequest{Text: "Entwurf"})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	svc.Wait()

	rounds := hub.byType(broadcast.EventDebateRound)
	if len(rounds) != 6 {
		t.Fatalf("expected 6 round events (2 rounds x 3 reviewers), got %d", len(rounds))
	}
	first, ok := rounds[0].payload.(broadcast.DebateRoundEvent)
	if !ok {
		t.Fatalf("round payload has type %T", rounds[0].payload)
	}
	if first.JobID != job.ID || first.Round != 1 || first.Reviewer != debate.ReviewerClaude {
		t.Fatalf("unexpected first round event: %+v", first)
	}

	conv := hub.byType(broadcast.EventDebateConvergence)
	if len(conv) != 1 {
		t.Fatalf("expected 1 convergence event, got %d", len(conv))
	}
	verdict, ok := conv[0].payload.(broadcast.DebateConvergenceEvent)
	if !ok {
		t.Fatalf("convergence payload has type %T", conv[0].payload)
	}
	if verdict.ShouldStop || verdict.Confidence != 40 {
		t.Fatalf("unexpected convergence event: %+v", verdict)
	}

	if len(hub.byType(broadcast.EventDebateStatus)) == 0 {
		t.Fatal("expected status events")
	}
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/maure-club/strategieclub/internal/adapter/anthropic"
	schttp "github.com/maure-club/strategieclub/internal/adapter/http"
	"github.com/maure-club/strategieclub/internal/adapter/memory"
	scnats "github.com/maure-club/strategieclub/internal/adapter/nats"
	"github.com/maure-club/strategieclub/internal/adapter/natskv"
	"github.com/maure-club/strategieclub/internal/adapter/openai"
	scotel "github.com/maure-club/strategieclub/internal/adapter/otel"
	"github.com/maure-club/strategieclub/internal/adapter/postgres"
	"github.com/maure-club/strategieclub/internal/adapter/ristretto"
	"github.com/maure-club/strategieclub/internal/adapter/tiered"
	"github.com/maure-club/strategieclub/internal/adapter/ws"
	"github.com/maure-club/strategieclub/internal/config"
	"github.com/maure-club/strategieclub/internal/domain/debate"
	"github.com/maure-club/strategieclub/internal/logger"
	"github.com/maure-club/strategieclub/internal/port/cache"
	"github.com/maure-club/strategieclub/internal/port/jobstore"
	"github.com/maure-club/strategieclub/internal/resilience"
	"github.com/maure-club/strategieclub/internal/service"
)

// serveCmd starts the HTTP job API with the full ambient stack: optional
// Postgres job store, optional NATS event stream, WebSocket hub, result
// cache and OTLP export.
func serveCmd() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	slog.SetDefault(logger.New(cfg.Logging))
	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"rounds", cfg.Debate.Rounds,
		"auto_stop", cfg.Debate.AutoStop,
		"postgres", cfg.Postgres.DSN != "",
		"nats", cfg.NATS.URL != "",
	)

	ctx := context.Background()

	// --- Observability ---
	shutdownTracer, err := scotel.InitTracer(ctx, cfg.Logging.Service, cfg.Otel.Endpoint)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	shutdownMeter, err := scotel.InitMeter(ctx, cfg.Logging.Service, cfg.Otel.Endpoint)
	if err != nil {
		return fmt.Errorf("meter: %w", err)
	}
	defer func() { _ = shutdownMeter(context.Background()) }()

	// --- Job store ---
	var store jobstore.Store
	if cfg.Postgres.DSN != "" {
		pool, err := postgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pool.Close()
		if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		store = postgres.NewStore(pool)
		slog.Info("postgres job store ready")
	} else {
		store = memory.NewStore()
		slog.Info("in-memory job store (set DATABASE_URL to persist jobs)")
	}

	// --- LLM backends ---
	claude := anthropic.NewClient(cfg.Backends.Anthropic.BaseURL, cfg.Backends.Anthropic.APIKey, cfg.Backends.Anthropic.Timeout)
	chatgpt := openai.NewClient(cfg.Backends.OpenAI.BaseURL, cfg.Backends.OpenAI.APIKey, cfg.Backends.OpenAI.Timeout)
	perplexityURL := cfg.Backends.Perplexity.BaseURL
	if perplexityURL == "" {
		perplexityURL = openai.PerplexityBaseURL
	}
	perplexity := openai.NewClient(perplexityURL, cfg.Backends.Perplexity.APIKey, cfg.Backends.Perplexity.Timeout)

	newBreaker := func() *resilience.Breaker {
		return resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)
	}
	claude.SetBreaker(newBreaker())
	chatgpt.SetBreaker(newBreaker())
	perplexity.SetBreaker(newBreaker())
	breakers := map[string]*resilience.Breaker{
		"anthropic":  claude.Breaker(),
		"openai":     chatgpt.Breaker(),
		"perplexity": perplexity.Breaker(),
	}

	// --- Services ---
	retryer := resilience.NewRetryer(cfg.Debate.Retries)
	retryer.SetRetryHook(scotel.CountRetry)
	judge := service.NewConvergenceJudge(claude, retryer)
	debates := service.NewDebateService(claude, perplexity, chatgpt, judge, retryer)
	synth := service.NewSynthesizer(claude, retryer)

	jobs := service.NewJobService(store, debates, synth, service.JobConfig{
		Rounds:               cfg.Debate.Rounds,
		MinRounds:            cfg.Debate.MinRounds,
		AutoStop:             cfg.Debate.AutoStop,
		ConvergenceThreshold: cfg.Debate.ConvergenceThreshold,
		Models:               debateModels(cfg.Debate.Models),
		MaxTokens:            cfg.Debate.MaxTokens,
		CompressMaxChars:     cfg.Debate.CompressMaxChars,
		MaxConcurrent:        cfg.Debate.MaxConcurrent,
		ResultTTL:            cfg.Cache.ResultTTL,
	})

	hub := ws.NewHub()
	jobs.SetBroadcaster(hub)

	var queue *scnats.Queue
	if cfg.NATS.URL != "" {
		queue, err = scnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = queue.Close() }()
		jobs.SetQueue(queue)
		slog.Info("nats event stream connected")
	}

	if cfg.Cache.MaxSizeMB > 0 {
		local, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
		if err != nil {
			return fmt.Errorf("result cache: %w", err)
		}
		defer local.Close()

		var results cache.Cache = local
		if queue != nil {
			// Share finished results across replicas through a KV bucket;
			// the local cache stays in front for status polling.
			kv, err := natskv.CreateBucket(ctx, queue.JetStream(), "strategieclub-results", cfg.Cache.ResultTTL)
			if err != nil {
				return fmt.Errorf("result bucket: %w", err)
			}
			results = tiered.New(local, natskv.New(kv), cfg.Cache.ResultTTL)
		}
		jobs.SetResultCache(results)
	}

	// --- HTTP ---
	handlers := schttp.NewHandlers(jobs, breakers)
	if queue != nil {
		handlers.SetQueue(queue)
	}

	r := chi.NewRouter()
	r.Use(schttp.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(schttp.Logger)
	r.Use(schttp.CORS(cfg.Server.CORSOrigin))
	r.Use(schttp.BearerAuth(cfg.APIToken))
	if cfg.Otel.Endpoint != "" {
		r.Use(scotel.HTTPMiddleware(cfg.Logging.Service))
	}
	schttp.MountRoutes(r, handlers, hub)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	// Let in-flight debates finish writing their final job state.
	jobs.Wait()
	return nil
}

func debateModels(m config.Models) debate.Models {
	return debate.Models{
		Claude:     m.Claude,
		Perplexity: m.Perplexity,
		ChatGPT:    m.ChatGPT,
		Judge:      m.Judge,
		Synthesis:  m.Synthesis,
	}
}

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maure-club/strategieclub/internal/adapter/anthropic"
	"github.com/maure-club/strategieclub/internal/adapter/mcp"
	"github.com/maure-club/strategieclub/internal/adapter/openai"
	"github.com/maure-club/strategieclub/internal/config"
	"github.com/maure-club/strategieclub/internal/logger"
	"github.com/maure-club/strategieclub/internal/resilience"
	"github.com/maure-club/strategieclub/internal/service"
)

// mcpCmd serves the debate tools over stdio. Logs go to stderr because
// stdout carries the MCP protocol stream.
func mcpCmd() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	slog.SetDefault(logger.NewCLI(false))

	claude := anthropic.NewClient(cfg.Backends.Anthropic.BaseURL, cfg.Backends.Anthropic.APIKey, cfg.Backends.Anthropic.Timeout)
	chatgpt := openai.NewClient(cfg.Backends.OpenAI.BaseURL, cfg.Backends.OpenAI.APIKey, cfg.Backends.OpenAI.Timeout)
	perplexityURL := cfg.Backends.Perplexity.BaseURL
	if perplexityURL == "" {
		perplexityURL = openai.PerplexityBaseURL
	}
	perplexity := openai.NewClient(perplexityURL, cfg.Backends.Perplexity.APIKey, cfg.Backends.Perplexity.Timeout)

	retryer := resilience.NewRetryer(cfg.Debate.Retries)
	judge := service.NewConvergenceJudge(claude, retryer)

	s := mcp.NewServer(mcp.ServerConfig{
		Name:    "maure-strategie-club",
		Version: "0.1.0",
	}, mcp.ServerDeps{
		Debates:              service.NewDebateService(claude, perplexity, chatgpt, judge, retryer),
		Synth:                service.NewSynthesizer(claude, retryer),
		Rounds:               cfg.Debate.Rounds,
		MinRounds:            cfg.Debate.MinRounds,
		ConvergenceThreshold: cfg.Debate.ConvergenceThreshold,
		MaxTokens:            cfg.Debate.MaxTokens,
		CompressMaxChars:     cfg.Debate.CompressMaxChars,
		Models:               debateModels(cfg.Debate.Models),
	})

	slog.Info("mcp server listening on stdio")
	return s.ServeStdio(context.Background())
}

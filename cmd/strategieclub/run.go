package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/maure-club/strategieclub/internal/adapter/anthropic"
	"github.com/maure-club/strategieclub/internal/adapter/checkpoint"
	"github.com/maure-club/strategieclub/internal/adapter/openai"
	"github.com/maure-club/strategieclub/internal/domain/debate"
	"github.com/maure-club/strategieclub/internal/logger"
	"github.com/maure-club/strategieclub/internal/resilience"
	"github.com/maure-club/strategieclub/internal/service"
)

// runCmd executes one full debate over a local document and writes the
// synthesized result to the output file.
func runCmd(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	input := fs.String("input", "", "input document (Markdown/text)")
	rounds := fs.Int("rounds", 4, "number of debate rounds")
	output := fs.String("output", "", "output file for the final document")
	outputDir := fs.String("output-dir", "debate_output", "directory for per-round checkpoint files")
	resume := fs.Bool("resume", false, "resume from the last completed checkpoint")
	verbose := fs.Bool("verbose", false, "verbose console output")
	autoStop := fs.Bool("auto-stop", false, "stop early when the convergence judge is confident")
	claudeModel := fs.String("claude-model", "claude-sonnet-4-20250514", "Claude model")
	openaiModel := fs.String("openai-model", "gpt-4o", "ChatGPT model")
	perplexityModel := fs.String("perplexity-model", "sonar-pro", "Perplexity model")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *input == "" || *output == "" {
		return fmt.Errorf("-input and -output are required")
	}

	slog.SetDefault(logger.NewCLI(*verbose))

	if err := checkAPIKeys(); err != nil {
		return err
	}

	text, err := os.ReadFile(*input)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	p := newPrinter(*rounds, *verbose)
	p.banner("Strategie-Debatte startet\nInput: %s\nRunden: %d\nModelle: Claude=%s, ChatGPT=%s, Perplexity=%s",
		*input, *rounds, *claudeModel, *openaiModel, *perplexityModel)

	const apiTimeout = 2 * time.Minute
	claude := anthropic.NewClient("", os.Getenv("ANTHROPIC_API_KEY"), apiTimeout)
	chatgpt := openai.NewClient("", os.Getenv("OPENAI_API_KEY"), apiTimeout)
	perplexity := openai.NewClient(openai.PerplexityBaseURL, os.Getenv("PERPLEXITY_API_KEY"), apiTimeout)

	retryer := resilience.NewRetryer(3)
	judge := service.NewConvergenceJudge(claude, retryer)
	debates := service.NewDebateService(claude, perplexity, chatgpt, judge, retryer)
	synth := service.NewSynthesizer(claude, retryer)

	models := debate.Models{
		Claude:     *claudeModel,
		Perplexity: *perplexityModel,
		ChatGPT:    *openaiModel,
		Judge:      *claudeModel,
		Synthesis:  *claudeModel,
	}

	ctx := context.Background()
	res, err := debates.Run(ctx, string(text), service.RunConfig{
		MaxRounds:            *rounds,
		MinRounds:            2,
		AutoStop:             *autoStop,
		ConvergenceThreshold: 70,
		Models:               models,
		Resume:               *resume,
		MaxTokens:            8192,
		CompressMaxChars:     4000,
	}, checkpoint.NewStore(*outputDir), p.hooks())
	if err != nil {
		return err
	}

	p.banner("Finale Synthese")
	final, err := synth.Synthesize(ctx, res.Document, res.Log.FullText(), models.Synthesis)
	if err != nil {
		return err
	}

	if err := os.WriteFile(*output, []byte(final), 0o600); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	p.printf("Fertig! Ergebnis: %s", *output)
	p.printf("Zwischendateien: %s/", *outputDir)
	if res.StopReason == debate.StopConverged {
		p.printf("Auto-Stop nach Runde %d: %s", res.RoundsCompleted, res.JudgeReason)
	}
	return nil
}

func checkAPIKeys() error {
	var missing []string
	for _, key := range []string{"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "PERPLEXITY_API_KEY"} {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("fehlende API-Keys: %s (als Umgebungsvariablen setzen)", strings.Join(missing, ", "))
	}
	return nil
}

// printer writes run progress to stderr so stdout stays clean. Banners are
// boxed only when stderr is a terminal.
type printer struct {
	rounds  int
	verbose bool
	tty     bool
}

func newPrinter(rounds int, verbose bool) *printer {
	return &printer{
		rounds:  rounds,
		verbose: verbose,
		tty:     term.IsTerminal(int(os.Stderr.Fd())),
	}
}

func (p *printer) printf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

func (p *printer) banner(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if !p.tty {
		p.printf("== %s", strings.ReplaceAll(msg, "\n", " | "))
		return
	}
	lines := strings.Split(msg, "\n")
	width := 0
	for _, l := range lines {
		if len(l) > width {
			width = len(l)
		}
	}
	p.printf("+%s+", strings.Repeat("-", width+2))
	for _, l := range lines {
		p.printf("| %-*s |", width, l)
	}
	p.printf("+%s+", strings.Repeat("-", width+2))
}

func (p *printer) hooks() service.Hooks {
	return service.Hooks{
		OnResume: func(round, _ int) {
			p.printf("Fortgesetzt ab Runde %d", round)
		},
		OnReviewerStart: func(round int, reviewer string) {
			if reviewer == debate.ReviewerClaude {
				p.banner("Runde %d/%d", round, p.rounds)
			}
			p.printf("  %s arbeitet...", reviewer)
		},
		OnReviewerDone: func(_ int, reviewer, critique string, structured bool) {
			if !structured {
				p.printf("  Warnung: Strukturiertes Format nicht erkannt, nutze Rohausgabe")
			}
			if p.verbose {
				p.printf("  %s Kritikpunkte:", reviewer)
				lines := strings.Split(critique, "\n")
				for i, line := range lines {
					if i == 5 {
						p.printf("    ... (%d weitere)", len(lines)-5)
						break
					}
					p.printf("    %s", line)
				}
			}
			p.printf("  %s fertig", reviewer)
		},
		OnConvergence: func(round int, v debate.Verdict) {
			p.printf("Konvergenz-Check nach Runde %d: stop=%t confidence=%d", round, v.ShouldStop, v.Confidence)
		},
	}
}

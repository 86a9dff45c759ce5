package mcp

import (
	"context"
	"fmt"
	"os"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/maure-club/strategieclub/internal/adapter/checkpoint"
	"github.com/maure-club/strategieclub/internal/domain/debate"
	"github.com/maure-club/strategieclub/internal/service"
)

// registerTools registers all MCP tools on the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.debateTool(),
		s.debateQuickTool(),
	)
}

func (s *Server) debateTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("debate",
		mcplib.WithDescription("Startet eine Multi-KI-Strategie-Debatte: das Dokument wird in mehreren Runden von Claude, Perplexity und ChatGPT überarbeitet und am Ende mit Dissens-Register zusammengefasst"),
		mcplib.WithString("document",
			mcplib.Required(),
			mcplib.Description("Der Text des Strategiedokuments (Markdown)"),
		),
		mcplib.WithNumber("rounds",
			mcplib.Description("Anzahl der Debattenrunden (1-6, Standard: 3)"),
		),
		mcplib.WithString("supplementary_text",
			mcplib.Description("Optionaler Zusatztext/Kontext zum Dokument"),
		),
		mcplib.WithBoolean("auto_stop",
			mcplib.Description("Automatisch stoppen wenn Konvergenz erkannt wird (Standard: an)"),
		),
		mcplib.WithString("claude_model", mcplib.Description("Claude-Modell-ID")),
		mcplib.WithString("chatgpt_model", mcplib.Description("ChatGPT-Modell-ID")),
		mcplib.WithString("perplexity_model", mcplib.Description("Perplexity-Modell-ID")),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleDebate,
	}
}

func (s *Server) debateQuickTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("debate_quick",
		mcplib.WithDescription("Schnelle Strategie-Debatte mit 2 Runden und Auto-Stop, Kurzversion für schnelles Feedback"),
		mcplib.WithString("document",
			mcplib.Required(),
			mcplib.Description("Der Text des Strategiedokuments"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleDebateQuick,
	}
}

func (s *Server) handleDebate(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	args := req.GetArguments()

	document, ok := args["document"].(string)
	if !ok || strings.TrimSpace(document) == "" {
		return mcplib.NewToolResultError("document is required"), nil
	}

	rounds := s.deps.Rounds
	if v, ok := args["rounds"].(float64); ok {
		rounds = int(v)
	}
	if rounds < 1 {
		rounds = 1
	}
	if rounds > 6 {
		rounds = 6
	}

	autoStop := true
	if v, ok := args["auto_stop"].(bool); ok {
		autoStop = v
	}

	models := s.deps.Models
	if v, ok := args["claude_model"].(string); ok && v != "" {
		models.Claude = v
	}
	if v, ok := args["chatgpt_model"].(string); ok && v != "" {
		models.ChatGPT = v
	}
	if v, ok := args["perplexity_model"].(string); ok && v != "" {
		models.Perplexity = v
	}

	input := document
	if sup, ok := args["supplementary_text"].(string); ok && strings.TrimSpace(sup) != "" {
		input += fmt.Sprintf("\n\n---\n\n**Zusätzlicher Kontext:**\n%s", sup)
	}

	result, err := s.runDebate(ctx, input, rounds, autoStop, models)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("debate failed", err), nil
	}
	return mcplib.NewToolResultText(result), nil
}

func (s *Server) handleDebateQuick(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	args := req.GetArguments()

	document, ok := args["document"].(string)
	if !ok || strings.TrimSpace(document) == "" {
		return mcplib.NewToolResultError("document is required"), nil
	}

	result, err := s.runDebate(ctx, document, 2, true, s.deps.Models)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("debate failed", err), nil
	}
	return mcplib.NewToolResultText(result), nil
}

// runDebate executes a full debate over a temp checkpoint dir and returns
// the synthesized document with a metadata header.
func (s *Server) runDebate(ctx context.Context, input string, rounds int, autoStop bool, models debate.Models) (string, error) {
	dir, err := os.MkdirTemp("", "msc_debate_")
	if err != nil {
		return "", fmt.Errorf("create run dir: %w", err)
	}
	defer os.RemoveAll(dir)

	res, err := s.deps.Debates.Run(ctx, input, service.RunConfig{
		MaxRounds:            rounds,
		MinRounds:            s.deps.MinRounds,
		AutoStop:             autoStop,
		ConvergenceThreshold: s.deps.ConvergenceThreshold,
		Models:               models,
		MaxTokens:            s.deps.MaxTokens,
		CompressMaxChars:     s.deps.CompressMaxChars,
	}, checkpoint.NewStore(dir), service.Hooks{})
	if err != nil {
		return "", err
	}

	final, err := s.deps.Synth.Synthesize(ctx, res.Document, res.Log.FullText(), models.Synthesis)
	if err != nil {
		return "", err
	}

	meta := fmt.Sprintf("<!-- MSC Debate: %d Runden", res.RoundsCompleted)
	if res.StopReason == debate.StopConverged {
		meta += fmt.Sprintf(" (Auto-Stop: Konvergenz nach Runde %d)", res.RoundsCompleted)
	}
	meta += " -->\n\n"

	return meta + final, nil
}

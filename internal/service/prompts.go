package service

import (
	_ "embed"
	"fmt"

	"github.com/maure-club/strategieclub/internal/domain/debate"
)

// System prompts for the three reviewer personas, the synthesis moderator
// and the convergence judge. The marker contract inside them must stay in
// sync with the parser.
var (
	//go:embed prompts/reviewer_claude.md
	promptReviewerClaude string

	//go:embed prompts/reviewer_perplexity.md
	promptReviewerPerplexity string

	//go:embed prompts/reviewer_chatgpt.md
	promptReviewerChatGPT string

	//go:embed prompts/synthesis.md
	promptSynthesis string

	//go:embed prompts/judge.md
	promptJudge string
)

// systemPrompt returns the role prompt for a reviewer.
func systemPrompt(reviewer string) string {
	switch reviewer {
	case debate.ReviewerClaude:
		return promptReviewerClaude
	case debate.ReviewerPerplexity:
		return promptReviewerPerplexity
	case debate.ReviewerChatGPT:
		return promptReviewerChatGPT
	}
	return ""
}

// reviewerUserMessage builds the per-call user message: compressed critique
// history first, then the current document.
func reviewerUserMessage(document, critiqueHistory string) string {
	return fmt.Sprintf("Bisheriger Kritik-Verlauf:\n%s\n\n---\n\nAktuelles Dokument:\n%s", critiqueHistory, document)
}

// synthesisUserMessage builds the terminal synthesis call's user message.
func synthesisUserMessage(document, fullLog string) string {
	return fmt.Sprintf("Finaler Dokumenttext nach allen Runden:\n\n%s\n\n---\n\nVollständiger Kritik-Verlauf:\n\n%s", document, fullLog)
}

// judgeUserMessage builds the convergence judge's user message from the
// round's before/after documents and its critique text.
func judgeUserMessage(docBefore, docAfter, roundCritique string, round int) string {
	return fmt.Sprintf(
		"Runde %d ist abgeschlossen.\n\nDokument VOR der Runde:\n\n%s\n\n---\n\nDokument NACH der Runde:\n\n%s\n\n---\n\nKritikpunkte dieser Runde:\n%s",
		round, docBefore, docAfter, roundCritique,
	)
}

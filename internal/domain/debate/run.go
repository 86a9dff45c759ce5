package debate

// Fixed reviewer names, in round-robin order. Reviewer i+1 always consumes
// reviewer i's output document, so the order is part of the contract.
const (
	ReviewerClaude     = "Claude"
	ReviewerPerplexity = "Perplexity"
	ReviewerChatGPT    = "ChatGPT"
)

// ReviewerOrder is the fixed per-round call order.
var ReviewerOrder = []string{ReviewerClaude, ReviewerPerplexity, ReviewerChatGPT}

// StopReason explains why the round loop terminated.
type StopReason string

const (
	// StopAllRounds means every requested round ran to completion.
	StopAllRounds StopReason = "all_rounds"
	// StopConverged means the convergence judge ended the debate early.
	StopConverged StopReason = "converged"
)

// Verdict is the convergence judge's assessment of one completed round.
// It is ephemeral and never persisted.
type Verdict struct {
	ShouldStop bool
	Confidence int // 0..100
	Reason     string
}

// Result is the final state of a debate run.
type Result struct {
	Document        string
	Log             *Log
	RoundsCompleted int
	StopReason      StopReason
	// JudgeReason is the judge's explanation when StopReason is StopConverged.
	JudgeReason string
}

// Models selects the backend model per role.
type Models struct {
	Claude     string
	Perplexity string
	ChatGPT    string
	Judge      string
	Synthesis  string
}

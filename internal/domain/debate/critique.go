// Package debate holds the domain types of a multi-reviewer document debate:
// the critique log and its compression, convergence verdicts, and run results.
package debate

import "fmt"

// DissensMarker tags a critique line where a reviewer explicitly contests an
// earlier reviewer's position. Lines carrying it survive log compression and
// feed the final Dissens-Register.
const DissensMarker = "[DISSENS]"

// truncationNote is appended when a compressed log still exceeds its budget.
const truncationNote = "\n... (gekürzt)"

// DefaultCompressMaxChars bounds the critique history handed to reviewers.
const DefaultCompressMaxChars = 4000

// Entry is one reviewer's critique from one round. Entries are append-only
// and never mutated.
type Entry struct {
	Round    int
	Reviewer string
	Critique string
}

// Log is the ordered critique history of a whole debate run.
type Log struct {
	entries []Entry
}

// Append records a critique. Order of appends is the causal order of calls.
func (l *Log) Append(round int, reviewer, critique string) {
	l.entries = append(l.entries, Entry{Round: round, Reviewer: reviewer, Critique: critique})
}

// Entries returns a copy of the log's entries.
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *Log) Len() int { return len(l.entries) }

// FullText renders the chronological log, each entry under a
// "[Runde N – Reviewer]" header.
func (l *Log) FullText() string {
	var out string
	for _, e := range l.entries {
		out += fmt.Sprintf("\n[Runde %d – %s]\n%s\n", e.Round, e.Reviewer, e.Critique)
	}
	return out
}

// RoundText renders only the entries of the given round, in the same format
// as FullText. Used as the convergence judge's input.
func (l *Log) RoundText(round int) string {
	var out string
	for _, e := range l.entries {
		if e.Round == round {
			out += fmt.Sprintf("\n[Runde %d – %s]\n%s\n", e.Round, e.Reviewer, e.Critique)
		}
	}
	return out
}

// Compressed returns a bounded-size projection of the log for prompt-size
// control. See CompressText for the policy.
func (l *Log) Compressed(maxChars int) string {
	return CompressText(l.FullText(), maxChars)
}

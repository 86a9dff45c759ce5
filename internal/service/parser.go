package service

import (
	"regexp"
	"strings"
)

// FallbackCritique is recorded when a reviewer reply did not follow the
// structured format.
const FallbackCritique = "(Keine strukturierten Kritikpunkte extrahiert)"

// Reply contract markers. Case-sensitive, exact match.
var (
	replyDocPattern      = regexp.MustCompile(`(?s)---DOKUMENT---\s*\n(.*?)---KRITIKPUNKTE---`)
	replyCritiquePattern = regexp.MustCompile(`(?s)---KRITIKPUNKTE---\s*\n(.*?)---ENDE---`)
)

// ParseStructuredReply splits a reviewer reply into (document, critique).
// A reply missing either marker pair degrades instead of failing: the whole
// trimmed reply becomes the document, the critique is a fixed placeholder,
// and ok is false so the caller can warn. A misbehaving backend must never
// abort the run.
func ParseStructuredReply(raw string) (document, critique string, ok bool) {
	docMatch := replyDocPattern.FindStringSubmatch(raw)
	critMatch := replyCritiquePattern.FindStringSubmatch(raw)

	if docMatch != nil && critMatch != nil {
		return strings.TrimSpace(docMatch[1]), strings.TrimSpace(critMatch[1]), true
	}
	return strings.TrimSpace(raw), FallbackCritique, false
}

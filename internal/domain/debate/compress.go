package debate

import "strings"

// maxOtherLines caps the non-dissent bullet lines kept by compression.
const maxOtherLines = 10

// CompressText reduces a critique history to at most maxChars characters.
// Text already within budget is returned unchanged. Otherwise the round
// headers are kept, then every line carrying the DISSENS marker, then at most
// the first ten other bullet lines, concatenated in that priority order. If
// the result still exceeds the budget it is hard-truncated with a note.
// Dissent lines are never dropped before the final truncation, since they
// feed the Dissens-Register.
func CompressText(fullLog string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultCompressMaxChars
	}
	if len(fullLog) <= maxChars {
		return fullLog
	}

	var headers, dissens, other []string
	for _, line := range strings.Split(fullLog, "\n") {
		switch {
		case strings.HasPrefix(line, "[Runde"):
			headers = append(headers, line)
		case strings.Contains(line, DissensMarker):
			dissens = append(dissens, line)
		case strings.HasPrefix(line, "- ["):
			if len(other) < maxOtherLines {
				other = append(other, line)
			}
		}
	}

	kept := make([]string, 0, len(headers)+len(dissens)+len(other))
	kept = append(kept, headers...)
	kept = append(kept, dissens...)
	kept = append(kept, other...)

	compressed := strings.Join(kept, "\n")
	if len(compressed) > maxChars {
		compressed = compressed[:maxChars] + truncationNote
	}
	return compressed
}

// Package parser implements the annotated-stream micro-format: it splits
// the single tagged text stream produced by the model into ordered,
// per-persona message bubbles as bytes arrive.
package parser

import "strings"

// Stream markers. The model wraps each persona's contribution in an
// opening marker carrying the persona id and a shared closing marker:
//
//	[START:sage]Some text.[END]
//
// An opening marker is well-formed only when the enclosed id exactly
// matches a roster id (case-sensitive). Anything else is treated as
// plain text.
const (
	openPrefix  = "[START:"
	openSuffix  = "]"
	CloseMarker = "[END]"
)

// OpenMarker renders the opening marker for a persona id. Used when
// building the output-contract section of the system instruction.
func OpenMarker(id string) string {
	return openPrefix + id + openSuffix
}

// findOpen locates the next well-formed opening marker in buf at or
// after from. Well-formed means the full "[START:<id>]" text is present
// and <id> is in roster. Occurrences with unknown ids are skipped; an
// incomplete marker at the end of the buffer (still being streamed)
// stops the scan.
//
// Returns the matched id, the index just past the marker, and whether a
// marker was found.
func findOpen(buf string, from int, roster map[string]struct{}) (id string, contentStart int, ok bool) {
	for from <= len(buf) {
		rel := strings.Index(buf[from:], openPrefix)
		if rel < 0 {
			return "", 0, false
		}
		idStart := from + rel + len(openPrefix)

		end := strings.Index(buf[idStart:], openSuffix)
		if end < 0 {
			// Marker tail not received yet; it may still become
			// well-formed, so it cannot be matched or skipped.
			return "", 0, false
		}

		candidate := buf[idStart : idStart+end]
		if _, valid := roster[candidate]; valid {
			return candidate, idStart + end + len(openSuffix), true
		}

		// Unknown or malformed id: ignore this occurrence and keep
		// scanning from the next byte.
		from = from + rel + 1
	}
	return "", 0, false
}

package parser

import (
	"strings"

	"github.com/avelinek/ensemble/internal/models"
)

// Parse derives the ordered bubble sequence from the cumulative text
// received so far in a turn.
//
// Parse is a pure function of its two inputs: the caller re-parses the
// full buffer after every delta rather than resuming from carried
// state, so identical input always yields identical output. Records
// preserve the left-to-right order of their opening markers. At most
// the last record is open, and only when the buffer ends without a
// closing marker for that segment.
//
// Text outside well-formed segments (preamble, trailing chatter,
// markers with unknown ids) is not emitted.
func Parse(text string, roster map[string]struct{}) []models.MessageRecord {
	var records []models.MessageRecord

	pos := 0
	for {
		id, contentStart, ok := findOpen(text, pos, roster)
		if !ok {
			break
		}

		rest := text[contentStart:]
		if end := strings.Index(rest, CloseMarker); end >= 0 {
			records = append(records, models.MessageRecord{
				Role:    models.RoleAgent,
				Speaker: id,
				Text:    strings.TrimSpace(rest[:end]),
			})
			pos = contentStart + end + len(CloseMarker)
			continue
		}

		// Unterminated segment: everything to the end of the buffer is
		// this persona's still-growing content, including any opening
		// markers buried in it (segments do not nest).
		records = append(records, models.MessageRecord{
			Role:    models.RoleAgent,
			Speaker: id,
			Text:    strings.TrimSpace(rest),
			Open:    true,
		})
		break
	}

	return records
}

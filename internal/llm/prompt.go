package llm

import (
	"fmt"
	"strings"

	"github.com/avelinek/ensemble/internal/parser"
	"github.com/avelinek/ensemble/internal/persona"
)

// SystemInstruction builds the per-turn system prompt: who the active
// personas are, how each should behave, and the exact marker format the
// reply must use. The valid-id list here must match the roster handed
// to the parser, or well-formed output will be dropped as unknown.
func SystemInstruction(roster *persona.Roster) string {
	active := roster.Active()

	var b strings.Builder
	b.WriteString("You are simulating a group conversation. ")
	fmt.Fprintf(&b, "%d personas are present, and any of them may speak in your reply.\n\n", len(active))

	b.WriteString("The personas:\n")
	for _, p := range active {
		fmt.Fprintf(&b, "- %s (id: %s): %s\n", p.Name, p.ID, p.Directive)
	}

	b.WriteString("\nOutput format, followed exactly:\n")
	fmt.Fprintf(&b, "- Wrap each persona's contribution as %s<id>%s...text...%s\n",
		"[START:", "]", parser.CloseMarker)
	b.WriteString("- Example: ")
	if len(active) > 0 {
		fmt.Fprintf(&b, "%sHello.%s\n", parser.OpenMarker(active[0].ID), parser.CloseMarker)
	} else {
		fmt.Fprintf(&b, "%sHello.%s\n", parser.OpenMarker("id"), parser.CloseMarker)
	}
	b.WriteString("- A persona may speak more than once; contributions may be in any order.\n")
	b.WriteString("- Emit no text outside the markers; it will be discarded.\n")

	ids := make([]string, len(active))
	for i, p := range active {
		ids[i] = p.ID
	}
	fmt.Fprintf(&b, "- Valid ids for this turn: %s. Any other id will be discarded.\n",
		strings.Join(ids, ", "))

	return b.String()
}

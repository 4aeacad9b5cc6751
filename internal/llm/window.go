package llm

import (
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/avelinek/ensemble/internal/models"
	"github.com/avelinek/ensemble/internal/persona"
)

// BuildWindow renders the rolling conversation window for the model
// call: the last limit closed records, as alternating human/AI
// messages. Agent records are prefixed with the persona's display name
// so the model keeps the voices apart. Open records and synthetic
// fallback records are excluded.
func BuildWindow(history []models.MessageRecord, roster *persona.Roster, limit int) []llms.MessageContent {
	var eligible []models.MessageRecord
	for _, r := range history {
		if r.Open || r.Speaker == persona.FallbackID {
			continue
		}
		eligible = append(eligible, r)
	}
	if limit > 0 && len(eligible) > limit {
		eligible = eligible[len(eligible)-limit:]
	}

	window := make([]llms.MessageContent, 0, len(eligible))
	for _, r := range eligible {
		switch r.Role {
		case models.RoleUser:
			window = append(window, llms.TextParts(llms.ChatMessageTypeHuman, r.Text))
		case models.RoleAgent:
			text := fmt.Sprintf("%s: %s", roster.DisplayName(r.Speaker), r.Text)
			window = append(window, llms.TextParts(llms.ChatMessageTypeAI, text))
		}
	}
	return window
}

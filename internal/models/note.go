package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Note is a clipped message preserved in the thought soil.
// Derived from exactly one closed agent MessageRecord; lives
// independently of the conversation it came from.
type Note struct {
	ID            surrealmodels.RecordID `json:"id"`
	Content       string                 `json:"content"`
	Tags          []string               `json:"tags"`
	SourcePersona string                 `json:"source_persona"`
	Embedding     []float32              `json:"embedding,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

// TurnLog is the archived form of one completed turn.
type TurnLog struct {
	ID        surrealmodels.RecordID `json:"id"`
	UserText  string                 `json:"user_text"`
	Bubbles   []ArchivedBubble       `json:"bubbles"`
	StartedAt time.Time              `json:"started_at"`
	EndedAt   time.Time              `json:"ended_at"`
}

// ArchivedBubble is a closed agent record flattened for storage.
type ArchivedBubble struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

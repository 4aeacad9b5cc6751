// Package models defines data structures shared across the ensemble client.
package models

import "time"

// Role distinguishes who authored a message record.
type Role string

const (
	// RoleUser marks a record typed by the user.
	RoleUser Role = "user"

	// RoleAgent marks a record spoken by a persona agent.
	RoleAgent Role = "agent"
)

// MessageRecord is one bubble in the conversation.
// While Open is true the record's text may still grow or change;
// once Open is false the record is immutable.
type MessageRecord struct {
	Role      Role      `json:"role"`
	Speaker   string    `json:"speaker,omitempty"` // persona id; empty for user records
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	Open      bool      `json:"open"`
}

// NewUserRecord builds a user message. User records are created
// already closed.
func NewUserRecord(text string) MessageRecord {
	return MessageRecord{
		Role:      RoleUser,
		Text:      text,
		CreatedAt: time.Now(),
	}
}

// Closed returns a copy of the record with Open cleared.
func (m MessageRecord) Closed() MessageRecord {
	m.Open = false
	return m
}

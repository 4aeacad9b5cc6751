package service

import (
	"errors"
	"testing"
	"time"

	"github.com/avelinek/ensemble/internal/models"
	"github.com/avelinek/ensemble/internal/persona"
)

func TestToNote(t *testing.T) {
	roster := persona.Default()

	tests := []struct {
		name    string
		record  models.MessageRecord
		wantErr bool
	}{
		{
			name: "closed agent record",
			record: models.MessageRecord{
				Role:    models.RoleAgent,
				Speaker: "sage",
				Text:    "Write it down before it evaporates.",
			},
		},
		{
			name: "user record rejected",
			record: models.MessageRecord{
				Role: models.RoleUser,
				Text: "my own words",
			},
			wantErr: true,
		},
		{
			name: "open record rejected",
			record: models.MessageRecord{
				Role:    models.RoleAgent,
				Speaker: "sage",
				Text:    "still stream",
				Open:    true,
			},
			wantErr: true,
		},
		{
			name: "empty record rejected",
			record: models.MessageRecord{
				Role:    models.RoleAgent,
				Speaker: "sage",
				Text:    "   ",
			},
			wantErr: true,
		},
		{
			name: "departed persona still clippable",
			record: models.MessageRecord{
				Role:    models.RoleAgent,
				Speaker: "ghost",
				Text:    "id no longer on the roster",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			note, err := ToNote(tt.record, roster)
			if tt.wantErr {
				if !errors.Is(err, ErrNotEligible) {
					t.Fatalf("want ErrNotEligible, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ToNote: %v", err)
			}
			if note.Content != tt.record.Text {
				t.Errorf("content = %q, want %q", note.Content, tt.record.Text)
			}
			if note.SourcePersona != tt.record.Speaker {
				t.Errorf("source persona = %q, want %q", note.SourcePersona, tt.record.Speaker)
			}
		})
	}
}

func TestFlattenBubbles(t *testing.T) {
	now := time.Now()
	records := []models.MessageRecord{
		{Role: models.RoleAgent, Speaker: "sage", Text: "kept", CreatedAt: now},
		{Role: models.RoleAgent, Speaker: "spark", Text: "", CreatedAt: now},
		{Role: models.RoleAgent, Speaker: "anchor", Text: "tail", Open: true, CreatedAt: now},
	}

	bubbles := flattenBubbles(records)
	if len(bubbles) != 1 {
		t.Fatalf("got %d bubbles, want 1", len(bubbles))
	}
	if bubbles[0].Speaker != "sage" || bubbles[0].Text != "kept" {
		t.Errorf("unexpected bubble %+v", bubbles[0])
	}
}

func TestFlattenBubbles_Empty(t *testing.T) {
	if got := flattenBubbles(nil); len(got) != 0 {
		t.Fatalf("got %d bubbles, want 0", len(got))
	}
}

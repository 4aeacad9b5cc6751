package models

import (
	"reflect"
	"testing"
)

func TestNormalizeTag(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "garden", "garden"},
		{"uppercase", "Thought Soil", "thought-soil"},
		{"underscores", "my_tag_name", "my-tag-name"},
		{"special chars stripped", "Hello, World!", "helloworld"},
		{"numbers preserved", "v2", "v2"},
		{"surrounding space", "  ideas  ", "ideas"},
		{"empty string", "", ""},
		{"only special chars", "!@#$%", ""},
		{"consecutive separators", "a  -  b", "a-b"},
		{"trailing separator", "draft-", "draft"},
		{"unicode stripped", "café", "caf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTag(tt.in)
			if got != tt.want {
				t.Errorf("NormalizeTag(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{"Ideas", "ideas", "", "!!", "Thought Soil", "v2"})
	want := []string{"ideas", "thought-soil", "v2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeTags() = %v, want %v", got, want)
	}
}

func TestNewUserRecord(t *testing.T) {
	rec := NewUserRecord("hello")
	if rec.Role != RoleUser {
		t.Errorf("role = %q, want %q", rec.Role, RoleUser)
	}
	if rec.Open {
		t.Error("user records must be created closed")
	}
	if rec.Speaker != "" {
		t.Errorf("speaker = %q, want empty", rec.Speaker)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("created_at not set")
	}
}

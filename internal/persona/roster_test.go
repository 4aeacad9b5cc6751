package persona

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name     string
		personas []Persona
		wantErr  bool
	}{
		{
			name:     "valid",
			personas: []Persona{{ID: "a", Name: "A", Active: true}, {ID: "b", Name: "B"}},
		},
		{
			name:    "empty roster",
			wantErr: true,
		},
		{
			name:     "empty id",
			personas: []Persona{{ID: "", Name: "X"}},
			wantErr:  true,
		},
		{
			name:     "duplicate id",
			personas: []Persona{{ID: "a"}, {ID: "a"}},
			wantErr:  true,
		},
		{
			name:     "reserved id",
			personas: []Persona{{ID: "system"}},
			wantErr:  true,
		},
		{
			name:     "bracket in id",
			personas: []Persona{{ID: "a]b"}},
			wantErr:  true,
		},
		{
			name:     "colon in id",
			personas: []Persona{{ID: "a:b"}},
			wantErr:  true,
		},
		{
			name:     "space in id",
			personas: []Persona{{ID: "a b"}},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.personas)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFileReturnsDefault(t *testing.T) {
	r, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(r.All()) == 0 {
		t.Fatal("default roster is empty")
	}
	if len(r.Active()) == 0 {
		t.Error("default roster has no active personas")
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "personas.yaml")
	content := `personas:
  - id: muse
    name: Muse
    directive: Be poetic.
    color: "#FF005F"
    active: true
  - id: critic
    name: Critic
    directive: Be harsh.
    active: false
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := len(r.All()); got != 2 {
		t.Fatalf("len(All()) = %d, want 2", got)
	}

	active := r.Active()
	if len(active) != 1 || active[0].ID != "muse" {
		t.Errorf("Active() = %v, want just muse", active)
	}

	ids := r.ActiveIDs()
	if _, ok := ids["muse"]; !ok {
		t.Error("muse missing from ActiveIDs()")
	}
	if _, ok := ids["critic"]; ok {
		t.Error("inactive critic present in ActiveIDs()")
	}

	p, ok := r.Get("critic")
	if !ok || p.Name != "Critic" {
		t.Errorf("Get(critic) = %+v, %v", p, ok)
	}
}

func TestDisplayName(t *testing.T) {
	r, err := New([]Persona{{ID: "muse", Name: "Muse"}})
	if err != nil {
		t.Fatal(err)
	}
	if got := r.DisplayName("muse"); got != "Muse" {
		t.Errorf("DisplayName(muse) = %q, want Muse", got)
	}
	if got := r.DisplayName("ghost"); got != "ghost" {
		t.Errorf("DisplayName(ghost) = %q, want raw id", got)
	}
}

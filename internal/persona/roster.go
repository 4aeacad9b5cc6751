// Package persona loads and serves the persona roster: the fixed set of
// agent identities addressable in a conversation and their display
// metadata. The roster file is only re-read between sessions; a turn
// always runs against the roster it started with.
package persona

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FallbackID is the reserved speaker id used for synthetic records
// (stream-failure bubbles). It is never a valid roster id.
const FallbackID = "system"

// Persona is one agent identity. Personas carry no behavior of their
// own beyond this data; all voice differences come from Directive.
type Persona struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Directive string `yaml:"directive"`
	Color     string `yaml:"color,omitempty"` // hex, for the UI
	Active    bool   `yaml:"active"`
}

// Roster is the ordered persona set for a session.
type Roster struct {
	personas []Persona
	byID     map[string]int
}

// rosterFile is the on-disk YAML shape.
type rosterFile struct {
	Personas []Persona `yaml:"personas"`
}

// Load reads a roster from a YAML file. A missing file yields the
// built-in starter roster so a first run works without setup.
func Load(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}

	var file rosterFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}

	return New(file.Personas)
}

// New builds and validates a roster from a persona list.
func New(personas []Persona) (*Roster, error) {
	if len(personas) == 0 {
		return nil, fmt.Errorf("roster is empty")
	}

	byID := make(map[string]int, len(personas))
	for i, p := range personas {
		if err := validateID(p.ID); err != nil {
			return nil, fmt.Errorf("persona %d: %w", i, err)
		}
		if _, dup := byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate persona id %q", p.ID)
		}
		byID[p.ID] = i
	}

	return &Roster{personas: personas, byID: byID}, nil
}

// validateID rejects ids that would collide with the stream marker
// syntax or the reserved fallback speaker.
func validateID(id string) error {
	if id == "" {
		return fmt.Errorf("persona id is empty")
	}
	if id == FallbackID {
		return fmt.Errorf("persona id %q is reserved", FallbackID)
	}
	if strings.ContainsAny(id, "[]: \t\n") {
		return fmt.Errorf("persona id %q contains marker characters", id)
	}
	return nil
}

// All returns every persona in roster order.
func (r *Roster) All() []Persona {
	return r.personas
}

// Active returns the active subset in roster order.
func (r *Roster) Active() []Persona {
	var out []Persona
	for _, p := range r.personas {
		if p.Active {
			out = append(out, p)
		}
	}
	return out
}

// ActiveIDs returns the set of ids valid for the current turn.
func (r *Roster) ActiveIDs() map[string]struct{} {
	ids := make(map[string]struct{})
	for _, p := range r.personas {
		if p.Active {
			ids[p.ID] = struct{}{}
		}
	}
	return ids
}

// Get looks up a persona by id.
func (r *Roster) Get(id string) (Persona, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Persona{}, false
	}
	return r.personas[i], true
}

// DisplayName returns the persona's name, falling back to the raw id
// for unknown speakers so the UI never renders a blank label.
func (r *Roster) DisplayName(id string) string {
	if p, ok := r.Get(id); ok {
		return p.Name
	}
	return id
}

// Default returns the built-in starter roster.
func Default() *Roster {
	r, err := New([]Persona{
		{
			ID:        "sage",
			Name:      "Sage",
			Directive: "You are calm and reflective. Offer measured, thoughtful perspectives and ask clarifying questions.",
			Color:     "#5FAFD7",
			Active:    true,
		},
		{
			ID:        "spark",
			Name:      "Spark",
			Directive: "You are energetic and associative. Throw out bold ideas, tangents, and unexpected connections.",
			Color:     "#FFAF5F",
			Active:    true,
		},
		{
			ID:        "anchor",
			Name:      "Anchor",
			Directive: "You are skeptical and practical. Stress-test what others say and pull the conversation back to concrete next steps.",
			Color:     "#00D787",
			Active:    false,
		},
	})
	if err != nil {
		panic(err) // built-in roster is static; a failure here is a programming error
	}
	return r
}

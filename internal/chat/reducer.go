package chat

import (
	"errors"
	"log/slog"
	"time"

	"github.com/avelinek/ensemble/internal/models"
	"github.com/avelinek/ensemble/internal/persona"
)

// State is the reducer's per-turn lifecycle position.
type State string

const (
	StateIdle      State = "idle"
	StateAwaiting  State = "awaiting"  // user record appended, no delta yet
	StateStreaming State = "streaming" // deltas arriving
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// ErrTurnInFlight is returned when a submission arrives while a turn is
// still awaiting or streaming. Callers treat it as a no-op.
var ErrTurnInFlight = errors.New("a turn is already in flight")

// fallbackText is the fixed content of the synthetic record appended
// when a stream fails mid-turn.
const fallbackText = "The connection faltered and this reply was cut short."

// Conversation reduces turn events into the ordered message history.
//
// History is append-only at turn granularity: each turn contributes one
// closed user record followed by a contiguous block of agent records.
// The latest turn's block is replaced wholesale on every delta; once a
// turn ends, its records are closed permanently and no later event
// touches them. At most one turn is in flight at any instant, enforced
// by rejecting submissions outside Idle/Completed/Failed.
type Conversation struct {
	state   State
	history []models.MessageRecord
	roster  map[string]struct{}

	turn        *Turn
	spliceStart int // index in history where the current turn's agent block begins

	logger *slog.Logger
}

// New creates an empty conversation over the given valid-id set.
func New(roster map[string]struct{}, logger *slog.Logger) *Conversation {
	if logger == nil {
		logger = slog.Default()
	}
	return &Conversation{
		state:  StateIdle,
		roster: roster,
		logger: logger,
	}
}

// State returns the reducer's current state.
func (c *Conversation) State() State {
	return c.state
}

// InFlight reports whether a turn is currently awaiting or streaming.
func (c *Conversation) InFlight() bool {
	return c.state == StateAwaiting || c.state == StateStreaming
}

// History returns a copy of the full ordered message history.
func (c *Conversation) History() []models.MessageRecord {
	out := make([]models.MessageRecord, len(c.history))
	copy(out, c.history)
	return out
}

// Turn returns the in-flight turn, or nil. After Complete or Fail the
// turn's records live in History; handing the turn out again would let
// callers render them twice.
func (c *Conversation) Turn() *Turn {
	if !c.InFlight() {
		return nil
	}
	return c.turn
}

// SetRoster swaps the valid-id set for subsequent turns. Rejected while
// a turn is in flight; the roster is immutable for a turn's lifetime.
func (c *Conversation) SetRoster(roster map[string]struct{}) error {
	if c.InFlight() {
		return ErrTurnInFlight
	}
	c.roster = roster
	return nil
}

// Submit starts a new turn: the user's record is appended closed,
// immediately and synchronously, and the returned Turn scopes the
// stream events that follow. The caller is responsible for invoking the
// model service and feeding ApplyDelta / Complete / Fail.
func (c *Conversation) Submit(userText string) (*Turn, error) {
	if c.InFlight() {
		return nil, ErrTurnInFlight
	}

	c.history = append(c.history, models.NewUserRecord(userText))
	c.spliceStart = len(c.history)
	c.turn = NewTurn(userText, c.roster, c.logger)
	c.state = StateAwaiting

	c.logger.Debug("turn started", "turn", c.turn.ID)
	return c.turn, nil
}

// ApplyDelta feeds one stream fragment to the in-flight turn and
// splices the refreshed snapshot into history, replacing the turn's
// previous block. Ignored when no turn is in flight.
func (c *Conversation) ApplyDelta(fragment string) {
	if !c.InFlight() {
		return
	}
	c.state = StateStreaming
	c.splice(c.turn.AppendDelta(fragment))
}

// Complete ends the in-flight turn normally: the final snapshot is
// closed and spliced once more, and the single-turn lock is released.
func (c *Conversation) Complete() {
	if !c.InFlight() {
		return
	}

	c.splice(c.turn.End())
	c.state = StateCompleted
	c.logger.Debug("turn completed",
		"turn", c.turn.ID,
		"bubbles", len(c.history)-c.spliceStart,
		"deltas", c.turn.Deltas,
	)
}

// Fail ends the in-flight turn on a stream failure: partial content
// already shown is closed in place (never erased), and one synthetic
// fallback record is appended after it. The cause goes to the log, not
// to the history.
func (c *Conversation) Fail(cause error) {
	if !c.InFlight() {
		return
	}

	c.splice(c.turn.End())
	c.history = append(c.history, models.MessageRecord{
		Role:      models.RoleAgent,
		Speaker:   persona.FallbackID,
		Text:      fallbackText,
		CreatedAt: time.Now(),
	})
	c.state = StateFailed
	c.logger.Warn("turn failed", "turn", c.turn.ID, "cause", cause)
}

// splice replaces the current turn's agent block with the given
// snapshot. Records before spliceStart are never touched.
func (c *Conversation) splice(snapshot []models.MessageRecord) {
	c.history = append(c.history[:c.spliceStart], snapshot...)
}

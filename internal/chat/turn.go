// Package chat owns conversation state: the per-turn stream accumulator
// and the reducer that merges turn snapshots into the message history.
//
// Everything here is event-driven and single-threaded: callers feed
// deltas, stream-end, stream-failure and user-action events strictly
// one at a time (the bubbletea update loop already serializes them) and
// read back the full history after each event. Nothing blocks.
package chat

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/avelinek/ensemble/internal/models"
	"github.com/avelinek/ensemble/internal/parser"
)

// Turn accumulates one model response: the cumulative raw text received
// so far and the bubble snapshot derived from it. The buffer only ever
// grows; every delta triggers a full re-parse, trading rescan cost for
// a snapshot that is always consistent with the true cumulative text.
// Model turns are short, so the quadratic rescan does not matter here.
type Turn struct {
	ID        string
	UserText  string
	StartedAt time.Time
	EndedAt   time.Time

	// Per-turn stream counters, reported to the metrics collector.
	Deltas int
	Bytes  int

	roster   map[string]struct{}
	buf      strings.Builder
	snapshot []models.MessageRecord
	logger   *slog.Logger
}

// NewTurn starts accumulating a turn against the given valid-id set.
// The roster is captured here and never changes for the turn's
// lifetime.
func NewTurn(userText string, roster map[string]struct{}, logger *slog.Logger) *Turn {
	if logger == nil {
		logger = slog.Default()
	}
	return &Turn{
		ID:        uuid.NewString(),
		UserText:  userText,
		StartedAt: time.Now(),
		roster:    roster,
		logger:    logger,
	}
}

// AppendDelta appends a stream fragment to the cumulative buffer,
// re-parses the whole buffer and publishes the new snapshot. The
// snapshot is a full replacement of the previous one, never a patch.
func (t *Turn) AppendDelta(fragment string) []models.MessageRecord {
	t.buf.WriteString(fragment)
	t.Deltas++
	t.Bytes += len(fragment)

	t.publish(parser.Parse(t.buf.String(), t.roster))
	return t.Snapshot()
}

// End finalizes the turn: every record in the snapshot is closed,
// including a still-open trailing segment (an unterminated segment at
// end-of-stream is kept, not discarded).
func (t *Turn) End() []models.MessageRecord {
	t.EndedAt = time.Now()

	if t.buf.Len() > 0 && len(t.snapshot) == 0 {
		// The whole response was discarded as malformed. Diagnostics
		// only; the transcript shows nothing for this stream.
		t.logger.Debug("stream contained no well-formed segments",
			"turn", t.ID, "bytes", t.Bytes)
	}

	closed := make([]models.MessageRecord, len(t.snapshot))
	for i, r := range t.snapshot {
		closed[i] = r.Closed()
	}
	t.snapshot = closed
	return t.Snapshot()
}

// Snapshot returns a copy of the current record sequence.
func (t *Turn) Snapshot() []models.MessageRecord {
	out := make([]models.MessageRecord, len(t.snapshot))
	copy(out, t.snapshot)
	return out
}

// publish replaces the snapshot, carrying creation timestamps over from
// the previous snapshot so a bubble's CreatedAt is the moment it first
// appeared, not the moment of the latest re-parse.
func (t *Turn) publish(records []models.MessageRecord) {
	now := time.Now()
	for i := range records {
		if i < len(t.snapshot) && t.snapshot[i].Speaker == records[i].Speaker {
			records[i].CreatedAt = t.snapshot[i].CreatedAt
		} else {
			records[i].CreatedAt = now
		}
	}
	t.snapshot = records
}

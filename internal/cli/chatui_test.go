package cli

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/avelinek/ensemble/internal/chat"
	"github.com/avelinek/ensemble/internal/metrics"
	"github.com/avelinek/ensemble/internal/models"
	"github.com/avelinek/ensemble/internal/persona"
)

// setupTestSession wires the package-level session state the way
// PersistentPreRunE does, minus anything that touches the outside.
func setupTestSession(t *testing.T) {
	t.Helper()
	roster = persona.Default()
	collector = metrics.NewCollector()
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg.WindowSize = 40
}

func streamingModel(t *testing.T, fragments ...string) (chatModel, *chat.Turn) {
	t.Helper()
	conv := chat.New(roster.ActiveIDs(), logger)
	turn, err := conv.Submit("q")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	for _, f := range fragments {
		conv.ApplyDelta(f)
	}

	m := newChatModel(chatDeps{
		conversation: conv,
		roster:       roster,
		logger:       logger,
	})
	m.turn = turn
	return m, turn
}

func TestDisplayRecordsWhileStreaming(t *testing.T) {
	setupTestSession(t)
	m, _ := streamingModel(t, "[START:sage]hello[END]")

	records := m.displayRecords()
	if len(records) != 2 {
		t.Fatalf("got %d records while streaming, want 2 (user + one agent)", len(records))
	}

	// Each live bubble must appear exactly once.
	agents := 0
	for _, r := range records {
		if r.Role == models.RoleAgent {
			agents++
			if r.Speaker != "sage" || r.Text != "hello" {
				t.Errorf("unexpected agent record %+v", r)
			}
		}
	}
	if agents != 1 {
		t.Errorf("agent bubble rendered %d times while streaming, want 1", agents)
	}
}

func TestDisplayRecordsAfterComplete(t *testing.T) {
	setupTestSession(t)
	m, _ := streamingModel(t, "[START:sage]hello[END]")

	before := len(m.displayRecords())
	m.deps.conversation.Complete()
	after := len(m.displayRecords())

	if before != after {
		t.Errorf("transcript length changed across Complete: %d -> %d", before, after)
	}
}

func TestFinishTurnFailure(t *testing.T) {
	setupTestSession(t)
	m, _ := streamingModel(t, "[START:sage]par")

	res, cmd := m.finishTurn(errors.New("socket closed"))
	if cmd != nil {
		t.Error("failed turn produced an archive command")
	}

	fm := res.(chatModel)
	if fm.deps.conversation.State() != chat.StateFailed {
		t.Errorf("state = %q, want failed", fm.deps.conversation.State())
	}
	if snap := collector.Snapshot().Turns; snap != nil {
		t.Errorf("failed turn recorded metrics: %+v", snap)
	}
}

func TestFinishTurnSuccess(t *testing.T) {
	setupTestSession(t)
	m, _ := streamingModel(t, "[START:sage]hi[END]")

	res, cmd := m.finishTurn(nil)
	if cmd != nil {
		t.Error("expected no archive command without persistence")
	}

	snap := collector.Snapshot().Turns
	if snap == nil || snap.Count != 1 {
		t.Fatalf("turn metrics = %+v, want one recorded turn", snap)
	}

	fm := res.(chatModel)
	if !strings.Contains(fm.status, "deltas") {
		t.Errorf("status line %q does not show turn stats", fm.status)
	}
}

func TestClosedBubbleCount(t *testing.T) {
	records := []models.MessageRecord{
		{Role: models.RoleAgent, Speaker: "sage", Text: "kept"},
		{Role: models.RoleAgent, Speaker: "spark", Text: ""},
		{Role: models.RoleAgent, Speaker: "spark", Text: "tail", Open: true},
	}
	if got := closedBubbleCount(records); got != 1 {
		t.Errorf("closedBubbleCount = %d, want 1", got)
	}
}

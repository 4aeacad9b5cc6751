package chat

import (
	"testing"
	"time"
)

func testRoster(ids ...string) map[string]struct{} {
	roster := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		roster[id] = struct{}{}
	}
	return roster
}

func TestTurn_AccumulatesAcrossDeltas(t *testing.T) {
	turn := NewTurn("hello", testRoster("a"), nil)

	// Fragments split mid-marker on purpose.
	for _, frag := range []string{"[STA", "RT:a]h", "i"} {
		turn.AppendDelta(frag)
	}

	snap := turn.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("got %d records, want 1", len(snap))
	}
	if snap[0].Speaker != "a" || snap[0].Text != "hi" || !snap[0].Open {
		t.Errorf("record = %+v, want open a:hi", snap[0])
	}

	if turn.Deltas != 3 {
		t.Errorf("Deltas = %d, want 3", turn.Deltas)
	}
	if turn.Bytes != len("[START:a]hi") {
		t.Errorf("Bytes = %d, want %d", turn.Bytes, len("[START:a]hi"))
	}
}

func TestTurn_SnapshotIsFullReplacement(t *testing.T) {
	turn := NewTurn("q", testRoster("a", "b"), nil)

	turn.AppendDelta("[START:a]one[END]")
	first := turn.Snapshot()
	if len(first) != 1 || first[0].Open {
		t.Fatalf("unexpected first snapshot: %+v", first)
	}

	turn.AppendDelta("[START:b]two")
	second := turn.Snapshot()
	if len(second) != 2 {
		t.Fatalf("got %d records, want 2", len(second))
	}
	if second[0] != first[0] {
		t.Errorf("closed record changed across deltas: %+v -> %+v", first[0], second[0])
	}
	if second[1].Speaker != "b" || !second[1].Open {
		t.Errorf("trailing record = %+v, want open b", second[1])
	}
}

func TestTurn_CreatedAtStableAcrossReparses(t *testing.T) {
	turn := NewTurn("q", testRoster("a"), nil)

	turn.AppendDelta("[START:a]gro")
	born := turn.Snapshot()[0].CreatedAt

	time.Sleep(2 * time.Millisecond)
	turn.AppendDelta("wing")

	if got := turn.Snapshot()[0].CreatedAt; !got.Equal(born) {
		t.Errorf("CreatedAt moved on re-parse: %v -> %v", born, got)
	}
}

func TestTurn_EndClosesUnterminatedSegment(t *testing.T) {
	turn := NewTurn("q", testRoster("a"), nil)
	turn.AppendDelta("[START:a]never closed")

	final := turn.End()
	if len(final) != 1 {
		t.Fatalf("got %d records, want 1", len(final))
	}
	if final[0].Open {
		t.Error("record still open after End")
	}
	if final[0].Text != "never closed" {
		t.Errorf("unterminated content discarded: %q", final[0].Text)
	}
	if turn.EndedAt.IsZero() {
		t.Error("EndedAt not set")
	}
}

func TestTurn_EmptyStream(t *testing.T) {
	turn := NewTurn("q", testRoster("a"), nil)
	if got := turn.End(); len(got) != 0 {
		t.Errorf("empty stream produced %d records", len(got))
	}
}

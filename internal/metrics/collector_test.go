package metrics

import (
	"testing"
	"time"
)

func TestCollectorEmptySnapshot(t *testing.T) {
	c := NewCollector()
	snap := c.Snapshot()

	if snap.Turns != nil {
		t.Error("expected nil turn snapshot with no recorded turns")
	}
	if snap.LLMStream != nil {
		t.Error("expected nil stream snapshot with no recorded ops")
	}
}

func TestRecordTiming(t *testing.T) {
	c := NewCollector()
	c.RecordTiming(OpDBQuery, 10*time.Millisecond)
	c.RecordTiming(OpDBQuery, 30*time.Millisecond)

	snap := c.Snapshot().DBQuery
	if snap == nil {
		t.Fatal("expected db query snapshot")
	}
	if snap.Count != 2 {
		t.Errorf("count = %d, want 2", snap.Count)
	}
	if snap.MinTimeMs != 10 || snap.MaxTimeMs != 30 {
		t.Errorf("min/max = %d/%d, want 10/30", snap.MinTimeMs, snap.MaxTimeMs)
	}
}

func TestRecordTurn(t *testing.T) {
	c := NewCollector()
	c.RecordTurn(2*time.Second, 40, 1200, 3)
	c.RecordTurn(1*time.Second, 10, 300, 0)

	snap := c.Snapshot().Turns
	if snap == nil {
		t.Fatal("expected turn snapshot")
	}
	if snap.Count != 2 {
		t.Errorf("count = %d, want 2", snap.Count)
	}
	if snap.TotalDeltas != 50 || snap.TotalBytes != 1500 {
		t.Errorf("deltas/bytes = %d/%d, want 50/1500", snap.TotalDeltas, snap.TotalBytes)
	}
	if snap.MaxDeltas != 40 || snap.MaxBytes != 1200 {
		t.Errorf("max deltas/bytes = %d/%d, want 40/1200", snap.MaxDeltas, snap.MaxBytes)
	}
	if snap.EmptyStreams != 1 {
		t.Errorf("empty streams = %d, want 1", snap.EmptyStreams)
	}
	if snap.AvgBubbles != 1.5 {
		t.Errorf("avg bubbles = %v, want 1.5", snap.AvgBubbles)
	}
}

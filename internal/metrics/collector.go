// Package metrics provides in-memory runtime statistics collection.
package metrics

import (
	"math"
	"sync"
	"time"
)

// OperationMetrics holds aggregated metrics for a single operation type.
type OperationMetrics struct {
	Count     int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
}

// OperationSnapshot provides computed stats from raw metrics.
type OperationSnapshot struct {
	Count       int64
	TotalTimeMs int64
	AvgTimeMs   float64
	MinTimeMs   int64
	MaxTimeMs   int64
}

// TurnMetrics holds aggregated stream counters across completed turns.
type TurnMetrics struct {
	Count        int64
	TotalTime    time.Duration
	MinTime      time.Duration
	MaxTime      time.Duration
	TotalDeltas  int64
	TotalBytes   int64
	TotalBubbles int64
	MaxDeltas    int64
	MaxBytes     int64
	EmptyStreams int64
}

// TurnSnapshot provides computed per-turn stream stats.
type TurnSnapshot struct {
	Count        int64
	TotalTimeMs  int64
	AvgTimeMs    float64
	MinTimeMs    int64
	MaxTimeMs    int64
	TotalDeltas  int64
	TotalBytes   int64
	AvgDeltas    float64
	AvgBytes     float64
	AvgBubbles   float64
	MaxDeltas    int64
	MaxBytes     int64
	EmptyStreams int64
}

// Snapshot represents the full session statistics at a point in time.
type Snapshot struct {
	UptimeSeconds float64
	Turns         *TurnSnapshot
	Embedding     *OperationSnapshot
	LLMStream     *OperationSnapshot
	DBQuery       *OperationSnapshot
	DBSearch      *OperationSnapshot
}

// Operation names for the collector.
const (
	OpEmbedding = "embedding"
	OpLLMStream = "llm_stream"
	OpDBQuery   = "db_query"
	OpDBSearch  = "db_search"
)

// Collector aggregates in-memory runtime statistics.
// All methods are thread-safe.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	ops       map[string]*OperationMetrics
	turns     TurnMetrics
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		ops:       make(map[string]*OperationMetrics),
		turns:     TurnMetrics{MinTime: time.Duration(math.MaxInt64)},
	}
}

// getOrCreate returns existing metrics or creates new ones for an operation.
// Caller must hold write lock.
func (c *Collector) getOrCreate(op string) *OperationMetrics {
	m, ok := c.ops[op]
	if !ok {
		m = &OperationMetrics{MinTime: time.Duration(math.MaxInt64)}
		c.ops[op] = m
	}
	return m
}

// RecordTiming records timing for an operation.
func (c *Collector) RecordTiming(op string, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(op)
	m.Count++
	m.TotalTime += duration

	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}
}

// RecordTurn records the stream counters of one finished turn:
// wall-clock duration, delta count, cumulative byte count and the
// number of bubbles that survived to the final snapshot.
func (c *Collector) RecordTurn(duration time.Duration, deltas, bytes, bubbles int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &c.turns
	t.Count++
	t.TotalTime += duration

	if duration < t.MinTime {
		t.MinTime = duration
	}
	if duration > t.MaxTime {
		t.MaxTime = duration
	}

	t.TotalDeltas += int64(deltas)
	t.TotalBytes += int64(bytes)
	t.TotalBubbles += int64(bubbles)

	if int64(deltas) > t.MaxDeltas {
		t.MaxDeltas = int64(deltas)
	}
	if int64(bytes) > t.MaxBytes {
		t.MaxBytes = int64(bytes)
	}
	if bubbles == 0 {
		t.EmptyStreams++
	}
}

// snapshotOp creates a snapshot for an operation, returning nil if no data.
func snapshotOp(m *OperationMetrics) *OperationSnapshot {
	if m == nil || m.Count == 0 {
		return nil
	}

	return &OperationSnapshot{
		Count:       m.Count,
		TotalTimeMs: m.TotalTime.Milliseconds(),
		AvgTimeMs:   float64(m.TotalTime.Milliseconds()) / float64(m.Count),
		MinTimeMs:   m.MinTime.Milliseconds(),
		MaxTimeMs:   m.MaxTime.Milliseconds(),
	}
}

// snapshotTurns creates the per-turn snapshot, returning nil if no
// turn has completed yet.
func snapshotTurns(t TurnMetrics) *TurnSnapshot {
	if t.Count == 0 {
		return nil
	}

	n := float64(t.Count)
	return &TurnSnapshot{
		Count:        t.Count,
		TotalTimeMs:  t.TotalTime.Milliseconds(),
		AvgTimeMs:    float64(t.TotalTime.Milliseconds()) / n,
		MinTimeMs:    t.MinTime.Milliseconds(),
		MaxTimeMs:    t.MaxTime.Milliseconds(),
		TotalDeltas:  t.TotalDeltas,
		TotalBytes:   t.TotalBytes,
		AvgDeltas:    float64(t.TotalDeltas) / n,
		AvgBytes:     float64(t.TotalBytes) / n,
		AvgBubbles:   float64(t.TotalBubbles) / n,
		MaxDeltas:    t.MaxDeltas,
		MaxBytes:     t.MaxBytes,
		EmptyStreams: t.EmptyStreams,
	}
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		UptimeSeconds: time.Since(c.startTime).Seconds(),
		Turns:         snapshotTurns(c.turns),
		Embedding:     snapshotOp(c.ops[OpEmbedding]),
		LLMStream:     snapshotOp(c.ops[OpLLMStream]),
		DBQuery:       snapshotOp(c.ops[OpDBQuery]),
		DBSearch:      snapshotOp(c.ops[OpDBSearch]),
	}
}

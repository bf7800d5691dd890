package translate

import (
	"slices"
	"sync"
	"time"
)

// StatsSnapshot aggregates the translation calls still inside the window.
type StatsSnapshot struct {
	Count  int     `json:"count"`
	Errors int     `json:"errors"`
	MinMs  int64   `json:"min_ms"`
	MaxMs  int64   `json:"max_ms"`
	AvgMs  float64 `json:"avg_ms"`
	P50Ms  float64 `json:"p50_ms"`
	P95Ms  float64 `json:"p95_ms"`
	P99Ms  float64 `json:"p99_ms"`
}

type call struct {
	at     time.Time
	ms     int64
	failed bool
}

// Stats keeps translation latencies for a rolling window. Safe for
// concurrent use.
type Stats struct {
	mu     sync.Mutex
	calls  []call
	window time.Duration
	now    func() time.Time
}

func NewStats(window time.Duration) *Stats {
	if window <= 0 {
		window = time.Hour
	}
	return &Stats{
		calls:  make([]call, 0, 256),
		window: window,
		now:    time.Now,
	}
}

// Record adds a successful call.
func (s *Stats) Record(durationMs int64) { s.add(durationMs, false) }

// RecordError adds a failed call. It counts toward Errors but not latency.
func (s *Stats) RecordError(durationMs int64) { s.add(durationMs, true) }

// observe records a call that began at start. A nil receiver is a no-op.
func (s *Stats) observe(start time.Time, err error) {
	if s == nil {
		return
	}
	ms := time.Since(start).Milliseconds()
	if err != nil {
		s.RecordError(ms)
		return
	}
	s.Record(ms)
}

func (s *Stats) add(ms int64, failed bool) {
	if ms < 0 {
		ms = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.pruneLocked(now)
	s.calls = append(s.calls, call{at: now, ms: ms, failed: failed})
}

func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(s.now())

	var snap StatsSnapshot
	values := make([]int64, 0, len(s.calls))
	var sum int64
	for _, c := range s.calls {
		if c.failed {
			snap.Errors++
			continue
		}
		values = append(values, c.ms)
		sum += c.ms
	}
	if len(values) == 0 {
		return snap
	}
	slices.Sort(values)

	snap.Count = len(values)
	snap.MinMs = values[0]
	snap.MaxMs = values[len(values)-1]
	snap.AvgMs = float64(sum) / float64(len(values))
	snap.P50Ms = percentile(values, 50)
	snap.P95Ms = percentile(values, 95)
	snap.P99Ms = percentile(values, 99)
	return snap
}

func (s *Stats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	s.calls = slices.DeleteFunc(s.calls, func(c call) bool { return c.at.Before(cutoff) })
}

// percentile interpolates linearly between the closest ranks.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}
	pos := float64(len(sorted)-1) * pct / 100
	lo := int(pos)
	if lo+1 >= len(sorted) {
		return float64(sorted[lo])
	}
	frac := pos - float64(lo)
	return float64(sorted[lo]) + (float64(sorted[lo+1])-float64(sorted[lo]))*frac
}

package pipeline

import (
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

type conversion struct {
	at       time.Time
	format   string
	duration time.Duration
	failed   bool
}

// StatsSnapshot aggregates recent conversions.
type StatsSnapshot struct {
	Count    int            `json:"count"`
	Failed   int            `json:"failed"`
	ByFormat map[string]int `json:"by_format"`
	P50Ms    float64        `json:"p50_ms"`
	P95Ms    float64        `json:"p95_ms"`
	MaxMs    float64        `json:"max_ms"`
}

// Stats keeps conversions from a rolling window.
type Stats struct {
	mu     sync.Mutex
	recent []conversion
	window time.Duration
}

func NewStats(window time.Duration) *Stats {
	if window <= 0 {
		window = time.Hour
	}
	return &Stats{window: window}
}

// Record notes one conversion of filename.
func (s *Stats) Record(filename string, d time.Duration, failed bool) {
	if d < 0 {
		d = 0
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if format == "" {
		format = "unknown"
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(now)
	s.recent = append(s.recent, conversion{at: now, format: format, duration: d, failed: failed})
}

func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(time.Now())

	snap := StatsSnapshot{ByFormat: map[string]int{}}
	if len(s.recent) == 0 {
		return snap
	}
	ms := make([]float64, 0, len(s.recent))
	for _, c := range s.recent {
		snap.Count++
		snap.ByFormat[c.format]++
		if c.failed {
			snap.Failed++
		}
		ms = append(ms, float64(c.duration)/float64(time.Millisecond))
	}
	slices.Sort(ms)
	snap.P50Ms = percentile(ms, 50)
	snap.P95Ms = percentile(ms, 95)
	snap.MaxMs = ms[len(ms)-1]
	return snap
}

func (s *Stats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	s.recent = slices.DeleteFunc(s.recent, func(c conversion) bool {
		return c.at.Before(cutoff)
	})
}

// percentile interpolates linearly between the closest ranks of sorted.
func percentile(sorted []float64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := float64(len(sorted)-1) * pct / 100
	lo := int(idx)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	return sorted[lo] + (sorted[lo+1]-sorted[lo])*(idx-float64(lo))
}

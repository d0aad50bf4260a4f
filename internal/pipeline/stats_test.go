package pipeline

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestStats_Snapshot(t *testing.T) {
	stats := NewStats(time.Hour)
	for i, name := range []string{"a.md", "b.md", "c.HTML", "d.pdf", "README"} {
		stats.Record(name, time.Duration(i+1)*100*time.Millisecond, name == "d.pdf")
	}

	snap := stats.Snapshot()
	if snap.Count != 5 || snap.Failed != 1 {
		t.Fatalf("unexpected counts %+v", snap)
	}
	if diff := cmp.Diff(map[string]int{"md": 2, "html": 1, "pdf": 1, "unknown": 1}, snap.ByFormat); diff != "" {
		t.Errorf("formats mismatch (-want +got):\n%s", diff)
	}
	if snap.P50Ms != 300 || snap.P95Ms != 480 || snap.MaxMs != 500 {
		t.Errorf("unexpected latencies p50=%v p95=%v max=%v", snap.P50Ms, snap.P95Ms, snap.MaxMs)
	}
}

func TestStats_PrunesOldConversions(t *testing.T) {
	stats := NewStats(10 * time.Millisecond)
	stats.Record("a.md", time.Millisecond, false)
	time.Sleep(25 * time.Millisecond)

	if snap := stats.Snapshot(); snap.Count != 0 {
		t.Fatalf("expected count=0 after prune, got %d", snap.Count)
	}
	stats.Record("b.md", -time.Second, false)
	snap := stats.Snapshot()
	if snap.Count != 1 || snap.MaxMs != 0 {
		t.Fatalf("expected one clamped sample, got %+v", snap)
	}
}

func TestStats_Empty(t *testing.T) {
	snap := NewStats(0).Snapshot()
	if snap.Count != 0 || snap.ByFormat == nil {
		t.Errorf("unexpected empty snapshot %+v", snap)
	}
}

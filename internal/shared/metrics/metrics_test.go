package metrics

import (
	"strings"
	"testing"
)

func TestRenderIncludesCounters(t *testing.T) {
	IncPlanSaves()
	IncPlanSaveConflicts()

	out := Render()
	for _, name := range []string{
		"readiness_evaluations_total",
		"coverage_analyses_total",
		"plan_saves_total",
		"plan_save_conflicts_total",
		"exports_failed_total",
		"ai_failures_total",
	} {
		if !strings.Contains(out, "# TYPE "+name+" counter") {
			t.Fatalf("missing counter %s in:\n%s", name, out)
		}
	}
}

func TestHistogramBucketsAreCumulative(t *testing.T) {
	h := newHistogram([]float64{10, 100})
	h.Observe(5)
	h.Observe(50)
	h.Observe(500)

	snap := h.Snapshot()
	if snap.counts[0] != 1 || snap.counts[1] != 1 {
		t.Fatalf("expected one observation per bucket, got %v", snap.counts)
	}
	var cumulative uint64
	for i := range snap.buckets {
		cumulative += snap.counts[i]
	}
	if cumulative != 2 {
		t.Fatalf("expected 2 observations within bounds, got %d", cumulative)
	}
	if snap.count != 3 || snap.sum != 555 {
		t.Fatalf("unexpected snapshot: count=%d sum=%v", snap.count, snap.sum)
	}
}

func TestObserveExportDurationClampsNegative(t *testing.T) {
	before := exportDuration.Snapshot().sum
	ObserveExportDurationMs(-10)
	if got := exportDuration.Snapshot().sum; got != before {
		t.Fatalf("expected negative clamp, sum moved from %v to %v", before, got)
	}
}

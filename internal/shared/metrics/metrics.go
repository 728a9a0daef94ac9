package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	readinessEvaluationsTotal atomic.Uint64
	coverageAnalysesTotal     atomic.Uint64
	planSavesTotal            atomic.Uint64
	planSaveConflictsTotal    atomic.Uint64
	exportsStartedTotal       atomic.Uint64
	exportsCompletedTotal     atomic.Uint64
	exportsFailedTotal        atomic.Uint64
	aiInvocationsTotal        atomic.Uint64
	aiFailuresTotal           atomic.Uint64
	exportJobsReceivedTotal   atomic.Uint64
	exportJobsDiscardedTotal  atomic.Uint64

	exportDuration = newHistogram([]float64{50, 100, 250, 500, 1000, 2000, 5000, 10000, 30000})
)

func IncReadinessEvaluations() { readinessEvaluationsTotal.Add(1) }

func IncCoverageAnalyses() { coverageAnalysesTotal.Add(1) }

func IncPlanSaves() { planSavesTotal.Add(1) }

func IncPlanSaveConflicts() { planSaveConflictsTotal.Add(1) }

// IncExportStarted increments the started counter.
func IncExportStarted() {
	exportsStartedTotal.Add(1)
}

// IncExportCompleted increments the completed counter.
func IncExportCompleted() {
	exportsCompletedTotal.Add(1)
}

// IncExportFailed increments the failed counter.
func IncExportFailed() {
	exportsFailedTotal.Add(1)
}

// IncExportJobsReceived counts queue messages picked up by the worker.
func IncExportJobsReceived() { exportJobsReceivedTotal.Add(1) }

// IncExportJobsDiscarded counts queue messages deleted without processing.
func IncExportJobsDiscarded() { exportJobsDiscardedTotal.Add(1) }

func IncAIInvocations() { aiInvocationsTotal.Add(1) }

func IncAIFailures() { aiFailuresTotal.Add(1) }

// ObserveExportDurationMs records an export duration in milliseconds.
func ObserveExportDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	exportDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "readiness_evaluations_total", "Total readiness evaluations", readinessEvaluationsTotal.Load())
	writeCounter(&buf, "coverage_analyses_total", "Total taxonomy coverage analyses", coverageAnalysesTotal.Load())
	writeCounter(&buf, "plan_saves_total", "Total plan saves", planSavesTotal.Load())
	writeCounter(&buf, "plan_save_conflicts_total", "Total plan saves rejected for a stale version", planSaveConflictsTotal.Load())
	writeCounter(&buf, "exports_started_total", "Total exports started", exportsStartedTotal.Load())
	writeCounter(&buf, "exports_completed_total", "Total exports completed", exportsCompletedTotal.Load())
	writeCounter(&buf, "exports_failed_total", "Total exports failed", exportsFailedTotal.Load())
	writeCounter(&buf, "ai_invocations_total", "Total AI collaborator invocations", aiInvocationsTotal.Load())
	writeCounter(&buf, "ai_failures_total", "Total failed AI collaborator invocations", aiFailuresTotal.Load())
	writeCounter(&buf, "export_jobs_received_total", "Total export queue messages received", exportJobsReceivedTotal.Load())
	writeCounter(&buf, "export_jobs_discarded_total", "Total export queue messages discarded as unrecoverable", exportJobsDiscardedTotal.Load())
	writeHistogram(&buf, "export_duration_ms", "Export duration in milliseconds", exportDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// NowMillis returns current time in milliseconds, useful for callers without time utilities.
func NowMillis() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Millisecond)
}

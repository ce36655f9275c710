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
	turnStartedTotal   atomic.Uint64
	turnCompletedTotal atomic.Uint64
	turnFailedTotal    atomic.Uint64

	extractionNativeTotal atomic.Uint64
	extractionOCRTotal    atomic.Uint64
	extractionFailedTotal atomic.Uint64

	invoiceSavedTotal     atomic.Uint64
	invoiceDuplicateTotal atomic.Uint64

	turnDuration       = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
	extractionDuration = newHistogram([]float64{50, 100, 250, 500, 1000, 2500, 5000, 15000, 60000})
)

// IncTurnStarted increments the started chat turn counter.
func IncTurnStarted() {
	turnStartedTotal.Add(1)
}

// IncTurnCompleted increments the completed chat turn counter.
func IncTurnCompleted() {
	turnCompletedTotal.Add(1)
}

// IncTurnFailed increments the failed chat turn counter.
func IncTurnFailed() {
	turnFailedTotal.Add(1)
}

// IncExtractionNative counts an extraction satisfied by the PDF text layer.
func IncExtractionNative() {
	extractionNativeTotal.Add(1)
}

// IncExtractionOCR counts an extraction that went through the OCR branch.
func IncExtractionOCR() {
	extractionOCRTotal.Add(1)
}

// IncExtractionFailed counts a failed extraction.
func IncExtractionFailed() {
	extractionFailedTotal.Add(1)
}

// IncInvoiceSaved counts a persisted invoice.
func IncInvoiceSaved() {
	invoiceSavedTotal.Add(1)
}

// IncInvoiceDuplicate counts a candidate discarded by the duplicate gate.
func IncInvoiceDuplicate() {
	invoiceDuplicateTotal.Add(1)
}

// ObserveTurnDurationMs records a chat turn duration in milliseconds.
func ObserveTurnDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	turnDuration.Observe(value)
}

// ObserveExtractionDurationMs records an extraction duration in milliseconds.
func ObserveExtractionDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	extractionDuration.Observe(value)
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
	writeCounter(&buf, "chat_turn_started_total", "Total chat turns started", turnStartedTotal.Load())
	writeCounter(&buf, "chat_turn_completed_total", "Total chat turns completed", turnCompletedTotal.Load())
	writeCounter(&buf, "chat_turn_failed_total", "Total chat turns failed", turnFailedTotal.Load())
	writeCounter(&buf, "extraction_native_total", "Total extractions served by the PDF text layer", extractionNativeTotal.Load())
	writeCounter(&buf, "extraction_ocr_total", "Total extractions that used OCR", extractionOCRTotal.Load())
	writeCounter(&buf, "extraction_failed_total", "Total failed extractions", extractionFailedTotal.Load())
	writeCounter(&buf, "invoice_saved_total", "Total invoices persisted", invoiceSavedTotal.Load())
	writeCounter(&buf, "invoice_duplicate_total", "Total invoice candidates discarded as duplicates", invoiceDuplicateTotal.Load())
	writeHistogram(&buf, "chat_turn_duration_ms", "Chat turn duration in milliseconds", turnDuration.Snapshot())
	writeHistogram(&buf, "extraction_duration_ms", "Extraction duration in milliseconds", extractionDuration.Snapshot())
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

package monitor

import (
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics tracks gateway health: stream activity, merge throughput and API
// traffic. Counters are atomic; the latency histogram has its own lock.
type Metrics struct {
	APILatency *LatencyHistogram

	eventsRouted    uint64
	tradesMerged    uint64
	booksMerged     uint64
	payloadsDropped uint64
	reconnects      uint64
	apiRequests     uint64
	apiErrors       uint64
}

// NewMetrics creates a metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{APILatency: NewLatencyHistogram(1000)}
}

// IncrementEvents counts a routed stream event.
func (m *Metrics) IncrementEvents() { atomic.AddUint64(&m.eventsRouted, 1) }

// IncrementTrades counts a merged trade/OHLC update.
func (m *Metrics) IncrementTrades() { atomic.AddUint64(&m.tradesMerged, 1) }

// IncrementBooks counts a merged order-book update.
func (m *Metrics) IncrementBooks() { atomic.AddUint64(&m.booksMerged, 1) }

// IncrementDropped counts a malformed payload dropped by the router.
func (m *Metrics) IncrementDropped() { atomic.AddUint64(&m.payloadsDropped, 1) }

// IncrementReconnects counts a stream reconnect attempt.
func (m *Metrics) IncrementReconnects() { atomic.AddUint64(&m.reconnects, 1) }

// IncrementAPI counts an API request.
func (m *Metrics) IncrementAPI() { atomic.AddUint64(&m.apiRequests, 1) }

// IncrementAPIErrors counts an API response with status >= 400.
func (m *Metrics) IncrementAPIErrors() { atomic.AddUint64(&m.apiErrors, 1) }

// Snapshot is a point-in-time view served on /api/metrics.
type Snapshot struct {
	EventsRouted    uint64       `json:"events_routed"`
	TradesMerged    uint64       `json:"trades_merged"`
	BooksMerged     uint64       `json:"books_merged"`
	PayloadsDropped uint64       `json:"payloads_dropped"`
	Reconnects      uint64       `json:"reconnects"`
	APIRequests     uint64       `json:"api_requests"`
	APIErrors       uint64       `json:"api_errors"`
	APILatency      LatencyStats `json:"api_latency"`
	GoroutineCount  int          `json:"goroutine_count"`
	HeapAlloc       uint64       `json:"heap_alloc_bytes"`
	Timestamp       time.Time    `json:"timestamp"`
}

// GetSnapshot returns the current snapshot.
func (m *Metrics) GetSnapshot() Snapshot {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return Snapshot{
		EventsRouted:    atomic.LoadUint64(&m.eventsRouted),
		TradesMerged:    atomic.LoadUint64(&m.tradesMerged),
		BooksMerged:     atomic.LoadUint64(&m.booksMerged),
		PayloadsDropped: atomic.LoadUint64(&m.payloadsDropped),
		Reconnects:      atomic.LoadUint64(&m.reconnects),
		APIRequests:     atomic.LoadUint64(&m.apiRequests),
		APIErrors:       atomic.LoadUint64(&m.apiErrors),
		APILatency:      m.APILatency.Stats(),
		GoroutineCount:  runtime.NumGoroutine(),
		HeapAlloc:       memStats.HeapAlloc,
		Timestamp:       time.Now(),
	}
}

// LatencyHistogram tracks latency samples over a sliding window.
type LatencyHistogram struct {
	mu      sync.Mutex
	samples []float64
	maxSize int
}

// NewLatencyHistogram creates a sliding-window histogram.
func NewLatencyHistogram(size int) *LatencyHistogram {
	if size <= 0 {
		size = 1000
	}
	return &LatencyHistogram{
		samples: make([]float64, 0, size),
		maxSize: size,
	}
}

// Record adds a latency sample in milliseconds.
func (h *LatencyHistogram) Record(latencyMs float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.samples) >= h.maxSize {
		h.samples = h.samples[1:]
	}
	h.samples = append(h.samples, latencyMs)
}

// RecordDuration converts a duration to ms and records it.
func (h *LatencyHistogram) RecordDuration(d time.Duration) {
	h.Record(float64(d.Nanoseconds()) / 1e6)
}

// LatencyStats holds computed latency statistics.
type LatencyStats struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	Count int     `json:"count"`
}

// Stats returns min, max, avg, p50 and p95 over the current window.
func (h *LatencyHistogram) Stats() LatencyStats {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := len(h.samples)
	if n == 0 {
		return LatencyStats{}
	}

	sorted := make([]float64, n)
	copy(sorted, h.samples)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}

	return LatencyStats{
		Min:   sorted[0],
		Max:   sorted[n-1],
		Avg:   sum / float64(n),
		P50:   sorted[n/2],
		P95:   sorted[int(float64(n)*0.95)],
		Count: n,
	}
}

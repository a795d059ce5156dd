package mqtt5

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryMetrics is an in-memory implementation of Metrics, useful for
// tests and for programs that poll metric values themselves.
type MemoryMetrics struct {
	mu         sync.RWMutex
	counters   map[string]*memoryCounter
	gauges     map[string]*memoryGauge
	histograms map[string]*memoryHistogram
}

// NewMemoryMetrics creates a new in-memory metrics instance.
func NewMemoryMetrics() *MemoryMetrics {
	return &MemoryMetrics{
		counters:   make(map[string]*memoryCounter),
		gauges:     make(map[string]*memoryGauge),
		histograms: make(map[string]*memoryHistogram),
	}
}

func labelsKey(name string, labels MetricLabels) string {
	if len(labels) == 0 {
		return name
	}

	key := name
	for k, v := range labels {
		key += "|" + k + "=" + v
	}

	return key
}

// Counter returns a counter metric.
func (m *MemoryMetrics) Counter(name string, labels MetricLabels) Counter {
	key := labelsKey(name, labels)

	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.counters[key]; ok {
		return c
	}

	c := &memoryCounter{}
	m.counters[key] = c

	return c
}

// Gauge returns a gauge metric.
func (m *MemoryMetrics) Gauge(name string, labels MetricLabels) Gauge {
	key := labelsKey(name, labels)

	m.mu.Lock()
	defer m.mu.Unlock()

	if g, ok := m.gauges[key]; ok {
		return g
	}

	g := &memoryGauge{}
	m.gauges[key] = g

	return g
}

// Histogram returns a histogram metric.
func (m *MemoryMetrics) Histogram(name string, labels MetricLabels) Histogram {
	key := labelsKey(name, labels)

	m.mu.Lock()
	defer m.mu.Unlock()

	if h, ok := m.histograms[key]; ok {
		return h
	}

	h := &memoryHistogram{}
	m.histograms[key] = h

	return h
}

// GetCounter returns an existing counter, or nil when never recorded.
func (m *MemoryMetrics) GetCounter(name string, labels MetricLabels) Counter {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if c, ok := m.counters[labelsKey(name, labels)]; ok {
		return c
	}
	return nil
}

// GetGauge returns an existing gauge, or nil when never recorded.
func (m *MemoryMetrics) GetGauge(name string, labels MetricLabels) Gauge {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if g, ok := m.gauges[labelsKey(name, labels)]; ok {
		return g
	}
	return nil
}

// GetHistogram returns an existing histogram, or nil when never recorded.
func (m *MemoryMetrics) GetHistogram(name string, labels MetricLabels) Histogram {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if h, ok := m.histograms[labelsKey(name, labels)]; ok {
		return h
	}
	return nil
}

// addFloat adds delta to a float64 stored as atomic bits.
func addFloat(v *atomic.Uint64, delta float64) {
	for {
		old := v.Load()
		next := math.Float64frombits(old) + delta
		if v.CompareAndSwap(old, math.Float64bits(next)) {
			return
		}
	}
}

type memoryCounter struct {
	value atomic.Uint64
}

func (c *memoryCounter) Inc() {
	c.Add(1)
}

func (c *memoryCounter) Add(delta float64) {
	addFloat(&c.value, delta)
}

func (c *memoryCounter) Value() float64 {
	return math.Float64frombits(c.value.Load())
}

type memoryGauge struct {
	value atomic.Uint64
}

func (g *memoryGauge) Set(value float64) {
	g.value.Store(math.Float64bits(value))
}

func (g *memoryGauge) Inc() {
	g.Add(1)
}

func (g *memoryGauge) Dec() {
	g.Add(-1)
}

func (g *memoryGauge) Add(delta float64) {
	addFloat(&g.value, delta)
}

func (g *memoryGauge) Sub(delta float64) {
	g.Add(-delta)
}

func (g *memoryGauge) Value() float64 {
	return math.Float64frombits(g.value.Load())
}

type memoryHistogram struct {
	count atomic.Uint64
	sum   atomic.Uint64
}

func (h *memoryHistogram) Observe(value float64) {
	h.count.Add(1)
	addFloat(&h.sum, value)
}

func (h *memoryHistogram) ObserveDuration(d time.Duration) {
	h.Observe(d.Seconds())
}

func (h *memoryHistogram) Count() uint64 {
	return h.count.Load()
}

func (h *memoryHistogram) Sum() float64 {
	return math.Float64frombits(h.sum.Load())
}

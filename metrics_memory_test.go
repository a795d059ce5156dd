package mqtt5

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryMetricsCounter(t *testing.T) {
	m := NewMemoryMetrics()

	c := m.Counter("test_counter", nil)
	c.Inc()
	c.Inc()
	c.Add(2.5)

	assert.Equal(t, 4.5, c.Value())

	// Same name and labels returns the same counter.
	assert.Equal(t, 4.5, m.Counter("test_counter", nil).Value())
}

func TestMemoryMetricsCounterLabels(t *testing.T) {
	m := NewMemoryMetrics()

	m.Counter("sent", MetricLabels{LabelQoS: "0"}).Inc()
	m.Counter("sent", MetricLabels{LabelQoS: "1"}).Add(3)

	assert.Equal(t, 1.0, m.Counter("sent", MetricLabels{LabelQoS: "0"}).Value())
	assert.Equal(t, 3.0, m.Counter("sent", MetricLabels{LabelQoS: "1"}).Value())
}

func TestMemoryMetricsGauge(t *testing.T) {
	m := NewMemoryMetrics()

	g := m.Gauge("in_flight", nil)
	g.Set(10)
	g.Inc()
	g.Dec()
	g.Add(5)
	g.Sub(2)

	assert.Equal(t, 13.0, g.Value())
}

func TestMemoryMetricsHistogram(t *testing.T) {
	m := NewMemoryMetrics()

	h := m.Histogram("latency", nil)
	h.Observe(0.5)
	h.Observe(1.5)
	h.ObserveDuration(2 * time.Second)

	assert.Equal(t, uint64(3), h.Count())
	assert.Equal(t, 4.0, h.Sum())
}

func TestMemoryMetricsGetters(t *testing.T) {
	m := NewMemoryMetrics()

	assert.Nil(t, m.GetCounter("never_recorded", nil))
	assert.Nil(t, m.GetGauge("never_recorded", nil))
	assert.Nil(t, m.GetHistogram("never_recorded", nil))

	m.Counter("recorded", nil).Inc()
	c := m.GetCounter("recorded", nil)
	require.NotNil(t, c)
	assert.Equal(t, 1.0, c.Value())

	// Labels are part of the identity.
	assert.Nil(t, m.GetCounter("recorded", MetricLabels{LabelQoS: "1"}))
}

func TestClientMetricsRecording(t *testing.T) {
	mem := NewMemoryMetrics()
	stats := newClientMetrics(mem)

	stats.connected()
	stats.disconnected()
	stats.connected()
	stats.reconnectAttempt()

	stats.messageSent(1)
	stats.messageSent(1)
	stats.messageReceived(0)
	stats.messageDropped()

	stats.packetSent(PacketPUBLISH)
	stats.packetReceived(PacketPUBACK)
	stats.ackTimeout()
	stats.publishInFlight(7)
	stats.publishLatency(250 * time.Millisecond)

	assert.Equal(t, 1.0, mem.GetGauge(MetricConnected, nil).Value())
	assert.Equal(t, 2.0, mem.GetCounter(MetricConnectionsTotal, nil).Value())
	assert.Equal(t, 1.0, mem.GetCounter(MetricReconnectsTotal, nil).Value())

	sent := mem.GetCounter(MetricMessagesSent, MetricLabels{LabelQoS: "1"})
	require.NotNil(t, sent)
	assert.Equal(t, 2.0, sent.Value())

	received := mem.GetCounter(MetricMessagesReceived, MetricLabels{LabelQoS: "0"})
	require.NotNil(t, received)
	assert.Equal(t, 1.0, received.Value())

	assert.Equal(t, 1.0, mem.GetCounter(MetricMessagesDropped, nil).Value())

	pktSent := mem.GetCounter(MetricPacketsSent, MetricLabels{LabelPacketType: "PUBLISH"})
	require.NotNil(t, pktSent)
	assert.Equal(t, 1.0, pktSent.Value())

	pktRecv := mem.GetCounter(MetricPacketsReceived, MetricLabels{LabelPacketType: "PUBACK"})
	require.NotNil(t, pktRecv)
	assert.Equal(t, 1.0, pktRecv.Value())

	assert.Equal(t, 1.0, mem.GetCounter(MetricAckTimeouts, nil).Value())
	assert.Equal(t, 7.0, mem.GetGauge(MetricPublishInFlight, nil).Value())

	latency := mem.GetHistogram(MetricPublishLatency, nil)
	require.NotNil(t, latency)
	assert.Equal(t, uint64(1), latency.Count())
	assert.InDelta(t, 0.25, latency.Sum(), 1e-9)
}

func TestNoOpMetrics(t *testing.T) {
	m := &NoOpMetrics{}

	c := m.Counter("x", nil)
	c.Inc()
	assert.Equal(t, 0.0, c.Value())

	g := m.Gauge("y", nil)
	g.Set(5)
	assert.Equal(t, 0.0, g.Value())

	h := m.Histogram("z", nil)
	h.Observe(1)
	assert.Equal(t, uint64(0), h.Count())
}

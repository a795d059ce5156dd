package mqtt5

import (
	"time"
)

// MetricLabels represents key-value pairs for metric labels.
type MetricLabels map[string]string

// Metrics defines the interface for collecting metrics. Implementations
// must be safe for concurrent use.
type Metrics interface {
	// Counter returns a counter metric.
	Counter(name string, labels MetricLabels) Counter

	// Gauge returns a gauge metric.
	Gauge(name string, labels MetricLabels) Gauge

	// Histogram returns a histogram metric.
	Histogram(name string, labels MetricLabels) Histogram
}

// Counter is a monotonically increasing counter.
type Counter interface {
	// Inc increments the counter by 1.
	Inc()

	// Add adds the given value to the counter.
	Add(delta float64)

	// Value returns the current value.
	Value() float64
}

// Gauge is a metric that can go up and down.
type Gauge interface {
	// Set sets the gauge to the given value.
	Set(value float64)

	// Inc increments the gauge by 1.
	Inc()

	// Dec decrements the gauge by 1.
	Dec()

	// Add adds the given value to the gauge.
	Add(delta float64)

	// Sub subtracts the given value from the gauge.
	Sub(delta float64)

	// Value returns the current value.
	Value() float64
}

// Histogram tracks the distribution of values.
type Histogram interface {
	// Observe records a value.
	Observe(value float64)

	// ObserveDuration records a duration in seconds.
	ObserveDuration(d time.Duration)

	// Count returns the number of observations.
	Count() uint64

	// Sum returns the sum of all observations.
	Sum() float64
}

// NoOpMetrics is a no-op implementation of Metrics.
type NoOpMetrics struct{}

// Counter returns a no-op counter.
func (n *NoOpMetrics) Counter(_ string, _ MetricLabels) Counter {
	return &noOpCounter{}
}

// Gauge returns a no-op gauge.
func (n *NoOpMetrics) Gauge(_ string, _ MetricLabels) Gauge {
	return &noOpGauge{}
}

// Histogram returns a no-op histogram.
func (n *NoOpMetrics) Histogram(_ string, _ MetricLabels) Histogram {
	return &noOpHistogram{}
}

type noOpCounter struct{}

func (n *noOpCounter) Inc()           {}
func (n *noOpCounter) Add(_ float64)  {}
func (n *noOpCounter) Value() float64 { return 0 }

type noOpGauge struct{}

func (n *noOpGauge) Set(_ float64)  {}
func (n *noOpGauge) Inc()           {}
func (n *noOpGauge) Dec()           {}
func (n *noOpGauge) Add(_ float64)  {}
func (n *noOpGauge) Sub(_ float64)  {}
func (n *noOpGauge) Value() float64 { return 0 }

type noOpHistogram struct{}

func (n *noOpHistogram) Observe(_ float64)               {}
func (n *noOpHistogram) ObserveDuration(_ time.Duration) {}
func (n *noOpHistogram) Count() uint64                   { return 0 }
func (n *noOpHistogram) Sum() float64                    { return 0 }

// Standard metric names.
const (
	// MetricConnected reports 1 while a connection is established.
	MetricConnected = "mqtt_client_connected"

	// MetricConnectionsTotal is the total number of connections established.
	MetricConnectionsTotal = "mqtt_client_connections_total"

	// MetricReconnectsTotal is the total number of reconnect attempts.
	MetricReconnectsTotal = "mqtt_client_reconnects_total"

	// MetricMessagesReceived is the total number of messages received.
	MetricMessagesReceived = "mqtt_client_messages_received_total"

	// MetricMessagesSent is the total number of messages published.
	MetricMessagesSent = "mqtt_client_messages_sent_total"

	// MetricMessagesDropped is the total number of inbound messages
	// dropped because the receive queue was full.
	MetricMessagesDropped = "mqtt_client_messages_dropped_total"

	// MetricPacketsSent is the total number of packets sent.
	MetricPacketsSent = "mqtt_client_packets_sent_total"

	// MetricPacketsReceived is the total number of packets received.
	MetricPacketsReceived = "mqtt_client_packets_received_total"

	// MetricAckTimeouts is the total number of acknowledgments that
	// did not arrive within the response timeout.
	MetricAckTimeouts = "mqtt_client_ack_timeouts_total"

	// MetricPublishInFlight is the current number of unacknowledged
	// QoS 1 and 2 publishes.
	MetricPublishInFlight = "mqtt_client_publish_in_flight"

	// MetricPublishLatency is the time from PUBLISH to final acknowledgment.
	MetricPublishLatency = "mqtt_client_publish_latency_seconds"
)

// Standard metric labels.
const (
	// LabelPacketType is the packet type label.
	LabelPacketType = "packet_type"

	// LabelQoS is the QoS level label.
	LabelQoS = "qos"
)

// clientMetrics provides convenience methods for the metrics the client
// records. All methods are cheap no-ops when backed by NoOpMetrics.
type clientMetrics struct {
	metrics Metrics
}

func newClientMetrics(m Metrics) *clientMetrics {
	return &clientMetrics{metrics: m}
}

func (c *clientMetrics) connected() {
	c.metrics.Gauge(MetricConnected, nil).Set(1)
	c.metrics.Counter(MetricConnectionsTotal, nil).Inc()
}

func (c *clientMetrics) disconnected() {
	c.metrics.Gauge(MetricConnected, nil).Set(0)
}

func (c *clientMetrics) reconnectAttempt() {
	c.metrics.Counter(MetricReconnectsTotal, nil).Inc()
}

func qosLabel(qos byte) MetricLabels {
	return MetricLabels{LabelQoS: string(rune('0' + qos))}
}

func (c *clientMetrics) messageSent(qos byte) {
	c.metrics.Counter(MetricMessagesSent, qosLabel(qos)).Inc()
}

func (c *clientMetrics) messageReceived(qos byte) {
	c.metrics.Counter(MetricMessagesReceived, qosLabel(qos)).Inc()
}

func (c *clientMetrics) messageDropped() {
	c.metrics.Counter(MetricMessagesDropped, nil).Inc()
}

func (c *clientMetrics) packetSent(t PacketType) {
	c.metrics.Counter(MetricPacketsSent, MetricLabels{LabelPacketType: t.String()}).Inc()
}

func (c *clientMetrics) packetReceived(t PacketType) {
	c.metrics.Counter(MetricPacketsReceived, MetricLabels{LabelPacketType: t.String()}).Inc()
}

func (c *clientMetrics) ackTimeout() {
	c.metrics.Counter(MetricAckTimeouts, nil).Inc()
}

func (c *clientMetrics) publishInFlight(n int) {
	c.metrics.Gauge(MetricPublishInFlight, nil).Set(float64(n))
}

func (c *clientMetrics) publishLatency(d time.Duration) {
	c.metrics.Histogram(MetricPublishLatency, nil).ObserveDuration(d)
}

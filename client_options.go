package mqtt5

import (
	"crypto/rand"
	"crypto/tls"
	"encoding/hex"
	"time"

	"golang.org/x/time/rate"
)

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	clientID        string
	username        string
	password        []byte
	keepAlive       uint16
	sessionExpiry   uint32
	responseTimeout time.Duration
	connectTimeout  time.Duration
	connectDelays   []time.Duration
	topicAliasMax   uint16
	aliasTopics     []string
	subscriptions   []Subscription
	queueSize       int
	maxPacketSize   uint32
	userProperties  []StringPair
	will            *willConfig
	dialer          Dialer
	authenticator   Authenticator
	publishLimiter  *rate.Limiter
	logger          Logger
	metrics         Metrics
	pubInterceptors []PublishInterceptor
	recInterceptors []ReceiveInterceptor
}

type willConfig struct {
	topic   string
	payload []byte
	qos     byte
	retain  bool
	props   Properties
}

func defaultClientConfig() *clientConfig {
	return &clientConfig{
		clientID:        randomClientID(),
		keepAlive:       60,
		responseTimeout: 5 * time.Second,
		connectTimeout:  10 * time.Second,
		connectDelays:   []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second},
		topicAliasMax:   10,
		queueSize:       128,
		logger:          NewNoOpLogger(),
		metrics:         &NoOpMetrics{},
	}
}

// randomClientID generates a client identifier for clients that do not
// set one.
func randomClientID() string {
	var b [7]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "mqtt5-00000000000000"
	}
	return "mqtt5-" + hex.EncodeToString(b[:])
}

// WithClientID sets the client identifier. A random one is generated
// when unset.
func WithClientID(id string) Option {
	return func(c *clientConfig) {
		c.clientID = id
	}
}

// WithCredentials sets the username and password sent in CONNECT.
func WithCredentials(username string, password []byte) Option {
	return func(c *clientConfig) {
		c.username = username
		c.password = password
	}
}

// WithKeepAlive sets the keep alive interval in seconds. 0 disables
// keep alive probing. The default is 60.
func WithKeepAlive(seconds uint16) Option {
	return func(c *clientConfig) {
		c.keepAlive = seconds
	}
}

// WithSessionExpiryInterval sets the session expiry interval in seconds
// requested in CONNECT. 0 means the session ends when the connection
// closes; 0xFFFFFFFF means it never expires.
func WithSessionExpiryInterval(seconds uint32) Option {
	return func(c *clientConfig) {
		c.sessionExpiry = seconds
	}
}

// WithResponseTimeout sets how long the client waits for an
// acknowledgment before failing the operation with ErrTimeout. The
// default is 5 seconds.
func WithResponseTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		c.responseTimeout = d
	}
}

// WithConnectTimeout bounds a single connection attempt, covering the
// dial and the CONNECT/CONNACK exchange. The default is 10 seconds.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		c.connectTimeout = d
	}
}

// WithConnectDelays sets the reconnect backoff schedule. The last delay
// repeats once the schedule is exhausted. An empty schedule disables
// reconnection, every connection failure then ends the client. The
// default is 1s, 2s, 4s, 8s.
func WithConnectDelays(delays ...time.Duration) Option {
	return func(c *clientConfig) {
		c.connectDelays = delays
	}
}

// WithTopicAliasMaximum sets the number of inbound topic aliases the
// client grants the server. 0 disables inbound aliases. The default
// is 10.
func WithTopicAliasMaximum(n uint16) Option {
	return func(c *clientConfig) {
		c.topicAliasMax = n
	}
}

// WithTopicAliases names topics the client publishes to frequently.
// After every connect they are assigned outbound aliases, within the
// limit granted by the server, so subsequent publishes can omit the
// topic name.
func WithTopicAliases(topics ...string) Option {
	return func(c *clientConfig) {
		c.aliasTopics = topics
	}
}

// WithSubscriptions sets subscriptions established during Start, before
// it returns. When a resumed session already contains them the
// subscribe is skipped.
func WithSubscriptions(subs ...Subscription) Option {
	return func(c *clientConfig) {
		c.subscriptions = subs
	}
}

// WithQueueSize sets the inbound message queue capacity. When full,
// QoS 0 messages displace the oldest entry and QoS 1 and 2 messages
// pause the connection until ReadMessage drains the queue. The default
// is 128.
func WithQueueSize(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.queueSize = n
		}
	}
}

// WithMaxPacketSize limits the size of packets the client is willing to
// receive, advertised to the server in CONNECT. 0 means no limit.
func WithMaxPacketSize(size uint32) Option {
	return func(c *clientConfig) {
		c.maxPacketSize = size
	}
}

// WithUserProperties sets user properties sent in CONNECT.
func WithUserProperties(props ...StringPair) Option {
	return func(c *clientConfig) {
		c.userProperties = props
	}
}

// WithWill sets the will message the server publishes if the connection
// ends without a DISCONNECT.
func WithWill(topic string, payload []byte, qos byte, retain bool) Option {
	return func(c *clientConfig) {
		c.will = &willConfig{
			topic:   topic,
			payload: payload,
			qos:     qos,
			retain:  retain,
		}
	}
}

// WithDialer sets the transport used to reach the server. The default
// is a plain TCPDialer.
func WithDialer(d Dialer) Option {
	return func(c *clientConfig) {
		c.dialer = d
	}
}

// WithTLS makes the client connect over TLS with the given
// configuration. Shorthand for WithDialer(&TLSDialer{Config: config}).
func WithTLS(config *tls.Config) Option {
	return func(c *clientConfig) {
		c.dialer = &TLSDialer{Config: config}
	}
}

// WithAuthenticator enables enhanced authentication using the given
// authenticator, for example a SCRAMAuthenticator.
func WithAuthenticator(a Authenticator) Option {
	return func(c *clientConfig) {
		c.authenticator = a
	}
}

// WithPublishRateLimit caps outgoing publishes at r per second with the
// given burst. Publish blocks until the limiter grants a slot.
func WithPublishRateLimit(r float64, burst int) Option {
	return func(c *clientConfig) {
		c.publishLimiter = rate.NewLimiter(rate.Limit(r), burst)
	}
}

// WithLogger sets the logger. The default discards all output.
func WithLogger(l Logger) Option {
	return func(c *clientConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics sets the metrics sink. The default discards all metrics.
func WithMetrics(m Metrics) Option {
	return func(c *clientConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithPublishInterceptors adds interceptors that run, in order, on every
// message before it is published.
func WithPublishInterceptors(interceptors ...PublishInterceptor) Option {
	return func(c *clientConfig) {
		c.pubInterceptors = append(c.pubInterceptors, interceptors...)
	}
}

// WithReceiveInterceptors adds interceptors that run, in order, on every
// received message before it reaches ReadMessage.
func WithReceiveInterceptors(interceptors ...ReceiveInterceptor) Option {
	return func(c *clientConfig) {
		c.recInterceptors = append(c.recInterceptors, interceptors...)
	}
}

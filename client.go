package mqtt5

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// State is the connection lifecycle state of a Client.
type State int32

const (
	// StateDisconnected means Start has not been called yet.
	StateDisconnected State = iota
	// StateConnecting means the initial connection is being established.
	StateConnecting
	// StateConnected means the client has a usable connection.
	StateConnected
	// StateReconnecting means the connection was lost and the client is
	// retrying in the background.
	StateReconnecting
	// StateStopped means the client has shut down, by Stop or by giving
	// up on reconnection.
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// reqKind identifies a request sent to the connection goroutine.
type reqKind int

const (
	reqPublish reqKind = iota
	reqSubscribe
	reqUnsubscribe
)

// request carries one operation from a caller to the connection
// goroutine. The result arrives on done, which has capacity one.
type request struct {
	kind    reqKind
	msg     *Message
	subs    []Subscription
	filters []string
	done    chan txnResult
}

// Client is an MQTT 5.0 client. Create one with New, connect with Start
// and receive subscribed messages with ReadMessage. All methods are safe
// for concurrent use.
type Client struct {
	addr  string
	cfg   *clientConfig
	log   Logger
	stats *clientMetrics

	session *session
	queue   *messageQueue

	requests chan *request

	// Owned by the connection goroutine once Start returns.
	desired     map[string]Subscription
	aliasTopics map[string]struct{}

	state   atomic.Int32
	running atomic.Bool

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}

	mu       sync.Mutex
	clientID string
}

// New creates a client for the server at addr. The address format
// depends on the dialer: "host:port" for TCP, TLS and QUIC, a ws:// or
// wss:// URL for WebSocket.
func New(addr string, opts ...Option) *Client {
	cfg := defaultClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	c := &Client{
		addr:        addr,
		cfg:         cfg,
		session:     newSession(),
		queue:       newMessageQueue(cfg.queueSize),
		requests:    make(chan *request),
		desired:     make(map[string]Subscription),
		aliasTopics: make(map[string]struct{}, len(cfg.aliasTopics)),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
		clientID:    cfg.clientID,
	}
	for _, topic := range cfg.aliasTopics {
		c.aliasTopics[topic] = struct{}{}
	}
	c.log = cfg.logger.WithFields(LogFields{
		LogFieldClientID: cfg.clientID,
		LogFieldBroker:   addr,
	})
	c.stats = newClientMetrics(cfg.metrics)

	return c
}

// ClientID returns the client identifier in use. It may differ from the
// configured one when the server assigned an identifier.
func (c *Client) ClientID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clientID
}

func (c *Client) setClientID(id string) {
	c.mu.Lock()
	c.clientID = id
	c.mu.Unlock()
}

// State returns the current connection state.
func (c *Client) State() State {
	return State(c.state.Load())
}

func (c *Client) setState(s State) {
	c.state.Store(int32(s))
}

// Start connects to the server, establishes the configured
// subscriptions and hands the connection to a background goroutine that
// keeps it alive until Stop.
//
// With resumeSession true the client asks the server to resume a
// previous session instead of starting clean. When the server has no
// session to resume, Start still connects and subscribes, then returns
// ErrSessionResume so the caller can rebuild any state of its own.
//
// Connection attempts follow the configured connect delay schedule. A
// server that actively refuses the connection ends Start immediately
// with a ConnectError.
func (c *Client) Start(ctx context.Context, resumeSession bool) error {
	select {
	case <-c.stop:
		return ErrStopped
	default:
	}

	c.setState(StateConnecting)

	ac, ack, err := c.connectLoop(ctx, !resumeSession)
	if err != nil {
		c.setState(StateDisconnected)
		return err
	}

	if !ack.SessionPresent {
		c.session.clear()
	}

	c.setState(StateConnected)
	c.running.Store(true)
	go c.run(ac)

	if len(c.cfg.subscriptions) > 0 && !ack.SessionPresent {
		req := &request{
			kind: reqSubscribe,
			subs: c.cfg.subscriptions,
			done: make(chan txnResult, 1),
		}
		if _, err := c.do(ctx, req); err != nil {
			return err
		}
	}

	if resumeSession && !ack.SessionPresent {
		return ErrSessionResume
	}

	return nil
}

// Stop disconnects from the server and shuts the client down. Pending
// operations fail with ErrStopped, queued messages remain readable and
// ReadMessage reports io.EOF once they are drained. Stop is idempotent.
func (c *Client) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })

	if c.running.Load() {
		<-c.done
		return
	}

	c.setState(StateStopped)
	c.queue.close()
}

// Publish sends an application message. For QoS 0 it returns once the
// message is written to the transport. For QoS 1 and 2 it blocks until
// the acknowledgment flow completes, the response timeout expires or ctx
// ends.
func (c *Client) Publish(ctx context.Context, msg *Message) error {
	if msg.QoS > 2 {
		return ErrInvalidQoS
	}
	if err := ValidateTopicName(msg.Topic); err != nil {
		return err
	}

	if c.cfg.publishLimiter != nil {
		if err := c.cfg.publishLimiter.Wait(ctx); err != nil {
			return err
		}
	}

	msg = applyPublishInterceptors(c.log, c.cfg.pubInterceptors, msg)
	if msg == nil {
		return nil
	}

	req := &request{
		kind: reqPublish,
		msg:  msg,
		done: make(chan txnResult, 1),
	}

	res, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	return res.err
}

// Subscribe adds a subscription for the topic filter with the given
// maximum QoS and returns the QoS granted by the server. The
// subscription is re-established automatically after a reconnect that
// did not resume the session.
func (c *Client) Subscribe(ctx context.Context, filter string, qos byte) (byte, error) {
	if qos > 2 {
		return 0, ErrInvalidQoS
	}
	if err := ValidateTopicFilter(filter); err != nil {
		return 0, err
	}

	req := &request{
		kind: reqSubscribe,
		subs: []Subscription{{Filter: filter, QoS: qos}},
		done: make(chan txnResult, 1),
	}

	res, err := c.do(ctx, req)
	if err != nil {
		return 0, err
	}
	if res.err != nil {
		return 0, res.err
	}

	granted, _ := res.codes[0].GrantedQoS()
	return granted, nil
}

// Unsubscribe removes the subscription for the topic filter.
func (c *Client) Unsubscribe(ctx context.Context, filter string) error {
	if err := ValidateTopicFilter(filter); err != nil {
		return err
	}

	req := &request{
		kind:    reqUnsubscribe,
		filters: []string{filter},
		done:    make(chan txnResult, 1),
	}

	res, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	return res.err
}

// ReadMessage returns the next message received on any subscription. It
// blocks until a message arrives or ctx ends. After Stop it drains the
// remaining queued messages and then reports io.EOF.
func (c *Client) ReadMessage(ctx context.Context) (*Message, error) {
	return c.queue.get(ctx)
}

// do hands a request to the connection goroutine and waits for its
// result.
func (c *Client) do(ctx context.Context, req *request) (txnResult, error) {
	if !c.running.Load() {
		select {
		case <-c.stop:
			return txnResult{}, ErrStopped
		default:
			return txnResult{}, ErrNotConnected
		}
	}

	select {
	case c.requests <- req:
	case <-ctx.Done():
		return txnResult{}, ctx.Err()
	case <-c.done:
		return txnResult{}, ErrStopped
	}

	select {
	case res := <-req.done:
		return res, nil
	case <-ctx.Done():
		return txnResult{}, ctx.Err()
	case <-c.done:
		return txnResult{}, ErrStopped
	}
}

// connectLoop attempts to connect until it succeeds, the delay schedule
// is exhausted or the attempt is refused outright.
//
// With a non-empty schedule the loop retries transport failures
// indefinitely, waiting the scheduled delay between attempts and
// repeating the final delay. An empty schedule means a single attempt.
// A CONNACK refusal always ends the loop immediately.
func (c *Client) connectLoop(ctx context.Context, cleanStart bool) (*activeConn, *ConnackPacket, error) {
	for attempt := 0; ; attempt++ {
		ac, ack, err := c.connect(ctx, cleanStart)
		if err == nil {
			return ac, ack, nil
		}

		var connErr *ConnectError
		if errors.As(err, &connErr) {
			c.log.Error("connection refused", LogFields{
				LogFieldReasonCode: connErr.Code.String(),
			})
			return nil, nil, err
		}

		if len(c.cfg.connectDelays) == 0 {
			return nil, nil, err
		}

		delay := c.cfg.connectDelays[min(attempt, len(c.cfg.connectDelays)-1)]
		c.log.Warn("connect failed, retrying", LogFields{
			LogFieldError:   err.Error(),
			LogFieldAttempt: attempt + 1,
			"delay":         delay.String(),
		})

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, nil, ctx.Err()
		case <-c.stop:
			timer.Stop()
			return nil, nil, ErrStopped
		}
	}
}

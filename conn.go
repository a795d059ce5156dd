package mqtt5

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// errStopRequested signals an orderly shutdown through the serve loop.
var errStopRequested = errors.New("stop requested")

// activeConn is one live connection to the server. It bundles the
// transport with all per-connection state: topic aliases, in-flight
// transactions and keep alive bookkeeping. A new activeConn is built for
// every connect, nothing here survives a reconnect.
type activeConn struct {
	transport Conn
	aliases   *aliasTable
	txns      *txnTable

	incoming chan Packet
	readErr  chan error
	closed   chan struct{}

	keepAlive   time.Duration
	sendMax     uint32 // server Maximum Packet Size, 0 none
	receiveMax  uint16 // server Receive Maximum
	pubInFlight int

	nextPing     time.Time
	pingDeadline time.Time
}

// startReader spawns the goroutine that decodes inbound packets. It
// feeds packets to incoming and reports the first read failure on
// readErr, then exits.
func (ac *activeConn) startReader(maxSize uint32) {
	go func() {
		for {
			pkt, _, err := ReadPacket(ac.transport, maxSize)
			if err != nil {
				select {
				case ac.readErr <- err:
				case <-ac.closed:
				}
				return
			}

			select {
			case ac.incoming <- pkt:
			case <-ac.closed:
				return
			}
		}
	}()
}

// connect performs one connection attempt: dial, the CONNECT/CONNACK
// exchange including any enhanced authentication rounds, and
// per-connection setup.
func (c *Client) connect(ctx context.Context, cleanStart bool) (*activeConn, *ConnackPacket, error) {
	dctx, cancel := context.WithTimeout(ctx, c.cfg.connectTimeout)
	defer cancel()

	dialer := c.cfg.dialer
	if dialer == nil {
		dialer = &TCPDialer{}
	}

	raw, err := dialer.Dial(dctx, c.addr)
	if err != nil {
		return nil, nil, transportErr(err)
	}

	// Bound the whole handshake, not just the dial
	raw.SetDeadline(time.Now().Add(c.cfg.connectTimeout))

	connect, err := c.buildConnect(cleanStart)
	if err != nil {
		raw.Close()
		return nil, nil, err
	}

	if _, err := WritePacket(raw, connect, 0); err != nil {
		raw.Close()
		return nil, nil, transportErr(err)
	}

	ack, err := c.awaitConnack(raw)
	if err != nil {
		raw.Close()
		return nil, nil, err
	}

	raw.SetDeadline(time.Time{})

	ac := &activeConn{
		transport:  raw,
		txns:       newTxnTable(),
		incoming:   make(chan Packet),
		readErr:    make(chan error, 1),
		closed:     make(chan struct{}),
		receiveMax: maxUint16,
	}

	keepAlive := c.cfg.keepAlive
	if ack.Props.Has(PropServerKeepAlive) {
		keepAlive = ack.Props.GetUint16(PropServerKeepAlive)
	}
	ac.keepAlive = time.Duration(keepAlive) * time.Second
	if ac.keepAlive > 0 {
		ac.nextPing = time.Now().Add(ac.keepAlive)
	}

	ac.sendMax = ack.Props.GetUint32(PropMaximumPacketSize)
	if ack.Props.Has(PropReceiveMaximum) {
		ac.receiveMax = ack.Props.GetUint16(PropReceiveMaximum)
	}

	if id := ack.Props.GetString(PropAssignedClientID); id != "" {
		c.setClientID(id)
	}

	ac.aliases = newAliasTable(c.cfg.topicAliasMax, ack.Props.GetUint16(PropTopicAliasMaximum))
	for _, topic := range c.cfg.aliasTopics {
		if !ac.aliases.reserve(topic) {
			c.log.Warn("no alias space for configured topic", LogFields{LogFieldTopic: topic})
		}
	}

	ac.startReader(c.cfg.maxPacketSize)

	c.stats.connected()
	c.log.Info("connected", LogFields{
		"session_present": ack.SessionPresent,
		"keep_alive":      keepAlive,
	})

	return ac, ack, nil
}

// buildConnect assembles the CONNECT packet from the configuration.
func (c *Client) buildConnect(cleanStart bool) (*ConnectPacket, error) {
	pkt := &ConnectPacket{
		ClientID:   c.ClientID(),
		CleanStart: cleanStart,
		KeepAlive:  c.cfg.keepAlive,
		Username:   c.cfg.username,
		Password:   c.cfg.password,
	}

	if c.cfg.sessionExpiry > 0 {
		pkt.Props.Set(PropSessionExpiryInterval, c.cfg.sessionExpiry)
	}
	if c.cfg.topicAliasMax > 0 {
		pkt.Props.Set(PropTopicAliasMaximum, c.cfg.topicAliasMax)
	}
	if c.cfg.maxPacketSize > 0 {
		pkt.Props.Set(PropMaximumPacketSize, c.cfg.maxPacketSize)
	}
	for _, up := range c.cfg.userProperties {
		pkt.Props.Add(PropUserProperty, up)
	}

	if will := c.cfg.will; will != nil {
		pkt.WillFlag = true
		pkt.WillTopic = will.topic
		pkt.WillPayload = will.payload
		pkt.WillQoS = will.qos
		pkt.WillRetain = will.retain
		pkt.WillProps = will.props
	}

	if auth := c.cfg.authenticator; auth != nil {
		data, err := auth.Start()
		if err != nil {
			return nil, err
		}
		pkt.Props.Set(PropAuthMethod, auth.Method())
		pkt.Props.Set(PropAuthData, data)
	}

	return pkt, nil
}

// awaitConnack reads packets until CONNACK arrives, answering enhanced
// authentication challenges on the way.
func (c *Client) awaitConnack(raw Conn) (*ConnackPacket, error) {
	auth := c.cfg.authenticator

	for {
		pkt, _, err := ReadPacket(raw, c.cfg.maxPacketSize)
		if err != nil {
			return nil, transportErr(err)
		}

		switch p := pkt.(type) {
		case *ConnackPacket:
			if p.ReasonCode.IsError() {
				return nil, &ConnectError{Code: p.ReasonCode}
			}
			if auth != nil && p.Props.Has(PropAuthData) {
				if err := auth.Conclude(p.Props.GetBinary(PropAuthData)); err != nil {
					return nil, err
				}
			}
			return p, nil

		case *AuthPacket:
			if auth == nil || p.ReasonCode != ReasonContinueAuth {
				return nil, protocolErr("unexpected AUTH during connect")
			}

			data, err := auth.Continue(p.Props.GetBinary(PropAuthData))
			if err != nil {
				return nil, err
			}

			reply := &AuthPacket{ReasonCode: ReasonContinueAuth}
			reply.Props.Set(PropAuthMethod, auth.Method())
			reply.Props.Set(PropAuthData, data)
			if _, err := WritePacket(raw, reply, 0); err != nil {
				return nil, transportErr(err)
			}

		case *DisconnectPacket:
			return nil, &ConnectError{Code: p.ReasonCode}

		default:
			return nil, protocolErr("unexpected %s before CONNACK", pkt.Type())
		}
	}
}

// run owns the connection for the lifetime of the client. It serves one
// connection at a time and reconnects per the delay schedule when a
// connection fails.
func (c *Client) run(ac *activeConn) {
	defer close(c.done)
	defer c.queue.close()
	defer c.setState(StateStopped)

	for {
		err := c.serve(ac)

		if errors.Is(err, errStopRequested) {
			c.teardown(ac, ErrStopped)
			c.log.Info("client stopped", nil)
			return
		}

		c.teardown(ac, err)
		c.log.Warn("connection lost", LogFields{LogFieldError: err.Error()})

		if len(c.cfg.connectDelays) == 0 {
			c.log.Error("reconnection disabled, shutting down", nil)
			return
		}

		c.setState(StateReconnecting)

		next, ack, err := c.reconnectLoop()
		if err != nil {
			if !errors.Is(err, ErrStopped) {
				c.log.Error("reconnect abandoned", LogFields{LogFieldError: err.Error()})
			}
			return
		}

		if !ack.SessionPresent {
			c.session.clear()
			c.resubscribe(next)
		}

		c.setState(StateConnected)
		ac = next
	}
}

// teardown closes the connection and fails everything in flight.
func (c *Client) teardown(ac *activeConn, cause error) {
	close(ac.closed)
	ac.transport.Close()

	for _, x := range ac.txns.failAll(cause) {
		c.session.ids.release(x.id)
	}

	c.stats.disconnected()
	c.stats.publishInFlight(0)
}

// reconnectLoop retries connecting with the configured delays,
// attempting session resumption. Requests arriving during backoff fail
// fast with ErrNotConnected.
func (c *Client) reconnectLoop() (*activeConn, *ConnackPacket, error) {
	for attempt := 0; ; attempt++ {
		select {
		case <-c.stop:
			return nil, nil, ErrStopped
		default:
		}

		c.stats.reconnectAttempt()

		ac, ack, err := c.connect(context.Background(), false)
		if err == nil {
			return ac, ack, nil
		}

		var connErr *ConnectError
		if errors.As(err, &connErr) {
			return nil, nil, err
		}

		delay := c.cfg.connectDelays[min(attempt, len(c.cfg.connectDelays)-1)]
		c.log.Warn("reconnect failed, retrying", LogFields{
			LogFieldError:   err.Error(),
			LogFieldAttempt: attempt + 1,
			"delay":         delay.String(),
		})

		timer := time.NewTimer(delay)
		for waiting := true; waiting; {
			select {
			case <-timer.C:
				waiting = false
			case req := <-c.requests:
				req.done <- txnResult{err: ErrNotConnected}
			case <-c.stop:
				timer.Stop()
				return nil, nil, ErrStopped
			}
		}
	}
}

// resubscribe re-establishes the desired subscriptions after a
// reconnect that did not resume the session. The result is observed
// asynchronously, a refused re-subscribe is logged but does not end the
// connection.
func (c *Client) resubscribe(ac *activeConn) {
	if len(c.desired) == 0 {
		return
	}

	subs := make([]Subscription, 0, len(c.desired))
	for _, sub := range c.desired {
		subs = append(subs, sub)
	}

	done := make(chan txnResult, 1)
	if err := c.sendSubscribe(ac, subs, done); err != nil {
		c.log.Error("resubscribe failed", LogFields{LogFieldError: err.Error()})
		return
	}

	go func() {
		if res := <-done; res.err != nil {
			c.log.Error("resubscribe refused", LogFields{LogFieldError: res.err.Error()})
		}
	}()
}

// serve runs the connection until it fails or the client stops. It owns
// all connection state, requests and inbound packets are funneled here.
func (c *Client) serve(ac *activeConn) error {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(ac.nextWake())

		select {
		case <-c.stop:
			// Best effort, the connection is going away either way
			c.write(ac, &DisconnectPacket{ReasonCode: ReasonNormalDisconnect})
			return errStopRequested

		case req := <-c.requests:
			if err := c.handleRequest(ac, req); err != nil {
				return err
			}

		case pkt := <-ac.incoming:
			if err := c.handlePacket(ac, pkt); err != nil {
				return err
			}

		case err := <-ac.readErr:
			return transportErr(err)

		case <-timer.C:
			if err := c.onTimer(ac); err != nil {
				return err
			}
		}
	}
}

// nextWake returns the duration until the earliest pending deadline.
func (ac *activeConn) nextWake() time.Duration {
	var earliest time.Time
	consider := func(t time.Time) {
		if !t.IsZero() && (earliest.IsZero() || t.Before(earliest)) {
			earliest = t
		}
	}

	consider(ac.txns.nextDeadline())
	if ac.keepAlive > 0 {
		consider(ac.nextPing)
	}
	consider(ac.pingDeadline)

	if earliest.IsZero() {
		return time.Hour
	}

	d := time.Until(earliest)
	if d < 0 {
		return 0
	}
	return d
}

// write sends a packet and pushes back the keep alive deadline.
func (c *Client) write(ac *activeConn, pkt Packet) error {
	if _, err := WritePacket(ac.transport, pkt, ac.sendMax); err != nil {
		if errors.Is(err, ErrPacketTooLarge) {
			return fmt.Errorf("%w: %s exceeds server maximum packet size", ErrResource, pkt.Type())
		}
		return transportErr(err)
	}

	c.stats.packetSent(pkt.Type())
	if ac.keepAlive > 0 {
		ac.nextPing = time.Now().Add(ac.keepAlive)
	}
	return nil
}

// onTimer handles expired deadlines: acknowledgment timeouts, a missing
// PINGRESP, and keep alive probing.
func (c *Client) onTimer(ac *activeConn) error {
	now := time.Now()

	for _, x := range ac.txns.expire(now) {
		c.session.ids.release(x.id)
		if x.kind == txnPubAck || x.kind == txnPubRec || x.kind == txnPubComp {
			ac.pubInFlight--
			c.stats.publishInFlight(ac.pubInFlight)
		}
		c.stats.ackTimeout()
		c.log.Warn("acknowledgment timeout", LogFields{
			LogFieldPacketID:   x.id,
			LogFieldPacketType: x.kind.String(),
		})
		x.finish(txnResult{err: fmt.Errorf("%w: no %s for packet %d", ErrTimeout, x.kind, x.id)})
	}

	if !ac.pingDeadline.IsZero() && !ac.pingDeadline.After(now) {
		return fmt.Errorf("%w: ping response timeout", ErrTransport)
	}

	if ac.keepAlive > 0 && !ac.nextPing.After(now) {
		if err := c.write(ac, &PingreqPacket{}); err != nil {
			return err
		}
		ac.pingDeadline = now.Add(c.cfg.responseTimeout)
	}

	return nil
}

// handleRequest dispatches one caller request. A returned error means
// the connection is unusable and triggers reconnection, the request
// itself is always answered.
func (c *Client) handleRequest(ac *activeConn, req *request) error {
	switch req.kind {
	case reqPublish:
		return c.sendPublish(ac, req.msg, req.done)
	case reqSubscribe:
		return c.sendSubscribe(ac, req.subs, req.done)
	case reqUnsubscribe:
		return c.sendUnsubscribe(ac, req.filters, req.done)
	}
	return nil
}

// sendPublish writes a PUBLISH. QoS 0 completes immediately, QoS 1 and 2
// register a transaction awaiting the acknowledgment flow.
func (c *Client) sendPublish(ac *activeConn, msg *Message, done chan txnResult) error {
	pkt := &PublishPacket{}
	pkt.SetMessage(msg)

	if _, configured := c.aliasTopics[msg.Topic]; configured {
		alias, omitTopic, err := ac.aliases.assign(msg.Topic)
		if err != nil {
			done <- txnResult{err: ErrAliasSpaceExhausted}
			return nil
		}
		pkt.Props.Set(PropTopicAlias, alias)
		if omitTopic {
			pkt.Topic = ""
		}
	}

	if msg.QoS == 0 {
		err := c.write(ac, pkt)
		if err == nil {
			c.stats.messageSent(0)
		}
		done <- txnResult{err: err}
		return err
	}

	if ac.pubInFlight >= int(ac.receiveMax) {
		done <- txnResult{err: fmt.Errorf("%w: server receive maximum reached", ErrResource)}
		return nil
	}

	id, err := c.session.ids.alloc()
	if err != nil {
		done <- txnResult{err: err}
		return nil
	}
	pkt.PacketID = id

	if err := c.write(ac, pkt); err != nil {
		c.session.ids.release(id)
		done <- txnResult{err: err}
		return err
	}

	kind := txnPubAck
	if msg.QoS == 2 {
		kind = txnPubRec
	}

	now := time.Now()
	ac.txns.add(&txn{
		kind:     kind,
		id:       id,
		topic:    msg.Topic,
		started:  now,
		deadline: now.Add(c.cfg.responseTimeout),
		done:     done,
	})
	ac.pubInFlight++
	c.stats.messageSent(msg.QoS)
	c.stats.publishInFlight(ac.pubInFlight)

	return nil
}

// sendSubscribe writes a SUBSCRIBE and registers its transaction.
func (c *Client) sendSubscribe(ac *activeConn, subs []Subscription, done chan txnResult) error {
	id, err := c.session.ids.alloc()
	if err != nil {
		done <- txnResult{err: err}
		return nil
	}

	pkt := &SubscribePacket{
		PacketID:      id,
		Subscriptions: subs,
	}

	if err := c.write(ac, pkt); err != nil {
		c.session.ids.release(id)
		done <- txnResult{err: err}
		return err
	}

	ac.txns.add(&txn{
		kind:     txnSubAck,
		id:       id,
		subs:     subs,
		deadline: time.Now().Add(c.cfg.responseTimeout),
		done:     done,
	})

	return nil
}

// sendUnsubscribe writes an UNSUBSCRIBE and registers its transaction.
func (c *Client) sendUnsubscribe(ac *activeConn, filters []string, done chan txnResult) error {
	id, err := c.session.ids.alloc()
	if err != nil {
		done <- txnResult{err: err}
		return nil
	}

	pkt := &UnsubscribePacket{
		PacketID:     id,
		TopicFilters: filters,
	}

	if err := c.write(ac, pkt); err != nil {
		c.session.ids.release(id)
		done <- txnResult{err: err}
		return err
	}

	ac.txns.add(&txn{
		kind:     txnUnsubAck,
		id:       id,
		filters:  filters,
		deadline: time.Now().Add(c.cfg.responseTimeout),
		done:     done,
	})

	return nil
}

// handlePacket dispatches one inbound packet. A returned error is fatal
// for the connection.
func (c *Client) handlePacket(ac *activeConn, pkt Packet) error {
	c.stats.packetReceived(pkt.Type())

	switch p := pkt.(type) {
	case *PublishPacket:
		return c.handleInboundPublish(ac, p)

	case *PubackPacket:
		return c.handlePuback(ac, p)

	case *PubrecPacket:
		return c.handlePubrec(ac, p)

	case *PubcompPacket:
		return c.handlePubcomp(ac, p)

	case *PubrelPacket:
		return c.handlePubrel(ac, p)

	case *SubackPacket:
		return c.handleSuback(ac, p)

	case *UnsubackPacket:
		return c.handleUnsuback(ac, p)

	case *PingrespPacket:
		ac.pingDeadline = time.Time{}
		return nil

	case *DisconnectPacket:
		return &DisconnectError{Code: p.ReasonCode}

	case *AuthPacket:
		return c.handleAuth(ac, p)

	default:
		return protocolErr("unexpected %s from server", pkt.Type())
	}
}

// handleInboundPublish resolves the topic, delivers the message per its
// QoS and sends the acknowledgment the flow requires.
func (c *Client) handleInboundPublish(ac *activeConn, p *PublishPacket) error {
	topic := p.Topic
	if p.Props.Has(PropTopicAlias) {
		resolved, err := ac.aliases.resolve(p.Topic, p.Props.GetUint16(PropTopicAlias))
		if err != nil {
			return protocolErr("publish alias: %s", err)
		}
		topic = resolved
	} else if topic == "" {
		return protocolErr("publish without topic or alias")
	}

	msg := p.Message()
	msg.Topic = topic

	c.stats.messageReceived(p.QoS)
	msg = applyReceiveInterceptors(c.log, c.cfg.recInterceptors, msg)

	switch p.QoS {
	case 0:
		if msg != nil && c.queue.put(msg, c.stop) {
			c.stats.messageDropped()
			c.log.Warn("queue full, dropped oldest message", LogFields{LogFieldTopic: topic})
		}
		return nil

	case 1:
		if msg != nil {
			c.queue.put(msg, c.stop)
		}
		ack := &PubackPacket{}
		ack.PacketID = p.PacketID
		ack.ReasonCode = ReasonSuccess
		return c.write(ac, ack)

	default: // QoS 2
		// Delivery is deferred until PUBREL so a retransmitted PUBLISH
		// is not delivered twice
		if msg != nil {
			c.session.acceptQoS2(p.PacketID, msg)
		}
		rec := &PubrecPacket{}
		rec.PacketID = p.PacketID
		rec.ReasonCode = ReasonSuccess
		return c.write(ac, rec)
	}
}

// handlePubrel completes the inbound QoS 2 flow, delivering the held
// message. An unknown identifier, e.g. after the server lost our
// PUBCOMP, is answered with Packet Identifier not found.
func (c *Client) handlePubrel(ac *activeConn, p *PubrelPacket) error {
	comp := &PubcompPacket{}
	comp.PacketID = p.PacketID

	if msg := c.session.releaseQoS2(p.PacketID); msg != nil {
		c.queue.put(msg, c.stop)
		comp.ReasonCode = ReasonSuccess
	} else {
		comp.ReasonCode = ReasonPacketIDNotFound
	}

	return c.write(ac, comp)
}

func (c *Client) handlePuback(ac *activeConn, p *PubackPacket) error {
	x := ac.txns.take(p.PacketID, txnPubAck)
	if x == nil {
		return protocolErr("PUBACK for unknown packet %d", p.PacketID)
	}

	c.session.ids.release(x.id)
	ac.pubInFlight--
	c.stats.publishInFlight(ac.pubInFlight)

	var err error
	if p.ReasonCode.IsError() {
		err = &PublishError{Topic: x.topic, Code: p.ReasonCode}
	} else {
		c.stats.publishLatency(time.Since(x.started))
	}
	x.finish(txnResult{err: err})

	return nil
}

// handlePubrec advances the outbound QoS 2 flow: the transaction now
// waits for PUBCOMP and a PUBREL is released.
func (c *Client) handlePubrec(ac *activeConn, p *PubrecPacket) error {
	x := ac.txns.take(p.PacketID, txnPubRec)
	if x == nil {
		return protocolErr("PUBREC for unknown packet %d", p.PacketID)
	}

	if p.ReasonCode.IsError() {
		c.session.ids.release(x.id)
		ac.pubInFlight--
		c.stats.publishInFlight(ac.pubInFlight)
		x.finish(txnResult{err: &PublishError{Topic: x.topic, Code: p.ReasonCode}})
		return nil
	}

	rel := &PubrelPacket{}
	rel.PacketID = p.PacketID

	if err := c.write(ac, rel); err != nil {
		c.session.ids.release(x.id)
		ac.pubInFlight--
		c.stats.publishInFlight(ac.pubInFlight)
		x.finish(txnResult{err: err})
		return err
	}

	x.kind = txnPubComp
	x.deadline = time.Now().Add(c.cfg.responseTimeout)
	ac.txns.add(x)

	return nil
}

func (c *Client) handlePubcomp(ac *activeConn, p *PubcompPacket) error {
	x := ac.txns.take(p.PacketID, txnPubComp)
	if x == nil {
		return protocolErr("PUBCOMP for unknown packet %d", p.PacketID)
	}

	c.session.ids.release(x.id)
	ac.pubInFlight--
	c.stats.publishInFlight(ac.pubInFlight)

	var err error
	if p.ReasonCode.IsError() {
		err = &PublishError{Topic: x.topic, Code: p.ReasonCode}
	} else {
		c.stats.publishLatency(time.Since(x.started))
	}
	x.finish(txnResult{err: err})

	return nil
}

func (c *Client) handleSuback(ac *activeConn, p *SubackPacket) error {
	x := ac.txns.take(p.PacketID, txnSubAck)
	if x == nil {
		return protocolErr("SUBACK for unknown packet %d", p.PacketID)
	}

	c.session.ids.release(x.id)

	if len(p.ReasonCodes) != len(x.subs) {
		x.finish(txnResult{err: protocolErr("SUBACK reason code count mismatch")})
		return protocolErr("SUBACK carries %d codes for %d subscriptions",
			len(p.ReasonCodes), len(x.subs))
	}

	var err error
	for i, code := range p.ReasonCodes {
		if code.IsError() {
			if err == nil {
				err = &SubscribeError{Filter: x.subs[i].Filter, Code: code}
			}
			continue
		}
		c.desired[x.subs[i].Filter] = x.subs[i]
	}

	x.finish(txnResult{codes: p.ReasonCodes, err: err})
	return nil
}

func (c *Client) handleUnsuback(ac *activeConn, p *UnsubackPacket) error {
	x := ac.txns.take(p.PacketID, txnUnsubAck)
	if x == nil {
		return protocolErr("UNSUBACK for unknown packet %d", p.PacketID)
	}

	c.session.ids.release(x.id)

	if len(p.ReasonCodes) != len(x.filters) {
		x.finish(txnResult{err: protocolErr("UNSUBACK reason code count mismatch")})
		return protocolErr("UNSUBACK carries %d codes for %d filters",
			len(p.ReasonCodes), len(x.filters))
	}

	var err error
	for i, code := range p.ReasonCodes {
		if code.IsError() {
			if err == nil {
				err = &UnsubscribeError{Filter: x.filters[i], Code: code}
			}
			continue
		}
		delete(c.desired, x.filters[i])
	}

	x.finish(txnResult{codes: p.ReasonCodes, err: err})
	return nil
}

// handleAuth answers a server-initiated re-authentication round.
func (c *Client) handleAuth(ac *activeConn, p *AuthPacket) error {
	auth := c.cfg.authenticator
	if auth == nil {
		return protocolErr("AUTH without configured authenticator")
	}

	switch p.ReasonCode {
	case ReasonContinueAuth:
		data, err := auth.Continue(p.Props.GetBinary(PropAuthData))
		if err != nil {
			return err
		}
		reply := &AuthPacket{ReasonCode: ReasonContinueAuth}
		reply.Props.Set(PropAuthMethod, auth.Method())
		reply.Props.Set(PropAuthData, data)
		return c.write(ac, reply)

	case ReasonSuccess:
		if p.Props.Has(PropAuthData) {
			return auth.Conclude(p.Props.GetBinary(PropAuthData))
		}
		return nil

	default:
		return protocolErr("unexpected AUTH reason code %s", p.ReasonCode)
	}
}

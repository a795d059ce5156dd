package mqtt5

// packetIDs allocates protocol packet identifiers. Identifiers are
// assigned round-robin in [1, 65535], skipping any still held by an
// in-flight operation. Owned by the connection goroutine.
type packetIDs struct {
	next  uint16
	inUse map[uint16]struct{}
}

func newPacketIDs() *packetIDs {
	return &packetIDs{
		next:  1,
		inUse: make(map[uint16]struct{}),
	}
}

// alloc reserves and returns the next free packet identifier.
func (p *packetIDs) alloc() (uint16, error) {
	for range maxUint16 {
		id := p.next

		p.next++
		if p.next == 0 {
			p.next = 1
		}

		if _, held := p.inUse[id]; !held {
			p.inUse[id] = struct{}{}
			return id, nil
		}
	}

	return 0, ErrNoFreePacketID
}

// release returns a packet identifier to the free pool.
func (p *packetIDs) release(id uint16) {
	delete(p.inUse, id)
}

// held reports whether the identifier is currently reserved.
func (p *packetIDs) held(id uint16) bool {
	_, ok := p.inUse[id]
	return ok
}

// session holds the client-side session state that outlives a single
// connection: the identifier space for requests and the QoS 2 receive
// state needed for exactly-once delivery across retransmissions.
//
// Topic aliases are deliberately not part of the session, they are bound
// to one connection and rebuilt after every reconnect.
type session struct {
	ids *packetIDs

	// qos2In holds messages that arrived with QoS 2 and were answered
	// with PUBREC, keyed by packet identifier. They are delivered to the
	// application only when the matching PUBREL arrives, so a PUBLISH
	// retransmitted after connection loss is not delivered twice.
	qos2In map[uint16]*Message
}

func newSession() *session {
	return &session{
		ids:    newPacketIDs(),
		qos2In: make(map[uint16]*Message),
	}
}

// acceptQoS2 records an inbound QoS 2 message pending release. Reports
// whether the packet identifier was already pending, in which case the
// message is a retransmission and must not replace the stored one.
func (s *session) acceptQoS2(id uint16, msg *Message) bool {
	if _, dup := s.qos2In[id]; dup {
		return true
	}

	s.qos2In[id] = msg
	return false
}

// releaseQoS2 completes the QoS 2 exchange for the identifier and returns
// the message to deliver, or nil when the identifier is unknown.
func (s *session) releaseQoS2(id uint16) *Message {
	msg, ok := s.qos2In[id]
	if !ok {
		return nil
	}

	delete(s.qos2In, id)
	return msg
}

// clear drops all session state, used when the server starts a fresh
// session instead of resuming.
func (s *session) clear() {
	s.ids = newPacketIDs()
	s.qos2In = make(map[uint16]*Message)
}

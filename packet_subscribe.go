package mqtt5

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

// Subscription option bit layout.
const (
	subOptQoSMask        = 0x03
	subOptNoLocal        = 0x04
	subOptRetainAsPub    = 0x08
	subOptRetainHandling = 0x30
	subOptReserved       = 0xC0
)

// SUBSCRIBE packet errors.
var (
	ErrNoSubscriptions         = errors.New("subscribe packet requires at least one subscription")
	ErrInvalidSubscriptionOpts = errors.New("invalid subscription options")
	ErrInvalidRetainHandling   = errors.New("invalid retain handling value")
)

// Subscription is a single topic filter with its subscription options.
type Subscription struct {
	// Filter is the topic filter, possibly containing wildcards.
	Filter string

	// QoS is the maximum QoS the server may use for matching messages.
	QoS byte

	// NoLocal suppresses messages published by this client itself.
	NoLocal bool

	// RetainAsPublished keeps the retain flag of forwarded messages.
	RetainAsPublished bool

	// RetainHandling controls delivery of retained messages on
	// subscribe: 0 always, 1 only for new subscriptions, 2 never.
	RetainHandling byte
}

// options builds the subscription options byte.
func (s *Subscription) options() byte {
	opts := s.QoS & subOptQoSMask

	if s.NoLocal {
		opts |= subOptNoLocal
	}
	if s.RetainAsPublished {
		opts |= subOptRetainAsPub
	}
	opts |= (s.RetainHandling << 4) & subOptRetainHandling

	return opts
}

// setOptions parses the subscription options byte.
func (s *Subscription) setOptions(opts byte) error {
	if opts&subOptReserved != 0 {
		return ErrInvalidSubscriptionOpts
	}

	s.QoS = opts & subOptQoSMask
	s.NoLocal = opts&subOptNoLocal != 0
	s.RetainAsPublished = opts&subOptRetainAsPub != 0
	s.RetainHandling = (opts & subOptRetainHandling) >> 4

	if s.QoS > 2 {
		return ErrInvalidQoS
	}
	if s.RetainHandling > 2 {
		return ErrInvalidRetainHandling
	}

	return nil
}

// SubscribePacket represents an MQTT SUBSCRIBE packet.
// MQTT v5.0 spec: Section 3.8
type SubscribePacket struct {
	// PacketID identifies the request, must be nonzero.
	PacketID uint16

	// Props contains the SUBSCRIBE properties.
	Props Properties

	// Subscriptions is the list of requested subscriptions.
	Subscriptions []Subscription
}

// Type returns the packet type.
func (p *SubscribePacket) Type() PacketType {
	return PacketSUBSCRIBE
}

// Properties returns a pointer to the packet's properties.
func (p *SubscribePacket) Properties() *Properties {
	return &p.Props
}

// Encode writes the packet to the writer.
func (p *SubscribePacket) Encode(w io.Writer) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	var buf bytes.Buffer

	var id [2]byte
	binary.BigEndian.PutUint16(id[:], p.PacketID)
	buf.Write(id[:])

	if _, err := p.Props.Encode(&buf); err != nil {
		return 0, err
	}

	for i := range p.Subscriptions {
		sub := &p.Subscriptions[i]
		if _, err := encodeString(&buf, sub.Filter); err != nil {
			return 0, err
		}
		buf.WriteByte(sub.options())
	}

	header := FixedHeader{
		PacketType:      PacketSUBSCRIBE,
		Flags:           0x02,
		RemainingLength: uint32(buf.Len()),
	}

	total, err := header.Encode(w)
	if err != nil {
		return total, err
	}

	n, err := w.Write(buf.Bytes())
	return total + n, err
}

// Decode reads the packet from the reader.
func (p *SubscribePacket) Decode(r io.Reader, header FixedHeader) (int, error) {
	if header.PacketType != PacketSUBSCRIBE {
		return 0, ErrInvalidPacketType
	}

	var totalRead int

	var id [2]byte
	n, err := io.ReadFull(r, id[:])
	totalRead += n
	if err != nil {
		return totalRead, err
	}
	p.PacketID = binary.BigEndian.Uint16(id[:])

	n, err = p.Props.Decode(r)
	totalRead += n
	if err != nil {
		return totalRead, err
	}

	// Payload
	for uint32(totalRead) < header.RemainingLength {
		var sub Subscription

		sub.Filter, n, err = decodeString(r)
		totalRead += n
		if err != nil {
			return totalRead, err
		}

		var opts [1]byte
		n, err = io.ReadFull(r, opts[:])
		totalRead += n
		if err != nil {
			return totalRead, err
		}
		if err := sub.setOptions(opts[0]); err != nil {
			return totalRead, err
		}

		p.Subscriptions = append(p.Subscriptions, sub)
	}

	if len(p.Subscriptions) == 0 {
		return totalRead, ErrNoSubscriptions
	}

	return totalRead, nil
}

// Validate validates the packet contents.
func (p *SubscribePacket) Validate() error {
	if p.PacketID == 0 {
		return ErrInvalidPacketID
	}

	if len(p.Subscriptions) == 0 {
		return ErrNoSubscriptions
	}

	for i := range p.Subscriptions {
		sub := &p.Subscriptions[i]
		if err := ValidateTopicFilter(sub.Filter); err != nil {
			return err
		}
		if sub.QoS > 2 {
			return ErrInvalidQoS
		}
		if sub.RetainHandling > 2 {
			return ErrInvalidRetainHandling
		}
	}

	return nil
}

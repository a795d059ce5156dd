package mqtt5

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

// PUBLISH fixed header flag bits.
const (
	publishFlagRetain = 0x01
	publishFlagDup    = 0x08
)

// PUBLISH packet errors.
var (
	ErrInvalidQoS        = errors.New("invalid QoS level")
	ErrPacketIDRequired  = errors.New("packet ID required for QoS > 0")
	ErrPacketIDForbidden = errors.New("packet ID must be 0 for QoS 0")
)

// PublishPacket represents an MQTT PUBLISH packet.
// MQTT v5.0 spec: Section 3.3
type PublishPacket struct {
	// Topic is the topic name. May be empty when a topic alias is used.
	Topic string

	// PacketID identifies the delivery, nonzero only for QoS > 0.
	PacketID uint16

	// Payload is the application payload.
	Payload []byte

	// Dup marks the packet as a redelivery.
	Dup bool

	// QoS is the delivery quality of service level.
	QoS byte

	// Retain marks the message as retained.
	Retain bool

	// Props contains the PUBLISH properties.
	Props Properties
}

// Type returns the packet type.
func (p *PublishPacket) Type() PacketType {
	return PacketPUBLISH
}

// Properties returns a pointer to the packet's properties.
func (p *PublishPacket) Properties() *Properties {
	return &p.Props
}

// flags builds the fixed header flags nibble.
func (p *PublishPacket) flags() byte {
	var flags byte

	if p.Dup {
		flags |= publishFlagDup
	}

	flags |= (p.QoS & 0x03) << 1

	if p.Retain {
		flags |= publishFlagRetain
	}

	return flags
}

// setFlags parses the fixed header flags nibble.
func (p *PublishPacket) setFlags(flags byte) error {
	p.Dup = flags&publishFlagDup != 0
	p.QoS = (flags >> 1) & 0x03
	p.Retain = flags&publishFlagRetain != 0

	if p.QoS > 2 {
		return ErrInvalidQoS
	}

	// DUP must be 0 for QoS 0
	if p.QoS == 0 && p.Dup {
		return ErrInvalidPacketFlags
	}

	return nil
}

// Message converts the packet into an application message.
func (p *PublishPacket) Message() *Message {
	msg := &Message{
		Topic:   p.Topic,
		Payload: p.Payload,
		QoS:     p.QoS,
		Retain:  p.Retain,
	}
	msg.fromProperties(&p.Props)

	return msg
}

// SetMessage fills the packet from an application message.
func (p *PublishPacket) SetMessage(msg *Message) {
	p.Topic = msg.Topic
	p.Payload = msg.Payload
	p.QoS = msg.QoS
	p.Retain = msg.Retain
	p.Props = msg.properties()
}

// Encode writes the packet to the writer.
func (p *PublishPacket) Encode(w io.Writer) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	var buf bytes.Buffer

	if _, err := encodeString(&buf, p.Topic); err != nil {
		return 0, err
	}

	if p.QoS > 0 {
		var id [2]byte
		binary.BigEndian.PutUint16(id[:], p.PacketID)
		buf.Write(id[:])
	}

	if _, err := p.Props.Encode(&buf); err != nil {
		return 0, err
	}

	buf.Write(p.Payload)

	header := FixedHeader{
		PacketType:      PacketPUBLISH,
		Flags:           p.flags(),
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
func (p *PublishPacket) Decode(r io.Reader, header FixedHeader) (int, error) {
	if header.PacketType != PacketPUBLISH {
		return 0, ErrInvalidPacketType
	}

	if err := p.setFlags(header.Flags); err != nil {
		return 0, err
	}

	var totalRead int

	topic, n, err := decodeString(r)
	totalRead += n
	if err != nil {
		return totalRead, err
	}
	p.Topic = topic

	if p.QoS > 0 {
		var id [2]byte
		n, err = io.ReadFull(r, id[:])
		totalRead += n
		if err != nil {
			return totalRead, err
		}
		p.PacketID = binary.BigEndian.Uint16(id[:])
		if p.PacketID == 0 {
			return totalRead, ErrPacketIDRequired
		}
	}

	n, err = p.Props.Decode(r)
	totalRead += n
	if err != nil {
		return totalRead, err
	}

	// Remainder of the body is the payload
	remaining := int(header.RemainingLength) - totalRead
	if remaining < 0 {
		return totalRead, io.ErrUnexpectedEOF
	}
	if remaining > 0 {
		p.Payload = make([]byte, remaining)
		n, err = io.ReadFull(r, p.Payload)
		totalRead += n
		if err != nil {
			return totalRead, err
		}
	}

	return totalRead, nil
}

// Validate validates the packet contents.
func (p *PublishPacket) Validate() error {
	if p.QoS > 2 {
		return ErrInvalidQoS
	}

	if p.QoS > 0 && p.PacketID == 0 {
		return ErrPacketIDRequired
	}

	if p.QoS == 0 && p.PacketID != 0 {
		return ErrPacketIDForbidden
	}

	// Topic may be empty only when a topic alias property is set
	if p.Topic == "" && !p.Props.Has(PropTopicAlias) {
		return ErrInvalidTopicName
	}

	if p.Topic != "" {
		if err := ValidateTopicName(p.Topic); err != nil {
			return err
		}
	}

	return nil
}

package mqtt5

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

// UNSUBSCRIBE packet errors.
var ErrNoTopicFilters = errors.New("unsubscribe packet requires at least one topic filter")

// UnsubscribePacket represents an MQTT UNSUBSCRIBE packet.
// MQTT v5.0 spec: Section 3.10
type UnsubscribePacket struct {
	// PacketID identifies the request, must be nonzero.
	PacketID uint16

	// Props contains the UNSUBSCRIBE properties.
	Props Properties

	// TopicFilters is the list of filters to remove.
	TopicFilters []string
}

// Type returns the packet type.
func (p *UnsubscribePacket) Type() PacketType {
	return PacketUNSUBSCRIBE
}

// Properties returns a pointer to the packet's properties.
func (p *UnsubscribePacket) Properties() *Properties {
	return &p.Props
}

// Encode writes the packet to the writer.
func (p *UnsubscribePacket) Encode(w io.Writer) (int, error) {
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

	for _, filter := range p.TopicFilters {
		if _, err := encodeString(&buf, filter); err != nil {
			return 0, err
		}
	}

	header := FixedHeader{
		PacketType:      PacketUNSUBSCRIBE,
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
func (p *UnsubscribePacket) Decode(r io.Reader, header FixedHeader) (int, error) {
	if header.PacketType != PacketUNSUBSCRIBE {
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

	for uint32(totalRead) < header.RemainingLength {
		filter, n, err := decodeString(r)
		totalRead += n
		if err != nil {
			return totalRead, err
		}
		p.TopicFilters = append(p.TopicFilters, filter)
	}

	if len(p.TopicFilters) == 0 {
		return totalRead, ErrNoTopicFilters
	}

	return totalRead, nil
}

// Validate validates the packet contents.
func (p *UnsubscribePacket) Validate() error {
	if p.PacketID == 0 {
		return ErrInvalidPacketID
	}

	if len(p.TopicFilters) == 0 {
		return ErrNoTopicFilters
	}

	for _, filter := range p.TopicFilters {
		if err := ValidateTopicFilter(filter); err != nil {
			return err
		}
	}

	return nil
}

package mqtt5

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

// SUBACK packet errors.
var ErrNoReasonCodes = errors.New("acknowledgment requires at least one reason code")

// SubackPacket represents an MQTT SUBACK packet.
// MQTT v5.0 spec: Section 3.9
type SubackPacket struct {
	// PacketID matches the SUBSCRIBE being acknowledged.
	PacketID uint16

	// Props contains the SUBACK properties.
	Props Properties

	// ReasonCodes holds one code per requested subscription, in order.
	ReasonCodes []ReasonCode
}

// Type returns the packet type.
func (p *SubackPacket) Type() PacketType {
	return PacketSUBACK
}

// Properties returns a pointer to the packet's properties.
func (p *SubackPacket) Properties() *Properties {
	return &p.Props
}

// Encode writes the packet to the writer.
func (p *SubackPacket) Encode(w io.Writer) (int, error) {
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

	for _, code := range p.ReasonCodes {
		buf.WriteByte(byte(code))
	}

	header := FixedHeader{
		PacketType:      PacketSUBACK,
		Flags:           0x00,
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
func (p *SubackPacket) Decode(r io.Reader, header FixedHeader) (int, error) {
	if header.PacketType != PacketSUBACK {
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
		var code [1]byte
		n, err = io.ReadFull(r, code[:])
		totalRead += n
		if err != nil {
			return totalRead, err
		}
		p.ReasonCodes = append(p.ReasonCodes, ReasonCode(code[0]))
	}

	if len(p.ReasonCodes) == 0 {
		return totalRead, ErrNoReasonCodes
	}

	return totalRead, nil
}

// Validate validates the packet contents.
func (p *SubackPacket) Validate() error {
	if p.PacketID == 0 {
		return ErrInvalidPacketID
	}

	if len(p.ReasonCodes) == 0 {
		return ErrNoReasonCodes
	}

	return nil
}

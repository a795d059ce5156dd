package mqtt5

import (
	"bytes"
	"errors"
	"io"
)

// CONNACK packet errors.
var (
	ErrInvalidConnackFlags = errors.New("invalid connack flags")
	ErrInvalidReasonCode   = errors.New("invalid reason code")
)

// ConnackPacket represents an MQTT CONNACK packet.
// MQTT v5.0 spec: Section 3.2
type ConnackPacket struct {
	// SessionPresent reports whether the server resumed a session.
	SessionPresent bool

	// ReasonCode is the connect reason code.
	ReasonCode ReasonCode

	// Props contains the CONNACK properties.
	Props Properties
}

// Type returns the packet type.
func (p *ConnackPacket) Type() PacketType {
	return PacketCONNACK
}

// Properties returns a pointer to the packet's properties.
func (p *ConnackPacket) Properties() *Properties {
	return &p.Props
}

// Encode writes the packet to the writer.
func (p *ConnackPacket) Encode(w io.Writer) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	var buf bytes.Buffer

	var ackFlags byte
	if p.SessionPresent {
		ackFlags = 0x01
	}
	buf.WriteByte(ackFlags)
	buf.WriteByte(byte(p.ReasonCode))

	if _, err := p.Props.Encode(&buf); err != nil {
		return 0, err
	}

	header := FixedHeader{
		PacketType:      PacketCONNACK,
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
func (p *ConnackPacket) Decode(r io.Reader, header FixedHeader) (int, error) {
	if header.PacketType != PacketCONNACK {
		return 0, ErrInvalidPacketType
	}

	var totalRead int

	var head [2]byte
	n, err := io.ReadFull(r, head[:])
	totalRead += n
	if err != nil {
		return totalRead, err
	}

	// Bits 7-1 of the acknowledge flags are reserved
	if head[0]&0xFE != 0 {
		return totalRead, ErrInvalidConnackFlags
	}
	p.SessionPresent = head[0]&0x01 != 0
	p.ReasonCode = ReasonCode(head[1])

	// Session present must be 0 on a rejected connection
	if p.ReasonCode.IsError() && p.SessionPresent {
		return totalRead, ErrInvalidConnackFlags
	}

	n, err = p.Props.Decode(r)
	totalRead += n
	if err != nil {
		return totalRead, err
	}

	return totalRead, nil
}

// Validate validates the packet contents.
func (p *ConnackPacket) Validate() error {
	if p.ReasonCode.IsError() && p.SessionPresent {
		return ErrInvalidConnackFlags
	}

	return nil
}

package mqtt5

import (
	"bytes"
	"io"
)

// DisconnectPacket represents an MQTT DISCONNECT packet.
// An empty body means normal disconnection without properties.
// MQTT v5.0 spec: Section 3.14
type DisconnectPacket struct {
	// ReasonCode is the disconnect reason code.
	ReasonCode ReasonCode

	// Props contains the DISCONNECT properties.
	Props Properties
}

// Type returns the packet type.
func (p *DisconnectPacket) Type() PacketType {
	return PacketDISCONNECT
}

// Properties returns a pointer to the packet's properties.
func (p *DisconnectPacket) Properties() *Properties {
	return &p.Props
}

// Encode writes the packet to the writer.
func (p *DisconnectPacket) Encode(w io.Writer) (int, error) {
	var buf bytes.Buffer

	if p.ReasonCode != ReasonNormalDisconnect || p.Props.Len() > 0 {
		buf.WriteByte(byte(p.ReasonCode))

		if p.Props.Len() > 0 {
			if _, err := p.Props.Encode(&buf); err != nil {
				return 0, err
			}
		}
	}

	header := FixedHeader{
		PacketType:      PacketDISCONNECT,
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
func (p *DisconnectPacket) Decode(r io.Reader, header FixedHeader) (int, error) {
	if header.PacketType != PacketDISCONNECT {
		return 0, ErrInvalidPacketType
	}

	if header.RemainingLength == 0 {
		p.ReasonCode = ReasonNormalDisconnect
		return 0, nil
	}

	var totalRead int

	var reason [1]byte
	n, err := io.ReadFull(r, reason[:])
	totalRead += n
	if err != nil {
		return totalRead, err
	}
	p.ReasonCode = ReasonCode(reason[0])

	if header.RemainingLength > 1 {
		n, err = p.Props.Decode(r)
		totalRead += n
		if err != nil {
			return totalRead, err
		}
	}

	return totalRead, nil
}

// Validate validates the packet contents.
func (p *DisconnectPacket) Validate() error {
	return nil
}

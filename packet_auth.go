package mqtt5

import (
	"bytes"
	"errors"
	"io"
)

// AUTH packet errors.
var ErrInvalidAuthReason = errors.New("invalid auth reason code")

// AuthPacket represents an MQTT AUTH packet, used for extended
// authentication exchanges after CONNECT.
// MQTT v5.0 spec: Section 3.15
type AuthPacket struct {
	// ReasonCode is one of Success, Continue authentication or
	// Re-authenticate.
	ReasonCode ReasonCode

	// Props contains the AUTH properties, typically the authentication
	// method and data.
	Props Properties
}

// Type returns the packet type.
func (p *AuthPacket) Type() PacketType {
	return PacketAUTH
}

// Properties returns a pointer to the packet's properties.
func (p *AuthPacket) Properties() *Properties {
	return &p.Props
}

// Encode writes the packet to the writer.
func (p *AuthPacket) Encode(w io.Writer) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	var buf bytes.Buffer

	if p.ReasonCode != ReasonSuccess || p.Props.Len() > 0 {
		buf.WriteByte(byte(p.ReasonCode))

		if p.Props.Len() > 0 {
			if _, err := p.Props.Encode(&buf); err != nil {
				return 0, err
			}
		}
	}

	header := FixedHeader{
		PacketType:      PacketAUTH,
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
func (p *AuthPacket) Decode(r io.Reader, header FixedHeader) (int, error) {
	if header.PacketType != PacketAUTH {
		return 0, ErrInvalidPacketType
	}

	if header.RemainingLength == 0 {
		p.ReasonCode = ReasonSuccess
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

	if err := p.Validate(); err != nil {
		return totalRead, err
	}

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
func (p *AuthPacket) Validate() error {
	switch p.ReasonCode {
	case ReasonSuccess, ReasonContinueAuth, ReasonReAuth:
		return nil
	}

	return ErrInvalidAuthReason
}

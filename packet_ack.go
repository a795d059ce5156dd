package mqtt5

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

// Acknowledgment packet errors.
var ErrInvalidPacketID = errors.New("packet ID must be nonzero")

// ackPacket is the shared shape of PUBACK, PUBREC, PUBREL and PUBCOMP.
// Reason code and properties are omitted on the wire when the code is
// success and no properties are present.
type ackPacket struct {
	PacketID   uint16
	ReasonCode ReasonCode
	Props      Properties
}

// encodeAck encodes an acknowledgment packet with the given type and flags.
func encodeAck(w io.Writer, packetType PacketType, flags byte, ack *ackPacket) (int, error) {
	if ack.PacketID == 0 {
		return 0, ErrInvalidPacketID
	}

	var buf bytes.Buffer

	var id [2]byte
	binary.BigEndian.PutUint16(id[:], ack.PacketID)
	buf.Write(id[:])

	if ack.ReasonCode != ReasonSuccess || ack.Props.Len() > 0 {
		buf.WriteByte(byte(ack.ReasonCode))

		if ack.Props.Len() > 0 {
			if _, err := ack.Props.Encode(&buf); err != nil {
				return 0, err
			}
		}
	}

	header := FixedHeader{
		PacketType:      packetType,
		Flags:           flags,
		RemainingLength: uint32(buf.Len()),
	}

	total, err := header.Encode(w)
	if err != nil {
		return total, err
	}

	n, err := w.Write(buf.Bytes())
	return total + n, err
}

// decodeAck decodes an acknowledgment packet body.
func decodeAck(r io.Reader, header FixedHeader, ack *ackPacket) (int, error) {
	var totalRead int

	var id [2]byte
	n, err := io.ReadFull(r, id[:])
	totalRead += n
	if err != nil {
		return totalRead, err
	}
	ack.PacketID = binary.BigEndian.Uint16(id[:])
	if ack.PacketID == 0 {
		return totalRead, ErrInvalidPacketID
	}

	if header.RemainingLength > 2 {
		var reason [1]byte
		n, err = io.ReadFull(r, reason[:])
		totalRead += n
		if err != nil {
			return totalRead, err
		}
		ack.ReasonCode = ReasonCode(reason[0])

		if header.RemainingLength > 3 {
			n, err = ack.Props.Decode(r)
			totalRead += n
			if err != nil {
				return totalRead, err
			}
		}
	} else {
		ack.ReasonCode = ReasonSuccess
	}

	return totalRead, nil
}

// PubackPacket represents an MQTT PUBACK packet, the QoS 1 response.
// MQTT v5.0 spec: Section 3.4
type PubackPacket struct {
	ackPacket
}

// Type returns the packet type.
func (p *PubackPacket) Type() PacketType {
	return PacketPUBACK
}

// Properties returns a pointer to the packet's properties.
func (p *PubackPacket) Properties() *Properties {
	return &p.Props
}

// Encode writes the packet to the writer.
func (p *PubackPacket) Encode(w io.Writer) (int, error) {
	return encodeAck(w, PacketPUBACK, 0x00, &p.ackPacket)
}

// Decode reads the packet from the reader.
func (p *PubackPacket) Decode(r io.Reader, header FixedHeader) (int, error) {
	if header.PacketType != PacketPUBACK {
		return 0, ErrInvalidPacketType
	}

	return decodeAck(r, header, &p.ackPacket)
}

// Validate validates the packet contents.
func (p *PubackPacket) Validate() error {
	if p.PacketID == 0 {
		return ErrInvalidPacketID
	}

	return nil
}

// PubrecPacket represents an MQTT PUBREC packet, the first QoS 2 response.
// MQTT v5.0 spec: Section 3.5
type PubrecPacket struct {
	ackPacket
}

// Type returns the packet type.
func (p *PubrecPacket) Type() PacketType {
	return PacketPUBREC
}

// Properties returns a pointer to the packet's properties.
func (p *PubrecPacket) Properties() *Properties {
	return &p.Props
}

// Encode writes the packet to the writer.
func (p *PubrecPacket) Encode(w io.Writer) (int, error) {
	return encodeAck(w, PacketPUBREC, 0x00, &p.ackPacket)
}

// Decode reads the packet from the reader.
func (p *PubrecPacket) Decode(r io.Reader, header FixedHeader) (int, error) {
	if header.PacketType != PacketPUBREC {
		return 0, ErrInvalidPacketType
	}

	return decodeAck(r, header, &p.ackPacket)
}

// Validate validates the packet contents.
func (p *PubrecPacket) Validate() error {
	if p.PacketID == 0 {
		return ErrInvalidPacketID
	}

	return nil
}

// PubrelPacket represents an MQTT PUBREL packet, the QoS 2 release.
// Its fixed header flags are 0x02 by protocol rule.
// MQTT v5.0 spec: Section 3.6
type PubrelPacket struct {
	ackPacket
}

// Type returns the packet type.
func (p *PubrelPacket) Type() PacketType {
	return PacketPUBREL
}

// Properties returns a pointer to the packet's properties.
func (p *PubrelPacket) Properties() *Properties {
	return &p.Props
}

// Encode writes the packet to the writer.
func (p *PubrelPacket) Encode(w io.Writer) (int, error) {
	return encodeAck(w, PacketPUBREL, 0x02, &p.ackPacket)
}

// Decode reads the packet from the reader.
func (p *PubrelPacket) Decode(r io.Reader, header FixedHeader) (int, error) {
	if header.PacketType != PacketPUBREL {
		return 0, ErrInvalidPacketType
	}

	return decodeAck(r, header, &p.ackPacket)
}

// Validate validates the packet contents.
func (p *PubrelPacket) Validate() error {
	if p.PacketID == 0 {
		return ErrInvalidPacketID
	}

	return nil
}

// PubcompPacket represents an MQTT PUBCOMP packet, the QoS 2 completion.
// MQTT v5.0 spec: Section 3.7
type PubcompPacket struct {
	ackPacket
}

// Type returns the packet type.
func (p *PubcompPacket) Type() PacketType {
	return PacketPUBCOMP
}

// Properties returns a pointer to the packet's properties.
func (p *PubcompPacket) Properties() *Properties {
	return &p.Props
}

// Encode writes the packet to the writer.
func (p *PubcompPacket) Encode(w io.Writer) (int, error) {
	return encodeAck(w, PacketPUBCOMP, 0x00, &p.ackPacket)
}

// Decode reads the packet from the reader.
func (p *PubcompPacket) Decode(r io.Reader, header FixedHeader) (int, error) {
	if header.PacketType != PacketPUBCOMP {
		return 0, ErrInvalidPacketType
	}

	return decodeAck(r, header, &p.ackPacket)
}

// Validate validates the packet contents.
func (p *PubcompPacket) Validate() error {
	if p.PacketID == 0 {
		return ErrInvalidPacketID
	}

	return nil
}

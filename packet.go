package mqtt5

import (
	"bytes"
	"errors"
	"io"
)

// Packet is implemented by all MQTT control packets.
type Packet interface {
	// Type returns the control packet type.
	Type() PacketType

	// Encode writes the complete packet, fixed header included.
	// Returns the number of bytes written.
	Encode(w io.Writer) (int, error)

	// Decode reads the variable header and payload. The fixed header has
	// already been consumed from the stream. Returns the number of bytes
	// read.
	Decode(r io.Reader, header FixedHeader) (int, error)

	// Validate checks the packet contents before encoding.
	Validate() error
}

// Codec errors.
var (
	ErrPacketTooLarge    = errors.New("mqtt5: packet exceeds maximum size")
	ErrUnknownPacketType = errors.New("mqtt5: unknown packet type")
)

// newPacket returns an empty packet of the given type.
func newPacket(t PacketType) (Packet, error) {
	switch t {
	case PacketCONNECT:
		return &ConnectPacket{}, nil
	case PacketCONNACK:
		return &ConnackPacket{}, nil
	case PacketPUBLISH:
		return &PublishPacket{}, nil
	case PacketPUBACK:
		return &PubackPacket{}, nil
	case PacketPUBREC:
		return &PubrecPacket{}, nil
	case PacketPUBREL:
		return &PubrelPacket{}, nil
	case PacketPUBCOMP:
		return &PubcompPacket{}, nil
	case PacketSUBSCRIBE:
		return &SubscribePacket{}, nil
	case PacketSUBACK:
		return &SubackPacket{}, nil
	case PacketUNSUBSCRIBE:
		return &UnsubscribePacket{}, nil
	case PacketUNSUBACK:
		return &UnsubackPacket{}, nil
	case PacketPINGREQ:
		return &PingreqPacket{}, nil
	case PacketPINGRESP:
		return &PingrespPacket{}, nil
	case PacketDISCONNECT:
		return &DisconnectPacket{}, nil
	case PacketAUTH:
		return &AuthPacket{}, nil
	}
	return nil, ErrUnknownPacketType
}

// ReadPacket reads one complete MQTT packet from the stream. The reader is
// expected to block until the declared remaining length is available; a
// stream that ends mid-packet yields io.ErrUnexpectedEOF. If maxSize is
// nonzero, packets with a larger remaining length fail with
// ErrPacketTooLarge before the body is read.
func ReadPacket(r io.Reader, maxSize uint32) (Packet, int, error) {
	var header FixedHeader
	n, err := header.Decode(r)
	if err != nil {
		return nil, n, err
	}

	if err := header.ValidateFlags(); err != nil {
		return nil, n, err
	}

	if maxSize > 0 && header.RemainingLength > maxSize {
		return nil, n, ErrPacketTooLarge
	}

	body := make([]byte, header.RemainingLength)
	if header.RemainingLength > 0 {
		bn, err := io.ReadFull(r, body)
		n += bn
		if err != nil {
			return nil, n, err
		}
	}

	packet, err := newPacket(header.PacketType)
	if err != nil {
		return nil, n, err
	}

	if _, err := packet.Decode(bytes.NewReader(body), header); err != nil {
		return nil, n, err
	}

	return packet, n, nil
}

// WritePacket validates and writes one complete MQTT packet. The packet
// is encoded into a scratch buffer first so the transport sees a single
// write. If maxSize is nonzero, packets encoding to more than maxSize
// bytes fail with ErrPacketTooLarge and nothing is written.
func WritePacket(w io.Writer, packet Packet, maxSize uint32) (int, error) {
	if err := packet.Validate(); err != nil {
		return 0, err
	}

	buf := getEncodeBuffer()
	defer putEncodeBuffer(buf)

	n, err := packet.Encode(buf)
	if err != nil {
		return 0, err
	}
	if maxSize > 0 && uint32(n) > maxSize {
		return 0, ErrPacketTooLarge
	}

	return w.Write(buf.Bytes())
}

// Message is an MQTT application message as published or received.
type Message struct {
	// Topic is the topic name.
	Topic string

	// Payload is the application payload.
	Payload []byte

	// QoS is the delivery quality of service level (0, 1 or 2).
	QoS byte

	// Retain marks the message as retained.
	Retain bool

	// ResponseTopic, if set, names the topic a response should be
	// published to (request/response pattern).
	ResponseTopic string

	// CorrelationData correlates a response with its request.
	CorrelationData []byte

	// ContentType is the MIME type of the payload.
	ContentType string

	// MessageExpiry is the message lifetime in seconds, 0 for none.
	MessageExpiry uint32

	// UserProperties are application-defined name/value pairs.
	UserProperties []StringPair
}

// Clone returns a deep copy of the message.
func (m *Message) Clone() *Message {
	c := *m
	c.Payload = append([]byte(nil), m.Payload...)
	c.CorrelationData = append([]byte(nil), m.CorrelationData...)
	c.UserProperties = append([]StringPair(nil), m.UserProperties...)
	return &c
}

// properties builds the PUBLISH properties carried by the message metadata.
func (m *Message) properties() Properties {
	var p Properties

	if m.MessageExpiry != 0 {
		p.Set(PropMessageExpiryInterval, m.MessageExpiry)
	}
	if m.ContentType != "" {
		p.Set(PropContentType, m.ContentType)
	}
	if m.ResponseTopic != "" {
		p.Set(PropResponseTopic, m.ResponseTopic)
	}
	if len(m.CorrelationData) > 0 {
		p.Set(PropCorrelationData, m.CorrelationData)
	}
	for _, up := range m.UserProperties {
		p.Add(PropUserProperty, up)
	}

	return p
}

// fromProperties fills the message metadata from PUBLISH properties.
func (m *Message) fromProperties(p *Properties) {
	m.MessageExpiry = p.GetUint32(PropMessageExpiryInterval)
	m.ContentType = p.GetString(PropContentType)
	m.ResponseTopic = p.GetString(PropResponseTopic)
	m.CorrelationData = p.GetBinary(PropCorrelationData)
	m.UserProperties = p.GetAllStringPairs(PropUserProperty)
}

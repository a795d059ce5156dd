package mqtt5

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// roundTrip encodes the packet and decodes it back through the stream
// codec, returning the decoded copy.
func roundTrip(t *testing.T, pkt Packet) Packet {
	t.Helper()

	var buf bytes.Buffer
	_, err := WritePacket(&buf, pkt, 0)
	require.NoError(t, err)

	decoded, _, err := ReadPacket(&buf, 0)
	require.NoError(t, err)
	assert.Equal(t, pkt.Type(), decoded.Type())

	return decoded
}

func TestReadPacketMaxSize(t *testing.T) {
	var buf bytes.Buffer
	pub := &PublishPacket{Topic: "a/b", Payload: make([]byte, 100)}
	_, err := WritePacket(&buf, pub, 0)
	require.NoError(t, err)

	_, _, err = ReadPacket(&buf, 10)
	assert.ErrorIs(t, err, ErrPacketTooLarge)
}

func TestWritePacketMaxSize(t *testing.T) {
	pub := &PublishPacket{Topic: "a/b", Payload: make([]byte, 100)}

	var buf bytes.Buffer
	_, err := WritePacket(&buf, pub, 10)
	assert.ErrorIs(t, err, ErrPacketTooLarge)
	assert.Zero(t, buf.Len(), "nothing may reach the transport")
}

func TestWritePacketValidates(t *testing.T) {
	// QoS 1 requires a packet identifier.
	pub := &PublishPacket{Topic: "a/b", QoS: 1}

	var buf bytes.Buffer
	_, err := WritePacket(&buf, pub, 0)
	assert.ErrorIs(t, err, ErrPacketIDRequired)
	assert.Zero(t, buf.Len())
}

func TestReadPacketTruncatedBody(t *testing.T) {
	// Header claims 5 more bytes than the stream holds.
	var buf bytes.Buffer
	header := FixedHeader{PacketType: PacketPUBACK, RemainingLength: 5}
	_, err := header.Encode(&buf)
	require.NoError(t, err)

	_, _, err = ReadPacket(&buf, 0)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReadPacketEmptyStream(t *testing.T) {
	_, _, err := ReadPacket(bytes.NewReader(nil), 0)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadPacketRejectsBadFlags(t *testing.T) {
	// SUBSCRIBE with flag nibble 0 is malformed.
	_, _, err := ReadPacket(bytes.NewReader([]byte{0x80, 0x00}), 0)
	assert.ErrorIs(t, err, ErrInvalidPacketFlags)
}

func TestMessageClone(t *testing.T) {
	msg := &Message{
		Topic:           "a/b",
		Payload:         []byte("data"),
		QoS:             1,
		CorrelationData: []byte{1},
		UserProperties:  []StringPair{{Key: "k", Value: "v"}},
	}

	clone := msg.Clone()
	require.Equal(t, msg, clone)

	clone.Payload[0] = 'X'
	clone.UserProperties[0].Key = "changed"
	assert.Equal(t, byte('d'), msg.Payload[0])
	assert.Equal(t, "k", msg.UserProperties[0].Key)
}

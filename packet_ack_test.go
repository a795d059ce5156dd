package mqtt5

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAckPacketShortForm(t *testing.T) {
	// Success with no properties omits reason code and properties.
	ack := &PubackPacket{}
	ack.PacketID = 42

	var buf bytes.Buffer
	_, err := WritePacket(&buf, ack, 0)
	require.NoError(t, err)
	// 2 header + 2 packet id.
	assert.Equal(t, 4, buf.Len())

	decoded := roundTrip(t, ack).(*PubackPacket)
	assert.Equal(t, uint16(42), decoded.PacketID)
	assert.Equal(t, ReasonSuccess, decoded.ReasonCode)
}

func TestAckPacketWithReason(t *testing.T) {
	ack := &PubrecPacket{}
	ack.PacketID = 7
	ack.ReasonCode = ReasonNoMatchingSubscribers

	decoded := roundTrip(t, ack).(*PubrecPacket)
	assert.Equal(t, uint16(7), decoded.PacketID)
	assert.Equal(t, ReasonNoMatchingSubscribers, decoded.ReasonCode)
}

func TestAckPacketWithProperties(t *testing.T) {
	ack := &PubcompPacket{}
	ack.PacketID = 9
	ack.ReasonCode = ReasonPacketIDNotFound
	ack.Props.Set(PropReasonString, "unknown release")

	decoded := roundTrip(t, ack).(*PubcompPacket)
	assert.Equal(t, ReasonPacketIDNotFound, decoded.ReasonCode)
	assert.Equal(t, "unknown release", decoded.Props.GetString(PropReasonString))
}

func TestPubrelFlags(t *testing.T) {
	rel := &PubrelPacket{}
	rel.PacketID = 3

	var buf bytes.Buffer
	_, err := WritePacket(&buf, rel, 0)
	require.NoError(t, err)
	assert.Equal(t, byte(0x62), buf.Bytes()[0])

	decoded := roundTrip(t, rel).(*PubrelPacket)
	assert.Equal(t, uint16(3), decoded.PacketID)
}

func TestAckPacketZeroID(t *testing.T) {
	ack := &PubackPacket{}

	var buf bytes.Buffer
	_, err := WritePacket(&buf, ack, 0)
	assert.ErrorIs(t, err, ErrInvalidPacketID)
}

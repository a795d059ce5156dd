package mqtt5

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnackPacketEncodeDecode(t *testing.T) {
	p := ConnackPacket{SessionPresent: true, ReasonCode: ReasonSuccess}
	p.Props.Set(PropAssignedClientID, "assigned-1")
	p.Props.Set(PropReceiveMaximum, uint16(20))

	decoded := roundTrip(t, &p).(*ConnackPacket)
	assert.True(t, decoded.SessionPresent)
	assert.Equal(t, ReasonSuccess, decoded.ReasonCode)
	assert.Equal(t, "assigned-1", decoded.Props.GetString(PropAssignedClientID))
	assert.Equal(t, uint16(20), decoded.Props.GetUint16(PropReceiveMaximum))
}

func TestConnackPacketRefusal(t *testing.T) {
	p := ConnackPacket{ReasonCode: ReasonNotAuthorized}

	decoded := roundTrip(t, &p).(*ConnackPacket)
	assert.False(t, decoded.SessionPresent)
	assert.Equal(t, ReasonNotAuthorized, decoded.ReasonCode)
	assert.True(t, decoded.ReasonCode.IsError())
}

func TestConnackPacketReservedFlags(t *testing.T) {
	// Acknowledge flags byte with a reserved bit set is malformed.
	body := []byte{0x02, 0x00, 0x00}
	var buf bytes.Buffer
	header := FixedHeader{PacketType: PacketCONNACK, RemainingLength: uint32(len(body))}
	_, err := header.Encode(&buf)
	require.NoError(t, err)
	buf.Write(body)

	_, _, err = ReadPacket(&buf, 0)
	assert.ErrorIs(t, err, ErrInvalidConnackFlags)
}

func TestConnackPacketSessionPresentOnError(t *testing.T) {
	p := ConnackPacket{SessionPresent: true, ReasonCode: ReasonServerBusy}
	assert.Error(t, p.Validate())
}

package mqtt5

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisconnectPacketEncodeDecode(t *testing.T) {
	p := DisconnectPacket{ReasonCode: ReasonServerShuttingDown}
	p.Props.Set(PropReasonString, "maintenance")

	decoded := roundTrip(t, &p).(*DisconnectPacket)
	assert.Equal(t, ReasonServerShuttingDown, decoded.ReasonCode)
	assert.Equal(t, "maintenance", decoded.Props.GetString(PropReasonString))
}

func TestDisconnectPacketShortForm(t *testing.T) {
	// Normal disconnect with no properties is just the fixed header.
	var buf bytes.Buffer
	_, err := WritePacket(&buf, &DisconnectPacket{ReasonCode: ReasonNormalDisconnect}, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xE0, 0x00}, buf.Bytes())
}

func TestDisconnectPacketEmptyBody(t *testing.T) {
	// Empty body decodes as a normal disconnect.
	decoded, _, err := ReadPacket(bytes.NewReader([]byte{0xE0, 0x00}), 0)
	require.NoError(t, err)
	assert.Equal(t, ReasonNormalDisconnect, decoded.(*DisconnectPacket).ReasonCode)
}

package mqtt5

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertiesSetGet(t *testing.T) {
	var p Properties

	p.Set(PropPayloadFormatIndicator, byte(1))
	p.Set(PropMessageExpiryInterval, uint32(300))
	p.Set(PropTopicAlias, uint16(5))
	p.Set(PropContentType, "application/json")
	p.Set(PropCorrelationData, []byte{0xde, 0xad})

	assert.Equal(t, byte(1), p.GetByte(PropPayloadFormatIndicator))
	assert.Equal(t, uint32(300), p.GetUint32(PropMessageExpiryInterval))
	assert.Equal(t, uint16(5), p.GetUint16(PropTopicAlias))
	assert.Equal(t, "application/json", p.GetString(PropContentType))
	assert.Equal(t, []byte{0xde, 0xad}, p.GetBinary(PropCorrelationData))
	assert.Equal(t, 5, p.Len())
}

func TestPropertiesGetAbsent(t *testing.T) {
	var p Properties

	assert.False(t, p.Has(PropTopicAlias))
	assert.Zero(t, p.GetByte(PropPayloadFormatIndicator))
	assert.Zero(t, p.GetUint16(PropTopicAlias))
	assert.Zero(t, p.GetUint32(PropMessageExpiryInterval))
	assert.Empty(t, p.GetString(PropContentType))
	assert.Nil(t, p.GetBinary(PropCorrelationData))
}

func TestPropertiesSetReplaces(t *testing.T) {
	var p Properties

	p.Set(PropReceiveMaximum, uint16(10))
	p.Set(PropReceiveMaximum, uint16(20))

	assert.Equal(t, uint16(20), p.GetUint16(PropReceiveMaximum))
	assert.Equal(t, 1, p.Len())
}

func TestPropertiesAddRepeated(t *testing.T) {
	var p Properties

	p.Add(PropUserProperty, StringPair{Key: "a", Value: "1"})
	p.Add(PropUserProperty, StringPair{Key: "b", Value: "2"})
	p.Add(PropSubscriptionIdentifier, uint32(7))
	p.Add(PropSubscriptionIdentifier, uint32(9))

	pairs := p.GetAllStringPairs(PropUserProperty)
	require.Len(t, pairs, 2)
	assert.Equal(t, "a", pairs[0].Key)
	assert.Equal(t, "b", pairs[1].Key)

	assert.Equal(t, []uint32{7, 9}, p.GetAllVarInts(PropSubscriptionIdentifier))
}

func TestPropertiesEncodeDecode(t *testing.T) {
	var p Properties
	p.Set(PropSessionExpiryInterval, uint32(3600))
	p.Set(PropReceiveMaximum, uint16(100))
	p.Set(PropAssignedClientID, "srv-42")
	p.Set(PropAuthData, []byte{1, 2, 3})
	p.Add(PropUserProperty, StringPair{Key: "env", Value: "prod"})
	p.Add(PropUserProperty, StringPair{Key: "dc", Value: "eu-1"})

	var buf bytes.Buffer
	n, err := p.Encode(&buf)
	require.NoError(t, err)

	var decoded Properties
	dn, err := decoded.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, n, dn)

	assert.Equal(t, uint32(3600), decoded.GetUint32(PropSessionExpiryInterval))
	assert.Equal(t, uint16(100), decoded.GetUint16(PropReceiveMaximum))
	assert.Equal(t, "srv-42", decoded.GetString(PropAssignedClientID))
	assert.Equal(t, []byte{1, 2, 3}, decoded.GetBinary(PropAuthData))
	assert.Len(t, decoded.GetAllStringPairs(PropUserProperty), 2)
}

func TestPropertiesEncodeEmpty(t *testing.T) {
	var p Properties

	var buf bytes.Buffer
	n, err := p.Encode(&buf)
	require.NoError(t, err)
	// Just the zero length varint.
	assert.Equal(t, 1, n)
	assert.Equal(t, []byte{0x00}, buf.Bytes())
}

func TestPropertiesDecodeUnknown(t *testing.T) {
	// Length 2, property id 0xF0 does not exist.
	var p Properties
	_, err := p.Decode(bytes.NewReader([]byte{0x02, 0xf0, 0x00}))
	assert.ErrorIs(t, err, ErrUnknownProperty)
}

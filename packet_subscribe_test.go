package mqtt5

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribePacketEncodeDecode(t *testing.T) {
	p := SubscribePacket{
		PacketID: 12,
		Subscriptions: []Subscription{
			{Filter: "a/+/c", QoS: 1},
			{Filter: "d/#", QoS: 2, NoLocal: true, RetainAsPublished: true, RetainHandling: 2},
		},
	}

	decoded := roundTrip(t, &p).(*SubscribePacket)
	assert.Equal(t, uint16(12), decoded.PacketID)
	require.Len(t, decoded.Subscriptions, 2)
	assert.Equal(t, p.Subscriptions[0], decoded.Subscriptions[0])
	assert.Equal(t, p.Subscriptions[1], decoded.Subscriptions[1])
}

func TestSubscribePacketFlags(t *testing.T) {
	p := SubscribePacket{PacketID: 1, Subscriptions: []Subscription{{Filter: "a"}}}

	var buf bytes.Buffer
	_, err := WritePacket(&buf, &p, 0)
	require.NoError(t, err)
	assert.Equal(t, byte(0x82), buf.Bytes()[0])
}

func TestSubscribePacketValidate(t *testing.T) {
	tests := []struct {
		name    string
		packet  SubscribePacket
		wantErr error
	}{
		{name: "no subscriptions", packet: SubscribePacket{PacketID: 1}, wantErr: ErrNoSubscriptions},
		{name: "zero packet id", packet: SubscribePacket{Subscriptions: []Subscription{{Filter: "a"}}}, wantErr: ErrInvalidPacketID},
		{name: "qos 3", packet: SubscribePacket{PacketID: 1, Subscriptions: []Subscription{{Filter: "a", QoS: 3}}}, wantErr: ErrInvalidQoS},
		{name: "retain handling 3", packet: SubscribePacket{PacketID: 1, Subscriptions: []Subscription{{Filter: "a", RetainHandling: 3}}}, wantErr: ErrInvalidRetainHandling},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.packet.Validate(), tt.wantErr)
		})
	}
}

func TestSubackPacketEncodeDecode(t *testing.T) {
	p := SubackPacket{
		PacketID:    12,
		ReasonCodes: []ReasonCode{ReasonGrantedQoS1, ReasonNotAuthorized},
	}

	decoded := roundTrip(t, &p).(*SubackPacket)
	assert.Equal(t, uint16(12), decoded.PacketID)
	assert.Equal(t, p.ReasonCodes, decoded.ReasonCodes)
}

func TestSubackPacketValidate(t *testing.T) {
	p := SubackPacket{PacketID: 1}
	assert.ErrorIs(t, p.Validate(), ErrNoReasonCodes)
}

func TestGrantedQoS(t *testing.T) {
	granted, ok := ReasonGrantedQoS2.GrantedQoS()
	assert.True(t, ok)
	assert.Equal(t, byte(2), granted)

	_, ok = ReasonNotAuthorized.GrantedQoS()
	assert.False(t, ok)
}

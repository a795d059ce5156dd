package mqtt5

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectPacketEncodeDecode(t *testing.T) {
	tests := []struct {
		name   string
		packet ConnectPacket
	}{
		{
			name: "minimal",
			packet: ConnectPacket{
				ClientID:   "test-client",
				CleanStart: true,
				KeepAlive:  60,
			},
		},
		{
			name: "with credentials",
			packet: ConnectPacket{
				ClientID:   "client-1",
				CleanStart: true,
				KeepAlive:  120,
				Username:   "user",
				Password:   []byte("secret"),
			},
		},
		{
			name: "with will",
			packet: ConnectPacket{
				ClientID:    "client-2",
				KeepAlive:   30,
				WillFlag:    true,
				WillTopic:   "client/status",
				WillPayload: []byte("offline"),
				WillQoS:     1,
				WillRetain:  true,
			},
		},
		{
			name: "zero keep alive",
			packet: ConnectPacket{
				ClientID: "client-3",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded := roundTrip(t, &tt.packet).(*ConnectPacket)

			assert.Equal(t, tt.packet.ClientID, decoded.ClientID)
			assert.Equal(t, tt.packet.CleanStart, decoded.CleanStart)
			assert.Equal(t, tt.packet.KeepAlive, decoded.KeepAlive)
			assert.Equal(t, tt.packet.Username, decoded.Username)
			assert.Equal(t, tt.packet.Password, decoded.Password)
			assert.Equal(t, tt.packet.WillFlag, decoded.WillFlag)
			assert.Equal(t, tt.packet.WillTopic, decoded.WillTopic)
			assert.Equal(t, tt.packet.WillPayload, decoded.WillPayload)
			assert.Equal(t, tt.packet.WillQoS, decoded.WillQoS)
			assert.Equal(t, tt.packet.WillRetain, decoded.WillRetain)
		})
	}
}

func TestConnectPacketProperties(t *testing.T) {
	p := ConnectPacket{ClientID: "c", CleanStart: true}
	p.Props.Set(PropSessionExpiryInterval, uint32(3600))
	p.Props.Set(PropTopicAliasMaximum, uint16(10))
	p.WillFlag = true
	p.WillTopic = "w"
	p.WillProps.Set(PropWillDelayInterval, uint32(5))

	decoded := roundTrip(t, &p).(*ConnectPacket)
	assert.Equal(t, uint32(3600), decoded.Props.GetUint32(PropSessionExpiryInterval))
	assert.Equal(t, uint16(10), decoded.Props.GetUint16(PropTopicAliasMaximum))
	assert.Equal(t, uint32(5), decoded.WillProps.GetUint32(PropWillDelayInterval))
}

func TestConnectPacketValidate(t *testing.T) {
	tests := []struct {
		name    string
		packet  ConnectPacket
		wantErr error
	}{
		{name: "valid", packet: ConnectPacket{ClientID: "c"}},
		{name: "will qos 3", packet: ConnectPacket{ClientID: "c", WillFlag: true, WillTopic: "t", WillQoS: 3}, wantErr: ErrInvalidWill},
		{name: "will without topic", packet: ConnectPacket{ClientID: "c", WillFlag: true}, wantErr: ErrInvalidWill},
		{name: "retain without will", packet: ConnectPacket{ClientID: "c", WillRetain: true}, wantErr: ErrInvalidWill},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.packet.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

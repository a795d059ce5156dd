package mqtt5

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnsubscribePacketEncodeDecode(t *testing.T) {
	p := UnsubscribePacket{
		PacketID:     33,
		TopicFilters: []string{"a/b", "c/#"},
	}

	decoded := roundTrip(t, &p).(*UnsubscribePacket)
	assert.Equal(t, uint16(33), decoded.PacketID)
	assert.Equal(t, p.TopicFilters, decoded.TopicFilters)
}

func TestUnsubscribePacketValidate(t *testing.T) {
	p := UnsubscribePacket{PacketID: 1}
	assert.ErrorIs(t, p.Validate(), ErrNoTopicFilters)

	p = UnsubscribePacket{TopicFilters: []string{"a"}}
	assert.ErrorIs(t, p.Validate(), ErrInvalidPacketID)
}

func TestUnsubackPacketEncodeDecode(t *testing.T) {
	p := UnsubackPacket{
		PacketID:    33,
		ReasonCodes: []ReasonCode{ReasonSuccess, ReasonNoSubscriptionExisted},
	}

	decoded := roundTrip(t, &p).(*UnsubackPacket)
	assert.Equal(t, uint16(33), decoded.PacketID)
	assert.Equal(t, p.ReasonCodes, decoded.ReasonCodes)
}

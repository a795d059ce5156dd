package mqtt5

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeString(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{name: "empty", value: ""},
		{name: "ascii", value: "hello/world"},
		{name: "utf8", value: "sensors/température"},
		{name: "max length", value: strings.Repeat("x", 65535)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			n, err := encodeString(&buf, tt.value)
			require.NoError(t, err)
			assert.Equal(t, 2+len(tt.value), n)

			decoded, dn, err := decodeString(&buf)
			require.NoError(t, err)
			assert.Equal(t, tt.value, decoded)
			assert.Equal(t, n, dn)
		})
	}
}

func TestEncodeStringTooLong(t *testing.T) {
	var buf bytes.Buffer
	_, err := encodeString(&buf, strings.Repeat("x", 65536))
	assert.ErrorIs(t, err, ErrStringTooLong)
}

func TestDecodeStringInvalidUTF8(t *testing.T) {
	_, _, err := decodeString(bytes.NewReader([]byte{0x00, 0x02, 0xff, 0xfe}))
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestEncodeDecodeBinary(t *testing.T) {
	var buf bytes.Buffer
	data := []byte{0x01, 0x02, 0x03, 0x00, 0xff}

	n, err := encodeBinary(&buf, data)
	require.NoError(t, err)
	assert.Equal(t, 2+len(data), n)

	decoded, dn, err := decodeBinary(&buf)
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
	assert.Equal(t, n, dn)
}

func TestEncodeBinaryTooLong(t *testing.T) {
	var buf bytes.Buffer
	_, err := encodeBinary(&buf, make([]byte, 65536))
	assert.ErrorIs(t, err, ErrBinaryTooLong)
}

func TestEncodeDecodeStringPair(t *testing.T) {
	var buf bytes.Buffer
	pair := StringPair{Key: "trace-id", Value: "abc123"}

	n, err := encodeStringPair(&buf, pair)
	require.NoError(t, err)

	decoded, dn, err := decodeStringPair(&buf)
	require.NoError(t, err)
	assert.Equal(t, pair, decoded)
	assert.Equal(t, n, dn)
}

func TestEncodeDecodeVarint(t *testing.T) {
	tests := []struct {
		value uint32
		wire  []byte
	}{
		{value: 0, wire: []byte{0x00}},
		{value: 127, wire: []byte{0x7F}},
		{value: 128, wire: []byte{0x80, 0x01}},
		{value: 16383, wire: []byte{0xFF, 0x7F}},
		{value: 16384, wire: []byte{0x80, 0x80, 0x01}},
		{value: 2097151, wire: []byte{0xFF, 0xFF, 0x7F}},
		{value: 2097152, wire: []byte{0x80, 0x80, 0x80, 0x01}},
		{value: 268435455, wire: []byte{0xFF, 0xFF, 0xFF, 0x7F}},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		n, err := encodeVarint(&buf, tt.value)
		require.NoError(t, err)
		assert.Equal(t, tt.wire, buf.Bytes(), "value %d", tt.value)
		assert.Equal(t, len(tt.wire), n, "value %d", tt.value)
		assert.Equal(t, len(tt.wire), varintSize(tt.value))

		decoded, dn, err := decodeVarint(&buf)
		require.NoError(t, err)
		assert.Equal(t, tt.value, decoded)
		assert.Equal(t, len(tt.wire), dn)
	}
}

func TestEncodeVarintTooLarge(t *testing.T) {
	var buf bytes.Buffer
	_, err := encodeVarint(&buf, maxVarint+1)
	assert.ErrorIs(t, err, ErrVarintTooLarge)
}

func TestDecodeVarintMalformed(t *testing.T) {
	// Five continuation bytes exceed the four byte maximum.
	_, _, err := decodeVarint(bytes.NewReader([]byte{0x80, 0x80, 0x80, 0x80, 0x01}))
	assert.ErrorIs(t, err, ErrMalformedVarint)
}

func TestDecodeVarintTruncated(t *testing.T) {
	_, _, err := decodeVarint(bytes.NewReader([]byte{0x80}))
	assert.Error(t, err)
}

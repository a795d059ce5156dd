package mqtt5

import (
	"encoding/binary"
	"errors"
	"io"
	"unicode/utf8"
)

// Encoding errors.
var (
	ErrStringTooLong   = errors.New("string exceeds maximum length of 65535 bytes")
	ErrBinaryTooLong   = errors.New("binary data exceeds maximum length of 65535 bytes")
	ErrInvalidUTF8     = errors.New("invalid UTF-8 string")
	ErrVarintTooLarge  = errors.New("variable byte integer exceeds maximum value")
	ErrMalformedVarint = errors.New("malformed variable byte integer")
)

const (
	maxUint16 = 65535
	maxVarint = 268435455 // 0x0FFFFFFF, largest value encodable in 4 bytes

	varintContinueBit = 0x80
	varintValueMask   = 0x7F
)

// encodeString writes a UTF-8 string with a 2-byte big-endian length prefix.
// Returns the number of bytes written.
func encodeString(w io.Writer, s string) (int, error) {
	if len(s) > maxUint16 {
		return 0, ErrStringTooLong
	}

	if !utf8.ValidString(s) {
		return 0, ErrInvalidUTF8
	}

	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(s)))

	n, err := w.Write(lenBuf[:])
	if err != nil {
		return n, err
	}

	n2, err := io.WriteString(w, s)
	return n + n2, err
}

// decodeString reads a length-prefixed UTF-8 string.
func decodeString(r io.Reader) (string, int, error) {
	var lenBuf [2]byte
	n, err := io.ReadFull(r, lenBuf[:])
	if err != nil {
		return "", n, err
	}

	length := binary.BigEndian.Uint16(lenBuf[:])
	if length == 0 {
		return "", n, nil
	}

	buf := make([]byte, length)
	n2, err := io.ReadFull(r, buf)
	n += n2
	if err != nil {
		return "", n, err
	}

	if !utf8.Valid(buf) {
		return "", n, ErrInvalidUTF8
	}

	return string(buf), n, nil
}

// encodeBinary writes binary data with a 2-byte big-endian length prefix.
func encodeBinary(w io.Writer, data []byte) (int, error) {
	if len(data) > maxUint16 {
		return 0, ErrBinaryTooLong
	}

	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(data)))

	n, err := w.Write(lenBuf[:])
	if err != nil {
		return n, err
	}

	n2, err := w.Write(data)
	return n + n2, err
}

// decodeBinary reads length-prefixed binary data.
func decodeBinary(r io.Reader) ([]byte, int, error) {
	var lenBuf [2]byte
	n, err := io.ReadFull(r, lenBuf[:])
	if err != nil {
		return nil, n, err
	}

	length := binary.BigEndian.Uint16(lenBuf[:])
	if length == 0 {
		return nil, n, nil
	}

	buf := make([]byte, length)
	n2, err := io.ReadFull(r, buf)
	n += n2
	if err != nil {
		return nil, n, err
	}

	return buf, n, nil
}

// StringPair is a key-value pair as used by the User Property.
type StringPair struct {
	Key   string
	Value string
}

func encodeStringPair(w io.Writer, pair StringPair) (int, error) {
	n, err := encodeString(w, pair.Key)
	if err != nil {
		return n, err
	}

	n2, err := encodeString(w, pair.Value)
	return n + n2, err
}

func decodeStringPair(r io.Reader) (StringPair, int, error) {
	key, n, err := decodeString(r)
	if err != nil {
		return StringPair{}, n, err
	}

	value, n2, err := decodeString(r)
	n += n2
	if err != nil {
		return StringPair{}, n, err
	}

	return StringPair{Key: key, Value: value}, n, nil
}

// encodeVarint writes a variable byte integer in the 1-4 byte base-128
// encoding with the continuation bit set on all but the last byte.
func encodeVarint(w io.Writer, value uint32) (int, error) {
	if value > maxVarint {
		return 0, ErrVarintTooLarge
	}

	var buf [4]byte
	n := 0

	for {
		b := byte(value & varintValueMask)
		value >>= 7

		if value > 0 {
			b |= varintContinueBit
		}

		buf[n] = b
		n++

		if value == 0 {
			break
		}
	}

	return w.Write(buf[:n])
}

// decodeVarint reads a variable byte integer. A sequence that still has the
// continuation bit set after 4 bytes, or that ends mid-sequence, fails with
// ErrMalformedVarint.
func decodeVarint(r io.Reader) (uint32, int, error) {
	var value uint32
	var shift uint
	var buf [1]byte
	bytesRead := 0

	for {
		n, err := io.ReadFull(r, buf[:])
		bytesRead += n
		if err != nil {
			if bytesRead > 0 && (errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)) {
				return 0, bytesRead, ErrMalformedVarint
			}
			return 0, bytesRead, err
		}

		b := buf[0]
		value |= uint32(b&varintValueMask) << shift

		if b&varintContinueBit == 0 {
			return value, bytesRead, nil
		}

		shift += 7
		if shift > 21 {
			// Continuation bit set on the fourth byte.
			return 0, bytesRead, ErrMalformedVarint
		}
	}
}

// varintSize returns the encoded size of a variable byte integer.
func varintSize(value uint32) int {
	switch {
	case value < 1<<7:
		return 1
	case value < 1<<14:
		return 2
	case value < 1<<21:
		return 3
	default:
		return 4
	}
}

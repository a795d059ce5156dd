package mqtt5

import (
	"encoding/binary"
	"errors"
	"io"
)

// PropertyID identifies an MQTT v5.0 property.
type PropertyID byte

// Property identifiers, MQTT v5.0 spec section 2.2.2.2.
const (
	PropPayloadFormatIndicator  PropertyID = 0x01
	PropMessageExpiryInterval   PropertyID = 0x02
	PropContentType             PropertyID = 0x03
	PropResponseTopic           PropertyID = 0x08
	PropCorrelationData         PropertyID = 0x09
	PropSubscriptionIdentifier  PropertyID = 0x0B
	PropSessionExpiryInterval   PropertyID = 0x11
	PropAssignedClientID        PropertyID = 0x12
	PropServerKeepAlive         PropertyID = 0x13
	PropAuthMethod              PropertyID = 0x15
	PropAuthData                PropertyID = 0x16
	PropRequestProblemInfo      PropertyID = 0x17
	PropWillDelayInterval       PropertyID = 0x18
	PropRequestResponseInfo     PropertyID = 0x19
	PropResponseInformation     PropertyID = 0x1A
	PropServerReference         PropertyID = 0x1C
	PropReasonString            PropertyID = 0x1F
	PropReceiveMaximum          PropertyID = 0x21
	PropTopicAliasMaximum       PropertyID = 0x22
	PropTopicAlias              PropertyID = 0x23
	PropMaximumQoS              PropertyID = 0x24
	PropRetainAvailable         PropertyID = 0x25
	PropUserProperty            PropertyID = 0x26
	PropMaximumPacketSize       PropertyID = 0x27
	PropWildcardSubAvailable    PropertyID = 0x28
	PropSubscriptionIDAvailable PropertyID = 0x29
	PropSharedSubAvailable      PropertyID = 0x2A
)

// propertyType is the wire representation of a property value.
type propertyType byte

const (
	propTypeByte propertyType = iota
	propTypeTwoByteInt
	propTypeFourByteInt
	propTypeVarInt
	propTypeString
	propTypeBinary
	propTypeStringPair
)

// wireType returns the wire representation for a property identifier.
// The second return value is false for unknown identifiers.
func (p PropertyID) wireType() (propertyType, bool) {
	switch p {
	case PropPayloadFormatIndicator, PropRequestProblemInfo, PropRequestResponseInfo,
		PropMaximumQoS, PropRetainAvailable, PropWildcardSubAvailable,
		PropSubscriptionIDAvailable, PropSharedSubAvailable:
		return propTypeByte, true

	case PropServerKeepAlive, PropReceiveMaximum, PropTopicAliasMaximum, PropTopicAlias:
		return propTypeTwoByteInt, true

	case PropMessageExpiryInterval, PropSessionExpiryInterval, PropWillDelayInterval,
		PropMaximumPacketSize:
		return propTypeFourByteInt, true

	case PropSubscriptionIdentifier:
		return propTypeVarInt, true

	case PropContentType, PropResponseTopic, PropAssignedClientID,
		PropAuthMethod, PropResponseInformation, PropServerReference,
		PropReasonString:
		return propTypeString, true

	case PropCorrelationData, PropAuthData:
		return propTypeBinary, true

	case PropUserProperty:
		return propTypeStringPair, true
	}

	return 0, false
}

// Property errors.
var (
	ErrUnknownProperty = errors.New("unknown property identifier")
)

// Properties is an ordered collection of MQTT v5.0 properties.
// The zero value is an empty collection ready for use.
type Properties struct {
	props []property
}

type property struct {
	id    PropertyID
	value any
}

// Len returns the number of properties.
func (p *Properties) Len() int {
	if p == nil {
		return 0
	}
	return len(p.props)
}

// Has reports whether a property with the given identifier is present.
func (p *Properties) Has(id PropertyID) bool {
	if p == nil {
		return false
	}
	for i := range p.props {
		if p.props[i].id == id {
			return true
		}
	}
	return false
}

// Get returns the value of the first property with the given identifier,
// or nil if absent.
func (p *Properties) Get(id PropertyID) any {
	if p == nil {
		return nil
	}
	for i := range p.props {
		if p.props[i].id == id {
			return p.props[i].value
		}
	}
	return nil
}

// Set sets a property, replacing an existing value for the same identifier.
func (p *Properties) Set(id PropertyID, value any) {
	for i := range p.props {
		if p.props[i].id == id {
			p.props[i].value = value
			return
		}
	}
	p.props = append(p.props, property{id: id, value: value})
}

// Add appends a property. Use for identifiers that may repeat, such as
// PropUserProperty and PropSubscriptionIdentifier.
func (p *Properties) Add(id PropertyID, value any) {
	p.props = append(p.props, property{id: id, value: value})
}

// GetByte returns the byte value of a property, or 0 if absent.
func (p *Properties) GetByte(id PropertyID) byte {
	b, _ := p.Get(id).(byte)
	return b
}

// GetUint16 returns the uint16 value of a property, or 0 if absent.
func (p *Properties) GetUint16(id PropertyID) uint16 {
	v, _ := p.Get(id).(uint16)
	return v
}

// GetUint32 returns the uint32 value of a property, or 0 if absent.
func (p *Properties) GetUint32(id PropertyID) uint32 {
	v, _ := p.Get(id).(uint32)
	return v
}

// GetString returns the string value of a property, or "" if absent.
func (p *Properties) GetString(id PropertyID) string {
	s, _ := p.Get(id).(string)
	return s
}

// GetBinary returns the binary value of a property, or nil if absent.
func (p *Properties) GetBinary(id PropertyID) []byte {
	b, _ := p.Get(id).([]byte)
	return b
}

// GetAllStringPairs returns every string-pair value for the identifier.
func (p *Properties) GetAllStringPairs(id PropertyID) []StringPair {
	if p == nil {
		return nil
	}
	var pairs []StringPair
	for i := range p.props {
		if p.props[i].id == id {
			if sp, ok := p.props[i].value.(StringPair); ok {
				pairs = append(pairs, sp)
			}
		}
	}
	return pairs
}

// GetAllVarInts returns every variable-integer value for the identifier.
func (p *Properties) GetAllVarInts(id PropertyID) []uint32 {
	if p == nil {
		return nil
	}
	var values []uint32
	for i := range p.props {
		if p.props[i].id == id {
			if v, ok := p.props[i].value.(uint32); ok {
				values = append(values, v)
			}
		}
	}
	return values
}

// size returns the encoded size of the property list, excluding the
// leading length varint.
func (p *Properties) size() int {
	if p == nil {
		return 0
	}

	size := 0
	for i := range p.props {
		prop := &p.props[i]
		size++ // identifier byte

		wt, _ := prop.id.wireType()
		switch wt {
		case propTypeByte:
			size++
		case propTypeTwoByteInt:
			size += 2
		case propTypeFourByteInt:
			size += 4
		case propTypeVarInt:
			v, _ := prop.value.(uint32)
			size += varintSize(v)
		case propTypeString:
			s, _ := prop.value.(string)
			size += 2 + len(s)
		case propTypeBinary:
			b, _ := prop.value.([]byte)
			size += 2 + len(b)
		case propTypeStringPair:
			sp, _ := prop.value.(StringPair)
			size += 2 + len(sp.Key) + 2 + len(sp.Value)
		}
	}
	return size
}

// Encode writes the length-prefixed property list.
// Returns the number of bytes written.
func (p *Properties) Encode(w io.Writer) (int, error) {
	if p == nil || len(p.props) == 0 {
		return encodeVarint(w, 0)
	}

	n, err := encodeVarint(w, uint32(p.size()))
	if err != nil {
		return n, err
	}

	for i := range p.props {
		n2, err := p.encodeProperty(w, &p.props[i])
		n += n2
		if err != nil {
			return n, err
		}
	}

	return n, nil
}

func (p *Properties) encodeProperty(w io.Writer, prop *property) (int, error) {
	n, err := w.Write([]byte{byte(prop.id)})
	if err != nil {
		return n, err
	}

	wt, _ := prop.id.wireType()
	var n2 int

	switch wt {
	case propTypeByte:
		b, _ := prop.value.(byte)
		n2, err = w.Write([]byte{b})

	case propTypeTwoByteInt:
		v, _ := prop.value.(uint16)
		var buf [2]byte
		binary.BigEndian.PutUint16(buf[:], v)
		n2, err = w.Write(buf[:])

	case propTypeFourByteInt:
		v, _ := prop.value.(uint32)
		var buf [4]byte
		binary.BigEndian.PutUint32(buf[:], v)
		n2, err = w.Write(buf[:])

	case propTypeVarInt:
		v, _ := prop.value.(uint32)
		n2, err = encodeVarint(w, v)

	case propTypeString:
		s, _ := prop.value.(string)
		n2, err = encodeString(w, s)

	case propTypeBinary:
		b, _ := prop.value.([]byte)
		n2, err = encodeBinary(w, b)

	case propTypeStringPair:
		sp, _ := prop.value.(StringPair)
		n2, err = encodeStringPair(w, sp)
	}

	return n + n2, err
}

// Decode reads a length-prefixed property list. Unknown property
// identifiers fail with ErrUnknownProperty.
// Returns the number of bytes read.
func (p *Properties) Decode(r io.Reader) (int, error) {
	length, n, err := decodeVarint(r)
	if err != nil {
		return n, err
	}

	remaining := int(length)
	for remaining > 0 {
		var idBuf [1]byte
		n2, err := io.ReadFull(r, idBuf[:])
		n += n2
		remaining -= n2
		if err != nil {
			return n, err
		}

		id := PropertyID(idBuf[0])
		wt, known := id.wireType()
		if !known {
			return n, ErrUnknownProperty
		}

		var value any
		var n3 int

		switch wt {
		case propTypeByte:
			var buf [1]byte
			n3, err = io.ReadFull(r, buf[:])
			value = buf[0]

		case propTypeTwoByteInt:
			var buf [2]byte
			n3, err = io.ReadFull(r, buf[:])
			value = binary.BigEndian.Uint16(buf[:])

		case propTypeFourByteInt:
			var buf [4]byte
			n3, err = io.ReadFull(r, buf[:])
			value = binary.BigEndian.Uint32(buf[:])

		case propTypeVarInt:
			var v uint32
			v, n3, err = decodeVarint(r)
			value = v

		case propTypeString:
			var s string
			s, n3, err = decodeString(r)
			value = s

		case propTypeBinary:
			var b []byte
			b, n3, err = decodeBinary(r)
			value = b

		case propTypeStringPair:
			var sp StringPair
			sp, n3, err = decodeStringPair(r)
			value = sp
		}

		n += n3
		remaining -= n3
		if err != nil {
			return n, err
		}

		p.props = append(p.props, property{id: id, value: value})
	}

	return n, nil
}

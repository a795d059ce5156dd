package mqtt5

import "errors"

// Topic alias errors.
var (
	ErrTopicAliasInvalid  = errors.New("topic alias invalid")
	ErrTopicAliasExceeded = errors.New("topic alias maximum exceeded")
	ErrTopicAliasNotFound = errors.New("topic alias not found")
)

// outboundAlias is one locally assigned alias. The server learns the
// mapping from the first PUBLISH that carries both topic and alias;
// until then the topic name must not be omitted.
type outboundAlias struct {
	alias     uint16
	announced bool
}

// aliasTable tracks topic aliases for one connection, in both
// directions. Outbound aliases are assigned locally within the limit
// granted by the server's CONNACK. Inbound aliases are learned from the
// server's PUBLISH packets within the limit advertised in CONNECT.
//
// The table is owned by the connection goroutine and is not safe for
// concurrent use. All alias state is discarded when a connection ends.
type aliasTable struct {
	inbound     map[uint16]string
	outbound    map[string]*outboundAlias
	outboundMax uint16
	inboundMax  uint16
}

func newAliasTable(inboundMax, outboundMax uint16) *aliasTable {
	return &aliasTable{
		inbound:     make(map[uint16]string),
		outbound:    make(map[string]*outboundAlias),
		inboundMax:  inboundMax,
		outboundMax: outboundMax,
	}
}

// reserve assigns an alias to the topic without announcing it. Used to
// pre-assign aliases for configured topics right after connect. Reports
// whether alias space was left for the topic.
func (t *aliasTable) reserve(topic string) bool {
	if _, ok := t.outbound[topic]; ok {
		return true
	}

	next := uint16(len(t.outbound) + 1)
	if t.outboundMax == 0 || next > t.outboundMax {
		return false
	}

	t.outbound[topic] = &outboundAlias{alias: next}
	return true
}

// assign returns the alias for an outbound topic. omitTopic reports
// whether the server already knows the mapping, in which case the
// PUBLISH may carry the alias alone. Returns ErrTopicAliasExceeded when
// the topic has no alias and the granted space is exhausted.
func (t *aliasTable) assign(topic string) (alias uint16, omitTopic bool, err error) {
	if entry, ok := t.outbound[topic]; ok {
		omitTopic = entry.announced
		entry.announced = true
		return entry.alias, omitTopic, nil
	}

	next := uint16(len(t.outbound) + 1)
	if t.outboundMax == 0 || next > t.outboundMax {
		return 0, false, ErrTopicAliasExceeded
	}

	t.outbound[topic] = &outboundAlias{alias: next, announced: true}
	return next, false, nil
}

// resolve maps an inbound PUBLISH to its topic name. A packet carrying
// both topic and alias registers the pair. A packet carrying only an
// alias must reference a previously registered one.
func (t *aliasTable) resolve(topic string, alias uint16) (string, error) {
	if alias == 0 {
		return "", ErrTopicAliasInvalid
	}

	if t.inboundMax == 0 || alias > t.inboundMax {
		return "", ErrTopicAliasExceeded
	}

	if topic != "" {
		t.inbound[alias] = topic
		return topic, nil
	}

	resolved, ok := t.inbound[alias]
	if !ok {
		return "", ErrTopicAliasNotFound
	}

	return resolved, nil
}

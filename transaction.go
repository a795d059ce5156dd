package mqtt5

import "time"

// txnKind identifies which acknowledgment an in-flight request waits for.
type txnKind int

const (
	txnPubAck  txnKind = iota // QoS 1 PUBLISH awaiting PUBACK
	txnPubRec                 // QoS 2 PUBLISH awaiting PUBREC
	txnPubComp                // QoS 2 PUBREL awaiting PUBCOMP
	txnSubAck                 // SUBSCRIBE awaiting SUBACK
	txnUnsubAck               // UNSUBSCRIBE awaiting UNSUBACK
)

func (k txnKind) String() string {
	switch k {
	case txnPubAck:
		return "PUBACK"
	case txnPubRec:
		return "PUBREC"
	case txnPubComp:
		return "PUBCOMP"
	case txnSubAck:
		return "SUBACK"
	case txnUnsubAck:
		return "UNSUBACK"
	}
	return "unknown"
}

// txnResult is delivered to the waiting caller when a transaction ends.
type txnResult struct {
	codes []ReasonCode
	err   error
}

// txn is one in-flight request identified by its packet identifier.
type txn struct {
	kind     txnKind
	id       uint16
	topic    string         // publish topic, for error reporting
	subs     []Subscription // pending SUBSCRIBE entries, in packet order
	filters  []string       // pending UNSUBSCRIBE filters, in packet order
	started  time.Time
	deadline time.Time
	done     chan txnResult
}

// finish delivers the result exactly once. The done channel has capacity
// one and each transaction is finished by the connection goroutine only,
// so the send never blocks.
func (t *txn) finish(res txnResult) {
	t.done <- res
}

// txnTable tracks in-flight transactions by packet identifier. Owned by
// the connection goroutine, callers wait on each transaction's done
// channel.
type txnTable struct {
	pending map[uint16]*txn
}

func newTxnTable() *txnTable {
	return &txnTable{pending: make(map[uint16]*txn)}
}

func (t *txnTable) add(x *txn) {
	t.pending[x.id] = x
}

// take removes and returns the transaction awaiting the given kind of
// acknowledgment. Returns nil when the identifier is unknown or the
// pending transaction waits for a different acknowledgment.
func (t *txnTable) take(id uint16, kind txnKind) *txn {
	x, ok := t.pending[id]
	if !ok || x.kind != kind {
		return nil
	}

	delete(t.pending, id)
	return x
}

// get returns the pending transaction without removing it.
func (t *txnTable) get(id uint16) *txn {
	return t.pending[id]
}

func (t *txnTable) len() int {
	return len(t.pending)
}

// nextDeadline returns the earliest pending deadline, or the zero time
// when nothing is in flight.
func (t *txnTable) nextDeadline() time.Time {
	var earliest time.Time

	for _, x := range t.pending {
		if earliest.IsZero() || x.deadline.Before(earliest) {
			earliest = x.deadline
		}
	}

	return earliest
}

// expire removes and returns all transactions whose deadline has passed.
func (t *txnTable) expire(now time.Time) []*txn {
	var expired []*txn

	for id, x := range t.pending {
		if !x.deadline.After(now) {
			delete(t.pending, id)
			expired = append(expired, x)
		}
	}

	return expired
}

// failAll removes every pending transaction and fails it with err.
func (t *txnTable) failAll(err error) []*txn {
	failed := make([]*txn, 0, len(t.pending))

	for id, x := range t.pending {
		delete(t.pending, id)
		x.finish(txnResult{err: err})
		failed = append(failed, x)
	}

	return failed
}

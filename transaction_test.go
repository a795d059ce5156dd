package mqtt5

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTxn(kind txnKind, id uint16, deadline time.Time) *txn {
	return &txn{
		kind:     kind,
		id:       id,
		deadline: deadline,
		done:     make(chan txnResult, 1),
	}
}

func TestTxnTableTake(t *testing.T) {
	table := newTxnTable()
	x := newTestTxn(txnPubAck, 1, time.Now().Add(time.Second))
	table.add(x)

	// Wrong kind leaves the transaction pending.
	assert.Nil(t, table.take(1, txnSubAck))
	assert.Equal(t, 1, table.len())

	got := table.take(1, txnPubAck)
	require.Same(t, x, got)
	assert.Zero(t, table.len())

	assert.Nil(t, table.take(1, txnPubAck))
}

func TestTxnTableNextDeadline(t *testing.T) {
	table := newTxnTable()
	assert.True(t, table.nextDeadline().IsZero())

	now := time.Now()
	table.add(newTestTxn(txnPubAck, 1, now.Add(3*time.Second)))
	table.add(newTestTxn(txnSubAck, 2, now.Add(time.Second)))

	assert.Equal(t, now.Add(time.Second), table.nextDeadline())
}

func TestTxnTableExpire(t *testing.T) {
	table := newTxnTable()
	now := time.Now()
	table.add(newTestTxn(txnPubAck, 1, now.Add(-time.Second)))
	table.add(newTestTxn(txnPubRec, 2, now.Add(time.Minute)))

	expired := table.expire(now)
	require.Len(t, expired, 1)
	assert.Equal(t, uint16(1), expired[0].id)
	assert.Equal(t, 1, table.len())
}

func TestTxnTableFailAll(t *testing.T) {
	table := newTxnTable()
	x1 := newTestTxn(txnPubAck, 1, time.Now().Add(time.Minute))
	x2 := newTestTxn(txnUnsubAck, 2, time.Now().Add(time.Minute))
	table.add(x1)
	table.add(x2)

	cause := errors.New("connection lost")
	failed := table.failAll(cause)
	assert.Len(t, failed, 2)
	assert.Zero(t, table.len())

	for _, x := range []*txn{x1, x2} {
		select {
		case res := <-x.done:
			assert.ErrorIs(t, res.err, cause)
		default:
			t.Fatalf("transaction %d not finished", x.id)
		}
	}
}

func TestTxnKindString(t *testing.T) {
	assert.Equal(t, "PUBACK", txnPubAck.String())
	assert.Equal(t, "UNSUBACK", txnUnsubAck.String())
}

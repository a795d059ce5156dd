package mqtt5

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueuePutGet(t *testing.T) {
	q := newMessageQueue(4)
	stop := make(chan struct{})

	assert.False(t, q.put(&Message{Topic: "a"}, stop))
	assert.False(t, q.put(&Message{Topic: "b"}, stop))
	assert.Equal(t, 2, q.len())

	msg, err := q.get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", msg.Topic)

	msg, err = q.get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b", msg.Topic)
}

func TestQueueQoS0DropsOldest(t *testing.T) {
	q := newMessageQueue(2)
	stop := make(chan struct{})

	assert.False(t, q.put(&Message{Topic: "1"}, stop))
	assert.False(t, q.put(&Message{Topic: "2"}, stop))
	assert.True(t, q.put(&Message{Topic: "3"}, stop), "full queue drops the oldest")

	msg, err := q.get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2", msg.Topic)

	msg, err = q.get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "3", msg.Topic)
}

func TestQueueQoS1BlocksUntilDrained(t *testing.T) {
	q := newMessageQueue(1)
	stop := make(chan struct{})

	require.False(t, q.put(&Message{Topic: "first", QoS: 1}, stop))

	done := make(chan struct{})
	go func() {
		q.put(&Message{Topic: "second", QoS: 1}, stop)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("put returned before the queue was drained")
	case <-time.After(20 * time.Millisecond):
	}

	_, err := q.get(context.Background())
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("put did not complete after drain")
	}
}

func TestQueueQoS1PutUnblocksOnStop(t *testing.T) {
	q := newMessageQueue(1)
	stop := make(chan struct{})
	require.False(t, q.put(&Message{QoS: 1, Topic: "x"}, stop))

	done := make(chan struct{})
	go func() {
		q.put(&Message{QoS: 1, Topic: "y"}, stop)
		close(done)
	}()

	close(stop)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("put did not return on stop")
	}
}

func TestQueueGetContextCancel(t *testing.T) {
	q := newMessageQueue(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.get(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueueCloseDrainsThenEOF(t *testing.T) {
	q := newMessageQueue(4)
	stop := make(chan struct{})

	q.put(&Message{Topic: "queued"}, stop)
	q.close()
	q.close() // idempotent

	msg, err := q.get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "queued", msg.Topic)

	_, err = q.get(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

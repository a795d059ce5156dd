package mqtt5

import (
	"context"
	"io"
	"sync"
)

// messageQueue buffers inbound messages between the connection goroutine
// and ReadMessage callers. Capacity is fixed. QoS 0 messages displace the
// oldest queued message when full, QoS 1 and 2 messages block the
// connection goroutine instead so the protocol flow applies backpressure
// to the server.
//
// There is exactly one producer, the connection goroutine. That makes the
// drop-oldest sequence (receive one, then send) race-free: no other
// sender can fill the freed slot in between.
type messageQueue struct {
	ch chan *Message

	closeOnce sync.Once
	closed    chan struct{}
}

func newMessageQueue(capacity int) *messageQueue {
	return &messageQueue{
		ch:     make(chan *Message, capacity),
		closed: make(chan struct{}),
	}
}

// put enqueues a message. QoS 0 never blocks, dropping the oldest queued
// message when the queue is full and reporting the drop. QoS 1 and 2
// block until space frees or stop closes.
func (q *messageQueue) put(msg *Message, stop <-chan struct{}) (dropped bool) {
	if msg.QoS == 0 {
		for {
			select {
			case q.ch <- msg:
				return dropped
			default:
			}

			select {
			case <-q.ch:
				dropped = true
			default:
			}
		}
	}

	select {
	case q.ch <- msg:
	case <-stop:
	case <-q.closed:
	}

	return false
}

// get dequeues the next message, blocking until one is available, the
// context ends or the queue is closed. A closed and drained queue yields
// io.EOF, the end-of-stream signal after Stop.
func (q *messageQueue) get(ctx context.Context) (*Message, error) {
	// Drain buffered messages before reporting end of stream
	select {
	case msg := <-q.ch:
		return msg, nil
	default:
	}

	select {
	case msg := <-q.ch:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-q.closed:
		select {
		case msg := <-q.ch:
			return msg, nil
		default:
			return nil, io.EOF
		}
	}
}

// close marks the end of the stream. Buffered messages remain readable,
// subsequent reads return io.EOF.
func (q *messageQueue) close() {
	q.closeOnce.Do(func() { close(q.closed) })
}

// len returns the number of buffered messages.
func (q *messageQueue) len() int {
	return len(q.ch)
}

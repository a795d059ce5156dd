package mqtt5

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by Client operations unwraps to
// exactly one of these, so callers can classify failures with errors.Is
// without inspecting messages.
var (
	// ErrTransport covers connection-level failures: dial errors, broken
	// reads and writes, unexpected connection loss.
	ErrTransport = errors.New("mqtt5: transport error")

	// ErrProtocol covers violations of the MQTT protocol by the server:
	// malformed packets, unknown packet identifiers, invalid aliases.
	ErrProtocol = errors.New("mqtt5: protocol violation")

	// ErrRejected covers operations the server refused with an error
	// reason code.
	ErrRejected = errors.New("mqtt5: rejected by server")

	// ErrResource covers exhausted local resources such as packet
	// identifiers or topic alias space.
	ErrResource = errors.New("mqtt5: resource exhausted")

	// ErrTimeout covers acknowledgments that did not arrive within the
	// response timeout.
	ErrTimeout = errors.New("mqtt5: response timeout")
)

// Lifecycle errors.
var (
	// ErrStopped is returned by operations issued after Stop.
	ErrStopped = errors.New("mqtt5: client stopped")

	// ErrNotConnected is returned by operations issued while the client
	// has no usable connection.
	ErrNotConnected = errors.New("mqtt5: not connected")

	// ErrSessionResume is returned by Start when session resumption was
	// requested but the server did not preserve the session. The client
	// is connected and initial subscriptions have been re-established;
	// the caller may need to replay state it kept outside the session.
	ErrSessionResume = errors.New("mqtt5: session not resumed")
)

// Resource exhaustion errors.
var (
	// ErrNoFreePacketID is returned when all 65535 packet identifiers
	// are held by in-flight operations.
	ErrNoFreePacketID = fmt.Errorf("%w: no free packet identifier", ErrResource)

	// ErrAliasSpaceExhausted is returned when publishing to a topic
	// configured for aliasing after the server-granted alias space is
	// used up.
	ErrAliasSpaceExhausted = fmt.Errorf("%w: topic alias space exhausted", ErrResource)
)

// ConnectError reports a CONNECT refused by the server.
type ConnectError struct {
	// Code is the CONNACK reason code.
	Code ReasonCode
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("mqtt5: connect refused: %s", e.Code)
}

func (e *ConnectError) Unwrap() error {
	return ErrRejected
}

// SubscribeError reports a subscription refused by the server.
type SubscribeError struct {
	// Filter is the topic filter that was refused.
	Filter string

	// Code is the SUBACK reason code.
	Code ReasonCode
}

func (e *SubscribeError) Error() string {
	return fmt.Sprintf("mqtt5: subscribe %q refused: %s", e.Filter, e.Code)
}

func (e *SubscribeError) Unwrap() error {
	return ErrRejected
}

// UnsubscribeError reports an unsubscribe refused by the server.
type UnsubscribeError struct {
	// Filter is the topic filter that was refused.
	Filter string

	// Code is the UNSUBACK reason code.
	Code ReasonCode
}

func (e *UnsubscribeError) Error() string {
	return fmt.Sprintf("mqtt5: unsubscribe %q refused: %s", e.Filter, e.Code)
}

func (e *UnsubscribeError) Unwrap() error {
	return ErrRejected
}

// PublishError reports a QoS 1 or QoS 2 publish refused by the server.
type PublishError struct {
	// Topic is the topic the message was published to.
	Topic string

	// Code is the PUBACK or PUBREC reason code.
	Code ReasonCode
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("mqtt5: publish to %q refused: %s", e.Topic, e.Code)
}

func (e *PublishError) Unwrap() error {
	return ErrRejected
}

// DisconnectError reports a connection terminated by a server DISCONNECT.
type DisconnectError struct {
	// Code is the DISCONNECT reason code.
	Code ReasonCode
}

func (e *DisconnectError) Error() string {
	return fmt.Sprintf("mqtt5: server disconnect: %s", e.Code)
}

func (e *DisconnectError) Unwrap() error {
	if e.Code.IsError() {
		return ErrRejected
	}

	return ErrTransport
}

// transportErr wraps a low-level I/O failure into the transport category.
func transportErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTransport) {
		return err
	}

	return fmt.Errorf("%w: %w", ErrTransport, err)
}

// protocolErr wraps a wire-level violation into the protocol category.
func protocolErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrProtocol, fmt.Sprintf(format, args...))
}

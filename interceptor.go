package mqtt5

// PublishInterceptor intercepts messages before they are published.
// Interceptors run in the order they are configured, each receiving the
// message returned by the previous one.
type PublishInterceptor interface {
	// OnPublish is called before a message is sent. The interceptor may
	// modify the message in place or replace it. Returning nil drops the
	// message and Publish reports success without sending anything.
	//
	// The message is not a copy, use msg.Clone to preserve the original.
	OnPublish(msg *Message) *Message
}

// ReceiveInterceptor intercepts messages after they are received but
// before they reach ReadMessage. Interceptors run in the order they are
// configured, each receiving the message returned by the previous one.
type ReceiveInterceptor interface {
	// OnReceive is called for every inbound message. The interceptor may
	// modify the message in place or replace it. Returning nil drops the
	// message, the protocol acknowledgment is still sent.
	//
	// The message is not a copy, use msg.Clone to preserve the original.
	OnReceive(msg *Message) *Message
}

// PublishInterceptorFunc adapts a function to PublishInterceptor.
type PublishInterceptorFunc func(msg *Message) *Message

// OnPublish calls the underlying function.
func (f PublishInterceptorFunc) OnPublish(msg *Message) *Message {
	return f(msg)
}

// ReceiveInterceptorFunc adapts a function to ReceiveInterceptor.
type ReceiveInterceptorFunc func(msg *Message) *Message

// OnReceive calls the underlying function.
func (f ReceiveInterceptorFunc) OnReceive(msg *Message) *Message {
	return f(msg)
}

// safelyApplyPublishInterceptor runs one interceptor with panic
// recovery. A panicking interceptor leaves the message unchanged.
func safelyApplyPublishInterceptor(log Logger, i PublishInterceptor, msg *Message) (result *Message) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("publish interceptor panic", LogFields{LogFieldError: r})
			result = msg
		}
	}()
	return i.OnPublish(msg)
}

// safelyApplyReceiveInterceptor runs one interceptor with panic
// recovery. A panicking interceptor leaves the message unchanged.
func safelyApplyReceiveInterceptor(log Logger, i ReceiveInterceptor, msg *Message) (result *Message) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("receive interceptor panic", LogFields{LogFieldError: r})
			result = msg
		}
	}()
	return i.OnReceive(msg)
}

// applyPublishInterceptors runs the chain in order. A nil return from
// any interceptor breaks the chain and drops the message.
func applyPublishInterceptors(log Logger, interceptors []PublishInterceptor, msg *Message) *Message {
	current := msg
	for _, i := range interceptors {
		if current == nil {
			return nil
		}
		current = safelyApplyPublishInterceptor(log, i, current)
	}
	return current
}

// applyReceiveInterceptors runs the chain in order. A nil return from
// any interceptor breaks the chain and drops the message.
func applyReceiveInterceptors(log Logger, interceptors []ReceiveInterceptor, msg *Message) *Message {
	current := msg
	for _, i := range interceptors {
		if current == nil {
			return nil
		}
		current = safelyApplyReceiveInterceptor(log, i, current)
	}
	return current
}

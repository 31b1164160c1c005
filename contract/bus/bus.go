package bus

import (
	"context"
	"encoding/json"
)

// Requester sends a request on a topic and waits, bounded by a timeout, for the correlated reply.
type Requester interface {
	Send(ctx context.Context, topic string, payload any) (json.RawMessage, error)
}

// Emitter publishes fire-and-forget messages. A nil error only means the transport
// accepted the message; delivery is never confirmed.
type Emitter interface {
	Emit(ctx context.Context, topic string, payload any) error
}

// Bus is the minimal contract a service needs from the message bus.
type Bus interface {
	Requester
	Emitter

	HandleRequest(topic string, handler func(ctx context.Context, payload json.RawMessage) (any, error)) error
	HandleEvent(topic string, handler func(ctx context.Context, payload json.RawMessage) error) error

	Close() error
}

package bus

import "context"

// Transport moves envelopes between processes. Implementations back it with a broker
// (NATS, RabbitMQ, Kafka) or with in-process channels.
//
// Publish must not block on subscriber processing. Subscribe delivers every envelope
// published on topic to exactly one subscriber per non-empty group; an empty group
// receives every envelope (used for per-instance reply inboxes).
type Transport interface {
	Publish(ctx context.Context, topic string, env Envelope) error
	Subscribe(topic, group string, fn DeliveryFunc) (Subscription, error)
	Close() error
}

// Subscription is returned by Transport.Subscribe and stops delivery when closed.
type Subscription interface {
	Unsubscribe() error
}

// SubscriptionFunc adapts a plain function to Subscription.
type SubscriptionFunc func() error

func (f SubscriptionFunc) Unsubscribe() error { return f() }

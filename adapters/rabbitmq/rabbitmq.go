package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	cbus "github.com/next-trace/scg-rideshare/contract/bus"
	berr "github.com/next-trace/scg-rideshare/contract/errors"
)

const (
	busExchange     = "rideshare"
	busExchangeKind = "topic"
)

type PubMsg struct {
	Exchange   string
	RoutingKey string
	Body       []byte
	Headers    map[string]string
}

type Publisher interface {
	Publish(ctx context.Context, m PubMsg) error
}

// Consumer binds a queue to a routing key on the bus exchange and streams message bodies to cb.
// An empty queue name with exclusive set asks the broker for a private, auto-deleted queue.
type Consumer interface {
	Consume(queue, routingKey string, exclusive bool, cb func(body []byte)) (cancel func() error, err error)
}

type Adapter struct {
	Publisher Publisher
	Consumer  Consumer
	Logger    *slog.Logger
}

var _ cbus.Transport = (*Adapter)(nil)

func New(p Publisher, c Consumer) *Adapter { return &Adapter{Publisher: p, Consumer: c} }

func (a *Adapter) Publish(ctx context.Context, topic string, env cbus.Envelope) error {
	if err := a.ready(ctx); err != nil {
		return err
	}

	env.Topic = topic

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("rabbitmq publish serialize: %w", errors.Join(berr.ErrSerializationFailed, err))
	}

	// copy headers to avoid mutating caller-provided map
	hdrs := make(map[string]string, len(env.Headers))
	for k, v := range env.Headers {
		hdrs[k] = v
	}

	msg := PubMsg{
		Exchange:   busExchange,
		RoutingKey: topic,
		Body:       body,
		Headers:    hdrs,
	}
	if err := a.Publisher.Publish(ctx, msg); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return fmt.Errorf("rabbitmq publish %s: %w", topic, errors.Join(berr.ErrPublishFailed, err))
	}

	return nil
}

func (a *Adapter) Subscribe(topic, group string, fn cbus.DeliveryFunc) (cbus.Subscription, error) {
	if a.Consumer == nil {
		return nil, fmt.Errorf("rabbitmq subscribe: %w", berr.ErrSubscribeFailed)
	}

	queue, exclusive := queueFor(topic, group)

	cancel, err := a.Consumer.Consume(queue, topic, exclusive, func(body []byte) {
		var env cbus.Envelope
		if err := json.Unmarshal(body, &env); err != nil {
			a.logger().Warn("rabbitmq: dropping undecodable message", "routing_key", topic, "err", err)
			return
		}

		go fn(context.Background(), env)
	})
	if err != nil {
		return nil, fmt.Errorf("rabbitmq subscribe %s: %w", topic, errors.Join(berr.ErrSubscribeFailed, err))
	}

	return cbus.SubscriptionFunc(cancel), nil
}

// Close releases the publisher when it owns a connection.
func (a *Adapter) Close() error {
	if c, ok := a.Publisher.(io.Closer); ok {
		return c.Close()
	}

	return nil
}

func queueFor(topic, group string) (string, bool) {
	if group == "" {
		return "", true
	}

	return group + "." + topic, false
}

func (a *Adapter) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if a.Publisher == nil {
		return fmt.Errorf("rabbitmq publish: %w", berr.ErrPublishFailed)
	}

	return nil
}

func (a *Adapter) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}

	return a.Logger
}

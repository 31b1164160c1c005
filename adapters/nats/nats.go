package nats

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

// Client is a minimal NATS-like interface decoupled from any concrete library.
// Users can provide a wrapper around their NATS connection to satisfy this.
type Client interface {
	// Publish publishes a message to a subject with optional headers.
	Publish(subject string, data []byte, headers map[string]string) error
	// QueueSubscribe delivers each message to one member of queue; an empty queue
	// subscribes plainly so every subscriber sees every message.
	QueueSubscribe(subject, queue string, cb func(data []byte)) (unsubscribe func() error, err error)
}

// Adapter implements cbus.Transport using an injected NATS-like Client.
type Adapter struct {
	Client Client
	Logger *slog.Logger
}

// Ensure Adapter implements the transport contract.
var _ cbus.Transport = (*Adapter)(nil)

// New creates a new NATS adapter instance with the provided client.
func New(c Client) *Adapter { return &Adapter{Client: c, Logger: slog.Default()} }

func (a *Adapter) Publish(ctx context.Context, topic string, env cbus.Envelope) error {
	if err := a.ready(ctx, berr.ErrPublishFailed, "publish"); err != nil {
		return err
	}

	env.Topic = topic

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("nats publish serialize: %w", errors.Join(berr.ErrSerializationFailed, err))
	}

	if err := a.Client.Publish(topic, body, env.Headers); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return fmt.Errorf("nats publish %s: %w", topic, errors.Join(berr.ErrPublishFailed, err))
	}

	return nil
}

func (a *Adapter) Subscribe(topic, group string, fn cbus.DeliveryFunc) (cbus.Subscription, error) {
	if a.Client == nil {
		return nil, fmt.Errorf("nats subscribe: %w", berr.ErrSubscribeFailed)
	}

	unsub, err := a.Client.QueueSubscribe(topic, group, func(data []byte) {
		var env cbus.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			a.logger().Warn("nats: dropping undecodable message", "subject", topic, "err", err)
			return
		}

		go fn(context.Background(), env)
	})
	if err != nil {
		return nil, fmt.Errorf("nats subscribe %s: %w", topic, errors.Join(berr.ErrSubscribeFailed, err))
	}

	return cbus.SubscriptionFunc(unsub), nil
}

// Close closes the client when it owns a connection.
func (a *Adapter) Close() error {
	if c, ok := a.Client.(io.Closer); ok {
		return c.Close()
	}

	return nil
}

func (a *Adapter) ready(ctx context.Context, base error, label string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if a.Client == nil {
		return fmt.Errorf("nats %s: %w", label, base)
	}

	return nil
}

func (a *Adapter) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}

	return a.Logger
}

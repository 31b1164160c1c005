package kafka

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

// Writer is a minimal Kafka-like writer interface.
type Writer interface {
	Write(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
}

// Reader streams record values of topic. A non-empty group shares the topic's partitions
// among its readers; an empty group reads every record from the end of the log.
type Reader interface {
	Read(topic, group string, cb func(value []byte)) (stop func() error, err error)
}

// Adapter implements cbus.Transport using an injected Writer and Reader.
type Adapter struct {
	Writer Writer
	Reader Reader
	Logger *slog.Logger
}

var _ cbus.Transport = (*Adapter)(nil)

// New creates a new Kafka adapter instance with the provided writer and reader.
func New(w Writer, r Reader) *Adapter { return &Adapter{Writer: w, Reader: r} }

func (a *Adapter) Publish(ctx context.Context, topic string, env cbus.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if a.Writer == nil {
		return fmt.Errorf("kafka publish: %w", berr.ErrPublishFailed)
	}

	env.Topic = topic

	val, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("kafka publish serialize: %w", errors.Join(berr.ErrSerializationFailed, err))
	}

	if err = a.Writer.Write(ctx, topic, recordKey(env), val, env.Headers); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return fmt.Errorf("kafka publish write: %w", errors.Join(berr.ErrPublishFailed, err))
	}

	return nil
}

func (a *Adapter) Subscribe(topic, group string, fn cbus.DeliveryFunc) (cbus.Subscription, error) {
	if a.Reader == nil {
		return nil, fmt.Errorf("kafka subscribe: %w", berr.ErrSubscribeFailed)
	}

	stop, err := a.Reader.Read(topic, consumerGroup(topic, group), func(value []byte) {
		var env cbus.Envelope
		if err := json.Unmarshal(value, &env); err != nil {
			a.logger().Warn("kafka: dropping undecodable record", "topic", topic, "err", err)
			return
		}

		go fn(context.Background(), env)
	})
	if err != nil {
		return nil, fmt.Errorf("kafka subscribe %s: %w", topic, errors.Join(berr.ErrSubscribeFailed, err))
	}

	return cbus.SubscriptionFunc(stop), nil
}

// Close closes the writer when it owns a client.
func (a *Adapter) Close() error {
	if c, ok := a.Writer.(io.Closer); ok {
		return c.Close()
	}

	return nil
}

// helpers

// recordKey keeps a request and its retries on one partition.
func recordKey(env cbus.Envelope) []byte {
	if env.CorrelationID != "" {
		return []byte(env.CorrelationID)
	}

	return []byte(env.ID)
}

// consumerGroup scopes a service group to one topic so each subscription rebalances alone.
func consumerGroup(topic, group string) string {
	if group == "" {
		return ""
	}

	return group + "." + topic
}

func (a *Adapter) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}

	return a.Logger
}

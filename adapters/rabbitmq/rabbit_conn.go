package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	berr "github.com/next-trace/scg-rideshare/contract/errors"
)

// Concrete AMQP connection-backed publisher and consumer with auto-reconnect.

const (
	defaultConnTimeout = 10 * time.Second
	consumerPrefetch   = 16
)

type Config struct {
	URL         string
	ConnTimeout time.Duration
	Logger      *slog.Logger
}

type reconnectingPublisher struct {
	cfg    Config
	mu     sync.RWMutex
	conn   *amqp.Connection
	ch     *amqp.Channel
	gen    uint64        // bumped on every successful connect
	closed chan struct{}
	ready  chan struct{} // closed while a channel is ready; replaced when the connection drops

	consumers *consumers
}

func newReconnectingPublisher(cfg Config) *reconnectingPublisher {
	if cfg.ConnTimeout <= 0 {
		cfg.ConnTimeout = defaultConnTimeout
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	rp := &reconnectingPublisher{
		cfg:       cfg,
		closed:    make(chan struct{}),
		ready:     make(chan struct{}),
		consumers: newConsumers(),
	}
	go rp.run()

	return rp
}

func (rp *reconnectingPublisher) Publish(ctx context.Context, m PubMsg) error {
	ch, err := rp.channel(ctx)
	if err != nil {
		return err
	}

	var h amqp.Table
	if len(m.Headers) > 0 {
		h = amqp.Table{}
		for k, v := range m.Headers {
			h[k] = v
		}
	}

	return ch.PublishWithContext(
		ctx,
		m.Exchange,
		m.RoutingKey,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			Headers:      h,
			ContentType:  "application/json",
			Body:         m.Body,
			Timestamp:    time.Now(),
		},
	)
}

// Consume declares the queue on the current connection and declares it again after every reconnect.
func (rp *reconnectingPublisher) Consume(queue, routingKey string, exclusive bool, cb func(body []byte)) (func() error, error) {
	ctx, cancel := context.WithTimeout(context.Background(), rp.cfg.ConnTimeout)
	defer cancel()

	conn, gen, err := rp.connection(ctx)
	if err != nil {
		return nil, err
	}

	spec := consumerSpec{queue: queue, routingKey: routingKey, exclusive: exclusive, cb: cb}

	return rp.consumers.add(gen, spec, startOn(conn))
}

// startOn opens a dedicated channel on conn for one consumer.
func startOn(conn *amqp.Connection) startFunc {
	return func(spec consumerSpec) (func() error, error) {
		ch, err := conn.Channel()
		if err != nil {
			return nil, err
		}

		q, err := ch.QueueDeclare(
			spec.queue,
			!spec.exclusive, // durable
			spec.exclusive,  // auto-delete
			spec.exclusive,
			false,
			nil,
		)
		if err != nil {
			_ = ch.Close()
			return nil, err
		}

		if err := ch.QueueBind(q.Name, spec.routingKey, busExchange, false, nil); err != nil {
			_ = ch.Close()
			return nil, err
		}

		if err := ch.Qos(consumerPrefetch, 0, false); err != nil {
			_ = ch.Close()
			return nil, err
		}

		deliveries, err := ch.Consume(q.Name, "", false, spec.exclusive, false, false, nil)
		if err != nil {
			_ = ch.Close()
			return nil, err
		}

		go func() {
			for d := range deliveries {
				spec.cb(d.Body)
				_ = d.Ack(false)
			}
		}()

		return ch.Close, nil
	}
}

func (rp *reconnectingPublisher) channel(ctx context.Context) (*amqp.Channel, error) {
	// Fast path: ensure channel available
	rp.mu.RLock()
	ch := rp.ch
	ready := rp.ready
	rp.mu.RUnlock()

	if ch != nil {
		return ch, nil
	}

	// Wait for readiness or context cancellation
	select {
	case <-ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	rp.mu.RLock()
	ch = rp.ch
	rp.mu.RUnlock()

	if ch == nil {
		return nil, fmt.Errorf("%w: rabbitmq not connected", berr.ErrPublishFailed)
	}

	return ch, nil
}

func (rp *reconnectingPublisher) connection(ctx context.Context) (*amqp.Connection, uint64, error) {
	if _, err := rp.channel(ctx); err != nil {
		return nil, 0, err
	}

	rp.mu.RLock()
	defer rp.mu.RUnlock()

	if rp.conn == nil {
		return nil, 0, fmt.Errorf("%w: rabbitmq not connected", berr.ErrSubscribeFailed)
	}

	return rp.conn, rp.gen, nil
}

func (rp *reconnectingPublisher) run() {
	backoff := time.Second
	const maxBackoff = 30 * time.Second
	// #nosec G404 -- non-crypto RNG is acceptable for backoff jitter
	rng := rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // non-crypto RNG is acceptable for backoff jitter

	reconnect := func() (*amqp.Connection, *amqp.Channel, error) {
		conn, err := amqp.DialConfig(rp.cfg.URL, amqp.Config{
			Locale:     "en_US",
			Properties: amqp.Table{"product": "scg-rideshare"},
			Dial:       amqp.DefaultDial(rp.cfg.ConnTimeout),
		})
		if err != nil {
			return nil, nil, err
		}
		ch, err := conn.Channel()
		if err != nil {
			_ = conn.Close()
			return nil, nil, err
		}
		if err := ch.ExchangeDeclare(
			busExchange,
			busExchangeKind,
			true,
			false,
			false,
			false,
			nil,
		); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, nil, err
		}
		return conn, ch, nil
	}

	for {
		select {
		case <-rp.closed:
			return
		default:
		}

		conn, ch, err := reconnect()
		if err != nil {
			// exponential backoff with jitter
			jitter := time.Duration(rng.Int63n(int64(backoff / 2)))
			sleep := backoff + jitter/2
			if sleep > maxBackoff {
				sleep = maxBackoff
			}
			t := time.NewTimer(sleep)
			select {
			case <-rp.closed:
				t.Stop()
				return
			case <-t.C:
			}
			if backoff < maxBackoff {
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
			}
			continue
		}

		backoff = time.Second

		rp.mu.Lock()
		rp.conn = conn
		rp.ch = ch
		rp.gen++
		gen := rp.gen
		// signal readiness; later waiters see an already closed channel
		select {
		case <-rp.ready:
		default:
			close(rp.ready)
		}
		rp.mu.Unlock()

		if err := rp.consumers.restart(gen, startOn(conn)); err != nil {
			rp.cfg.Logger.Error("rabbitmq: redeclaring consumers", "err", err)
		}

		// Block on connection close notifications to trigger reconnect
		notify := conn.NotifyClose(make(chan *amqp.Error, 1))
		select {
		case <-rp.closed:
			return
		case <-notify:
			rp.mu.Lock()
			rp.ch = nil
			rp.conn = nil
			rp.ready = make(chan struct{})
			rp.mu.Unlock()
			rp.consumers.dropped()
			rp.cfg.Logger.Warn("rabbitmq: connection lost, reconnecting", "consumers", rp.consumers.len())
			_ = ch.Close()
			_ = conn.Close()
			// loop to reconnect
		}
	}
}

// Close stops reconnecting and closes the connection.
func (rp *reconnectingPublisher) Close() error {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	select {
	case <-rp.closed:
		// already closed
		return nil
	default:
		close(rp.closed)
	}
	if rp.ch != nil {
		_ = rp.ch.Close()
		rp.ch = nil
	}
	if rp.conn != nil {
		_ = rp.conn.Close()
		rp.conn = nil
	}

	return nil
}

// NewWithAMQPConn dials RabbitMQ with auto-reconnect, ensures the bus exchange, and returns Adapter and cleanup.
func NewWithAMQPConn(cfg Config) (*Adapter, func(), error) {
	if cfg.URL == "" {
		return nil, nil, fmt.Errorf("%w: rabbitmq url required", berr.ErrPublishFailed)
	}

	rp := newReconnectingPublisher(cfg)
	ad := New(rp, rp)
	ad.Logger = rp.cfg.Logger
	cleanup := func() { _ = rp.Close() }

	return ad, cleanup, nil
}

package servicebus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	cbus "github.com/next-trace/scg-rideshare/contract/bus"
	berr "github.com/next-trace/scg-rideshare/contract/errors"
)

const inboxPrefix = "_inbox."

// Bus is one service's endpoint on the shared transport.
// Requests are correlated through a private reply inbox; handlers are bound per topic
// and join the consumer group named after the service, so each message is processed
// by one instance of that service.
//
// Bus is concurrency-safe and contains no global state.
type Bus struct {
	mu sync.RWMutex

	name      string
	transport cbus.Transport
	timeout   time.Duration
	logger    *slog.Logger
	prop      cbus.HeaderPropagator
	mw        []Middleware

	inbox   string
	pending map[string]chan cbus.Envelope
	bound   map[string]struct{}
	subs    []cbus.Subscription

	done      chan struct{}
	closeOnce sync.Once
}

var _ cbus.Bus = (*Bus)(nil)

// Handler processes one inbound envelope. Event handlers return a nil result.
type Handler func(ctx context.Context, env cbus.Envelope) (any, error)

// Middleware wraps handler execution. Middlewares are executed in registration order.
type Middleware func(next Handler) Handler

// Option configures a Bus instance.
type Option func(*Bus)

// WithLogger sets the logger; nil keeps slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(b *Bus) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithRequestTimeout overrides DefaultRequestTimeout. Intended for tests.
func WithRequestTimeout(d time.Duration) Option {
	return func(b *Bus) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithPropagator configures header propagation for outgoing and inbound envelopes.
func WithPropagator(p cbus.HeaderPropagator) Option {
	return func(b *Bus) {
		if p != nil {
			b.prop = p
		}
	}
}

// WithMiddleware registers handler middleware.
func WithMiddleware(mw ...Middleware) Option {
	return func(b *Bus) { b.mw = append(b.mw, mw...) }
}

// New joins the transport as service name and opens the reply inbox.
func New(name string, t cbus.Transport, opts ...Option) (*Bus, error) {
	if t == nil {
		return nil, fmt.Errorf("servicebus %s: nil transport: %w", name, berr.ErrSubscribeFailed)
	}

	b := &Bus{
		name:      name,
		transport: t,
		timeout:   cbus.DefaultRequestTimeout,
		logger:    slog.Default(),
		prop:      cbus.NopHeaderPropagator{},
		inbox:     inboxPrefix + name + "." + uuid.NewString(),
		pending:   make(map[string]chan cbus.Envelope),
		bound:     make(map[string]struct{}),
		done:      make(chan struct{}),
	}

	for _, o := range opts {
		o(b)
	}

	sub, err := t.Subscribe(b.inbox, "", b.onReply)
	if err != nil {
		return nil, fmt.Errorf("servicebus %s inbox: %w", name, errors.Join(berr.ErrSubscribeFailed, err))
	}

	b.subs = append(b.subs, sub)

	return b, nil
}

// Name returns the service name, which is also the consumer group of bound handlers.
func (b *Bus) Name() string { return b.name }

// Send publishes payload on topic and waits for the correlated reply.
// It fails with ErrRequestTimeout when no reply arrives within the request timeout.
// It does not retry.
func (b *Bus) Send(ctx context.Context, topic string, payload any) (json.RawMessage, error) {
	if b.isClosed() {
		return nil, fmt.Errorf("send %s: %w", topic, berr.ErrClosed)
	}

	env, err := b.envelope(ctx, topic, payload)
	if err != nil {
		return nil, fmt.Errorf("send %s: %w", topic, err)
	}

	env.CorrelationID = uuid.NewString()
	env.ReplyTo = b.inbox

	ch := make(chan cbus.Envelope, 1)

	b.mu.Lock()
	b.pending[env.CorrelationID] = ch
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.pending, env.CorrelationID)
		b.mu.Unlock()
	}()

	if err := b.transport.Publish(ctx, topic, env); err != nil {
		return nil, publishErr("send", topic, err)
	}

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case rep := <-ch:
		if rep.Error != nil {
			return nil, &RemoteError{Topic: topic, Code: rep.Error.Code, Message: rep.Error.Message}
		}

		return rep.Payload, nil
	case <-timer.C:
		return nil, fmt.Errorf("send %s after %s: %w", topic, b.timeout, berr.ErrRequestTimeout)
	case <-b.done:
		return nil, fmt.Errorf("send %s: %w", topic, berr.ErrClosed)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Emit publishes payload on topic without waiting for any outcome.
func (b *Bus) Emit(ctx context.Context, topic string, payload any) error {
	if b.isClosed() {
		return fmt.Errorf("emit %s: %w", topic, berr.ErrClosed)
	}

	env, err := b.envelope(ctx, topic, payload)
	if err != nil {
		return fmt.Errorf("emit %s: %w", topic, err)
	}

	if err := b.transport.Publish(ctx, topic, env); err != nil {
		return publishErr("emit", topic, err)
	}

	return nil
}

// HandleRequest binds a request handler for topic. Its result is marshalled into the reply;
// its error is shipped back as a coded ReplyError. Duplicate bindings are rejected.
func (b *Bus) HandleRequest(topic string, h func(ctx context.Context, payload json.RawMessage) (any, error)) error {
	return b.bind(topic, func(ctx context.Context, env cbus.Envelope) (any, error) {
		return h(ctx, env.Payload)
	})
}

// HandleEvent binds a fire-and-forget handler for topic. Duplicate bindings are rejected.
func (b *Bus) HandleEvent(topic string, h func(ctx context.Context, payload json.RawMessage) error) error {
	return b.bind(topic, func(ctx context.Context, env cbus.Envelope) (any, error) {
		return nil, h(ctx, env.Payload)
	})
}

// Close stops all handlers and the reply inbox and fails pending requests with ErrClosed.
// The transport is left open; it may be shared with other buses.
func (b *Bus) Close() error {
	var errs []error

	b.closeOnce.Do(func() {
		close(b.done)

		b.mu.Lock()
		subs := b.subs
		b.subs = nil
		b.mu.Unlock()

		for _, s := range subs {
			if err := s.Unsubscribe(); err != nil {
				errs = append(errs, err)
			}
		}
	})

	return errors.Join(errs...)
}

func (b *Bus) bind(topic string, h Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.bound[topic]; exists {
		return fmt.Errorf("bind %s: %w", topic, berr.ErrHandlerExists)
	}

	final := h
	for i := len(b.mw) - 1; i >= 0; i-- {
		final = b.mw[i](final)
	}

	sub, err := b.transport.Subscribe(topic, b.name, func(ctx context.Context, env cbus.Envelope) {
		b.deliver(ctx, env, final)
	})
	if err != nil {
		return fmt.Errorf("bind %s: %w", topic, errors.Join(berr.ErrSubscribeFailed, err))
	}

	b.bound[topic] = struct{}{}
	b.subs = append(b.subs, sub)

	return nil
}

func (b *Bus) deliver(ctx context.Context, env cbus.Envelope, h Handler) {
	ctx = b.prop.Extract(ctx, env.Headers)

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	res, err := h(ctx, env)

	if !env.IsRequest() {
		if err != nil {
			b.logger.ErrorContext(ctx, "event handler failed", "topic", env.Topic, "id", env.ID, "err", err)
		}

		return
	}

	reply := cbus.Envelope{
		ID:            uuid.NewString(),
		Topic:         env.ReplyTo,
		CorrelationID: env.CorrelationID,
		Headers:       map[string]string{cbus.HeaderSender: b.name},
		SentAt:        time.Now().UTC(),
	}

	if err != nil {
		reply.Error = replyError(err)
	} else if body, mErr := json.Marshal(res); mErr != nil {
		reply.Error = &cbus.ReplyError{Code: berr.ErrCodeSerializationFailed, Message: mErr.Error()}
	} else {
		reply.Payload = body
	}

	if pErr := b.transport.Publish(ctx, env.ReplyTo, reply); pErr != nil {
		b.logger.ErrorContext(ctx, "reply publish failed", "topic", env.Topic, "correlation_id", env.CorrelationID, "err", pErr)
	}
}

// onReply completes the pending request with the first matching reply.
func (b *Bus) onReply(_ context.Context, env cbus.Envelope) {
	b.mu.Lock()
	ch, ok := b.pending[env.CorrelationID]
	if ok {
		delete(b.pending, env.CorrelationID)
	}
	b.mu.Unlock()

	if !ok {
		b.logger.Debug("dropping late or duplicate reply", "bus", b.name, "correlation_id", env.CorrelationID)
		return
	}

	ch <- env
}

func (b *Bus) envelope(ctx context.Context, topic string, payload any) (cbus.Envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return cbus.Envelope{}, errors.Join(berr.ErrSerializationFailed, err)
	}

	headers := map[string]string{cbus.HeaderSender: b.name}
	b.prop.Inject(ctx, headers)

	return cbus.Envelope{
		ID:      uuid.NewString(),
		Topic:   topic,
		Headers: headers,
		Payload: body,
		SentAt:  time.Now().UTC(),
	}, nil
}

func (b *Bus) isClosed() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}

func publishErr(label, topic string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	return fmt.Errorf("%s %s: %w", label, topic, errors.Join(berr.ErrPublishFailed, err))
}

func replyError(err error) *cbus.ReplyError {
	code := berr.CodeOf(err)
	if code == "" {
		code = berr.ErrCodeRemote
	}

	return &cbus.ReplyError{Code: code, Message: err.Error()}
}

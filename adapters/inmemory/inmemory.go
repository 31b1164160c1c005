package inmemory

import (
	"context"
	"fmt"
	"sync"

	cbus "github.com/next-trace/scg-rideshare/contract/bus"
	berr "github.com/next-trace/scg-rideshare/contract/errors"
)

// Adapter is a thread-safe in-process implementation of cbus.Transport.
// Every delivery runs on its own goroutine. With WithRecording, published
// envelopes are kept for inspection in tests.
type Adapter struct {
	mu     sync.Mutex
	topics map[string]map[string]*group
	seq    uint64
	closed bool

	inflight sync.WaitGroup
	record   bool
	records  []cbus.Envelope
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithRecording keeps every published envelope until the adapter is discarded.
// Only for tests: a long-running process would grow without bound.
func WithRecording() Option {
	return func(a *Adapter) { a.record = true }
}

type member struct {
	id uint64
	fn cbus.DeliveryFunc
}

// group round-robins deliveries over its members. The empty group is special:
// every member receives every envelope.
type group struct {
	members []member
	next    int
}

// Ensure Adapter implements the transport contract.
var _ cbus.Transport = (*Adapter)(nil)

// New creates a new in-memory adapter instance.
func New(opts ...Option) *Adapter {
	a := &Adapter{topics: make(map[string]map[string]*group)}
	for _, o := range opts {
		o(a)
	}

	return a
}

func (a *Adapter) Publish(ctx context.Context, topic string, env cbus.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return fmt.Errorf("inmemory publish %s: %w", topic, berr.ErrClosed)
	}

	env.Topic = topic
	if a.record {
		a.records = append(a.records, env)
	}

	var targets []cbus.DeliveryFunc

	for name, g := range a.topics[topic] {
		if len(g.members) == 0 {
			continue
		}

		if name == "" {
			for _, m := range g.members {
				targets = append(targets, m.fn)
			}

			continue
		}

		targets = append(targets, g.members[g.next%len(g.members)].fn)
		g.next++
	}

	a.inflight.Add(len(targets))
	a.mu.Unlock()

	for _, fn := range targets {
		go func(fn cbus.DeliveryFunc) {
			defer a.inflight.Done()
			fn(context.Background(), env)
		}(fn)
	}

	return nil
}

func (a *Adapter) Subscribe(topic, groupName string, fn cbus.DeliveryFunc) (cbus.Subscription, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil, fmt.Errorf("inmemory subscribe %s: %w", topic, berr.ErrClosed)
	}

	groups, ok := a.topics[topic]
	if !ok {
		groups = make(map[string]*group)
		a.topics[topic] = groups
	}

	g, ok := groups[groupName]
	if !ok {
		g = &group{}
		groups[groupName] = g
	}

	a.seq++
	id := a.seq
	g.members = append(g.members, member{id: id, fn: fn})

	return cbus.SubscriptionFunc(func() error {
		a.mu.Lock()
		defer a.mu.Unlock()

		for i, m := range g.members {
			if m.id == id {
				g.members = append(g.members[:i], g.members[i+1:]...)
				break
			}
		}

		return nil
	}), nil
}

// Close rejects further publishes and subscriptions. In-flight deliveries finish.
func (a *Adapter) Close() error {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()

	return nil
}

// Wait blocks until every delivery started so far, and every delivery those
// deliveries started in turn, has returned.
func (a *Adapter) Wait() { a.inflight.Wait() }

// Published returns a copy of every envelope accepted so far, in publish order.
// It is empty unless the adapter was built WithRecording.
func (a *Adapter) Published() []cbus.Envelope {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]cbus.Envelope(nil), a.records...)
}

// PublishedOn returns the recorded envelopes for one topic.
func (a *Adapter) PublishedOn(topic string) []cbus.Envelope {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []cbus.Envelope

	for _, e := range a.records {
		if e.Topic == topic {
			out = append(out, e)
		}
	}

	return out
}

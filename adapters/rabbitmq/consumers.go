package rabbitmq

import (
	"errors"
	"fmt"
	"sync"
)

// consumerSpec is what a subscription needs to be declared again on a fresh connection.
type consumerSpec struct {
	queue      string
	routingKey string
	exclusive  bool
	cb         func(body []byte)
}

type startFunc func(consumerSpec) (stop func() error, err error)

type consumer struct {
	spec consumerSpec
	gen  uint64 // connection generation the consumer currently runs on
	stop func() error
}

// consumers tracks live subscriptions across reconnects.
type consumers struct {
	mu  sync.Mutex
	seq uint64
	m   map[uint64]*consumer
}

func newConsumers() *consumers { return &consumers{m: make(map[uint64]*consumer)} }

// add starts spec on connection generation gen and keeps it for later restarts.
func (cs *consumers) add(gen uint64, spec consumerSpec, start startFunc) (func() error, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	stop, err := start(spec)
	if err != nil {
		return nil, err
	}

	cs.seq++
	id := cs.seq
	cs.m[id] = &consumer{spec: spec, gen: gen, stop: stop}

	return func() error { return cs.remove(id) }, nil
}

func (cs *consumers) remove(id uint64) error {
	cs.mu.Lock()
	c, ok := cs.m[id]
	delete(cs.m, id)
	cs.mu.Unlock()

	if !ok || c.stop == nil {
		return nil
	}

	return c.stop()
}

// dropped forgets the channels of a dead connection; they are already closed.
func (cs *consumers) dropped() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	for _, c := range cs.m {
		c.stop = nil
	}
}

// restart declares every consumer not yet running on generation gen.
// Failed consumers stay registered and are retried on the next connection.
func (cs *consumers) restart(gen uint64, start startFunc) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	var errs []error

	for _, c := range cs.m {
		if c.gen == gen {
			continue
		}

		stop, err := start(c.spec)
		if err != nil {
			errs = append(errs, fmt.Errorf("queue %q key %q: %w", c.spec.queue, c.spec.routingKey, err))
			continue
		}

		c.gen, c.stop = gen, stop
	}

	return errors.Join(errs...)
}

func (cs *consumers) len() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	return len(cs.m)
}

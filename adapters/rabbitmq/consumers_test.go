package rabbitmq

import (
	"errors"
	"testing"
)

type starts struct {
	specs []consumerSpec
	stops int
	err   error
}

func (s *starts) start(spec consumerSpec) (func() error, error) {
	if s.err != nil {
		return nil, s.err
	}

	s.specs = append(s.specs, spec)

	return func() error { s.stops++; return nil }, nil
}

func TestConsumers_RestartedOnNewConnection(t *testing.T) {
	cs := newConsumers()
	first := &starts{}

	if _, err := cs.add(1, consumerSpec{queue: "inventory.ride.get", routingKey: "ride.get"}, first.start); err != nil {
		t.Fatalf("add: %v", err)
	}

	if _, err := cs.add(1, consumerSpec{routingKey: "_inbox.booking.1", exclusive: true}, first.start); err != nil {
		t.Fatalf("add inbox: %v", err)
	}

	// Same connection: nothing to redeclare.
	if err := cs.restart(1, first.start); err != nil || len(first.specs) != 2 {
		t.Fatalf("restart same gen: %v starts=%d", err, len(first.specs))
	}

	cs.dropped()

	second := &starts{}
	if err := cs.restart(2, second.start); err != nil {
		t.Fatalf("restart: %v", err)
	}

	if len(second.specs) != 2 {
		t.Fatalf("redeclared %d consumers, want 2", len(second.specs))
	}

	keys := map[string]bool{}
	for _, s := range second.specs {
		keys[s.routingKey] = s.exclusive
	}

	if excl, ok := keys["_inbox.booking.1"]; !ok || !excl {
		t.Fatalf("inbox not redeclared exclusive: %+v", second.specs)
	}

	if first.stops != 0 {
		t.Fatalf("dead channels closed again: %d", first.stops)
	}
}

func TestConsumers_FailedRestartRetriedNextTime(t *testing.T) {
	cs := newConsumers()
	ok := &starts{}

	if _, err := cs.add(1, consumerSpec{queue: "booking.ride.booked", routingKey: "ride.booked"}, ok.start); err != nil {
		t.Fatalf("add: %v", err)
	}

	cs.dropped()

	if err := cs.restart(2, (&starts{err: errors.New("channel refused")}).start); err == nil {
		t.Fatalf("expected restart error")
	}

	again := &starts{}
	if err := cs.restart(3, again.start); err != nil || len(again.specs) != 1 {
		t.Fatalf("retry: %v starts=%d", err, len(again.specs))
	}
}

func TestConsumers_CancelStopsAndForgets(t *testing.T) {
	cs := newConsumers()
	s := &starts{}

	cancel, err := cs.add(1, consumerSpec{queue: "inventory.ride.increaseSeat", routingKey: "ride.increaseSeat"}, s.start)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := cancel(); err != nil || s.stops != 1 {
		t.Fatalf("cancel: %v stops=%d", err, s.stops)
	}

	if cs.len() != 0 {
		t.Fatalf("consumer kept after cancel")
	}

	next := &starts{}
	if err := cs.restart(2, next.start); err != nil || len(next.specs) != 0 {
		t.Fatalf("cancelled consumer redeclared: %d", len(next.specs))
	}

	if err := cancel(); err != nil {
		t.Fatalf("second cancel: %v", err)
	}
}

func TestConsumers_CancelAfterDropSkipsDeadChannel(t *testing.T) {
	cs := newConsumers()
	s := &starts{}

	cancel, _ := cs.add(1, consumerSpec{queue: "q", routingKey: "k"}, s.start)
	cs.dropped()

	if err := cancel(); err != nil || s.stops != 0 {
		t.Fatalf("cancel after drop: %v stops=%d", err, s.stops)
	}
}

func TestConsumers_AddStartError(t *testing.T) {
	cs := newConsumers()

	if _, err := cs.add(1, consumerSpec{queue: "q"}, (&starts{err: errors.New("declare failed")}).start); err == nil {
		t.Fatalf("expected error")
	}

	if cs.len() != 0 {
		t.Fatalf("failed consumer registered")
	}
}

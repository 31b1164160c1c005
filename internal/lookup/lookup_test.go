package lookup_test

import (
	"context"
	"errors"
	"testing"
	"time"

	berr "github.com/next-trace/scg-rideshare/contract/errors"
	"github.com/next-trace/scg-rideshare/contract/topics"
	"github.com/next-trace/scg-rideshare/internal/lookup"
	"github.com/next-trace/scg-rideshare/memory"
	"github.com/next-trace/scg-rideshare/servicebus"
)

func TestIdentity_Variant(t *testing.T) {
	if _, _, ok := lookup.Absent().Profile(); ok {
		t.Fatalf("absent reported present")
	}

	var zero lookup.Identity
	if zero.Present() {
		t.Fatalf("zero value must be absent")
	}

	id := lookup.Present(topics.RoleDriver, true)

	role, verified, ok := id.Profile()
	if !ok || role != topics.RoleDriver || !verified {
		t.Fatalf("profile: %v %v %v", role, verified, ok)
	}

	if !id.Has(topics.RoleDriver) || id.Has(topics.RolePassenger) {
		t.Fatalf("has mismatch")
	}
}

func newBuses(t *testing.T, opts ...servicebus.Option) (*servicebus.Bus, *servicebus.Bus) {
	t.Helper()

	net, cleanup := memory.New()
	t.Cleanup(cleanup)

	responder, err := net.Join("responder")
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	caller, err := net.Join("caller", opts...)
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	return responder, caller
}

func TestIdentityOverBus_PresentAndAbsent(t *testing.T) {
	responder, caller := newBuses(t)

	verified := true
	h := servicebus.RequestFunc[string, topics.UserExistsReply](func(_ context.Context, id string) (topics.UserExistsReply, error) {
		if id != "u1" {
			return topics.UserExistsReply{Exists: false}, nil
		}

		return topics.UserExistsReply{Exists: true, Role: topics.RolePassenger, IsEmailVerified: &verified}, nil
	})
	if err := servicebus.BindRequest[string, topics.UserExistsReply](responder, topics.UserExists, h); err != nil {
		t.Fatalf("bind: %v", err)
	}

	l := lookup.NewIdentity(caller, nil)

	if got := l.Lookup(t.Context(), "u1"); !got.Has(topics.RolePassenger) {
		t.Fatalf("want passenger, got %+v", got)
	}

	if got := l.Lookup(t.Context(), "nobody"); got.Present() {
		t.Fatalf("want absent")
	}
}

func TestIdentityOverBus_FailureIsAbsent(t *testing.T) {
	responder, caller := newBuses(t, servicebus.WithRequestTimeout(50*time.Millisecond))

	h := servicebus.RequestFunc[string, topics.UserExistsReply](func(context.Context, string) (topics.UserExistsReply, error) {
		return topics.UserExistsReply{}, errors.New("db down")
	})
	if err := servicebus.BindRequest[string, topics.UserExistsReply](responder, topics.UserExists, h); err != nil {
		t.Fatalf("bind: %v", err)
	}

	if got := lookup.NewIdentity(caller, nil).Lookup(t.Context(), "u1"); got.Present() {
		t.Fatalf("remote error must resolve to absent")
	}
}

func TestIdentityOverBus_TimeoutIsAbsent(t *testing.T) {
	_, caller := newBuses(t, servicebus.WithRequestTimeout(50*time.Millisecond))

	if got := lookup.NewIdentity(caller, nil).Lookup(t.Context(), "u1"); got.Present() {
		t.Fatalf("timeout must resolve to absent")
	}
}

func TestInventoryOverBus(t *testing.T) {
	responder, caller := newBuses(t)

	h := servicebus.RequestFunc[string, *topics.RideSnapshot](func(_ context.Context, id string) (*topics.RideSnapshot, error) {
		if id != "r1" {
			return nil, nil
		}

		return &topics.RideSnapshot{ID: "r1", Destination: "GIU", AvailableSeats: 2}, nil
	})
	if err := servicebus.BindRequest[string, *topics.RideSnapshot](responder, topics.RideGet, h); err != nil {
		t.Fatalf("bind: %v", err)
	}

	l := lookup.NewInventory(caller, nil)

	snap, found, err := l.Ride(t.Context(), "r1")
	if err != nil || !found || snap.AvailableSeats != 2 || snap.Destination != "GIU" {
		t.Fatalf("got %+v %v %v", snap, found, err)
	}

	_, found, err = l.Ride(t.Context(), "missing")
	if err != nil || found {
		t.Fatalf("unknown ride: found=%v err=%v", found, err)
	}
}

func TestInventoryOverBus_Timeout(t *testing.T) {
	_, caller := newBuses(t, servicebus.WithRequestTimeout(50*time.Millisecond))

	_, _, err := lookup.NewInventory(caller, nil).Ride(t.Context(), "r1")
	if !errors.Is(err, berr.ErrRequestTimeout) {
		t.Fatalf("want timeout, got %v", err)
	}
}

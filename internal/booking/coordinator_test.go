package booking_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	berr "github.com/next-trace/scg-rideshare/contract/errors"
	"github.com/next-trace/scg-rideshare/contract/topics"
	"github.com/next-trace/scg-rideshare/internal/booking"
	"github.com/next-trace/scg-rideshare/internal/lookup"
)

type directory map[string]topics.Role

func (d directory) Lookup(_ context.Context, id string) lookup.Identity {
	role, ok := d[id]
	if !ok {
		return lookup.Absent()
	}

	return lookup.Present(role, false)
}

var users = directory{
	"p1":    topics.RolePassenger,
	"p2":    topics.RolePassenger,
	"d1":    topics.RoleDriver,
	"admin": topics.RoleAdmin,
}

type emitted struct {
	topic   string
	payload any
}

type recorder struct {
	mu   sync.Mutex
	sent []emitted
	err  error
}

func (r *recorder) Emit(_ context.Context, topic string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sent = append(r.sent, emitted{topic, payload})

	return r.err
}

func (r *recorder) topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.sent))
	for i, e := range r.sent {
		out[i] = e.topic
	}

	return out
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func rides(snaps ...topics.RideSnapshot) lookup.InventoryFunc {
	return func(_ context.Context, id string) (topics.RideSnapshot, bool, error) {
		for _, s := range snaps {
			if s.ID == id {
				return s, true, nil
			}
		}

		return topics.RideSnapshot{}, false, nil
	}
}

var t0 = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	coord *booking.Coordinator
	store *booking.MemoryStore
	em    *recorder
	clock *clock
}

func newFixture(inv lookup.InventoryLookup) fixture {
	f := fixture{store: booking.NewMemoryStore(), em: &recorder{}, clock: &clock{now: t0}}
	f.coord = booking.NewCoordinator(f.store, users, inv, f.em, booking.WithClock(f.clock.Now))

	return f
}

var giuRide = topics.RideSnapshot{ID: "r1", Destination: "GIU", AvailableSeats: 1}

func TestBookRide_CommitsThenEmits(t *testing.T) {
	f := newFixture(rides(giuRide))

	b, err := f.coord.BookRide(t.Context(), booking.BookInput{RideID: "r1", PassengerID: "p1", Destination: "GIU"})
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	if b.ID == "" || !b.CreatedAt.Equal(t0) {
		t.Fatalf("booking: %+v", b)
	}

	if got, _ := f.store.Get(t.Context(), b.ID); got == nil {
		t.Fatalf("booking not stored")
	}

	got := f.em.topics()
	if len(got) != 2 || got[0] != topics.RideDecreaseSeat || got[1] != topics.RideBooked {
		t.Fatalf("effects: %v", got)
	}

	if f.em.sent[0].payload != "r1" {
		t.Fatalf("decrease payload: %v", f.em.sent[0].payload)
	}

	ev, ok := f.em.sent[1].payload.(topics.RideBookedEvent)
	if !ok || ev.RideID != "r1" || ev.PassengerID != "p1" || ev.Destination != "GIU" {
		t.Fatalf("booked payload: %#v", f.em.sent[1].payload)
	}
}

func TestBookRide_DestinationNormalization(t *testing.T) {
	f := newFixture(rides(topics.RideSnapshot{ID: "r1", Destination: "Giu", AvailableSeats: 2}))

	if _, err := f.coord.BookRide(t.Context(), booking.BookInput{RideID: "r1", PassengerID: "p1", Destination: " giu "}); err != nil {
		t.Fatalf("normalized match must succeed: %v", err)
	}

	_, err := f.coord.BookRide(t.Context(), booking.BookInput{RideID: "r1", PassengerID: "p1", Destination: "Cairo"})
	if !errors.Is(err, berr.ErrBadRequest) || !strings.Contains(err.Error(), "This ride goes to Giu") {
		t.Fatalf("mismatch: %v", err)
	}
}

func TestBookRide_Rejections(t *testing.T) {
	full := topics.RideSnapshot{ID: "full", Destination: "GIU", AvailableSeats: 0}

	cases := []struct {
		name string
		in   booking.BookInput
		want error
	}{
		{"absent user", booking.BookInput{RideID: "r1", PassengerID: "ghost", Destination: "GIU"}, berr.ErrForbidden},
		{"driver", booking.BookInput{RideID: "r1", PassengerID: "d1", Destination: "GIU"}, berr.ErrForbidden},
		{"admin", booking.BookInput{RideID: "r1", PassengerID: "admin", Destination: "GIU"}, berr.ErrForbidden},
		{"unknown ride", booking.BookInput{RideID: "nope", PassengerID: "p1", Destination: "GIU"}, berr.ErrBadRequest},
		{"no seats", booking.BookInput{RideID: "full", PassengerID: "p1", Destination: "GIU"}, berr.ErrBadRequest},
	}

	for _, tc := range cases {
		f := newFixture(rides(giuRide, full))

		if _, err := f.coord.BookRide(t.Context(), tc.in); !errors.Is(err, tc.want) {
			t.Fatalf("%s: want %v, got %v", tc.name, tc.want, err)
		}

		if all, _ := f.store.All(t.Context()); len(all) != 0 {
			t.Fatalf("%s: booking written", tc.name)
		}

		if len(f.em.topics()) != 0 {
			t.Fatalf("%s: effects emitted", tc.name)
		}
	}
}

func TestBookRide_RideServiceUnavailable(t *testing.T) {
	down := lookup.InventoryFunc(func(context.Context, string) (topics.RideSnapshot, bool, error) {
		return topics.RideSnapshot{}, false, berr.ErrRequestTimeout
	})
	f := newFixture(down)

	_, err := f.coord.BookRide(t.Context(), booking.BookInput{RideID: "r1", PassengerID: "p1", Destination: "GIU"})
	if !errors.Is(err, berr.ErrBadRequest) || err.Error() != "Ride not found or service unavailable." {
		t.Fatalf("want BadRequest, got %v", err)
	}
}

func TestBookRide_EmitFailureKeepsBooking(t *testing.T) {
	f := newFixture(rides(giuRide))
	f.em.err = errors.New("broker down")

	b, err := f.coord.BookRide(t.Context(), booking.BookInput{RideID: "r1", PassengerID: "p1", Destination: "GIU"})
	if err != nil {
		t.Fatalf("emit failure must not fail the booking: %v", err)
	}

	if got, _ := f.store.Get(t.Context(), b.ID); got == nil {
		t.Fatalf("booking missing")
	}

	if len(f.em.topics()) != 2 {
		t.Fatalf("every effect must still be attempted: %v", f.em.topics())
	}
}

func TestBookRide_SeatCheckDoesNotGate(t *testing.T) {
	// The snapshot still shows one seat, so both bookings pass.
	f := newFixture(rides(giuRide))

	for _, p := range []string{"p1", "p2"} {
		if _, err := f.coord.BookRide(t.Context(), booking.BookInput{RideID: "r1", PassengerID: p, Destination: "GIU"}); err != nil {
			t.Fatalf("book %s: %v", p, err)
		}
	}

	if all, _ := f.store.All(t.Context()); len(all) != 2 {
		t.Fatalf("want 2 bookings, got %d", len(all))
	}
}

func TestPlanBooking_WritesNothing(t *testing.T) {
	f := newFixture(rides(giuRide))

	b, plan, err := f.coord.PlanBooking(t.Context(), booking.BookInput{RideID: "r1", PassengerID: "p1", Destination: "gIu"})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}

	if all, _ := f.store.All(t.Context()); len(all) != 0 {
		t.Fatalf("planning wrote a booking")
	}

	if len(plan.Effects) != 2 || plan.Effects[0].Topic != topics.RideDecreaseSeat || plan.Effects[1].Topic != topics.RideBooked {
		t.Fatalf("effects: %+v", plan.Effects)
	}

	if b.Destination != "gIu" {
		t.Fatalf("destination must be copied as requested: %q", b.Destination)
	}
}

func book(t *testing.T, f fixture, passenger string) booking.Booking {
	t.Helper()

	b, err := f.coord.BookRide(t.Context(), booking.BookInput{RideID: "r1", PassengerID: passenger, Destination: "GIU"})
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	f.em.mu.Lock()
	f.em.sent = nil
	f.em.mu.Unlock()

	return b
}

func TestCancel_Window(t *testing.T) {
	f := newFixture(rides(giuRide))

	inside := book(t, f, "p1")
	f.clock.now = t0.Add(2*time.Minute + 59*time.Second)

	msg, err := f.coord.CancelBooking(t.Context(), inside.ID, "p1")
	if err != nil || msg != "Booking cancelled and seat restored" {
		t.Fatalf("cancel at 2m59s: %q %v", msg, err)
	}

	if got := f.em.topics(); len(got) != 1 || got[0] != topics.RideIncreaseSeat || f.em.sent[0].payload != "r1" {
		t.Fatalf("effects: %v", f.em.sent)
	}

	f.clock.now = t0
	outside := book(t, f, "p1")
	f.clock.now = t0.Add(3*time.Minute + time.Second)

	_, err = f.coord.CancelBooking(t.Context(), outside.ID, "p1")
	if !errors.Is(err, berr.ErrForbidden) || !strings.Contains(err.Error(), "window expired") {
		t.Fatalf("cancel at 3m01s: %v", err)
	}

	if got, _ := f.store.Get(t.Context(), outside.ID); got == nil {
		t.Fatalf("expired cancel deleted the booking")
	}

	if len(f.em.topics()) != 0 {
		t.Fatalf("expired cancel emitted: %v", f.em.topics())
	}
}

func TestCancel_AtDeadlineIsAllowed(t *testing.T) {
	f := newFixture(rides(giuRide))

	b := book(t, f, "p1")
	f.clock.now = b.Deadline()

	if _, err := f.coord.CancelBooking(t.Context(), b.ID, "p1"); err != nil {
		t.Fatalf("cancel at deadline: %v", err)
	}
}

func TestCancel_OwnershipWithoutAdminOverride(t *testing.T) {
	f := newFixture(rides(giuRide))

	b := book(t, f, "p1")

	for _, who := range []string{"p2", "admin"} {
		if _, err := f.coord.CancelBooking(t.Context(), b.ID, who); !errors.Is(err, berr.ErrForbidden) {
			t.Fatalf("%s cancel: %v", who, err)
		}
	}
}

func TestCancel_TwiceIsNotFound(t *testing.T) {
	f := newFixture(rides(giuRide))

	b := book(t, f, "p1")

	if _, err := f.coord.CancelBooking(t.Context(), b.ID, "p1"); err != nil {
		t.Fatalf("first cancel: %v", err)
	}

	if _, err := f.coord.CancelBooking(t.Context(), b.ID, "p1"); !errors.Is(err, berr.ErrNotFound) {
		t.Fatalf("second cancel: %v", err)
	}

	if got := f.em.topics(); len(got) != 1 {
		t.Fatalf("want exactly one increase, got %v", got)
	}
}

func TestListings(t *testing.T) {
	f := newFixture(rides(giuRide))

	first := book(t, f, "p1")
	f.clock.now = t0.Add(time.Minute)
	second := book(t, f, "p1")
	book(t, f, "p2")

	mine, err := f.coord.ListMine(t.Context(), "p1")
	if err != nil || len(mine) != 2 || mine[0].ID != second.ID || mine[1].ID != first.ID {
		t.Fatalf("list mine: %+v %v", mine, err)
	}

	if _, err := f.coord.ListMine(t.Context(), "d1"); !errors.Is(err, berr.ErrForbidden) {
		t.Fatalf("driver list mine: %v", err)
	}

	all, err := f.coord.ListAll(t.Context(), "admin")
	if err != nil || len(all) != 3 {
		t.Fatalf("list all: %d %v", len(all), err)
	}

	_, err = f.coord.ListAll(t.Context(), "ghost")
	if !errors.Is(err, berr.ErrForbidden) || err.Error() != "User not found" {
		t.Fatalf("absent admin: %v", err)
	}

	if _, err := f.coord.ListAll(t.Context(), "p1"); !errors.Is(err, berr.ErrForbidden) {
		t.Fatalf("passenger list all: %v", err)
	}
}

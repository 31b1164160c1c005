package booking

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	cbus "github.com/next-trace/scg-rideshare/contract/bus"
	berr "github.com/next-trace/scg-rideshare/contract/errors"
	"github.com/next-trace/scg-rideshare/contract/topics"
	"github.com/next-trace/scg-rideshare/internal/lookup"
)

const msgUserNotFound = "User not found"

// BookInput is a passenger's booking request.
type BookInput struct {
	RideID      string `json:"rideId"`
	PassengerID string `json:"passengerId"`
	Destination string `json:"destination"`
}

// Coordinator runs the booking sagas. It holds no lock: two bookings racing for the
// last seat can both commit, and the seat decrement that follows does not gate either.
type Coordinator struct {
	store   Store
	users   lookup.IdentityLookup
	rides   lookup.InventoryLookup
	emitter cbus.Emitter
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock replaces time.Now, which stamps bookings and checks the cancellation window.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger; nil keeps slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithIDs replaces the booking id generator.
func WithIDs(newID func() string) Option {
	return func(c *Coordinator) {
		if newID != nil {
			c.newID = newID
		}
	}
}

// NewCoordinator builds a Coordinator that commits to store, resolves callers through users
// and rides, and emits follow-up events on em.
func NewCoordinator(store Store, users lookup.IdentityLookup, rides lookup.InventoryLookup, em cbus.Emitter, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:   store,
		users:   users,
		rides:   rides,
		emitter: em,
		logger:  slog.Default(),
		now:     time.Now,
		newID:   uuid.NewString,
	}

	for _, o := range opts {
		o(c)
	}

	return c
}

// PlanBooking runs the remote checks and returns the booking it would create together
// with its plan. Nothing is written.
func (c *Coordinator) PlanBooking(ctx context.Context, in BookInput) (Booking, Plan, error) {
	who := c.users.Lookup(ctx, in.PassengerID)
	if !who.Present() {
		return Booking{}, Plan{}, berr.Forbidden(msgUserNotFound)
	}

	if !who.Has(topics.RolePassenger) {
		return Booking{}, Plan{}, berr.Forbidden("Only passengers can book rides")
	}

	ride, found, err := c.rides.Ride(ctx, in.RideID)
	if err != nil {
		return Booking{}, Plan{}, berr.BadRequest("Ride not found or service unavailable.")
	}

	if !found || ride.AvailableSeats <= 0 {
		return Booking{}, Plan{}, berr.BadRequest("No available seats for this ride.")
	}

	dest := strings.TrimSpace(in.Destination)
	if !strings.EqualFold(strings.TrimSpace(ride.Destination), dest) {
		return Booking{}, Plan{}, berr.BadRequestf("Destination mismatch. This ride goes to %s", ride.Destination)
	}

	b := Booking{
		ID:          c.newID(),
		RideID:      in.RideID,
		PassengerID: in.PassengerID,
		Destination: dest,
		CreatedAt:   c.now().UTC(),
	}

	plan := Plan{
		Commit: func(ctx context.Context) error { return c.store.Create(ctx, b) },
		Effects: []Effect{
			{Topic: topics.RideDecreaseSeat, Payload: b.RideID},
			{Topic: topics.RideBooked, Payload: topics.RideBookedEvent{RideID: b.RideID, PassengerID: b.PassengerID, Destination: b.Destination}},
		},
	}

	return b, plan, nil
}

// BookRide books a seat and returns the stored booking.
func (c *Coordinator) BookRide(ctx context.Context, in BookInput) (Booking, error) {
	b, plan, err := c.PlanBooking(ctx, in)
	if err != nil {
		return Booking{}, err
	}

	if err := plan.Run(ctx, c.emitter, c.logger); err != nil {
		return Booking{}, err
	}

	c.logger.InfoContext(ctx, "booking complete", "booking_id", b.ID, "ride_id", b.RideID, "passenger_id", b.PassengerID)

	return b, nil
}

// PlanCancel checks ownership and the cancellation window. Only the passenger who made
// the booking may cancel it; there is no admin override.
func (c *Coordinator) PlanCancel(ctx context.Context, bookingID, userID string) (Plan, error) {
	b, err := c.store.Get(ctx, bookingID)
	if err != nil {
		return Plan{}, err
	}

	if b == nil {
		return Plan{}, berr.NotFound("Booking not found")
	}

	if b.PassengerID != userID {
		return Plan{}, berr.Forbidden("You can only cancel your own bookings")
	}

	if c.now().After(b.Deadline()) {
		return Plan{}, berr.Forbidden("Cancellation window expired (3 minutes)")
	}

	return Plan{
		Commit: func(ctx context.Context) error {
			deleted, err := c.store.Delete(ctx, bookingID)
			if err != nil {
				return err
			}

			if !deleted {
				return berr.NotFound("Booking not found")
			}

			return nil
		},
		Effects: []Effect{{Topic: topics.RideIncreaseSeat, Payload: b.RideID}},
	}, nil
}

// CancelBooking deletes the booking and returns its seat.
func (c *Coordinator) CancelBooking(ctx context.Context, bookingID, userID string) (string, error) {
	plan, err := c.PlanCancel(ctx, bookingID, userID)
	if err != nil {
		return "", err
	}

	if err := plan.Run(ctx, c.emitter, c.logger); err != nil {
		return "", err
	}

	c.logger.InfoContext(ctx, "booking cancelled", "booking_id", bookingID)

	return "Booking cancelled and seat restored", nil
}

// ListMine returns a passenger's bookings, newest first.
func (c *Coordinator) ListMine(ctx context.Context, userID string) ([]Booking, error) {
	if err := c.require(ctx, userID, topics.RolePassenger, "Only passengers can view their bookings"); err != nil {
		return nil, err
	}

	return c.store.ByPassenger(ctx, userID)
}

// ListAll returns every booking, unordered.
func (c *Coordinator) ListAll(ctx context.Context, userID string) ([]Booking, error) {
	if err := c.require(ctx, userID, topics.RoleAdmin, "Only ADMINS can view bookings"); err != nil {
		return nil, err
	}

	return c.store.All(ctx)
}

func (c *Coordinator) require(ctx context.Context, userID string, role topics.Role, msg string) error {
	who := c.users.Lookup(ctx, userID)
	if !who.Present() {
		return berr.Forbidden(msgUserNotFound)
	}

	if !who.Has(role) {
		return berr.Forbidden(msg)
	}

	return nil
}

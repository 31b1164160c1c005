// Package booking is the booking service. It runs the booking and cancellation sagas:
// remote checks over the bus, one local commit, then fire-and-forget follow-up messages.
package booking

import (
	"context"
	"time"
)

// CancellationWindow is how long after creation a passenger may cancel.
const CancellationWindow = 3 * time.Minute

// Booking is a passenger's seat on a ride. Destination is copied at booking time.
type Booking struct {
	ID          string    `json:"id"`
	RideID      string    `json:"rideId"`
	PassengerID string    `json:"passengerId"`
	Destination string    `json:"destination"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Deadline is the last instant at which b may still be cancelled.
func (b Booking) Deadline() time.Time { return b.CreatedAt.Add(CancellationWindow) }

// Store persists bookings. Get returns nil and no error for unknown ids;
// Delete reports whether a row was removed.
type Store interface {
	Create(ctx context.Context, b Booking) error
	Get(ctx context.Context, id string) (*Booking, error)
	Delete(ctx context.Context, id string) (bool, error)
	ByPassenger(ctx context.Context, passengerID string) ([]Booking, error)
	All(ctx context.Context) ([]Booking, error)
}

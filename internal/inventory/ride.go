// Package inventory is the ride service: it owns ride records and their seat counts,
// and answers ride lookups and seat deltas arriving over the bus.
package inventory

import (
	"context"
	"time"

	"github.com/next-trace/scg-rideshare/contract/topics"
)

// Hub is the location every ride and every search must touch on one side.
const Hub = "GIU"

// Ride is a driver's offer. Origin and Destination are stored upper-cased.
type Ride struct {
	ID             string    `json:"id"`
	DriverID       string    `json:"driverId"`
	Origin         string    `json:"origin"`
	Destination    string    `json:"destination"`
	Date           time.Time `json:"date"`
	AvailableSeats int       `json:"availableSeats"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Snapshot is the view of r shared with the booking service.
func (r Ride) Snapshot() topics.RideSnapshot {
	return topics.RideSnapshot{ID: r.ID, Destination: r.Destination, AvailableSeats: r.AvailableSeats}
}

// Filter selects rides by canonical origin and destination. Empty fields match anything.
type Filter struct {
	Origin      string
	Destination string
}

// Store persists rides. Get returns nil and no error for unknown ids.
//
// DecrementSeat takes one seat only when the ride exists and has one left;
// IncrementSeat adds one seat without an upper bound. Both report whether a row changed.
type Store interface {
	Create(ctx context.Context, r Ride) error
	Get(ctx context.Context, id string) (*Ride, error)
	Search(ctx context.Context, f Filter) ([]Ride, error)
	ByDriver(ctx context.Context, driverID string) ([]Ride, error)
	All(ctx context.Context) ([]Ride, error)
	DecrementSeat(ctx context.Context, id string) (bool, error)
	IncrementSeat(ctx context.Context, id string) (bool, error)
}

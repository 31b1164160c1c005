package lookup

import (
	"context"
	"fmt"
	"log/slog"

	cbus "github.com/next-trace/scg-rideshare/contract/bus"
	"github.com/next-trace/scg-rideshare/contract/topics"
	"github.com/next-trace/scg-rideshare/servicebus"
)

// InventoryLookup fetches the current snapshot of a ride.
// found is false when the ride service answered that the ride does not exist.
type InventoryLookup interface {
	Ride(ctx context.Context, rideID string) (snap topics.RideSnapshot, found bool, err error)
}

// InventoryOverBus asks the ride service on topics.RideGet.
type InventoryOverBus struct {
	requester cbus.Requester
	logger    *slog.Logger
}

var _ InventoryLookup = (*InventoryOverBus)(nil)

// NewInventory returns an InventoryLookup backed by r.
func NewInventory(r cbus.Requester, logger *slog.Logger) *InventoryOverBus {
	if logger == nil {
		logger = slog.Default()
	}

	return &InventoryOverBus{requester: r, logger: logger}
}

func (l *InventoryOverBus) Ride(ctx context.Context, rideID string) (topics.RideSnapshot, bool, error) {
	snap, err := servicebus.Request[string, *topics.RideSnapshot](ctx, l.requester, topics.RideGet, rideID)
	if err != nil {
		l.logger.ErrorContext(ctx, "ride lookup failed", "ride_id", rideID, "err", err)
		return topics.RideSnapshot{}, false, fmt.Errorf("ride lookup %s: %w", rideID, err)
	}

	if snap == nil {
		return topics.RideSnapshot{}, false, nil
	}

	return *snap, true, nil
}

// InventoryFunc adapts a function to InventoryLookup.
type InventoryFunc func(ctx context.Context, rideID string) (topics.RideSnapshot, bool, error)

func (f InventoryFunc) Ride(ctx context.Context, rideID string) (topics.RideSnapshot, bool, error) {
	return f(ctx, rideID)
}

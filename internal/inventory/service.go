package inventory

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	berr "github.com/next-trace/scg-rideshare/contract/errors"
	"github.com/next-trace/scg-rideshare/contract/topics"
	"github.com/next-trace/scg-rideshare/internal/lookup"
)

const msgUserNotFound = "User not found"

// CreateInput is a ride offer as submitted by a driver.
type CreateInput struct {
	DriverID       string    `json:"driverId"`
	Origin         string    `json:"origin"`
	Destination    string    `json:"destination"`
	Date           time.Time `json:"date"`
	AvailableSeats int       `json:"availableSeats"`
}

// Service implements the ride operations.
type Service struct {
	store  Store
	users  lookup.IdentityLookup
	logger *slog.Logger
	now    func() time.Time
}

// NewService wires a Service. A nil logger means slog.Default().
func NewService(store Store, users lookup.IdentityLookup, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{store: store, users: users, logger: logger, now: time.Now}
}

// isHub compares a user supplied location to the hub token.
func isHub(loc string) bool { return strings.EqualFold(strings.TrimSpace(loc), Hub) }

func canonical(loc string) string { return strings.ToUpper(strings.TrimSpace(loc)) }

// Create stores a new ride for a driver. Driver approval is not checked.
func (s *Service) Create(ctx context.Context, in CreateInput) (Ride, error) {
	if !isHub(in.Origin) && !isHub(in.Destination) {
		return Ride{}, berr.BadRequest("Ride must either start from or go to " + Hub + ".")
	}

	if in.Date.IsZero() {
		return Ride{}, berr.BadRequest("Ride date is required")
	}

	if in.AvailableSeats <= 0 {
		return Ride{}, berr.BadRequest("Available seats must be a positive integer")
	}

	who := s.users.Lookup(ctx, in.DriverID)
	if !who.Present() {
		return Ride{}, berr.BadRequest("Driver does not exist")
	}

	if !who.Has(topics.RoleDriver) {
		return Ride{}, berr.BadRequest("Only drivers can create rides")
	}

	r := Ride{
		ID:             uuid.NewString(),
		DriverID:       in.DriverID,
		Origin:         canonical(in.Origin),
		Destination:    canonical(in.Destination),
		Date:           in.Date.UTC(),
		AvailableSeats: in.AvailableSeats,
		CreatedAt:      s.now().UTC(),
	}

	if err := s.store.Create(ctx, r); err != nil {
		return Ride{}, err
	}

	s.logger.InfoContext(ctx, "ride created", "ride_id", r.ID, "driver_id", r.DriverID, "seats", r.AvailableSeats)

	return r, nil
}

// Search lists rides for a passenger. At least one of origin and destination must be
// the hub; empty filters are ignored.
func (s *Service) Search(ctx context.Context, userID, origin, destination string) ([]Ride, error) {
	if err := s.require(ctx, userID, topics.RolePassenger, "Only passengers can perform this action"); err != nil {
		return nil, err
	}

	if !isHub(origin) && !isHub(destination) {
		return nil, berr.BadRequest("You can only search for rides going to or from " + Hub + ".")
	}

	return s.store.Search(ctx, Filter{Origin: canonical(origin), Destination: canonical(destination)})
}

// DriverRides lists the caller's own rides, latest date first.
func (s *Service) DriverRides(ctx context.Context, userID string) ([]Ride, error) {
	if err := s.require(ctx, userID, topics.RoleDriver, "Only drivers can view their rides"); err != nil {
		return nil, err
	}

	return s.store.ByDriver(ctx, userID)
}

// AdminRides lists every ride in no particular order.
func (s *Service) AdminRides(ctx context.Context, userID string) ([]Ride, error) {
	if err := s.require(ctx, userID, topics.RoleAdmin, "Only ADMINS can view rides"); err != nil {
		return nil, err
	}

	return s.store.All(ctx)
}

// Get returns NotFound for unknown rides.
func (s *Service) Get(ctx context.Context, rideID string) (Ride, error) {
	r, err := s.store.Get(ctx, rideID)
	if err != nil {
		return Ride{}, err
	}

	if r == nil {
		return Ride{}, berr.NotFound("Ride not found")
	}

	return *r, nil
}

func (s *Service) require(ctx context.Context, userID string, role topics.Role, msg string) error {
	who := s.users.Lookup(ctx, userID)
	if !who.Present() {
		return berr.Forbidden(msgUserNotFound)
	}

	if !who.Has(role) {
		return berr.Forbidden(msg)
	}

	return nil
}

// Snapshot answers ride.get; unknown rides yield nil.
func (s *Service) Snapshot(ctx context.Context, rideID string) (*topics.RideSnapshot, error) {
	r, err := s.store.Get(ctx, rideID)
	if err != nil || r == nil {
		return nil, err
	}

	snap := r.Snapshot()

	return &snap, nil
}

// DecreaseSeat takes one seat. A missing ride or an empty one is a logged no-op.
func (s *Service) DecreaseSeat(ctx context.Context, rideID string) error {
	changed, err := s.store.DecrementSeat(ctx, rideID)
	if err != nil {
		return err
	}

	if !changed {
		s.logger.WarnContext(ctx, "cannot decrement seats: ride not found or no seats", "ride_id", rideID)
		return nil
	}

	s.logger.InfoContext(ctx, "seat count decremented", "ride_id", rideID)

	return nil
}

// IncreaseSeat returns one seat, without an upper bound. A missing ride is a logged no-op.
func (s *Service) IncreaseSeat(ctx context.Context, rideID string) error {
	changed, err := s.store.IncrementSeat(ctx, rideID)
	if err != nil {
		return err
	}

	if !changed {
		s.logger.WarnContext(ctx, "cannot increment seats: ride not found", "ride_id", rideID)
		return nil
	}

	s.logger.InfoContext(ctx, "seat count incremented", "ride_id", rideID)

	return nil
}

// ObserveBooked records booking notifications. Nothing depends on it.
func (s *Service) ObserveBooked(ctx context.Context, ev topics.RideBookedEvent) error {
	s.logger.InfoContext(ctx, "ride booked", "ride_id", ev.RideID, "passenger_id", ev.PassengerID, "destination", ev.Destination)
	return nil
}

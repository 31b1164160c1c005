package inventory

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps rides in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	rides map[string]Ride
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore { return &MemoryStore{rides: map[string]Ride{}} }

func (s *MemoryStore) Create(_ context.Context, r Ride) error {
	s.mu.Lock()
	s.rides[r.ID] = r
	s.mu.Unlock()

	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Ride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rides[id]
	if !ok {
		return nil, nil
	}

	return &r, nil
}

// Search orders matches by date, earliest first.
func (s *MemoryStore) Search(_ context.Context, f Filter) ([]Ride, error) {
	out := s.collect(func(r Ride) bool {
		return (f.Origin == "" || r.Origin == f.Origin) && (f.Destination == "" || r.Destination == f.Destination)
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	return out, nil
}

// ByDriver orders the driver's rides by date, latest first.
func (s *MemoryStore) ByDriver(_ context.Context, driverID string) ([]Ride, error) {
	out := s.collect(func(r Ride) bool { return r.DriverID == driverID })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })

	return out, nil
}

func (s *MemoryStore) All(_ context.Context) ([]Ride, error) {
	return s.collect(func(Ride) bool { return true }), nil
}

func (s *MemoryStore) DecrementSeat(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rides[id]
	if !ok || r.AvailableSeats <= 0 {
		return false, nil
	}

	r.AvailableSeats--
	s.rides[id] = r

	return true, nil
}

func (s *MemoryStore) IncrementSeat(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rides[id]
	if !ok {
		return false, nil
	}

	r.AvailableSeats++
	s.rides[id] = r

	return true, nil
}

func (s *MemoryStore) collect(keep func(Ride) bool) []Ride {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Ride, 0, len(s.rides))
	for _, r := range s.rides {
		if keep(r) {
			out = append(out, r)
		}
	}

	return out
}

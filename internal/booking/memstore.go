package booking

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps bookings in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	bookings map[string]Booking
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore { return &MemoryStore{bookings: map[string]Booking{}} }

func (s *MemoryStore) Create(_ context.Context, b Booking) error {
	s.mu.Lock()
	s.bookings[b.ID] = b
	s.mu.Unlock()

	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, nil
	}

	return &b, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bookings[id]; !ok {
		return false, nil
	}

	delete(s.bookings, id)

	return true, nil
}

// ByPassenger returns newest first.
func (s *MemoryStore) ByPassenger(_ context.Context, passengerID string) ([]Booking, error) {
	s.mu.RLock()
	out := make([]Booking, 0)
	for _, b := range s.bookings {
		if b.PassengerID == passengerID {
			out = append(out, b)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	return out, nil
}

func (s *MemoryStore) All(_ context.Context) ([]Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		out = append(out, b)
	}

	return out, nil
}

package inventory

import (
	"errors"

	"github.com/next-trace/scg-rideshare/contract/topics"
	"github.com/next-trace/scg-rideshare/servicebus"
)

// Bind registers the ride responders and seat delta handlers on b.
func (s *Service) Bind(b *servicebus.Bus) error {
	return errors.Join(
		servicebus.BindRequest[string, *topics.RideSnapshot](b, topics.RideGet,
			servicebus.RequestFunc[string, *topics.RideSnapshot](s.Snapshot)),
		servicebus.BindEvent[string](b, topics.RideDecreaseSeat, servicebus.EventFunc[string](s.DecreaseSeat)),
		servicebus.BindEvent[string](b, topics.RideIncreaseSeat, servicebus.EventFunc[string](s.IncreaseSeat)),
		servicebus.BindEvent[topics.RideBookedEvent](b, topics.RideBooked,
			servicebus.EventFunc[topics.RideBookedEvent](s.ObserveBooked)),
	)
}

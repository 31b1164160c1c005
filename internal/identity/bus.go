package identity

import (
	"github.com/next-trace/scg-rideshare/contract/topics"
	"github.com/next-trace/scg-rideshare/servicebus"
)

// Bind registers the identity responders on b.
func (s *Service) Bind(b *servicebus.Bus) error {
	return servicebus.BindRequest[string, topics.UserExistsReply](b, topics.UserExists,
		servicebus.RequestFunc[string, topics.UserExistsReply](s.Exists))
}

package bus

import "context"

// DeliveryFunc receives a raw envelope from a Transport.
// Implementations must be safe for concurrent use by multiple goroutines.
type DeliveryFunc func(ctx context.Context, env Envelope)

// RequestHandler answers requests of type Req with a reply of type Res.
// Implementations must be safe for concurrent use by multiple goroutines.
type RequestHandler[Req, Res any] interface {
	Handle(ctx context.Context, req Req) (Res, error)
}

// EventHandler consumes fire-and-forget events of type E.
// Errors are logged by the bus; there is no channel back to the emitter.
type EventHandler[E any] interface {
	Handle(ctx context.Context, e E) error
}

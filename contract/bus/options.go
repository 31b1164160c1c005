package bus

import "time"

// DefaultRequestTimeout bounds every request/reply round trip.
const DefaultRequestTimeout = 5 * time.Second

// Well-known header keys.
const (
	HeaderRequestID = "x-request-id"
	HeaderSender    = "x-sender"
)

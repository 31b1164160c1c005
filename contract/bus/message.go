package bus

import (
	"encoding/json"
	"time"
)

// Envelope is the unit carried on every topic. Requests set ReplyTo and CorrelationID;
// replies echo CorrelationID and carry either Payload or Error.
type Envelope struct {
	ID            string            `json:"id"`
	Topic         string            `json:"topic"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	ReplyTo       string            `json:"reply_to,omitempty"`
	Headers       map[string]string `json:"headers,omitempty"`
	Payload       json.RawMessage   `json:"payload,omitempty"`
	Error         *ReplyError       `json:"error,omitempty"`
	SentAt        time.Time         `json:"sent_at"`
}

// IsRequest reports whether the sender waits for a reply.
func (e Envelope) IsRequest() bool { return e.ReplyTo != "" }

// ReplyError is a handler failure shipped back to the requester.
// Code is one of the stable codes in contract/errors.
type ReplyError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

package servicebus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	cbus "github.com/next-trace/scg-rideshare/contract/bus"
	berr "github.com/next-trace/scg-rideshare/contract/errors"
)

// BindRequest registers a typed handler for requests on topic.
func BindRequest[Req, Res any](b *Bus, topic string, h cbus.RequestHandler[Req, Res]) error {
	return b.HandleRequest(topic, func(ctx context.Context, payload json.RawMessage) (any, error) {
		var req Req
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, fmt.Errorf("decode %s: %w", topic, errors.Join(berr.ErrSerializationFailed, err))
		}

		return h.Handle(ctx, req)
	})
}

// BindEvent registers a typed handler for fire-and-forget events on topic.
func BindEvent[E any](b *Bus, topic string, h cbus.EventHandler[E]) error {
	return b.HandleEvent(topic, func(ctx context.Context, payload json.RawMessage) error {
		var e E
		if err := json.Unmarshal(payload, &e); err != nil {
			return fmt.Errorf("decode %s: %w", topic, errors.Join(berr.ErrSerializationFailed, err))
		}

		return h.Handle(ctx, e)
	})
}

// Request sends req on topic and decodes the reply into Res.
func Request[Req, Res any](ctx context.Context, r cbus.Requester, topic string, req Req) (Res, error) {
	var zero Res

	raw, err := r.Send(ctx, topic, req)
	if err != nil {
		return zero, err
	}

	var res Res
	if err := json.Unmarshal(raw, &res); err != nil {
		return zero, fmt.Errorf("decode reply %s: %w", topic, errors.Join(berr.ErrSerializationFailed, err))
	}

	return res, nil
}

// RequestFunc adapts a function to cbus.RequestHandler.
type RequestFunc[Req, Res any] func(ctx context.Context, req Req) (Res, error)

func (f RequestFunc[Req, Res]) Handle(ctx context.Context, req Req) (Res, error) { return f(ctx, req) }

// EventFunc adapts a function to cbus.EventHandler.
type EventFunc[E any] func(ctx context.Context, e E) error

func (f EventFunc[E]) Handle(ctx context.Context, e E) error { return f(ctx, e) }

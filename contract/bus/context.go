package bus

import "context"

// Context is re-exported for convenience in handler signatures.
type Context = context.Context

// HeaderPropagator copies context values into outgoing envelope headers and
// restores them on the receiving side.
// Implementations must be safe for concurrent use.
type HeaderPropagator interface {
	Inject(ctx context.Context, headers map[string]string)
	Extract(ctx context.Context, headers map[string]string) context.Context
}

// NopHeaderPropagator is a no-op implementation useful for tests or when tracing is disabled.
type NopHeaderPropagator struct{}

func (NopHeaderPropagator) Inject(ctx context.Context, headers map[string]string) {
	_ = ctx
	_ = headers
}

func (NopHeaderPropagator) Extract(ctx context.Context, headers map[string]string) context.Context {
	_ = headers
	return ctx
}

type requestIDKey struct{}

// WithRequestID stores a request id on ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request id stored on ctx, or "".
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}

	return ""
}

// RequestIDPropagator carries the request id across the bus under HeaderRequestID.
type RequestIDPropagator struct{}

func (RequestIDPropagator) Inject(ctx context.Context, headers map[string]string) {
	if id := RequestID(ctx); id != "" {
		headers[HeaderRequestID] = id
	}
}

func (RequestIDPropagator) Extract(ctx context.Context, headers map[string]string) context.Context {
	if id := headers[HeaderRequestID]; id != "" {
		return WithRequestID(ctx, id)
	}

	return ctx
}

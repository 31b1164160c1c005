package servicebus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	cbus "github.com/next-trace/scg-rideshare/contract/bus"
)

// Logging logs every handled envelope at debug level and failures at warn.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next Handler) Handler {
		return func(ctx context.Context, env cbus.Envelope) (any, error) {
			start := time.Now()
			res, err := next(ctx, env)

			attrs := []any{
				"topic", env.Topic,
				"id", env.ID,
				"request_id", cbus.RequestID(ctx),
				"elapsed", time.Since(start),
			}
			if err != nil {
				logger.WarnContext(ctx, "handler failed", append(attrs, "err", err)...)
			} else {
				logger.DebugContext(ctx, "handled", attrs...)
			}

			return res, err
		}
	}
}

// Recover turns a handler panic into an error so one bad message cannot stop a consumer.
func Recover(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next Handler) Handler {
		return func(ctx context.Context, env cbus.Envelope) (res any, err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.ErrorContext(ctx, "handler panic", "topic", env.Topic, "panic", r)
					err = fmt.Errorf("handler %s panicked: %v", env.Topic, r)
				}
			}()

			return next(ctx, env)
		}
	}
}

package booking

import (
	"context"
	"log/slog"

	cbus "github.com/next-trace/scg-rideshare/contract/bus"
)

// Effect is a fire-and-forget message sent after a commit.
type Effect struct {
	Topic   string
	Payload any
}

// Plan is a validated saga: one local commit and the effects that follow it.
// Effects are data so callers can inspect them before or instead of running them.
type Plan struct {
	Commit  func(ctx context.Context) error
	Effects []Effect
}

// Run applies the commit and, only if it succeeds, emits every effect in order.
// Emit failures are logged and otherwise dropped; the commit is not undone.
func (p Plan) Run(ctx context.Context, em cbus.Emitter, logger *slog.Logger) error {
	if err := p.Commit(ctx); err != nil {
		return err
	}

	for _, e := range p.Effects {
		if err := em.Emit(ctx, e.Topic, e.Payload); err != nil {
			logger.ErrorContext(ctx, "post-commit emit failed", "topic", e.Topic, "err", err)
		}
	}

	return nil
}

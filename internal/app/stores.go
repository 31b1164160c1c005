package app

import (
	"context"
	"fmt"

	"github.com/next-trace/scg-rideshare/internal/booking"
	"github.com/next-trace/scg-rideshare/internal/config"
	"github.com/next-trace/scg-rideshare/internal/identity"
	"github.com/next-trace/scg-rideshare/internal/inventory"
	"github.com/next-trace/scg-rideshare/internal/postgres"
)

// openStores connects the durable backends the hosted services need:
// Redis for identity, Postgres for rides and bookings.
func (a *App) openStores(ctx context.Context) error {
	if a.cfg.Store != config.StoreDurable {
		return nil
	}

	if a.cfg.Runs(config.ServiceIdentity) {
		rdb, err := identity.OpenRedis(ctx, a.cfg.Redis.URL)
		if err != nil {
			return err
		}

		a.rdb = rdb
		a.closers = append(a.closers, func() { _ = rdb.Close() })
	}

	var schema []string
	if a.cfg.Runs(config.ServiceInventory) {
		schema = append(schema, inventory.Schema...)
	}

	if a.cfg.Runs(config.ServiceBooking) {
		schema = append(schema, booking.Schema...)
	}

	if len(schema) == 0 {
		return nil
	}

	pool, err := postgres.Connect(ctx, a.cfg.Postgres.URL)
	if err != nil {
		return err
	}

	a.pool = pool
	a.closers = append(a.closers, pool.Close)

	if err := postgres.Migrate(ctx, pool, schema...); err != nil {
		return fmt.Errorf("schema: %w", err)
	}

	return nil
}

func (a *App) userStore() identity.Store {
	if a.rdb != nil {
		return identity.NewRedisStore(a.rdb, "")
	}

	return identity.NewMemoryStore()
}

func (a *App) rideStore() inventory.Store {
	if a.pool != nil {
		return inventory.NewPostgresStore(a.pool)
	}

	return inventory.NewMemoryStore()
}

func (a *App) bookingStore() booking.Store {
	if a.pool != nil {
		return booking.NewPostgresStore(a.pool)
	}

	return booking.NewMemoryStore()
}

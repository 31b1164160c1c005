// Package app assembles a rideshare process: one bus endpoint per hosted service on a
// shared transport, the record stores and the HTTP front doors.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	cbus "github.com/next-trace/scg-rideshare/contract/bus"
	"github.com/next-trace/scg-rideshare/internal/booking"
	"github.com/next-trace/scg-rideshare/internal/config"
	"github.com/next-trace/scg-rideshare/internal/httpapi"
	"github.com/next-trace/scg-rideshare/internal/identity"
	"github.com/next-trace/scg-rideshare/internal/inventory"
	"github.com/next-trace/scg-rideshare/internal/lookup"
	"github.com/next-trace/scg-rideshare/servicebus"
)

const shutdownTimeout = 10 * time.Second

// App is a running process. Close releases everything New acquired.
type App struct {
	cfg    config.Config
	logger *slog.Logger
	engine *gin.Engine

	buses   []*servicebus.Bus
	closers []func()

	pool *pgxpool.Pool
	rdb  *redis.Client
}

// New connects the transport and stores and binds every hosted service.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (_ *App, err error) {
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{cfg: cfg, logger: logger}

	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	transport, cleanup, err := openTransport(cfg, logger)
	if err != nil {
		return nil, err
	}

	a.closers = append(a.closers, cleanup)

	if err := a.openStores(ctx); err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	a.engine = httpapi.NewEngine()

	for _, name := range []string{config.ServiceIdentity, config.ServiceInventory, config.ServiceBooking} {
		if !cfg.Runs(name) {
			continue
		}

		b, err := a.join(name, transport)
		if err != nil {
			return nil, err
		}

		if err := a.mount(name, b); err != nil {
			return nil, fmt.Errorf("start %s: %w", name, err)
		}

		logger.InfoContext(ctx, "service started", "service", name, "transport", cfg.Transport, "store", cfg.Store)
	}

	return a, nil
}

// Handler is the combined HTTP front door of every hosted service.
func (a *App) Handler() http.Handler { return a.engine }

func (a *App) join(name string, t cbus.Transport) (*servicebus.Bus, error) {
	b, err := servicebus.New(name, t,
		servicebus.WithLogger(a.logger.With("service", name)),
		servicebus.WithPropagator(cbus.RequestIDPropagator{}),
		servicebus.WithMiddleware(servicebus.Recover(a.logger), servicebus.Logging(a.logger)),
	)
	if err != nil {
		return nil, fmt.Errorf("join %s: %w", name, err)
	}

	a.buses = append(a.buses, b)

	return b, nil
}

func (a *App) mount(name string, b *servicebus.Bus) error {
	logger := a.logger.With("service", name)

	switch name {
	case config.ServiceIdentity:
		svc := identity.NewService(a.userStore(), logger)
		svc.Routes(a.engine)

		return svc.Bind(b)

	case config.ServiceInventory:
		svc := inventory.NewService(a.rideStore(), lookup.NewIdentity(b, logger), logger)
		svc.Routes(a.engine)

		return svc.Bind(b)

	case config.ServiceBooking:
		coord := booking.NewCoordinator(a.bookingStore(),
			lookup.NewIdentity(b, logger), lookup.NewInventory(b, logger), b,
			booking.WithLogger(logger))
		coord.Routes(a.engine)

		return nil
	}

	return fmt.Errorf("unknown service %q", name)
}

// Run serves HTTP until ctx is done, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           a.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http listening", "addr", srv.Addr)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.logger.Info("shutting down")

	return srv.Shutdown(shutdownCtx)
}

// Close stops the buses first so no handler runs against a closed store.
func (a *App) Close() {
	for _, b := range a.buses {
		if err := b.Close(); err != nil {
			a.logger.Warn("bus close", "bus", b.Name(), "err", err)
		}
	}

	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}

	a.buses, a.closers = nil, nil
}

package booking_test

import (
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/next-trace/scg-rideshare/internal/booking"
	"github.com/next-trace/scg-rideshare/internal/postgres"
)

func exerciseStore(t *testing.T, s booking.Store) {
	t.Helper()

	ctx := t.Context()
	passenger := uuid.NewString()

	older := booking.Booking{ID: uuid.NewString(), RideID: "r1", PassengerID: passenger, Destination: "GIU", CreatedAt: t0}
	newer := older
	newer.ID = uuid.NewString()
	newer.CreatedAt = t0.Add(time.Minute)

	for _, b := range []booking.Booking{older, newer} {
		if err := s.Create(ctx, b); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	mine, err := s.ByPassenger(ctx, passenger)
	if err != nil || len(mine) != 2 || mine[0].ID != newer.ID {
		t.Fatalf("by passenger: %+v %v", mine, err)
	}

	got, err := s.Get(ctx, older.ID)
	if err != nil || got == nil || !got.CreatedAt.Equal(t0) {
		t.Fatalf("get: %+v %v", got, err)
	}

	if ok, err := s.Delete(ctx, older.ID); !ok || err != nil {
		t.Fatalf("delete: %v %v", ok, err)
	}

	if ok, err := s.Delete(ctx, older.ID); ok || err != nil {
		t.Fatalf("second delete: %v %v", ok, err)
	}

	if got, err := s.Get(ctx, older.ID); got != nil || err != nil {
		t.Fatalf("get deleted: %+v %v", got, err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, booking.NewMemoryStore())
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("RIDESHARE_TEST_POSTGRES_URL")
	if dsn == "" {
		t.Skip("RIDESHARE_TEST_POSTGRES_URL not set")
	}

	pool, err := postgres.Connect(t.Context(), dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(t.Context(), pool, booking.Schema...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	exerciseStore(t, booking.NewPostgresStore(pool))
}

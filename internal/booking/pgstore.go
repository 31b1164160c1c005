package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/next-trace/scg-rideshare/internal/postgres"
)

// Schema creates the bookings table. ride_id and passenger_id reference records owned
// by other services and carry no foreign keys.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS bookings (
		id           TEXT PRIMARY KEY,
		ride_id      TEXT NOT NULL,
		passenger_id TEXT NOT NULL,
		destination  TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS bookings_passenger_id_idx ON bookings (passenger_id, created_at DESC)`,
}

const bookingColumns = `id, ride_id, passenger_id, destination, created_at`

// PostgresStore keeps bookings in Postgres.
type PostgresStore struct {
	db postgres.DB
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(db postgres.DB) *PostgresStore { return &PostgresStore{db: db} }

func (s *PostgresStore) Create(ctx context.Context, b Booking) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES ($1, $2, $3, $4, $5)`,
		b.ID, b.RideID, b.PassengerID, b.Destination, b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert booking failed: %w", err)
	}

	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Booking, error) {
	rows, err := s.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get booking %s: %w", id, err)
	}

	b, err := pgx.CollectExactlyOneRow(rows, scanBooking)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("get booking %s: %w", id, err)
	}

	return &b, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete booking %s: %w", id, err)
	}

	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) ByPassenger(ctx context.Context, passengerID string) ([]Booking, error) {
	return s.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE passenger_id = $1 ORDER BY created_at DESC`, passengerID)
}

func (s *PostgresStore) All(ctx context.Context) ([]Booking, error) {
	return s.list(ctx, `SELECT `+bookingColumns+` FROM bookings`)
}

func (s *PostgresStore) list(ctx context.Context, sql string, args ...any) ([]Booking, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	out, err := pgx.CollectRows(rows, scanBooking)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	return out, nil
}

func scanBooking(row pgx.CollectableRow) (Booking, error) {
	var b Booking
	err := row.Scan(&b.ID, &b.RideID, &b.PassengerID, &b.Destination, &b.CreatedAt)

	return b, err
}

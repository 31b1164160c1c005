package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/next-trace/scg-rideshare/internal/postgres"
)

// Schema creates the rides table.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS rides (
		id              TEXT PRIMARY KEY,
		driver_id       TEXT NOT NULL,
		origin          TEXT NOT NULL,
		destination     TEXT NOT NULL,
		date            TIMESTAMPTZ NOT NULL,
		available_seats INTEGER NOT NULL CHECK (available_seats >= 0),
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS rides_driver_id_idx ON rides (driver_id)`,
	`CREATE INDEX IF NOT EXISTS rides_route_idx ON rides (origin, destination)`,
}

const rideColumns = `id, driver_id, origin, destination, date, available_seats, created_at`

// PostgresStore keeps rides in Postgres.
type PostgresStore struct {
	db postgres.DB
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(db postgres.DB) *PostgresStore { return &PostgresStore{db: db} }

func (s *PostgresStore) Create(ctx context.Context, r Ride) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO rides (`+rideColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.ID, r.DriverID, r.Origin, r.Destination, r.Date, r.AvailableSeats, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ride failed: %w", err)
	}

	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Ride, error) {
	rows, err := s.db.Query(ctx, `SELECT `+rideColumns+` FROM rides WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get ride %s: %w", id, err)
	}

	r, err := pgx.CollectExactlyOneRow(rows, scanRide)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("get ride %s: %w", id, err)
	}

	return &r, nil
}

func (s *PostgresStore) Search(ctx context.Context, f Filter) ([]Ride, error) {
	return s.list(ctx, `
		SELECT `+rideColumns+` FROM rides
		WHERE ($1::text = '' OR origin = $1) AND ($2::text = '' OR destination = $2)
		ORDER BY date ASC`, f.Origin, f.Destination)
}

func (s *PostgresStore) ByDriver(ctx context.Context, driverID string) ([]Ride, error) {
	return s.list(ctx, `SELECT `+rideColumns+` FROM rides WHERE driver_id = $1 ORDER BY date DESC`, driverID)
}

func (s *PostgresStore) All(ctx context.Context) ([]Ride, error) {
	return s.list(ctx, `SELECT `+rideColumns+` FROM rides`)
}

// DecrementSeat is a single conditional update, so the count cannot go below zero.
func (s *PostgresStore) DecrementSeat(ctx context.Context, id string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE rides SET available_seats = available_seats - 1
		WHERE id = $1 AND available_seats > 0`, id)
	if err != nil {
		return false, fmt.Errorf("decrement seat %s: %w", id, err)
	}

	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) IncrementSeat(ctx context.Context, id string) (bool, error) {
	tag, err := s.db.Exec(ctx, `UPDATE rides SET available_seats = available_seats + 1 WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("increment seat %s: %w", id, err)
	}

	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) list(ctx context.Context, sql string, args ...any) ([]Ride, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list rides: %w", err)
	}

	out, err := pgx.CollectRows(rows, scanRide)
	if err != nil {
		return nil, fmt.Errorf("list rides: %w", err)
	}

	return out, nil
}

func scanRide(row pgx.CollectableRow) (Ride, error) {
	var r Ride
	err := row.Scan(&r.ID, &r.DriverID, &r.Origin, &r.Destination, &r.Date, &r.AvailableSeats, &r.CreatedAt)

	return r, err
}

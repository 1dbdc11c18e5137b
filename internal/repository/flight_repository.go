package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/flight-booking/internal/model"
)

// ErrFlightNotFound is returned when a flight cannot be located.
var ErrFlightNotFound = errors.New("flight not found")

// ErrFlightFull is returned when the available-seat counter is already zero.
var ErrFlightFull = errors.New("no seats left on flight")

const flightColumns = `id, flight_number, airline, aircraft, origin, destination,
	departure_time, arrival_time, duration_minutes, base_price,
	total_seats, available_seats, status, gate, created_at, updated_at`

// FlightRepo provides CRUD operations on flights and maintains the
// available_seats aggregate.
type FlightRepo struct {
	db *sql.DB
}

func NewFlightRepo(db *sql.DB) *FlightRepo { return &FlightRepo{db: db} }

// DB exposes the underlying handle so services can open transactions.
func (r *FlightRepo) DB() *sql.DB { return r.db }

// flightRow holds the scan destinations of one flights row.
type flightRow struct {
	f    model.Flight
	gate sql.NullString
}

func (fr *flightRow) dest() []any {
	f := &fr.f
	return []any{&f.ID, &f.FlightNumber, &f.Airline, &f.Aircraft, &f.Origin, &f.Destination,
		&f.DepartureTime, &f.ArrivalTime, &f.DurationMinutes, &f.BasePrice,
		&f.TotalSeats, &f.AvailableSeats, &f.Status, &fr.gate, &f.CreatedAt, &f.UpdatedAt}
}

func (fr *flightRow) flight() model.Flight {
	fr.f.Gate = stringPtr(fr.gate)
	return fr.f
}

func scanFlight(s rowScanner) (model.Flight, error) {
	var fr flightRow
	if err := s.Scan(fr.dest()...); err != nil {
		return model.Flight{}, err
	}
	return fr.flight(), nil
}

func (r *FlightRepo) getByID(ctx context.Context, q querier, id uint64) (model.Flight, error) {
	f, err := scanFlight(q.QueryRowContext(ctx, "SELECT "+flightColumns+" FROM flights WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Flight{}, ErrFlightNotFound
	}
	return f, err
}

// GetByID returns a flight by primary key.
func (r *FlightRepo) GetByID(ctx context.Context, id uint64) (model.Flight, error) {
	return r.getByID(ctx, r.db, id)
}

// GetByIDTx is GetByID inside tx.
func (r *FlightRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Flight, error) {
	return r.getByID(ctx, tx, id)
}

// ListUpcoming returns flights departing after now, soonest first.
func (r *FlightRepo) ListUpcoming(ctx context.Context, now time.Time) ([]model.Flight, error) {
	return r.list(ctx, "SELECT "+flightColumns+" FROM flights WHERE departure_time > ? ORDER BY departure_time ASC, id ASC", now.UTC())
}

// FlightSearchQuery filters flights by route and optional departure day.
// Origin and Destination match case-insensitively as substrings.
type FlightSearchQuery struct {
	Origin      string
	Destination string
	Date        *time.Time // UTC midnight of the departure day
}

// Search returns flights matching q ordered by departure time.
func (r *FlightRepo) Search(ctx context.Context, q FlightSearchQuery) ([]model.Flight, error) {
	where := []string{"LOWER(origin) LIKE ?", "LOWER(destination) LIKE ?"}
	args := []any{
		"%" + strings.ToLower(strings.TrimSpace(q.Origin)) + "%",
		"%" + strings.ToLower(strings.TrimSpace(q.Destination)) + "%",
	}
	if q.Date != nil {
		day := q.Date.UTC().Truncate(24 * time.Hour)
		where = append(where, "departure_time >= ?", "departure_time < ?")
		args = append(args, day, day.Add(24*time.Hour))
	}
	query := "SELECT " + flightColumns + " FROM flights WHERE " + strings.Join(where, " AND ") +
		" ORDER BY departure_time ASC, id ASC"
	return r.list(ctx, query, args...)
}

func (r *FlightRepo) list(ctx context.Context, query string, args ...any) ([]model.Flight, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Flight{}
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// CreateTx inserts f inside tx and sets f.ID.  TotalSeats and
// AvailableSeats must already reflect the seat map that will be created in
// the same transaction.
func (r *FlightRepo) CreateTx(ctx context.Context, tx *sql.Tx, f *model.Flight) error {
	res, err := tx.ExecContext(ctx, `INSERT INTO flights
		(flight_number, airline, aircraft, origin, destination, departure_time, arrival_time,
		 duration_minutes, base_price, total_seats, available_seats, status, gate)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		f.FlightNumber, f.Airline, f.Aircraft, f.Origin, f.Destination,
		f.DepartureTime.UTC(), f.ArrivalTime.UTC(), f.DurationMinutes, f.BasePrice,
		f.TotalSeats, f.AvailableSeats, f.Status, nullString(f.Gate))
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = uint64(id)
	return nil
}

// Update writes the schedule, price and operational fields of f.  Seat
// counters are never touched here.
func (r *FlightRepo) Update(ctx context.Context, f model.Flight) error {
	res, err := r.db.ExecContext(ctx, `UPDATE flights SET
		flight_number = ?, airline = ?, aircraft = ?, origin = ?, destination = ?,
		departure_time = ?, arrival_time = ?, duration_minutes = ?, base_price = ?,
		status = ?, gate = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		f.FlightNumber, f.Airline, f.Aircraft, f.Origin, f.Destination,
		f.DepartureTime.UTC(), f.ArrivalTime.UTC(), f.DurationMinutes, f.BasePrice,
		f.Status, nullString(f.Gate), f.ID)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, f.ID); err != nil {
			return err
		}
	}
	return nil
}

// DeleteTx removes a flight and its seats.  Callers must have checked that
// no ticket references the flight.
func (r *FlightRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM seats WHERE flight_id = ?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM flights WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrFlightNotFound
	}
	return nil
}

// TakeSeatTx decrements available_seats by one.  It fails with
// ErrFlightFull rather than letting the counter go negative.
func (r *FlightRepo) TakeSeatTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE flights SET available_seats = available_seats - 1, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND available_seats > 0",
		id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.getByID(ctx, tx, id); err != nil {
			return err
		}
		return ErrFlightFull
	}
	return nil
}

// ReturnSeatTx increments available_seats by one, capped at total_seats.
func (r *FlightRepo) ReturnSeatTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE flights SET available_seats = available_seats + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND available_seats < total_seats",
		id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.getByID(ctx, tx, id); err != nil {
			return err
		}
		return ErrStaleState
	}
	return nil
}

// SetAvailableSeatsTx overwrites the counter; used by reconciliation.
func (r *FlightRepo) SetAvailableSeatsTx(ctx context.Context, tx *sql.Tx, id uint64, n int) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE flights SET available_seats = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", n, id)
	return err
}

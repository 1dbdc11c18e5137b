package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/flight-booking/internal/model"
)

// ErrSeatNotFound is returned when a seat does not exist on the flight.
var ErrSeatNotFound = errors.New("seat not found")

// ErrSeatTaken is returned when a reservation loses the race for a seat.
var ErrSeatTaken = errors.New("seat already taken")

// SeatRepo encapsulates database operations for seats.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo given a DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

const seatColumns = "id, flight_id, seat_number, seat_class, price_delta, is_available"

func scanSeat(s rowScanner) (model.Seat, error) {
	var st model.Seat
	err := s.Scan(&st.ID, &st.FlightID, &st.SeatNumber, &st.SeatClass, &st.PriceDelta, &st.IsAvailable)
	return st, err
}

// ListByFlight returns every seat of a flight in insertion order, which is
// row-major for maps built by CreateBulkTx.
func (r *SeatRepo) ListByFlight(ctx context.Context, flightID uint64) ([]model.Seat, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+seatColumns+" FROM seats WHERE flight_id = ? ORDER BY id ASC", flightID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Seat{}
	for rows.Next() {
		st, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (r *SeatRepo) get(ctx context.Context, q querier, flightID uint64, seatNumber string) (model.Seat, error) {
	st, err := scanSeat(q.QueryRowContext(ctx,
		"SELECT "+seatColumns+" FROM seats WHERE flight_id = ? AND seat_number = ?",
		flightID, seatNumber))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Seat{}, ErrSeatNotFound
	}
	return st, err
}

// Get returns a single seat of a flight.
func (r *SeatRepo) Get(ctx context.Context, flightID uint64, seatNumber string) (model.Seat, error) {
	return r.get(ctx, r.db, flightID, seatNumber)
}

// GetTx is Get inside tx.
func (r *SeatRepo) GetTx(ctx context.Context, tx *sql.Tx, flightID uint64, seatNumber string) (model.Seat, error) {
	return r.get(ctx, tx, flightID, seatNumber)
}

// SetAvailabilityTx sets is_available on one seat unconditionally.  It does
// not touch flights.available_seats; the caller adjusts the counter in the
// same transaction.
func (r *SeatRepo) SetAvailabilityTx(ctx context.Context, tx *sql.Tx, flightID uint64, seatNumber string, available bool) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE seats SET is_available = ? WHERE flight_id = ? AND seat_number = ?",
		available, flightID, seatNumber)
	if err != nil {
		return err
	}
	// MySQL reports zero affected rows when the value did not change
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.get(ctx, tx, flightID, seatNumber); err != nil {
			return err
		}
	}
	return nil
}

// ReserveTx flips a seat from available to taken with a conditional
// update.  Exactly one of several concurrent callers for the same seat
// succeeds; the others get ErrSeatTaken.
func (r *SeatRepo) ReserveTx(ctx context.Context, tx *sql.Tx, flightID uint64, seatNumber string) error {
	return r.swap(ctx, tx, flightID, seatNumber, true, false, ErrSeatTaken)
}

// ReleaseTx flips a seat from taken back to available.  ErrStaleState means
// the seat was already free.
func (r *SeatRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, flightID uint64, seatNumber string) error {
	return r.swap(ctx, tx, flightID, seatNumber, false, true, ErrStaleState)
}

func (r *SeatRepo) swap(ctx context.Context, tx *sql.Tx, flightID uint64, seatNumber string, from, to bool, lost error) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE seats SET is_available = ? WHERE flight_id = ? AND seat_number = ? AND is_available = ?",
		to, flightID, seatNumber, from)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	if _, err := r.get(ctx, tx, flightID, seatNumber); err != nil {
		return err
	}
	return lost
}

// CreateBulkTx inserts seats in one multi-row statement.  The ID fields of
// the passed values are not populated.
func (r *SeatRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString("INSERT INTO seats (flight_id, seat_number, seat_class, price_delta, is_available) VALUES ")
	args := make([]any, 0, len(seats)*5)
	for i, st := range seats {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?, ?, ?, ?, ?)")
		args = append(args, st.FlightID, st.SeatNumber, st.SeatClass, st.PriceDelta, st.IsAvailable)
	}
	if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("seat map: %w", ErrDuplicate)
		}
		return err
	}
	return nil
}

// CountAvailableTx counts seats currently marked available on a flight.
func (r *SeatRepo) CountAvailableTx(ctx context.Context, tx *sql.Tx, flightID uint64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM seats WHERE flight_id = ? AND is_available = 1", flightID).Scan(&n)
	return n, err
}

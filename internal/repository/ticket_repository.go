package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/flight-booking/internal/model"
)

// ErrTicketNotFound is returned when a ticket cannot be located.
var ErrTicketNotFound = errors.New("ticket not found")

const ticketColumns = `t.id, t.ticket_number, t.flight_id, t.passenger_id, t.user_id,
	t.seat_number, t.seat_class, t.booking_reference, t.price, t.status, t.checked_in,
	t.created_at, t.updated_at`

const ticketDetailSelect = "SELECT " + ticketColumns + `,
	f.id, f.flight_number, f.airline, f.aircraft, f.origin, f.destination,
	f.departure_time, f.arrival_time, f.duration_minutes, f.base_price,
	f.total_seats, f.available_seats, f.status, f.gate, f.created_at, f.updated_at,
	p.id, p.user_id, p.first_name, p.last_name, p.email, p.phone,
	p.date_of_birth, p.nationality, p.passport_number, p.created_at, p.updated_at
	FROM tickets t
	JOIN flights f    ON f.id = t.flight_id
	JOIN passengers p ON p.id = t.passenger_id`

// TicketRepo persists tickets and applies their guarded state transitions.
// Every transition is a conditional UPDATE on the current state so two
// requests racing on the same ticket cannot both win.
type TicketRepo struct {
	db *sql.DB
}

func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// DB exposes the underlying handle so services can open transactions.
func (r *TicketRepo) DB() *sql.DB { return r.db }

func ticketDest(t *model.Ticket) []any {
	return []any{&t.ID, &t.TicketNumber, &t.FlightID, &t.PassengerID, &t.UserID,
		&t.SeatNumber, &t.SeatClass, &t.BookingReference, &t.Price, &t.Status, &t.CheckedIn,
		&t.CreatedAt, &t.UpdatedAt}
}

func scanTicketDetail(s rowScanner) (model.TicketDetail, error) {
	var (
		d  model.TicketDetail
		fr flightRow
		pr passengerRow
	)
	dest := append(ticketDest(&d.Ticket), fr.dest()...)
	dest = append(dest, pr.dest()...)
	if err := s.Scan(dest...); err != nil {
		return model.TicketDetail{}, err
	}
	d.Flight = fr.flight()
	d.Passenger = pr.passenger()
	return d, nil
}

// CreateTx inserts t inside tx and sets t.ID.
func (r *TicketRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *model.Ticket) error {
	res, err := tx.ExecContext(ctx, `INSERT INTO tickets
		(ticket_number, flight_id, passenger_id, user_id, seat_number, seat_class,
		 booking_reference, price, status, checked_in)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		t.TicketNumber, t.FlightID, t.PassengerID, t.UserID, t.SeatNumber, t.SeatClass,
		t.BookingReference, t.Price, t.Status, t.CheckedIn)
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
	t.ID = uint64(id)
	return nil
}

func (r *TicketRepo) getByID(ctx context.Context, q querier, id uint64) (model.Ticket, error) {
	var t model.Ticket
	err := q.QueryRowContext(ctx, "SELECT "+ticketColumns+" FROM tickets t WHERE t.id = ?", id).Scan(ticketDest(&t)...)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Ticket{}, ErrTicketNotFound
	}
	return t, err
}

// GetByID returns a ticket by primary key.
func (r *TicketRepo) GetByID(ctx context.Context, id uint64) (model.Ticket, error) {
	return r.getByID(ctx, r.db, id)
}

// GetByIDTx is GetByID inside tx.
func (r *TicketRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Ticket, error) {
	return r.getByID(ctx, tx, id)
}

// GetDetail returns a ticket together with its flight and passenger.
func (r *TicketRepo) GetDetail(ctx context.Context, id uint64) (model.TicketDetail, error) {
	d, err := scanTicketDetail(r.db.QueryRowContext(ctx, ticketDetailSelect+" WHERE t.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.TicketDetail{}, ErrTicketNotFound
	}
	return d, err
}

// ListDetailByUser returns the tickets booked by a user, newest first.
func (r *TicketRepo) ListDetailByUser(ctx context.Context, userID uint64) ([]model.TicketDetail, error) {
	return r.listDetail(ctx, ticketDetailSelect+" WHERE t.user_id = ? ORDER BY t.created_at DESC, t.id DESC", userID)
}

// ListDetail returns every ticket, newest first.
func (r *TicketRepo) ListDetail(ctx context.Context) ([]model.TicketDetail, error) {
	return r.listDetail(ctx, ticketDetailSelect+" ORDER BY t.created_at DESC, t.id DESC")
}

func (r *TicketRepo) listDetail(ctx context.Context, query string, args ...any) ([]model.TicketDetail, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.TicketDetail{}
	for rows.Next() {
		d, err := scanTicketDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CheckIn marks a confirmed ticket as checked in.  ErrStaleState means the
// ticket was no longer confirmed when the update ran.
func (r *TicketRepo) CheckIn(ctx context.Context, id uint64) error {
	return r.checkIn(ctx, r.db, id)
}

// CheckInTx is CheckIn inside tx.
func (r *TicketRepo) CheckInTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	return r.checkIn(ctx, tx, id)
}

func (r *TicketRepo) checkIn(ctx context.Context, q querier, id uint64) error {
	res, err := q.ExecContext(ctx,
		"UPDATE tickets SET status = ?, checked_in = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ? AND checked_in = 0",
		model.TicketCheckedIn, id, model.TicketConfirmed)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// CancelTx marks an active ticket cancelled inside tx.
func (r *TicketRepo) CancelTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE tickets SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status IN (?, ?)",
		model.TicketCancelled, id, model.TicketConfirmed, model.TicketCheckedIn)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// MoveSeatTx points an active ticket at a new seat, guarded on the seat it
// currently holds.
func (r *TicketRepo) MoveSeatTx(ctx context.Context, tx *sql.Tx, id uint64, fromSeat, toSeat, toClass string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE tickets SET seat_number = ?, seat_class = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND seat_number = ? AND status IN (?, ?)`,
		toSeat, toClass, id, fromSeat, model.TicketConfirmed, model.TicketCheckedIn)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// CountByFlightTx counts tickets of any status referencing a flight.
func (r *TicketRepo) CountByFlightTx(ctx context.Context, tx *sql.Tx, flightID uint64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM tickets WHERE flight_id = ?", flightID).Scan(&n)
	return n, err
}

// CountByPassengerTx counts tickets of any status referencing a passenger.
func (r *TicketRepo) CountByPassengerTx(ctx context.Context, tx *sql.Tx, passengerID uint64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM tickets WHERE passenger_id = ?", passengerID).Scan(&n)
	return n, err
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return ErrStaleState
	}
	return nil
}

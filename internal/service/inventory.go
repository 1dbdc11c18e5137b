package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/iliyamo/flight-booking/internal/model"
	"github.com/iliyamo/flight-booking/internal/repository"
)

// Inventory is the source of truth for per-seat availability and for the
// invariant tying it to flights.available_seats.
type Inventory struct {
	Flights *repository.FlightRepo
	Seats   *repository.SeatRepo
}

func NewInventory(flights *repository.FlightRepo, seats *repository.SeatRepo) *Inventory {
	return &Inventory{Flights: flights, Seats: seats}
}

// NormalizeSeatNumber upper-cases and trims a seat number ("12a " -> "12A").
func NormalizeSeatNumber(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// splitSeatNumber parses "12A" into (12, "A").  ok is false when the
// number has no leading row digits.
func splitSeatNumber(s string) (row int, col string, ok bool) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, s, false
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil {
		return 0, s, false
	}
	return n, s[i:], true
}

// SeatLess orders seat numbers by row number, then column letter.
func SeatLess(a, b string) bool {
	ra, ca, oka := splitSeatNumber(a)
	rb, cb, okb := splitSeatNumber(b)
	if !oka || !okb {
		return a < b
	}
	if ra != rb {
		return ra < rb
	}
	return ca < cb
}

// ListSeats returns all seats of a flight ordered by seat number.
func (inv *Inventory) ListSeats(ctx context.Context, flightID uint64) ([]model.Seat, error) {
	if _, err := inv.Flights.GetByID(ctx, flightID); err != nil {
		return nil, mapRepoErr(err)
	}
	seats, err := inv.Seats.ListByFlight(ctx, flightID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(seats, func(i, j int) bool { return SeatLess(seats[i].SeatNumber, seats[j].SeatNumber) })
	return seats, nil
}

// GetSeat returns one seat of a flight.
func (inv *Inventory) GetSeat(ctx context.Context, flightID uint64, seatNumber string) (model.Seat, error) {
	st, err := inv.Seats.Get(ctx, flightID, NormalizeSeatNumber(seatNumber))
	if err != nil {
		return model.Seat{}, mapRepoErr(err)
	}
	return st, nil
}

// SetAvailability toggles one seat inside tx.  It does not recompute the
// flight's aggregate: the caller adjusts flights.available_seats in the
// same transaction.
func (inv *Inventory) SetAvailability(ctx context.Context, tx *sql.Tx, flightID uint64, seatNumber string, available bool) error {
	return mapRepoErr(inv.Seats.SetAvailabilityTx(ctx, tx, flightID, NormalizeSeatNumber(seatNumber), available))
}

// Reserve takes a free seat and decrements the flight's counter inside tx.
// When another request got the seat first it returns ErrSeatUnavailable.
func (inv *Inventory) Reserve(ctx context.Context, tx *sql.Tx, flightID uint64, seatNumber string) error {
	if err := inv.Seats.ReserveTx(ctx, tx, flightID, seatNumber); err != nil {
		return mapRepoErr(err)
	}
	if err := inv.Flights.TakeSeatTx(ctx, tx, flightID); err != nil {
		return mapRepoErr(err)
	}
	return nil
}

// Release frees a taken seat and increments the flight's counter inside tx.
func (inv *Inventory) Release(ctx context.Context, tx *sql.Tx, flightID uint64, seatNumber string) error {
	if err := inv.Seats.ReleaseTx(ctx, tx, flightID, seatNumber); err != nil {
		return mapRepoErr(err)
	}
	if err := inv.Flights.ReturnSeatTx(ctx, tx, flightID); err != nil {
		return mapRepoErr(err)
	}
	return nil
}

// BuildSeatMap expands a cabin layout into seats.  Rows are numbered from
// 1 and continue across blocks, so three business rows followed by economy
// make the first economy row 4.
func BuildSeatMap(flightID uint64, layout []model.SeatBlock) []model.Seat {
	seats := make([]model.Seat, 0, model.LayoutCapacity(layout))
	row := 1
	for _, b := range layout {
		for i := 0; i < b.Rows; i++ {
			for _, col := range b.Columns {
				seats = append(seats, model.Seat{
					FlightID:    flightID,
					SeatNumber:  strconv.Itoa(row) + strings.ToUpper(col),
					SeatClass:   b.SeatClass,
					PriceDelta:  b.PriceDelta,
					IsAvailable: true,
				})
			}
			row++
		}
	}
	return seats
}

// ValidateLayout checks a cabin layout before it is expanded.
func ValidateLayout(layout []model.SeatBlock) error {
	if len(layout) == 0 {
		return invalid("layout", "required")
	}
	for i, b := range layout {
		field := fmt.Sprintf("layout[%d]", i)
		if b.Rows < 1 {
			return invalid(field+".rows", "min")
		}
		if len(b.Columns) == 0 {
			return invalid(field+".columns", "required")
		}
		if !isSeatClass(b.SeatClass) {
			return invalid(field+".seat_class", "seat_class")
		}
		if b.PriceDelta.IsNegative() {
			return invalid(field+".price_delta", "min")
		}
		seen := map[string]bool{}
		for _, c := range b.Columns {
			c = strings.ToUpper(c)
			if len(c) != 1 || c[0] < 'A' || c[0] > 'Z' || seen[c] {
				return invalid(field+".columns", "letters")
			}
			seen[c] = true
		}
	}
	return nil
}

func isSeatClass(s string) bool {
	for _, c := range model.SeatClasses {
		if s == c {
			return true
		}
	}
	return false
}

// CreateSeatMap inserts the seats of a newly created flight inside tx and
// returns how many were created.  It must be called once per flight; a
// second call fails on the (flight_id, seat_number) unique key.
func (inv *Inventory) CreateSeatMap(ctx context.Context, tx *sql.Tx, flightID uint64, layout []model.SeatBlock) (int, error) {
	if err := ValidateLayout(layout); err != nil {
		return 0, err
	}
	seats := BuildSeatMap(flightID, layout)
	if err := inv.Seats.CreateBulkTx(ctx, tx, seats); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return 0, fmt.Errorf("seat map already exists: %w", ErrConflict)
		}
		return 0, err
	}
	return len(seats), nil
}

// Reconcile recomputes flights.available_seats from the seat rows and
// returns the refreshed flight.
func (inv *Inventory) Reconcile(ctx context.Context, flightID uint64) (model.Flight, error) {
	tx, err := inv.Flights.DB().BeginTx(ctx, nil)
	if err != nil {
		return model.Flight{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := inv.Flights.GetByIDTx(ctx, tx, flightID); err != nil {
		return model.Flight{}, mapRepoErr(err)
	}
	n, err := inv.Seats.CountAvailableTx(ctx, tx, flightID)
	if err != nil {
		return model.Flight{}, err
	}
	if err := inv.Flights.SetAvailableSeatsTx(ctx, tx, flightID, n); err != nil {
		return model.Flight{}, err
	}
	f, err := inv.Flights.GetByIDTx(ctx, tx, flightID)
	if err != nil {
		return model.Flight{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Flight{}, err
	}
	committed = true
	return f, nil
}

// mapRepoErr translates repository sentinels into service error kinds.
func mapRepoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrFlightNotFound):
		return notFound("flight")
	case errors.Is(err, repository.ErrSeatNotFound):
		return notFound("seat")
	case errors.Is(err, repository.ErrTicketNotFound):
		return notFound("ticket")
	case errors.Is(err, repository.ErrPassengerNotFound):
		return notFound("passenger")
	case errors.Is(err, repository.ErrSeatTaken), errors.Is(err, repository.ErrFlightFull):
		return ErrSeatUnavailable
	case errors.Is(err, repository.ErrConflict), errors.Is(err, repository.ErrStaleState):
		return fmt.Errorf("%v: %w", err, ErrConflict)
	}
	return err
}

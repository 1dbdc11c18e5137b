package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/flight-booking/internal/model"
	"github.com/iliyamo/flight-booking/internal/queue"
	"github.com/iliyamo/flight-booking/internal/repository"
	"github.com/iliyamo/flight-booking/internal/utils"
)

// DefaultCheckInWindow is how long before departure check-in opens.
const DefaultCheckInWindow = 24 * time.Hour

// TicketService moves tickets through check-in, cancellation and seat
// change, and serves the ticket reads.
type TicketService struct {
	Tickets       *repository.TicketRepo
	Flights       *repository.FlightRepo
	Seats         *repository.SeatRepo
	Inventory     *Inventory
	Transactions  *repository.TransactionRepo
	Events        EventPublisher
	Now           func() time.Time
	CheckInWindow time.Duration
}

func (s *TicketService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *TicketService) window() time.Duration {
	if s.CheckInWindow > 0 {
		return s.CheckInWindow
	}
	return DefaultCheckInWindow
}

// load returns a ticket with its flight.
func (s *TicketService) load(ctx context.Context, ticketID uint64) (model.Ticket, model.Flight, error) {
	t, err := s.Tickets.GetByID(ctx, ticketID)
	if err != nil {
		return model.Ticket{}, model.Flight{}, mapRepoErr(err)
	}
	f, err := s.Flights.GetByID(ctx, t.FlightID)
	if err != nil {
		return model.Ticket{}, model.Flight{}, mapRepoErr(err)
	}
	return t, f, nil
}

// CheckIn checks the caller in on their own ticket.
func (s *TicketService) CheckIn(ctx context.Context, caller Caller, ticketID uint64) (model.Ticket, error) {
	t, f, err := s.load(ctx, ticketID)
	if err != nil {
		return model.Ticket{}, err
	}
	if !caller.Owns(t.UserID) {
		return model.Ticket{}, ErrForbidden
	}
	if t.Status == model.TicketCancelled {
		return model.Ticket{}, ErrAlreadyCancelled
	}
	if t.CheckedIn || t.Status == model.TicketCheckedIn {
		return model.Ticket{}, ErrAlreadyCheckedIn
	}
	now := s.now()
	if f.HasDeparted(now) {
		return model.Ticket{}, ErrFlightDeparted
	}
	if f.DepartureTime.Sub(now) > s.window() {
		return model.Ticket{}, ErrCheckInWindowClosed
	}

	if err := s.Tickets.CheckIn(ctx, t.ID); err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return model.Ticket{}, s.staleReason(ctx, t.ID)
		}
		return model.Ticket{}, err
	}
	t, err = s.Tickets.GetByID(ctx, t.ID)
	if err != nil {
		return model.Ticket{}, err
	}
	publish(ctx, s.Events, ticketEvent(queue.EventTicketCheckedIn, t, f, caller.UserID, now))
	return t, nil
}

// staleReason re-reads a ticket whose guarded update lost and reports the
// state it moved to.
func (s *TicketService) staleReason(ctx context.Context, ticketID uint64) error {
	t, err := s.Tickets.GetByID(ctx, ticketID)
	if err != nil {
		return mapRepoErr(err)
	}
	switch {
	case t.Status == model.TicketCancelled:
		return ErrAlreadyCancelled
	case t.CheckedIn:
		return ErrAlreadyCheckedIn
	}
	return fmt.Errorf("ticket %d changed concurrently: %w", ticketID, ErrConflict)
}

// Cancel cancels a ticket on behalf of its owner or an employee.  The seat
// goes back to the inventory and the ticket's payments are refunded in the
// same transaction.
func (s *TicketService) Cancel(ctx context.Context, caller Caller, ticketID uint64) (model.Ticket, error) {
	t, f, err := s.load(ctx, ticketID)
	if err != nil {
		return model.Ticket{}, err
	}
	if !caller.Owns(t.UserID) && !caller.IsEmployee() {
		return model.Ticket{}, ErrForbidden
	}
	if t.Status == model.TicketCancelled {
		return model.Ticket{}, ErrAlreadyCancelled
	}
	now := s.now()
	if f.HasDeparted(now) {
		return model.Ticket{}, ErrFlightDeparted
	}

	err = s.inTx(ctx, "cancel", func(tx *sql.Tx) error {
		if err := s.Tickets.CancelTx(ctx, tx, t.ID); err != nil {
			if errors.Is(err, repository.ErrStaleState) {
				return ErrAlreadyCancelled
			}
			return err
		}
		if err := s.Inventory.Release(ctx, tx, t.FlightID, t.SeatNumber); err != nil {
			return err
		}
		_, err := s.Transactions.RefundTx(ctx, tx, t.ID)
		return err
	})
	if err != nil {
		return model.Ticket{}, err
	}
	t, err = s.Tickets.GetByID(ctx, t.ID)
	if err != nil {
		return model.Ticket{}, err
	}
	publish(ctx, s.Events, ticketEvent(queue.EventTicketCancelled, t, f, caller.UserID, now))
	return t, nil
}

// ChangeSeat moves the caller's ticket to another free seat on the same
// flight.  The new seat is taken before the old one is released, so a lost
// race leaves the ticket on its original seat.  The fare is not
// recomputed.
func (s *TicketService) ChangeSeat(ctx context.Context, caller Caller, ticketID uint64, seatNumber string) (model.Ticket, error) {
	seatNumber = NormalizeSeatNumber(seatNumber)
	if seatNumber == "" {
		return model.Ticket{}, invalid("seat_number", "required")
	}
	t, f, err := s.load(ctx, ticketID)
	if err != nil {
		return model.Ticket{}, err
	}
	if !caller.Owns(t.UserID) {
		return model.Ticket{}, ErrForbidden
	}
	if t.Status == model.TicketCancelled {
		return model.Ticket{}, ErrAlreadyCancelled
	}
	now := s.now()
	if f.HasDeparted(now) {
		return model.Ticket{}, ErrFlightDeparted
	}
	if seatNumber == t.SeatNumber {
		return model.Ticket{}, invalid("seat_number", "already assigned to this ticket")
	}

	oldSeat := t.SeatNumber
	err = s.inTx(ctx, "change seat", func(tx *sql.Tx) error {
		return s.moveSeatTx(ctx, tx, t, seatNumber)
	})
	if err != nil {
		return model.Ticket{}, err
	}
	t, err = s.Tickets.GetByID(ctx, t.ID)
	if err != nil {
		return model.Ticket{}, err
	}
	ev := ticketEvent(queue.EventTicketSeatChanged, t, f, caller.UserID, now)
	ev.PreviousSeat = oldSeat
	publish(ctx, s.Events, ev)
	return t, nil
}

// moveSeatTx takes seatNumber, frees the ticket's current seat and points
// the ticket at the new one.  Availability is decided by the conditional
// seat update alone; the flight counter is unchanged.
func (s *TicketService) moveSeatTx(ctx context.Context, tx *sql.Tx, t model.Ticket, seatNumber string) error {
	seat, err := s.Seats.GetTx(ctx, tx, t.FlightID, seatNumber)
	if err != nil {
		return mapRepoErr(err)
	}
	if err := s.Seats.ReserveTx(ctx, tx, t.FlightID, seat.SeatNumber); err != nil {
		return mapRepoErr(err)
	}
	if err := s.Seats.ReleaseTx(ctx, tx, t.FlightID, t.SeatNumber); err != nil {
		return mapRepoErr(err)
	}
	if err := s.Tickets.MoveSeatTx(ctx, tx, t.ID, t.SeatNumber, seat.SeatNumber, seat.SeatClass); err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return fmt.Errorf("ticket %d changed concurrently: %w", t.ID, ErrConflict)
		}
		return err
	}
	return nil
}

// TicketUpdate is an employee edit of a ticket.  Nil fields are left
// untouched.  Price, owner and flight are never edited.
type TicketUpdate struct {
	SeatNumber *string `json:"seat_number" validate:"omitempty,min=2,max=8"`
	CheckedIn  *bool   `json:"checked_in"`
	Status     *string `json:"status" validate:"omitempty,oneof=checked_in cancelled"`
}

// errCheckInLost marks a check-in whose guarded update matched no row.
var errCheckInLost = errors.New("check-in lost")

// UpdateAsEmployee applies an employee edit to any ticket.  A seat move
// takes the same conditional seat updates as ChangeSeat and a check-in the
// same guarded update as CheckIn, both in one transaction; a status of
// cancelled is delegated to Cancel.  Desk check-in ignores the check-in
// window but not departure.
func (s *TicketService) UpdateAsEmployee(ctx context.Context, caller Caller, ticketID uint64, upd TicketUpdate) (model.Ticket, error) {
	if !caller.IsEmployee() {
		return model.Ticket{}, ErrForbidden
	}
	if fields := utils.ValidateStruct(upd); fields != nil {
		return model.Ticket{}, validationFrom(fields)
	}
	if upd.CheckedIn != nil && !*upd.CheckedIn {
		return model.Ticket{}, invalid("checked_in", "cannot be undone")
	}
	if upd.Status != nil && *upd.Status == model.TicketCancelled {
		if upd.SeatNumber != nil || upd.CheckedIn != nil {
			return model.Ticket{}, invalid("status", "cancel cannot be combined with other changes")
		}
		return s.Cancel(ctx, caller, ticketID)
	}
	checkIn := upd.CheckedIn != nil || upd.Status != nil
	seatNumber := ""
	if upd.SeatNumber != nil {
		seatNumber = NormalizeSeatNumber(*upd.SeatNumber)
	}
	if !checkIn && seatNumber == "" {
		return model.Ticket{}, invalid("ticket", "no changes")
	}

	t, f, err := s.load(ctx, ticketID)
	if err != nil {
		return model.Ticket{}, err
	}
	if t.Status == model.TicketCancelled {
		return model.Ticket{}, ErrAlreadyCancelled
	}
	now := s.now()
	if f.HasDeparted(now) {
		return model.Ticket{}, ErrFlightDeparted
	}
	if checkIn && t.CheckedIn {
		return model.Ticket{}, ErrAlreadyCheckedIn
	}
	if seatNumber == t.SeatNumber {
		return model.Ticket{}, invalid("seat_number", "already assigned to this ticket")
	}

	oldSeat := t.SeatNumber
	err = s.inTx(ctx, "update ticket", func(tx *sql.Tx) error {
		if seatNumber != "" {
			if err := s.moveSeatTx(ctx, tx, t, seatNumber); err != nil {
				return err
			}
		}
		if checkIn {
			if err := s.Tickets.CheckInTx(ctx, tx, t.ID); err != nil {
				if errors.Is(err, repository.ErrStaleState) {
					return errCheckInLost
				}
				return err
			}
		}
		return nil
	})
	if errors.Is(err, errCheckInLost) {
		return model.Ticket{}, s.staleReason(ctx, t.ID)
	}
	if err != nil {
		return model.Ticket{}, err
	}
	t, err = s.Tickets.GetByID(ctx, t.ID)
	if err != nil {
		return model.Ticket{}, err
	}
	if seatNumber != "" {
		ev := ticketEvent(queue.EventTicketSeatChanged, t, f, caller.UserID, now)
		ev.PreviousSeat = oldSeat
		publish(ctx, s.Events, ev)
	}
	if checkIn {
		publish(ctx, s.Events, ticketEvent(queue.EventTicketCheckedIn, t, f, caller.UserID, now))
	}
	return t, nil
}

func (s *TicketService) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.Tickets.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", op, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", op, err)
	}
	committed = true
	return nil
}

// Get returns a ticket with its flight and passenger to its owner or an
// employee.
func (s *TicketService) Get(ctx context.Context, caller Caller, ticketID uint64) (model.TicketDetail, error) {
	d, err := s.Tickets.GetDetail(ctx, ticketID)
	if err != nil {
		return model.TicketDetail{}, mapRepoErr(err)
	}
	if !caller.Owns(d.UserID) && !caller.IsEmployee() {
		return model.TicketDetail{}, ErrForbidden
	}
	d.Classify(s.now())
	return d, nil
}

// ListMine returns the caller's tickets, newest first.
func (s *TicketService) ListMine(ctx context.Context, caller Caller) ([]model.TicketDetail, error) {
	if caller.UserID == 0 {
		return nil, ErrForbidden
	}
	ds, err := s.Tickets.ListDetailByUser(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	return s.classify(ds), nil
}

// ListAll returns every ticket.  Employees only.
func (s *TicketService) ListAll(ctx context.Context, caller Caller) ([]model.TicketDetail, error) {
	if !caller.IsEmployee() {
		return nil, ErrForbidden
	}
	ds, err := s.Tickets.ListDetail(ctx)
	if err != nil {
		return nil, err
	}
	return s.classify(ds), nil
}

func (s *TicketService) classify(ds []model.TicketDetail) []model.TicketDetail {
	now := s.now()
	for i := range ds {
		ds[i].Classify(now)
	}
	return ds
}

// ListTransactions returns the caller's payment records, newest first.
func (s *TicketService) ListTransactions(ctx context.Context, caller Caller) ([]model.Transaction, error) {
	if caller.UserID == 0 {
		return nil, ErrForbidden
	}
	return s.Transactions.ListByUser(ctx, caller.UserID)
}

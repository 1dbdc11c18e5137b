package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/flight-booking/internal/model"
	"github.com/iliyamo/flight-booking/internal/queue"
	"github.com/iliyamo/flight-booking/internal/repository"
	"github.com/iliyamo/flight-booking/internal/utils"
)

// PassengerInput carries traveller details for a booking or for the
// employee passenger screens.
type PassengerInput struct {
	FirstName      string     `json:"first_name" validate:"required,max=100"`
	LastName       string     `json:"last_name" validate:"required,max=100"`
	Email          string     `json:"email" validate:"required,email,max=255"`
	Phone          *string    `json:"phone" validate:"omitempty,max=32"`
	DateOfBirth    *time.Time `json:"date_of_birth"`
	Nationality    *string    `json:"nationality" validate:"omitempty,max=64"`
	PassportNumber *string    `json:"passport_number" validate:"omitempty,max=32"`
}

func (in PassengerInput) toModel(userID *uint64) model.Passenger {
	return model.Passenger{
		UserID:         userID,
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		Email:          strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:          in.Phone,
		DateOfBirth:    in.DateOfBirth,
		Nationality:    in.Nationality,
		PassportNumber: in.PassportNumber,
	}
}

// Payment methods accepted at checkout.
var PaymentMethods = []string{"card", "paypal"}

// BookingRequest is one seat for one passenger on one flight.
type BookingRequest struct {
	FlightID      uint64         `json:"flight_id" validate:"required"`
	Passenger     PassengerInput `json:"passenger"`
	SeatNumber    string         `json:"seat_number" validate:"required,max=8"`
	PaymentMethod string         `json:"payment_method" validate:"required,oneof=card paypal"`
}

// BookingResult is everything a successful booking created.
type BookingResult struct {
	Ticket           model.Ticket      `json:"ticket"`
	Passenger        model.Passenger   `json:"passenger"`
	Transaction      model.Transaction `json:"transaction"`
	BookingReference string            `json:"booking_reference"`
}

// BookingService turns a booking request into a passenger, a ticket and a
// completed payment transaction, or into nothing at all.
type BookingService struct {
	Flights      *repository.FlightRepo
	Inventory    *Inventory
	Passengers   *repository.PassengerRepo
	Tickets      *repository.TicketRepo
	Transactions *repository.TransactionRepo
	Refs         *References
	Events       EventPublisher
	Now          func() time.Time
}

func (s *BookingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Book runs the booking workflow for caller.
//
// Flight and seat are checked up front so common failures return before
// any write.  Passenger, seat reservation, seat counter, ticket and
// transaction are then written in one transaction; the conditional seat
// update inside it is what decides a race between two requests for the
// same seat.
func (s *BookingService) Book(ctx context.Context, caller Caller, req BookingRequest) (BookingResult, error) {
	if caller.UserID == 0 {
		return BookingResult{}, ErrForbidden
	}
	req.SeatNumber = NormalizeSeatNumber(req.SeatNumber)
	if fields := utils.ValidateStruct(req); fields != nil {
		return BookingResult{}, validationFrom(fields)
	}

	flight, err := s.Flights.GetByID(ctx, req.FlightID)
	if err != nil {
		return BookingResult{}, mapRepoErr(err)
	}
	now := s.now()
	if flight.HasDeparted(now) {
		return BookingResult{}, ErrFlightDeparted
	}
	if flight.Status == model.FlightCancelled {
		return BookingResult{}, invalid("flight_id", "flight is cancelled")
	}
	seat, err := s.Inventory.GetSeat(ctx, flight.ID, req.SeatNumber)
	if err != nil {
		return BookingResult{}, err
	}
	if !seat.IsAvailable {
		return BookingResult{}, ErrSeatUnavailable
	}

	uid := caller.UserID
	passenger := req.Passenger.toModel(&uid)
	bookingRef := s.Refs.BookingReference()
	ticket := model.Ticket{
		TicketNumber:     s.Refs.TicketNumber(),
		FlightID:         flight.ID,
		UserID:           caller.UserID,
		SeatNumber:       seat.SeatNumber,
		SeatClass:        seat.SeatClass,
		BookingReference: bookingRef,
		Price:            ComputeTotal(flight, seat),
		Status:           model.TicketConfirmed,
		CheckedIn:        false,
	}

	tx, err := s.Tickets.DB().BeginTx(ctx, nil)
	if err != nil {
		return BookingResult{}, fmt.Errorf("begin booking: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := s.Passengers.CreateTx(ctx, tx, &passenger); err != nil {
		return BookingResult{}, fmt.Errorf("create passenger: %w", err)
	}
	if err := s.Inventory.Reserve(ctx, tx, flight.ID, seat.SeatNumber); err != nil {
		return BookingResult{}, err
	}
	ticket.PassengerID = passenger.ID
	if err := s.Tickets.CreateTx(ctx, tx, &ticket); err != nil {
		return BookingResult{}, fmt.Errorf("create ticket: %w", err)
	}
	ticketID := ticket.ID
	txn := model.Transaction{
		TransactionNumber: s.Refs.TransactionNumber(),
		UserID:            caller.UserID,
		TicketID:          &ticketID,
		BookingReference:  bookingRef,
		Amount:            ticket.Price,
		PaymentMethod:     req.PaymentMethod,
		Status:            model.TxCompleted,
	}
	if err := s.Transactions.CreateTx(ctx, tx, &txn); err != nil {
		return BookingResult{}, fmt.Errorf("create transaction: %w", err)
	}

	// re-read so timestamps reflect what was stored
	if ticket, err = s.Tickets.GetByIDTx(ctx, tx, ticket.ID); err != nil {
		return BookingResult{}, err
	}
	if passenger, err = s.Passengers.GetByIDTx(ctx, tx, passenger.ID); err != nil {
		return BookingResult{}, err
	}
	if txn, err = s.Transactions.GetByIDTx(ctx, tx, txn.ID); err != nil {
		return BookingResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return BookingResult{}, fmt.Errorf("commit booking: %w", err)
	}
	committed = true

	publish(ctx, s.Events, ticketEvent(queue.EventTicketBooked, ticket, flight, caller.UserID, now))
	return BookingResult{
		Ticket:           ticket,
		Passenger:        passenger,
		Transaction:      txn,
		BookingReference: bookingRef,
	}, nil
}

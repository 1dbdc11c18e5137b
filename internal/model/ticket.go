package model

import "time"

// Ticket statuses.  Only confirmed, checked_in and cancelled are stored;
// completed is derived when the flight has departed.
const (
	TicketConfirmed = "confirmed"
	TicketCheckedIn = "checked_in"
	TicketCancelled = "cancelled"
	TicketCompleted = "completed"
)

// Ticket is the booking unit.  UserID is the account that booked it and
// PassengerID the traveller; they may be different people.  SeatNumber and
// SeatClass are captured at booking time and change only via seat change.
type Ticket struct {
	ID               uint64    `json:"id"`
	TicketNumber     string    `json:"ticket_number"`
	FlightID         uint64    `json:"flight_id"`
	PassengerID      uint64    `json:"passenger_id"`
	UserID           uint64    `json:"user_id"`
	SeatNumber       string    `json:"seat_number"`
	SeatClass        string    `json:"seat_class"`
	BookingReference string    `json:"booking_reference"`
	Price            Money     `json:"price"`
	Status           string    `json:"status"`
	CheckedIn        bool      `json:"checked_in"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// IsActive reports whether the ticket currently holds its seat.
func (t Ticket) IsActive() bool {
	return t.Status == TicketConfirmed || t.Status == TicketCheckedIn
}

// EffectiveStatus classifies the ticket at read time: an active ticket on a
// flight that departed before now is completed.
func (t Ticket) EffectiveStatus(departure, now time.Time) string {
	if t.IsActive() && departure.Before(now) {
		return TicketCompleted
	}
	return t.Status
}

// TicketDetail is a ticket joined with its flight and passenger, the shape
// returned by ticket listings.
type TicketDetail struct {
	Ticket
	Flight    Flight    `json:"flight"`
	Passenger Passenger `json:"passenger"`
}

// Classify overwrites Status with the read-time classification.
func (d *TicketDetail) Classify(now time.Time) {
	d.Status = d.Ticket.EffectiveStatus(d.Flight.DepartureTime, now)
}

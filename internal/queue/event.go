// Package queue defines message payloads exchanged over the message broker
// and the RabbitMQ publisher and consumer that carry them.
package queue

// Ticket event types.
const (
	EventTicketBooked      = "ticket.booked"
	EventTicketCheckedIn   = "ticket.checked_in"
	EventTicketCancelled   = "ticket.cancelled"
	EventTicketSeatChanged = "ticket.seat_changed"
)

// TicketEvent is published after a ticket mutation commits.  It carries
// enough information for downstream consumers to log, notify, or feed
// analytics without querying the primary database.
type TicketEvent struct {
	Type             string `json:"type"`
	TicketID         uint64 `json:"ticket_id"`
	TicketNumber     string `json:"ticket_number"`
	BookingReference string `json:"booking_reference"`
	UserID           uint64 `json:"user_id"`
	ActorID          uint64 `json:"actor_id"`
	FlightID         uint64 `json:"flight_id"`
	FlightNumber     string `json:"flight_number"`
	SeatNumber       string `json:"seat_number"`
	PreviousSeat     string `json:"previous_seat,omitempty"`
	SeatClass        string `json:"seat_class"`
	Amount           string `json:"amount"`
	OccurredAt       string `json:"occurred_at"`
}

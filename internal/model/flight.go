package model

import "time"

// Flight operational statuses.
const (
	FlightScheduled = "scheduled"
	FlightBoarding  = "boarding"
	FlightDeparted  = "departed"
	FlightArrived   = "arrived"
	FlightCancelled = "cancelled"
	FlightDelayed   = "delayed"
)

// FlightStatuses lists every accepted value of Flight.Status.
var FlightStatuses = []string{FlightScheduled, FlightBoarding, FlightDeparted, FlightArrived, FlightCancelled, FlightDelayed}

// Flight mirrors a row of the `flights` table.  AvailableSeats is the
// aggregate of seats.is_available for the flight and is only changed in the
// same transaction that toggles a seat.
type Flight struct {
	ID              uint64    `json:"id"`               // flights.id
	FlightNumber    string    `json:"flight_number"`    // flights.flight_number (unique)
	Airline         string    `json:"airline"`          // flights.airline
	Aircraft        string    `json:"aircraft"`         // flights.aircraft
	Origin          string    `json:"origin"`           // flights.origin
	Destination     string    `json:"destination"`      // flights.destination
	DepartureTime   time.Time `json:"departure_time"`   // flights.departure_time (UTC)
	ArrivalTime     time.Time `json:"arrival_time"`     // flights.arrival_time (UTC)
	DurationMinutes int       `json:"duration_minutes"` // flights.duration_minutes
	BasePrice       Money     `json:"base_price"`       // flights.base_price
	TotalSeats      int       `json:"total_seats"`      // flights.total_seats
	AvailableSeats  int       `json:"available_seats"`  // flights.available_seats
	Status          string    `json:"status"`           // flights.status
	Gate            *string   `json:"gate,omitempty"`   // flights.gate (nullable)
	CreatedAt       time.Time `json:"created_at"`       // flights.created_at
	UpdatedAt       time.Time `json:"updated_at"`       // flights.updated_at
}

// HasDeparted reports whether the scheduled departure is before now.
func (f Flight) HasDeparted(now time.Time) bool {
	return f.DepartureTime.Before(now)
}

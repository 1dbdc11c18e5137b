package model

// Seat classes, cheapest first.
const (
	SeatEconomy  = "economy"
	SeatPremium  = "premium"
	SeatBusiness = "business"
	SeatFirst    = "first"
)

// SeatClasses lists every accepted value of Seat.SeatClass.
var SeatClasses = []string{SeatEconomy, SeatPremium, SeatBusiness, SeatFirst}

// Seat is one bookable seat of a flight.  Seat numbers are unique per
// flight and made of the row number followed by the column letter ("12A").
// PriceDelta is the flat class increment added to the flight's base price.
type Seat struct {
	ID          uint64 `json:"id"`           // seats.id
	FlightID    uint64 `json:"flight_id"`    // seats.flight_id
	SeatNumber  string `json:"seat_number"`  // seats.seat_number
	SeatClass   string `json:"seat_class"`   // seats.seat_class
	PriceDelta  Money  `json:"price_delta"`  // seats.price_delta
	IsAvailable bool   `json:"is_available"` // seats.is_available
}

// SeatBlock describes a run of consecutive rows sharing one class, column
// set and price increment.  An ordered list of blocks is a cabin layout.
type SeatBlock struct {
	Rows       int      `json:"rows" validate:"required,min=1,max=99"`
	SeatClass  string   `json:"seat_class" validate:"required,seat_class"`
	Columns    []string `json:"columns" validate:"required,min=1,max=10,dive,len=1,alpha"`
	PriceDelta Money    `json:"price_delta"`
}

// DefaultLayout is the cabin used when a flight is created without an
// explicit layout: three business rows followed by twenty-five economy rows.
func DefaultLayout() []SeatBlock {
	return []SeatBlock{
		{Rows: 3, SeatClass: SeatBusiness, Columns: []string{"A", "C", "D", "F"}, PriceDelta: MoneyFromInt(2000)},
		{Rows: 25, SeatClass: SeatEconomy, Columns: []string{"A", "B", "C", "D", "E", "F"}, PriceDelta: Money{}},
	}
}

// LayoutCapacity returns the number of seats a layout produces.
func LayoutCapacity(layout []SeatBlock) int {
	n := 0
	for _, b := range layout {
		n += b.Rows * len(b.Columns)
	}
	return n
}

package service

import "github.com/iliyamo/flight-booking/internal/model"

// ComputeTotal returns the price of seat on flight: the flight's base fare
// plus the flat increment of the seat's class.  Arithmetic is exact decimal.
func ComputeTotal(flight model.Flight, seat model.Seat) model.Money {
	return flight.BasePrice.Add(seat.PriceDelta)
}

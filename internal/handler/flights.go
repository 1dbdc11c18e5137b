package handler

import (
	"net/http" // status codes

	"github.com/labstack/echo/v4" // echo context and JSON rendering

	"github.com/iliyamo/flight-booking/internal/service" // flight reads and seat inventory
)

// FlightHandler serves the public flight and seat map reads.
type FlightHandler struct {
	Flights   *service.FlightService // listings and search
	Inventory *service.Inventory     // seat maps
}

func NewFlightHandler(f *service.FlightService, inv *service.Inventory) *FlightHandler {
	return &FlightHandler{Flights: f, Inventory: inv}
}

// ListUpcoming handles GET /v1/flights: flights not yet departed, soonest
// first.
func (h *FlightHandler) ListUpcoming(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	flights, err := h.Flights.ListUpcoming(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": flights})
}

// Search handles GET /v1/flights/search?from=&to=&date=.  from and to are
// required; date is YYYY-MM-DD and matches the UTC departure day.
func (h *FlightHandler) Search(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	flights, err := h.Flights.Search(ctx, c.QueryParam("from"), c.QueryParam("to"), c.QueryParam("date"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": flights})
}

// Get handles GET /v1/flights/:id.
func (h *FlightHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid flight id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	f, err := h.Flights.Get(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, f)
}

// Seats handles GET /v1/flights/:id/seats, every seat ordered by row then
// column with its class, price delta and availability.
func (h *FlightHandler) Seats(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid flight id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	// 404 when the flight does not exist, an empty map never
	seats, err := h.Inventory.ListSeats(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"flight_id": id, "seats": seats})
}

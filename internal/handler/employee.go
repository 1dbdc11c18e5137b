package handler

import (
	"net/http" // status codes

	"github.com/labstack/echo/v4" // echo context and JSON rendering

	"github.com/iliyamo/flight-booking/internal/service" // passenger and flight administration
)

// EmployeeHandler serves the employee passenger and flight administration.
// Ticket administration reuses TicketHandler.
type EmployeeHandler struct {
	Passengers *service.PassengerService // /v1/employee/passengers
	Flights    *service.FlightService    // /v1/employee/flights
}

func NewEmployeeHandler(p *service.PassengerService, f *service.FlightService) *EmployeeHandler {
	if p == nil || f == nil {
		panic("nil service passed to NewEmployeeHandler")
	}
	return &EmployeeHandler{Passengers: p, Flights: f}
}

// ListPassengers handles GET /v1/employee/passengers?search=.
func (h *EmployeeHandler) ListPassengers(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Passengers.List(ctx, caller, c.QueryParam("search"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// CreatePassenger handles POST /v1/employee/passengers.
func (h *EmployeeHandler) CreatePassenger(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return unauthorized(c)
	}
	var in service.PassengerInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Passengers.Create(ctx, caller, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// UpdatePassenger handles PUT /v1/employee/passengers/:id.
func (h *EmployeeHandler) UpdatePassenger(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid passenger id")
	}
	var in service.PassengerInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Passengers.Update(ctx, caller, id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// DeletePassenger handles DELETE /v1/employee/passengers/:id.
func (h *EmployeeHandler) DeletePassenger(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid passenger id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Passengers.Delete(ctx, caller, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CreateFlight handles POST /v1/employee/flights.
func (h *EmployeeHandler) CreateFlight(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return unauthorized(c)
	}
	var in service.FlightInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	f, err := h.Flights.Create(ctx, caller, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, f)
}

// UpdateFlight handles PUT /v1/employee/flights/:id.
func (h *EmployeeHandler) UpdateFlight(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid flight id")
	}
	var patch service.FlightPatch
	if err := c.Bind(&patch); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	f, err := h.Flights.Update(ctx, caller, id, patch)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, f)
}

// DeleteFlight handles DELETE /v1/employee/flights/:id.
func (h *EmployeeHandler) DeleteFlight(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid flight id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Flights.Delete(ctx, caller, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ReconcileFlight handles POST /v1/employee/flights/:id/reconcile.
func (h *EmployeeHandler) ReconcileFlight(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid flight id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	f, err := h.Flights.Reconcile(ctx, caller, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, f)
}

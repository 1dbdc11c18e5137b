package handler

import (
	"context"  // per-request deadline passed to services
	"net/http" // status codes

	"github.com/labstack/echo/v4" // echo context and JSON rendering

	"github.com/iliyamo/flight-booking/internal/model"   // ticket returned by transitions
	"github.com/iliyamo/flight-booking/internal/service" // lifecycle operations
)

// TicketHandler serves the ticket lifecycle endpoints.
type TicketHandler struct {
	Tickets *service.TicketService // check-in, cancel, change seat, reads
}

func NewTicketHandler(t *service.TicketService) *TicketHandler {
	return &TicketHandler{Tickets: t}
}

type changeSeatReq struct {
	SeatNumber string `json:"seat_number"`
}

// ListMine handles GET /v1/tickets.
func (h *TicketHandler) ListMine(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Tickets.ListMine(ctx, caller)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// lifecycle runs one ticket transition for the ticket in the :id param and
// renders the updated ticket.  Conflicting states come back as 409 with a
// specific code (already_cancelled, checkin_window_closed, ...).
func (h *TicketHandler) lifecycle(c echo.Context, op func(ctx context.Context, caller service.Caller, id uint64) (model.Ticket, error)) error {
	caller, err := callerFrom(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid ticket id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	// the service checks ownership and the ticket's current state
	t, err := op(ctx, caller, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// CheckIn handles POST /v1/tickets/:id/checkin.
func (h *TicketHandler) CheckIn(c echo.Context) error {
	return h.lifecycle(c, h.Tickets.CheckIn)
}

// Cancel handles POST /v1/tickets/:id/cancel and, for employees,
// DELETE /v1/employee/tickets/:id.
func (h *TicketHandler) Cancel(c echo.Context) error {
	return h.lifecycle(c, h.Tickets.Cancel)
}

// ChangeSeat handles POST /v1/tickets/:id/change-seat.
func (h *TicketHandler) ChangeSeat(c echo.Context) error {
	var req changeSeatReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	return h.lifecycle(c, func(ctx context.Context, caller service.Caller, id uint64) (model.Ticket, error) {
		return h.Tickets.ChangeSeat(ctx, caller, id, req.SeatNumber)
	})
}

// ListAll handles GET /v1/employee/tickets.
func (h *TicketHandler) ListAll(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Tickets.ListAll(ctx, caller)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Update handles PUT /v1/employee/tickets/:id, the desk edit of a ticket.
// The body may carry seat_number, checked_in (true only) and status
// (checked_in or cancelled).
func (h *TicketHandler) Update(c echo.Context) error {
	var req service.TicketUpdate
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	return h.lifecycle(c, func(ctx context.Context, caller service.Caller, id uint64) (model.Ticket, error) {
		return h.Tickets.UpdateAsEmployee(ctx, caller, id, req)
	})
}

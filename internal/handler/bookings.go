package handler

import (
	"net/http" // status codes

	"github.com/labstack/echo/v4" // echo context and JSON rendering

	"github.com/iliyamo/flight-booking/internal/service" // booking workflows and error kinds
)

// BookingHandler serves the customer booking, ticket and transaction
// endpoints.
type BookingHandler struct {
	Bookings *service.BookingService // POST /v1/bookings
	Tickets  *service.TicketService  // booking reads and transactions
}

func NewBookingHandler(b *service.BookingService, t *service.TicketService) *BookingHandler {
	return &BookingHandler{Bookings: b, Tickets: t}
}

// Create handles POST /v1/bookings.  It returns 201 with the ticket,
// passenger, transaction and booking reference; 409 seat_unavailable when
// the seat went to another request; 400 with per-field reasons for an
// invalid body.
func (h *BookingHandler) Create(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return unauthorized(c)
	}
	// validated by the service
	var req service.BookingRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Bookings.Book(ctx, caller, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// Get handles GET /v1/bookings/:id, a ticket with its flight and passenger.
// Other customers get 403; employees may read any booking.
func (h *BookingHandler) Get(c echo.Context) error {
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
	d, err := h.Tickets.Get(ctx, caller, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

// Transactions handles GET /v1/transactions.
func (h *BookingHandler) Transactions(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	txs, err := h.Tickets.ListTransactions(ctx, caller)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": txs})
}

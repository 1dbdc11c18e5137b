package router

import (
	"github.com/labstack/echo/v4" // routing

	"github.com/iliyamo/flight-booking/internal/handler"    // booking and ticket handlers
	"github.com/iliyamo/flight-booking/internal/middleware" // JWT and role checks
	"github.com/iliyamo/flight-booking/internal/model"      // role names
)

// RegisterCustomer registers the booking and ticket endpoints.  Customers
// and employees may both book; ownership is checked by the services.
// limit, when given, guards the mutating routes.
func RegisterCustomer(e *echo.Echo, b *handler.BookingHandler, t *handler.TicketHandler, jwtSecret string, limit ...echo.MiddlewareFunc) {
	// every route needs a valid access token of either role
	auth := []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer, model.RoleEmployee),
	}
	// writes additionally pass the token bucket; reads are not limited
	mutate := append(append([]echo.MiddlewareFunc{}, auth...), limit...)

	// Book one seat: passenger, ticket and payment in one transaction.
	e.POST("/v1/bookings", b.Create, mutate...)
	// Read a booking by ticket id (owner or employee).
	e.GET("/v1/bookings/:id", b.Get, auth...)
	// The caller's payment records, refunds included.
	e.GET("/v1/transactions", b.Transactions, auth...)

	// The caller's tickets with flight and passenger, newest first.
	e.GET("/v1/tickets", t.ListMine, auth...)
	// Check in inside the window before departure.
	e.POST("/v1/tickets/:id/checkin", t.CheckIn, mutate...)
	// Cancel, free the seat and refund.
	e.POST("/v1/tickets/:id/cancel", t.Cancel, mutate...)
	// Move to another free seat on the same flight; the fare is kept.
	e.POST("/v1/tickets/:id/change-seat", t.ChangeSeat, mutate...)
}

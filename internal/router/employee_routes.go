package router

import (
	"github.com/labstack/echo/v4" // routing

	"github.com/iliyamo/flight-booking/internal/handler"    // admin handlers
	"github.com/iliyamo/flight-booking/internal/middleware" // JWT and role checks
	"github.com/iliyamo/flight-booking/internal/model"      // role names
)

// RegisterEmployee registers the /v1/employee administration endpoints.
// All of them require the EMPLOYEE role.
func RegisterEmployee(e *echo.Echo, h *handler.EmployeeHandler, t *handler.TicketHandler, jwtSecret string) {
	// the group rejects customers with 403 before any handler runs
	g := e.Group("/v1/employee",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleEmployee),
	)

	// Passengers: list (?search= on first or last name), create, edit, and
	// delete when no ticket refers to them.
	g.GET("/passengers", h.ListPassengers)
	g.POST("/passengers", h.CreatePassenger)
	g.PUT("/passengers/:id", h.UpdatePassenger)
	g.DELETE("/passengers/:id", h.DeletePassenger)

	// Tickets: list all, desk edit (seat move or check-in through the same
	// guarded updates as the customer routes), cancel on behalf of the owner.
	g.GET("/tickets", t.ListAll)
	g.PUT("/tickets/:id", t.Update)
	g.DELETE("/tickets/:id", t.Cancel)

	// Flights: create with a seat map, patch, delete when unticketed.
	g.POST("/flights", h.CreateFlight)
	g.PUT("/flights/:id", h.UpdateFlight)
	g.DELETE("/flights/:id", h.DeleteFlight)
	// Recount available_seats from the seat rows.
	g.POST("/flights/:id/reconcile", h.ReconcileFlight)
}

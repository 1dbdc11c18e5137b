// Package router wires handlers and middleware onto echo routes.
package router

import (
	"database/sql" // health check pings the pool

	"github.com/labstack/echo/v4" // routing

	"github.com/iliyamo/flight-booking/internal/handler"    // HTTP handlers
	"github.com/iliyamo/flight-booking/internal/middleware" // JWT and role checks
	"github.com/iliyamo/flight-booking/internal/model"      // role names
)

// RegisterRoutes registers the health check.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
	// 200 while the database answers, 503 otherwise; used by load balancers
	e.GET("/healthz", handler.Health(db))
}

// RegisterAuth registers the token endpoints under /v1/auth and the
// authenticated /v1/me.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// session-less operations that hand out or exchange tokens
	g := e.Group("/v1/auth")
	// new account plus a token pair
	g.POST("/register", a.Register)
	// email and password for a token pair
	g.POST("/login", a.Login)
	// single-use refresh token for a new pair
	g.POST("/refresh", a.Refresh)
	// logout works with either a refresh token or a bearer, so no JWT middleware
	g.POST("/logout", a.Logout)

	// profile of the bearer
	e.GET("/v1/me", a.Me,
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer, model.RoleEmployee))
}

// RegisterPublic registers the unauthenticated flight reads.  cache, when
// given, wraps the flight listings; the seat map is never cached.
func RegisterPublic(e *echo.Echo, f *handler.FlightHandler, cache ...echo.MiddlewareFunc) {
	// no auth: guests browse before they sign in
	g := e.Group("/v1/flights")
	// listings tolerate a few seconds of staleness in available_seats
	g.GET("", f.ListUpcoming, cache...)
	g.GET("/search", f.Search, cache...)
	g.GET("/:id", f.Get, cache...)
	// seat map, uncached
	g.GET("/:id/seats", f.Seats)
}

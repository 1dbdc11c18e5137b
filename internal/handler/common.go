// Package handler contains the echo HTTP handlers.  Handlers resolve the
// caller from the context set by middleware.JWTAuth, call one service
// operation and translate its error with writeError.
package handler

import (
	"context"  // request deadlines
	"errors"   // errors.Is / errors.As against service kinds
	"net/http" // status codes
	"strconv"  // path parameters
	"time"

	"github.com/labstack/echo/v4" // echo context

	"github.com/iliyamo/flight-booking/internal/middleware" // context keys set by JWTAuth
	"github.com/iliyamo/flight-booking/internal/service"    // Caller and error kinds
	"github.com/iliyamo/flight-booking/internal/utils"      // struct validation
)

// requestTimeout bounds the database work of one request.
const requestTimeout = 5 * time.Second

// reqCtx derives the service context from the request so a client
// disconnect also cancels the query.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// getUserID returns the authenticated user id set by JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
	if id, ok := c.Get(middleware.CtxUserID).(uint64); ok && id != 0 {
		return id, nil
	}
	return 0, errors.New("invalid user_id in context")
}

// callerFrom builds the service caller from the request context.
func callerFrom(c echo.Context) (service.Caller, error) {
	uid, err := getUserID(c)
	if err != nil {
		return service.Caller{}, err
	}
	role, _ := c.Get(middleware.CtxRole).(string)
	return service.Caller{UserID: uid, Role: role}, nil
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad_request", "message": msg})
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "unauthorized"})
}

// errorStatus maps service error kinds to a status and machine code.
var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{service.ErrNotFound, http.StatusNotFound, "not_found"},
	{service.ErrSeatUnavailable, http.StatusConflict, "seat_unavailable"},
	{service.ErrForbidden, http.StatusForbidden, "forbidden"},
	{service.ErrAlreadyCheckedIn, http.StatusConflict, "already_checked_in"},
	{service.ErrAlreadyCancelled, http.StatusConflict, "already_cancelled"},
	{service.ErrCheckInWindowClosed, http.StatusConflict, "checkin_window_closed"},
	{service.ErrFlightDeparted, http.StatusConflict, "flight_departed"},
	{service.ErrConflict, http.StatusConflict, "conflict"},
}

// writeError renders err as {"error": code, "message": text}.  Unknown
// errors are logged and reported as 500 without detail.
func writeError(c echo.Context, err error) error {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "validation_failed",
			"message": verr.Error(),
			"fields":  verr.Fields,
		})
	}
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			return c.JSON(m.status, echo.Map{"error": m.code, "message": err.Error()})
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return c.JSON(http.StatusGatewayTimeout, echo.Map{"error": "timeout", "message": "request timed out"})
	}
	c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "internal server error"})
}

// Validator adapts utils.ValidateStruct to echo's Validator interface.
// Failures come back as *service.ValidationError.
type Validator struct{}

func (Validator) Validate(i interface{}) error {
	if fields := utils.ValidateStruct(i); fields != nil {
		return &service.ValidationError{Fields: fields}
	}
	return nil
}

// bindValid binds the request body into dst and validates it.
func bindValid(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return &service.ValidationError{Fields: map[string]string{"body": "invalid JSON"}}
	}
	return c.Validate(dst)
}

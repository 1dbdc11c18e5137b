// Package service holds the booking core: seat inventory, fares, booking
// orchestration, ticket lifecycle and the employee administration flows
// built on top of the repositories.
package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error kinds surfaced to callers.  Each maps to a distinct, displayable
// reason; none is retried by the core.
var (
	ErrNotFound            = errors.New("not found")
	ErrSeatUnavailable     = errors.New("seat unavailable")
	ErrForbidden           = errors.New("forbidden")
	ErrAlreadyCheckedIn    = errors.New("ticket already checked in")
	ErrAlreadyCancelled    = errors.New("ticket already cancelled")
	ErrCheckInWindowClosed = errors.New("check-in window is not open")
	ErrFlightDeparted      = errors.New("flight has already departed")
	ErrConflict            = errors.New("conflict")
)

// ValidationError reports malformed input, keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func invalid(field, reason string) error {
	return &ValidationError{Fields: map[string]string{field: reason}}
}

func validationFrom(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

func notFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}

package service

import "github.com/iliyamo/flight-booking/internal/model"

// Caller is the authenticated identity on whose behalf an operation runs.
// It is resolved from the bearer credential by the HTTP layer and passed
// explicitly into every core operation.
type Caller struct {
	UserID uint64
	Role   string
}

// IsEmployee reports whether the caller holds the employee role.
func (c Caller) IsEmployee() bool { return c.Role == model.RoleEmployee }

// Owns reports whether the caller booked a resource owned by userID.
func (c Caller) Owns(userID uint64) bool { return c.UserID != 0 && c.UserID == userID }

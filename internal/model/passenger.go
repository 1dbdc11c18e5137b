package model

import "time"

// Passenger holds the contact and travel-document details of a traveller.
// UserID links the passenger to the account that created it and is nil for
// passengers entered by an employee for a traveller without an account.
type Passenger struct {
	ID             uint64     `json:"id"`
	UserID         *uint64    `json:"user_id,omitempty"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Email          string     `json:"email"`
	Phone          *string    `json:"phone,omitempty"`
	DateOfBirth    *time.Time `json:"date_of_birth,omitempty"`
	Nationality    *string    `json:"nationality,omitempty"`
	PassportNumber *string    `json:"passport_number,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

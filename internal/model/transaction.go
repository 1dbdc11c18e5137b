package model

import "time"

// Transaction statuses.
const (
	TxPending   = "pending"
	TxCompleted = "completed"
	TxFailed    = "failed"
	TxRefunded  = "refunded"
)

// Transaction is the payment record of a booking.  It shares the booking
// reference with the ticket it paid for.
type Transaction struct {
	ID                uint64    `json:"id"`
	TransactionNumber string    `json:"transaction_number"`
	UserID            uint64    `json:"user_id"`
	TicketID          *uint64   `json:"ticket_id,omitempty"`
	BookingReference  string    `json:"booking_reference"`
	Amount            Money     `json:"amount"`
	PaymentMethod     string    `json:"payment_method"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

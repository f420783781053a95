package entity

import "time"

const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"

	CheckInPending = "pending"
	CheckInDone    = "checked_in"
)

type Ticket struct {
	ID            string    `json:"ticket_id" db:"ticket_id"`
	EventID       string    `json:"event_id" db:"event_id"`
	TicketTypeID  *string   `json:"ticket_type_id,omitempty" db:"ticket_type_id"`
	UserID        string    `json:"user_id" db:"user_id"`
	CustomerEmail string    `json:"customer_email" db:"customer_email"`
	Quantity      int       `json:"quantity" db:"quantity"`
	Status        string    `json:"status" db:"status"`
	CheckInStatus string    `json:"check_in_status" db:"check_in_status"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`

	// Payment is nil for free tickets.
	Payment *PaymentInfo `json:"payment,omitempty"`
}

// PaymentInfo is the audit snapshot captured from the provider session at
// reconciliation time. Reference doubles as the idempotency key.
type PaymentInfo struct {
	Reference   string `json:"reference" db:"payment_id"`
	AmountTotal int64  `json:"amount_total" db:"payment_amount"`
	Currency    string `json:"currency" db:"payment_currency"`
	SessionID   string `json:"session_id" db:"payment_session_id"`
}

// Registration links a user to an event for attendance lists. It is keyed by
// (event, user) so repeat purchases do not duplicate rows.
type Registration struct {
	EventID      string    `json:"event_id" db:"event_id"`
	UserID       string    `json:"user_id" db:"user_id"`
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
}

// Purchaser is the authenticated identity a claim is issued to. It is
// resolved once at the HTTP boundary and passed down explicitly.
type Purchaser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type Money struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

package event

import (
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"ticketing/entity"
)

type header struct {
	ID             string    `json:"id"`
	PublishedAt    time.Time `json:"published_at"`
	IdempotencyKey string    `json:"idempotency_key"`
}

func newHeader(idempotencyKey string) header {
	return header{
		ID:             watermill.NewUUID(),
		PublishedAt:    time.Now().UTC(),
		IdempotencyKey: idempotencyKey,
	}
}

// TicketIssued is published in the same transaction as the ticket insert.
// Consumers (confirmation email, registration recorder) receive it at least
// once and must be idempotent on TicketID.
type TicketIssued struct {
	Header         header       `json:"header"`
	TicketID       string       `json:"ticket_id"`
	EventID        string       `json:"event_id"`
	UserID         string       `json:"user_id"`
	CustomerEmail  string       `json:"customer_email"`
	Quantity       int          `json:"quantity"`
	TicketTypeName string       `json:"ticket_type_name,omitempty"`
	Price          entity.Money `json:"price"`
	EventTitle     string       `json:"event_title"`
	EventDate      string       `json:"event_date"`
	EventTime      string       `json:"event_time"`
	EventLocation  string       `json:"event_location"`
}

func NewTicketIssued(ticket entity.Ticket, ev entity.Event, typeName string, price entity.Money) TicketIssued {
	return TicketIssued{
		Header:         newHeader(ticket.ID),
		TicketID:       ticket.ID,
		EventID:        ticket.EventID,
		UserID:         ticket.UserID,
		CustomerEmail:  ticket.CustomerEmail,
		Quantity:       ticket.Quantity,
		TicketTypeName: typeName,
		Price:          price,
		EventTitle:     ev.Title,
		EventDate:      ev.Date,
		EventTime:      ev.Time,
		EventLocation:  ev.Location,
	}
}

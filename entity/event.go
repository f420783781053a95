package entity

import "github.com/shopspring/decimal"

// Event is the legacy single-price event row. Events created after the
// ticket-type rollout keep Price and AvailableTickets for display only;
// inventory for them lives on TicketType.
type Event struct {
	ID               string          `json:"event_id" db:"event_id"`
	Slug             string          `json:"slug" db:"slug"`
	Title            string          `json:"title" db:"title"`
	Date             string          `json:"event_date" db:"event_date"`
	Time             string          `json:"event_time" db:"event_time"`
	Location         string          `json:"location" db:"location"`
	Price            decimal.Decimal `json:"price" db:"price"`
	AvailableTickets int             `json:"available_tickets" db:"available_tickets"`
	OrganizerID      string          `json:"organizer_id" db:"organizer_id"`
}

// IsFree reports whether the legacy event price is exactly zero.
func (e Event) IsFree() bool {
	return e.Price.IsZero()
}

type TicketType struct {
	ID                string          `json:"ticket_type_id" db:"ticket_type_id"`
	EventID           string          `json:"event_id" db:"event_id"`
	Name              string          `json:"name" db:"name"`
	Price             decimal.Decimal `json:"price" db:"price"`
	QuantityAvailable int             `json:"quantity_available" db:"quantity_available"`
	QuantitySold      int             `json:"quantity_sold" db:"quantity_sold"`
	MaxPerOrder       int             `json:"max_per_order" db:"max_per_order"`
	IsActive          bool            `json:"is_active" db:"is_active"`
}

func (t TicketType) IsFree() bool {
	return t.Price.IsZero()
}

func (t TicketType) Remaining() int {
	return t.QuantityAvailable - t.QuantitySold
}

package entity

import (
	"fmt"
	"strconv"
)

// CheckoutMetadata is the typed view of the string map attached to a
// provider checkout session when it was created. The webhook carries no
// other request body, so this is the only trusted channel for what was
// bought and by whom.
type CheckoutMetadata struct {
	EventID        string
	EventSlug      string
	UserID         string
	Quantity       int
	TicketTypeID   *string
	TicketTypeName string
	EventTitle     string
	EventDate      string
	EventTime      string
	EventLocation  string
}

// MetadataError reports a checkout session whose metadata is missing or
// malformed. Reconciliation fails fast on it before touching inventory.
type MetadataError struct {
	Field  string
	Reason string
}

func (e MetadataError) Error() string {
	return fmt.Sprintf("invalid checkout metadata: field %q %s", e.Field, e.Reason)
}

// ParseCheckoutMetadata validates the raw metadata map. Required fields are
// user_id, quantity and one of event_id/event_slug; the rest are optional
// display details.
func ParseCheckoutMetadata(raw map[string]string) (CheckoutMetadata, error) {
	md := CheckoutMetadata{
		EventID:        raw["event_id"],
		EventSlug:      raw["event_slug"],
		UserID:         raw["user_id"],
		TicketTypeName: raw["ticket_type_name"],
		EventTitle:     raw["event_title"],
		EventDate:      raw["event_date"],
		EventTime:      raw["event_time"],
		EventLocation:  raw["event_location"],
	}

	if md.EventID == "" && md.EventSlug == "" {
		return CheckoutMetadata{}, MetadataError{Field: "event_id", Reason: "missing (no event_id or event_slug)"}
	}
	if md.UserID == "" {
		return CheckoutMetadata{}, MetadataError{Field: "user_id", Reason: "missing"}
	}

	rawQuantity, ok := raw["quantity"]
	if !ok || rawQuantity == "" {
		return CheckoutMetadata{}, MetadataError{Field: "quantity", Reason: "missing"}
	}
	quantity, err := strconv.Atoi(rawQuantity)
	if err != nil {
		return CheckoutMetadata{}, MetadataError{Field: "quantity", Reason: fmt.Sprintf("not an integer: %q", rawQuantity)}
	}
	if quantity < 1 {
		return CheckoutMetadata{}, MetadataError{Field: "quantity", Reason: fmt.Sprintf("must be at least 1, got %d", quantity)}
	}
	md.Quantity = quantity

	if id := raw["ticket_type_id"]; id != "" {
		md.TicketTypeID = &id
	}

	return md, nil
}

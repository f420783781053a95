package issuance

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated     = errors.New("purchaser is not authenticated")
	ErrNotFound            = errors.New("event or ticket type not found")
	ErrPaymentRequired     = errors.New("this ticket requires payment")
	ErrTicketTypeInactive  = errors.New("ticket type is not active")
	ErrInvalidQuantity     = errors.New("quantity must be at least 1")
	ErrPaymentNotCompleted = errors.New("payment session is not completed")
)

// OutOfStockError is returned when the requested quantity exceeds the
// remaining inventory of a ticket type.
type OutOfStockError struct {
	Available int
	Requested int
}

func (e OutOfStockError) Error() string {
	return fmt.Sprintf("out of stock: %d available, %d requested", e.Available, e.Requested)
}

// OrderLimitError is returned when a single order asks for more tickets
// than the ticket type allows per order.
type OrderLimitError struct {
	Max       int
	Requested int
}

func (e OrderLimitError) Error() string {
	return fmt.Sprintf("order limit exceeded: at most %d per order, %d requested", e.Max, e.Requested)
}

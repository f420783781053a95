package db

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var ErrNotFound = errors.New("not found")

// InsufficientInventoryError is returned when the conditional quantity_sold
// update matches no row because the remaining inventory is too small.
type InsufficientInventoryError struct {
	Available int
	Requested int
}

func (e InsufficientInventoryError) Error() string {
	return fmt.Sprintf("not enough tickets: %d available, %d requested", e.Available, e.Requested)
}

func (e InsufficientInventoryError) InsufficientInventory() bool {
	return true
}

// DuplicateTicketError is the unique-constraint backstop behind the
// idempotency guard: two racing inserts for the same payment reference or
// the same (event, user) free claim leave exactly one winner.
type DuplicateTicketError struct {
	Constraint string
}

func (e DuplicateTicketError) Error() string {
	return fmt.Sprintf("duplicate ticket: unique constraint %q", e.Constraint)
}

func (e DuplicateTicketError) DuplicateTicket() bool {
	return true
}

// ErrTicketTypeInactive is returned when allocation hits a ticket type that
// was deactivated between validation and the conditional update.
var ErrTicketTypeInactive = errors.New("ticket type is not active")

const pqUniqueViolation = "23505"

func asDuplicate(err error) (DuplicateTicketError, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return DuplicateTicketError{Constraint: pqErr.Constraint}, true
	}
	return DuplicateTicketError{}, false
}

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"ticketing/entity"
	"ticketing/event"
	"ticketing/message"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type TicketRepo struct {
	db     *sqlx.DB
	logger watermill.LoggerAdapter
}

func NewTicketRepo(db *sqlx.DB, logger watermill.LoggerAdapter) TicketRepo {
	return TicketRepo{
		db:     db,
		logger: logger,
	}
}

// Issue inserts the ticket, increments the ticket-type counter when one is
// involved, and publishes TicketIssued to the outbox, all in one
// transaction. Either everything is visible or nothing is; a duplicate key
// means another invocation already issued for the same idempotency key and
// surfaces as DuplicateTicketError with no inventory mutation.
//
// The default isolation level is enough here. Concurrent allocations
// serialise on the ticket type's row lock, and the inventory check is part
// of the UPDATE itself.
func (r TicketRepo) Issue(ctx context.Context, ticket entity.Ticket, issued event.TicketIssued) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := r.issue(ctx, tx, ticket, issued); err != nil {
		if dup, ok := asDuplicate(err); ok {
			return errors.Join(dup, tx.Rollback())
		}
		return errors.Join(err, tx.Rollback())
	}

	if err := tx.Commit(); err != nil {
		if dup, ok := asDuplicate(err); ok {
			return dup
		}
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (r TicketRepo) issue(ctx context.Context, tx *sql.Tx, ticket entity.Ticket, issued event.TicketIssued) error {
	if ticket.TicketTypeID != nil {
		if err := allocate(ctx, tx, *ticket.TicketTypeID, ticket.Quantity); err != nil {
			return err
		}
	}

	var paymentID, paymentCurrency, paymentSessionID *string
	var paymentAmount *int64
	if p := ticket.Payment; p != nil {
		paymentID = &p.Reference
		paymentAmount = &p.AmountTotal
		paymentCurrency = &p.Currency
		paymentSessionID = &p.SessionID
	}

	_, err := tx.ExecContext(ctx, `INSERT INTO tickets
		(ticket_id, event_id, ticket_type_id, user_id, customer_email, quantity,
		status, check_in_status, payment_id, payment_amount, payment_currency, payment_session_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);`,
		ticket.ID, ticket.EventID, ticket.TicketTypeID, ticket.UserID, ticket.CustomerEmail,
		ticket.Quantity, ticket.Status, ticket.CheckInStatus,
		paymentID, paymentAmount, paymentCurrency, paymentSessionID)
	if err != nil {
		return fmt.Errorf("inserting ticket: %w", err)
	}

	if err := message.PublishInTx(ctx, issued, tx, r.logger); err != nil {
		return fmt.Errorf("publishing event in transaction: %w", err)
	}

	return nil
}

const ticketColumns = `ticket_id, event_id, ticket_type_id, user_id, customer_email,
	quantity, status, check_in_status, payment_id, payment_amount, payment_currency,
	payment_session_id, created_at`

// FindByPaymentRef looks up a confirmed ticket by provider payment
// reference. The second return value reports whether one exists.
func (r TicketRepo) FindByPaymentRef(ctx context.Context, paymentRef string) (entity.Ticket, bool, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets
		WHERE payment_id = $1 AND status = 'confirmed'`, ticketColumns)
	return r.findOne(ctx, query, paymentRef)
}

// FindLegacyFree looks up the confirmed ticket-type-less ticket for
// (event, user), the idempotency key of the legacy free path.
func (r TicketRepo) FindLegacyFree(ctx context.Context, eventID, userID string) (entity.Ticket, bool, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets
		WHERE event_id = $1 AND user_id = $2 AND ticket_type_id IS NULL AND status = 'confirmed'`, ticketColumns)
	return r.findOne(ctx, query, eventID, userID)
}

func (r TicketRepo) findOne(ctx context.Context, query string, args ...any) (entity.Ticket, bool, error) {
	row := r.db.QueryRowxContext(ctx, query, args...)
	ticket, err := scanTicket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Ticket{}, false, nil
	}
	if err != nil {
		return entity.Ticket{}, false, fmt.Errorf("querying ticket: %w", err)
	}

	return ticket, true, nil
}

func (r TicketRepo) ListByUser(ctx context.Context, userID string) ([]entity.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets
		WHERE user_id = $1 AND status = 'confirmed' ORDER BY created_at DESC`, ticketColumns)
	rows, err := r.db.QueryxContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying tickets: %w", err)
	}
	defer rows.Close()

	var tickets []entity.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		tickets = append(tickets, t)
	}

	return tickets, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (entity.Ticket, error) {
	var t entity.Ticket
	var ticketTypeID, paymentID, paymentCurrency, paymentSessionID sql.NullString
	var paymentAmount sql.NullInt64

	err := row.Scan(&t.ID, &t.EventID, &ticketTypeID, &t.UserID, &t.CustomerEmail,
		&t.Quantity, &t.Status, &t.CheckInStatus,
		&paymentID, &paymentAmount, &paymentCurrency, &paymentSessionID, &t.CreatedAt)
	if err != nil {
		return entity.Ticket{}, err
	}

	if ticketTypeID.Valid {
		t.TicketTypeID = &ticketTypeID.String
	}
	if paymentID.Valid {
		t.Payment = &entity.PaymentInfo{
			Reference:   paymentID.String,
			AmountTotal: paymentAmount.Int64,
			Currency:    paymentCurrency.String,
			SessionID:   paymentSessionID.String,
		}
	}

	return t, nil
}

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"ticketing/entity"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type TicketTypeRepo struct {
	db *sqlx.DB
}

func NewTicketTypeRepo(db *sqlx.DB) TicketTypeRepo {
	return TicketTypeRepo{
		db: db,
	}
}

const ticketTypeColumns = `ticket_type_id, event_id, name, price,
	quantity_available, quantity_sold, max_per_order, is_active`

func (r TicketTypeRepo) Get(ctx context.Context, ticketTypeID string) (entity.TicketType, error) {
	var tt entity.TicketType
	query := fmt.Sprintf("SELECT %s FROM ticket_types WHERE ticket_type_id = $1", ticketTypeColumns)
	if err := r.db.GetContext(ctx, &tt, query, ticketTypeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.TicketType{}, ErrNotFound
		}
		return entity.TicketType{}, fmt.Errorf("querying ticket type: %w", err)
	}

	return tt, nil
}

func (r TicketTypeRepo) Add(ctx context.Context, tt entity.TicketType) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO ticket_types
		(ticket_type_id, event_id, name, price, quantity_available, quantity_sold, max_per_order, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`,
		tt.ID, tt.EventID, tt.Name, tt.Price, tt.QuantityAvailable, tt.QuantitySold, tt.MaxPerOrder, tt.IsActive)
	return err
}

// allocate increments quantity_sold by quantity only if the result stays
// within quantity_available and the type is still active. The single
// conditional UPDATE is what makes concurrent purchases safe: a
// read-modify-write pair here would silently oversell under load.
func allocate(ctx context.Context, tx *sql.Tx, ticketTypeID string, quantity int) error {
	res, err := tx.ExecContext(ctx, `UPDATE ticket_types
		SET quantity_sold = quantity_sold + $1
		WHERE ticket_type_id = $2
		  AND is_active
		  AND quantity_sold + $1 <= quantity_available;`,
		quantity, ticketTypeID)
	if err != nil {
		return fmt.Errorf("updating quantity_sold: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}

	// No row matched. Read the row to report why.
	row := tx.QueryRowContext(ctx, `SELECT quantity_available - quantity_sold, is_active
		FROM ticket_types WHERE ticket_type_id = $1`, ticketTypeID)
	var remaining int
	var isActive bool
	if err := row.Scan(&remaining, &isActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("inspecting ticket type after failed allocation: %w", err)
	}
	if !isActive {
		return ErrTicketTypeInactive
	}

	return InsufficientInventoryError{
		Available: remaining,
		Requested: quantity,
	}
}

package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func InitialiseDB(ctx context.Context, db *sqlx.DB) error {
	if err := CreateEventsTable(ctx, db); err != nil {
		return fmt.Errorf("creating events table: %w", err)
	}

	if err := CreateTicketTypesTable(ctx, db); err != nil {
		return fmt.Errorf("creating ticket_types table: %w", err)
	}

	if err := CreateTicketsTable(ctx, db); err != nil {
		return fmt.Errorf("creating tickets table: %w", err)
	}

	if err := CreateRegistrationsTable(ctx, db); err != nil {
		return fmt.Errorf("creating event_registrations table: %w", err)
	}

	return nil
}

func CreateEventsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS events (
		event_id UUID PRIMARY KEY,
		slug VARCHAR(255) NOT NULL UNIQUE,
		title VARCHAR(255) NOT NULL,
		event_date VARCHAR(64) NOT NULL DEFAULT '',
		event_time VARCHAR(64) NOT NULL DEFAULT '',
		location VARCHAR(255) NOT NULL DEFAULT '',
		price NUMERIC(10, 2) NOT NULL DEFAULT 0 CHECK (price >= 0),
		available_tickets INTEGER NOT NULL DEFAULT 0,
		organizer_id UUID NOT NULL
		);`)
	return err
}

func CreateTicketTypesTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS ticket_types (
		ticket_type_id UUID PRIMARY KEY,
		event_id UUID NOT NULL REFERENCES events (event_id),
		name VARCHAR(255) NOT NULL,
		price NUMERIC(10, 2) NOT NULL CHECK (price >= 0),
		quantity_available INTEGER NOT NULL CHECK (quantity_available >= 0),
		quantity_sold INTEGER NOT NULL DEFAULT 0,
		max_per_order INTEGER NOT NULL DEFAULT 10 CHECK (max_per_order >= 1),
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		CHECK (quantity_sold >= 0 AND quantity_sold <= quantity_available)
		);`)
	return err
}

func CreateTicketsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS tickets (
		ticket_id UUID PRIMARY KEY,
		event_id UUID NOT NULL REFERENCES events (event_id),
		ticket_type_id UUID REFERENCES ticket_types (ticket_type_id),
		user_id UUID NOT NULL,
		customer_email VARCHAR(255) NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity >= 1),
		status VARCHAR(32) NOT NULL,
		check_in_status VARCHAR(32) NOT NULL DEFAULT 'pending',
		payment_id TEXT UNIQUE,
		payment_amount BIGINT,
		payment_currency CHAR(3),
		payment_session_id TEXT,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
		);`)
	if err != nil {
		return err
	}

	// One free ticket per person for events that predate ticket types.
	_, err = db.ExecContext(ctx, `CREATE UNIQUE INDEX IF NOT EXISTS
		tickets_one_free_per_user ON tickets (event_id, user_id)
		WHERE ticket_type_id IS NULL AND status = 'confirmed';`)
	return err
}

func CreateRegistrationsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS event_registrations (
		event_id UUID NOT NULL REFERENCES events (event_id),
		user_id UUID NOT NULL,
		registered_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
		PRIMARY KEY (event_id, user_id)
		);`)
	return err
}

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

type EventRepo struct {
	db *sqlx.DB
}

func NewEventRepo(db *sqlx.DB) EventRepo {
	return EventRepo{
		db: db,
	}
}

const eventColumns = `event_id, slug, title, event_date, event_time, location,
	price, available_tickets, organizer_id`

func (r EventRepo) GetByID(ctx context.Context, eventID string) (entity.Event, error) {
	return r.get(ctx, "event_id", eventID)
}

func (r EventRepo) GetBySlug(ctx context.Context, slug string) (entity.Event, error) {
	return r.get(ctx, "slug", slug)
}

func (r EventRepo) get(ctx context.Context, column, value string) (entity.Event, error) {
	var ev entity.Event
	query := fmt.Sprintf("SELECT %s FROM events WHERE %s = $1", eventColumns, column)
	if err := r.db.GetContext(ctx, &ev, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.Event{}, ErrNotFound
		}
		return entity.Event{}, fmt.Errorf("querying event by %s: %w", column, err)
	}

	return ev, nil
}

func (r EventRepo) Add(ctx context.Context, ev entity.Event) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO events
		(event_id, slug, title, event_date, event_time, location, price, available_tickets, organizer_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`,
		ev.ID, ev.Slug, ev.Title, ev.Date, ev.Time, ev.Location, ev.Price, ev.AvailableTickets, ev.OrganizerID)
	return err
}

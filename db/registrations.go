package db

import (
	"context"
	"ticketing/entity"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type RegistrationRepo struct {
	db *sqlx.DB
}

func NewRegistrationRepo(db *sqlx.DB) RegistrationRepo {
	return RegistrationRepo{
		db: db,
	}
}

// Upsert records attendance keyed by (event, user). Repeat purchases and
// redelivered events hit the conflict clause and leave a single row.
func (r RegistrationRepo) Upsert(ctx context.Context, eventID, userID string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO event_registrations
		(event_id, user_id)
		VALUES ($1, $2) ON CONFLICT (event_id, user_id) DO NOTHING;`,
		eventID, userID)
	return err
}

func (r RegistrationRepo) ListByEvent(ctx context.Context, eventID string) ([]entity.Registration, error) {
	var registrations []entity.Registration
	err := r.db.SelectContext(ctx, &registrations, `SELECT event_id, user_id, registered_at
		FROM event_registrations WHERE event_id = $1 ORDER BY registered_at`, eventID)
	if err != nil {
		return nil, err
	}

	return registrations, nil
}

package reminder

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG creates the Postgres-backed reminder repository.
func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const reminderCols = `reminder_id, type, user_id, linked_id, time_ms, status`

func scanReminder(row pgx.Row) (*Reminder, error) {
	var r Reminder
	err := row.Scan(&r.ReminderID, &r.Type, &r.UserID, &r.LinkedID, &r.Time, &r.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *repoPG) Create(ctx context.Context, rem *Reminder) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO reminder (reminder_id, type, user_id, linked_id, time_ms, status)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		rem.ReminderID, rem.Type, rem.UserID, rem.LinkedID, rem.Time, rem.Status)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, reminderID string) (*Reminder, error) {
	return scanReminder(r.pool.QueryRow(ctx,
		`SELECT `+reminderCols+` FROM reminder WHERE reminder_id = $1`, reminderID))
}

func (r *repoPG) Delete(ctx context.Context, reminderID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reminder WHERE reminder_id = $1`, reminderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ListByUser(ctx context.Context, userID string) ([]*Reminder, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+reminderCols+` FROM reminder WHERE user_id = $1 ORDER BY time_ms`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Reminder
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rem)
	}
	return items, rows.Err()
}

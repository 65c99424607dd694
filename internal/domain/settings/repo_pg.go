package settings

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG creates the Postgres-backed settings repository.
func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) Get(ctx context.Context, userID string) (*Settings, bool, error) {
	var s Settings
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, notifications_enabled FROM user_settings WHERE user_id = $1`, userID).
		Scan(&s.UserID, &s.NotificationsEnabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &s, true, nil
}

func (r *repoPG) Upsert(ctx context.Context, s *Settings) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_settings (user_id, notifications_enabled)
		VALUES ($1,$2)
		ON CONFLICT (user_id) DO UPDATE SET notifications_enabled = EXCLUDED.notifications_enabled, updated_at = NOW()`,
		s.UserID, s.NotificationsEnabled)
	return err
}

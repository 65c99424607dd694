package profile

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG creates the Postgres-backed profile repository.
func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) Get(ctx context.Context, userID string) (*UserProfile, bool, error) {
	var p UserProfile
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, name, age, mobile_number, address, is_new_user
		FROM user_profile WHERE user_id = $1`, userID).
		Scan(&p.UserID, &p.Name, &p.Age, &p.MobileNumber, &p.Address, &p.IsNewUser)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &p, true, nil
}

func (r *repoPG) Upsert(ctx context.Context, p *UserProfile) error {
	// is_new_user is managed by SetNewUser; a profile save never resets it.
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_profile (user_id, name, age, mobile_number, address)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (user_id) DO UPDATE SET
			name = EXCLUDED.name,
			age = EXCLUDED.age,
			mobile_number = EXCLUDED.mobile_number,
			address = EXCLUDED.address,
			updated_at = NOW()`,
		p.UserID, p.Name, p.Age, p.MobileNumber, p.Address)
	return err
}

func (r *repoPG) SetNewUser(ctx context.Context, userID string, isNew bool) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_profile (user_id, is_new_user)
		VALUES ($1,$2)
		ON CONFLICT (user_id) DO UPDATE SET is_new_user = EXCLUDED.is_new_user, updated_at = NOW()`,
		userID, isNew)
	return err
}

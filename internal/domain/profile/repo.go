package profile

import "context"

// Repository persists user profiles. Get on a user with no row reports
// found=false so the service can apply defaults.
type Repository interface {
	Get(ctx context.Context, userID string) (*UserProfile, bool, error)
	Upsert(ctx context.Context, p *UserProfile) error
	SetNewUser(ctx context.Context, userID string, isNew bool) error
}

package settings

import "context"

// Repository persists per-user settings. Get on a user with no row reports
// found=false so the service can apply defaults.
type Repository interface {
	Get(ctx context.Context, userID string) (*Settings, bool, error)
	Upsert(ctx context.Context, s *Settings) error
}

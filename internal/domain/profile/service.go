package profile

import (
	"context"

	"github.com/rs/zerolog"
)

// Service reads and writes user profiles.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Get returns the user's profile. Users without a stored profile get an
// empty one with the new-user flag set.
func (s *Service) Get(ctx context.Context, userID string) (*UserProfile, error) {
	stored, found, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !found {
		return &UserProfile{UserID: userID, IsNewUser: true}, nil
	}
	return stored, nil
}

// Save upserts the profile fields. The new-user flag is untouched; only
// checkout clears it.
func (s *Service) Save(ctx context.Context, p *UserProfile) (*UserProfile, error) {
	if err := s.repo.Upsert(ctx, p); err != nil {
		return nil, err
	}
	return s.Get(ctx, p.UserID)
}

// MarkNotNew clears the new-user flag. The pharmacy checkout calls it after
// the first order.
func (s *Service) MarkNotNew(ctx context.Context, userID string) error {
	return s.repo.SetNewUser(ctx, userID, false)
}

// IsNewUser reports whether the user has never checked out.
func (s *Service) IsNewUser(ctx context.Context, userID string) (bool, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return p.IsNewUser, nil
}

package settings

import (
	"context"

	"github.com/rs/zerolog"
)

// Observer is notified after the notification toggle changes. The reminder
// service implements it: enable reschedules future reminders, disable cancels
// every pending task and clears shown notifications.
type Observer interface {
	OnNotificationsEnabled(ctx context.Context, userID string)
	OnNotificationsDisabled(ctx context.Context, userID string)
}

// Service reads and writes per-user settings and fans toggle changes out to
// observers.
type Service struct {
	repo      Repository
	logger    zerolog.Logger
	observers []Observer
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// AddObserver registers an observer for toggle changes. Not safe to call
// after the server starts serving.
func (s *Service) AddObserver(o Observer) {
	s.observers = append(s.observers, o)
}

// Get returns the user's settings, applying defaults when no row exists.
func (s *Service) Get(ctx context.Context, userID string) (*Settings, error) {
	stored, found, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !found {
		return &Settings{UserID: userID, NotificationsEnabled: true}, nil
	}
	return stored, nil
}

// NotificationsEnabled reports the user's toggle state. Read failures fall
// back to the default so reminders keep working.
func (s *Service) NotificationsEnabled(ctx context.Context, userID string) bool {
	current, err := s.Get(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to read settings, using default")
		return true
	}
	return current.NotificationsEnabled
}

// SetNotificationsEnabled persists the toggle and notifies observers. The
// write happens first; observers only see a state that is already stored.
func (s *Service) SetNotificationsEnabled(ctx context.Context, userID string, enabled bool) (*Settings, error) {
	updated := &Settings{UserID: userID, NotificationsEnabled: enabled}
	if err := s.repo.Upsert(ctx, updated); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", userID).Bool("enabled", enabled).Msg("notification toggle changed")
	for _, o := range s.observers {
		if enabled {
			o.OnNotificationsEnabled(ctx, userID)
		} else {
			o.OnNotificationsDisabled(ctx, userID)
		}
	}
	return updated, nil
}

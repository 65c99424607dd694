package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmhodges/clock"
	"github.com/rs/zerolog"

	"github.com/healthhive/api/internal/platform/jobs"
	"github.com/healthhive/api/internal/platform/notify"
	"github.com/healthhive/api/internal/platform/watch"
)

var (
	// ErrNotFound is returned when no reminder exists for the given id.
	ErrNotFound = errors.New("reminder not found")
	// ErrForbidden is returned when a reminder belongs to another user.
	ErrForbidden = errors.New("reminder belongs to another user")
	// ErrInvalidType is returned for an unknown reminder type.
	ErrInvalidType = errors.New("invalid reminder type")
)

const notificationTitle = "Health Reminder"

// Deferrer schedules one-shot deferred tasks keyed by tag. The scheduler in
// platform/jobs satisfies it.
type Deferrer interface {
	Enqueue(ctx context.Context, tag string, payload []byte, delay time.Duration) error
	Cancel(ctx context.Context, tag string) error
}

// SettingsGate reports whether notifications are enabled for a user. The
// settings service satisfies it.
type SettingsGate interface {
	NotificationsEnabled(ctx context.Context, userID string) bool
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the service clock. Tests use a fake.
func WithClock(clk clock.Clock) Option {
	return func(s *Service) { s.clk = clk }
}

// Service owns reminder records and their deferred delivery. Every reminder
// has at most one pending task, tagged with the reminder id.
type Service struct {
	repo      Repository
	deferrer  Deferrer
	presenter notify.Presenter
	gate      SettingsGate
	clk       clock.Clock
	logger    zerolog.Logger

	mu    sync.Mutex
	feeds map[string]*watch.Feed[[]*Reminder]
}

func NewService(repo Repository, deferrer Deferrer, presenter notify.Presenter, gate SettingsGate, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		deferrer:  deferrer,
		presenter: presenter,
		gate:      gate,
		clk:       clock.New(),
		logger:    logger,
		feeds:     make(map[string]*watch.Feed[[]*Reminder]),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create persists a reminder and, when notifications are enabled for the
// user, schedules its deferred delivery. The record is written regardless of
// the notification toggle.
func (s *Service) Create(ctx context.Context, r *Reminder) error {
	if !ValidType(r.Type) {
		return fmt.Errorf("%w: %s", ErrInvalidType, r.Type)
	}
	if r.ReminderID == "" {
		r.ReminderID = uuid.New().String()
	}
	r.Status = StatusScheduled

	if err := s.repo.Create(ctx, r); err != nil {
		s.logger.Error().Err(err).Str("reminder_id", r.ReminderID).Msg("failed to save reminder")
		return err
	}

	if s.gate.NotificationsEnabled(ctx, r.UserID) {
		s.scheduleDeferred(ctx, r)
	}

	s.publish(ctx, r.UserID)
	return nil
}

// Delete cancels the reminder's pending task and removes the record. The
// cancellation happens first, so the task is gone even if the record delete
// fails.
func (s *Service) Delete(ctx context.Context, userID, reminderID string) error {
	r, err := s.repo.GetByID(ctx, reminderID)
	if err != nil {
		return err
	}
	if r.UserID != userID {
		return ErrForbidden
	}

	if err := s.deferrer.Cancel(ctx, reminderID); err != nil {
		s.logger.Error().Err(err).Str("reminder_id", reminderID).Msg("failed to cancel reminder task")
	}

	if err := s.repo.Delete(ctx, reminderID); err != nil {
		s.logger.Error().Err(err).Str("reminder_id", reminderID).Msg("failed to delete reminder")
		return err
	}

	s.publish(ctx, userID)
	return nil
}

// Active returns the user's reminders whose fire time is still in the
// future, soonest first.
func (s *Service) Active(ctx context.Context, userID string) ([]*Reminder, error) {
	all, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.clk.Now().UnixMilli()
	active := make([]*Reminder, 0, len(all))
	for _, r := range all {
		if r.Time > now {
			active = append(active, r)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].Time < active[j].Time })
	return active, nil
}

// RescheduleAll re-creates deferred tasks for every future reminder of the
// user. Called when notifications are switched on and on startup. Reminders
// whose time already passed are left alone.
func (s *Service) RescheduleAll(ctx context.Context, userID string) error {
	if !s.gate.NotificationsEnabled(ctx, userID) {
		return nil
	}

	future, err := s.Active(ctx, userID)
	if err != nil {
		return err
	}
	for _, r := range future {
		s.scheduleDeferred(ctx, r)
	}
	s.logger.Info().Str("user_id", userID).Int("count", len(future)).Msg("reminders rescheduled")
	return nil
}

// CancelAll cancels the deferred task of every reminder of the user, past or
// future, and clears shown notifications. Records are kept.
func (s *Service) CancelAll(ctx context.Context, userID string) error {
	all, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, r := range all {
		if err := s.deferrer.Cancel(ctx, r.ReminderID); err != nil {
			s.logger.Error().Err(err).Str("reminder_id", r.ReminderID).Msg("failed to cancel reminder task")
		}
	}
	s.presenter.CancelAll()
	s.logger.Info().Str("user_id", userID).Int("count", len(all)).Msg("reminders canceled")
	return nil
}

// OnNotificationsEnabled implements the settings observer: reschedule on
// enable, cancel everything on disable.
func (s *Service) OnNotificationsEnabled(ctx context.Context, userID string) {
	if err := s.RescheduleAll(ctx, userID); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to reschedule reminders")
	}
}

func (s *Service) OnNotificationsDisabled(ctx context.Context, userID string) {
	if err := s.CancelAll(ctx, userID); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to cancel reminders")
	}
}

// Watch returns a live subscription to the user's active reminders. The
// current snapshot is delivered first, then a fresh one after every change.
func (s *Service) Watch(ctx context.Context, userID string) (*watch.Subscription[[]*Reminder], error) {
	active, err := s.Active(ctx, userID)
	if err != nil {
		return nil, err
	}
	feed := s.feedFor(userID)
	feed.Publish(active)
	return feed.Subscribe(), nil
}

// HandleJob is the deferred-task handler. The notification toggle is
// re-checked at fire time: a task that was pending when the user switched
// notifications off delivers nothing.
func (s *Service) HandleJob(ctx context.Context, job jobs.Job) {
	var payload TaskPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		s.logger.Error().Err(err).Str("tag", job.Tag).Msg("malformed reminder task payload")
		return
	}

	r, err := s.repo.GetByID(ctx, payload.ReminderID)
	if err != nil {
		s.logger.Warn().Str("reminder_id", payload.ReminderID).Msg("reminder fired but record is gone")
		return
	}
	if !s.gate.NotificationsEnabled(ctx, r.UserID) {
		s.logger.Info().Str("reminder_id", r.ReminderID).Msg("notifications disabled, dropping reminder")
		return
	}

	at := time.UnixMilli(payload.ReminderTime).Local().Format("15:04")
	body := fmt.Sprintf("Reminder for %s at %s", payload.ReminderType, at)
	s.presenter.Show(notify.NotificationID(payload.ReminderID), notificationTitle, body)

	s.publish(ctx, r.UserID)
}

func (s *Service) scheduleDeferred(ctx context.Context, r *Reminder) {
	payload, err := json.Marshal(TaskPayload{
		ReminderID:   r.ReminderID,
		ReminderTime: r.Time,
		ReminderType: r.Type,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("reminder_id", r.ReminderID).Msg("failed to encode reminder task")
		return
	}

	delay := time.UnixMilli(r.Time).Sub(s.clk.Now())
	if err := s.deferrer.Enqueue(ctx, r.ReminderID, payload, delay); err != nil {
		if errors.Is(err, jobs.ErrPastDue) {
			s.logger.Warn().Str("reminder_id", r.ReminderID).Msg("cannot schedule a reminder in the past")
			return
		}
		s.logger.Error().Err(err).Str("reminder_id", r.ReminderID).Msg("failed to schedule reminder task")
	}
}

func (s *Service) feedFor(userID string) *watch.Feed[[]*Reminder] {
	s.mu.Lock()
	defer s.mu.Unlock()
	feed, ok := s.feeds[userID]
	if !ok {
		feed = watch.NewFeed[[]*Reminder]()
		s.feeds[userID] = feed
	}
	return feed
}

func (s *Service) publish(ctx context.Context, userID string) {
	active, err := s.Active(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to refresh reminder feed")
		return
	}
	s.feedFor(userID).Publish(active)
}

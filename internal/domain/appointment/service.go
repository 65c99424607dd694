package appointment

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jmhodges/clock"
	"github.com/rs/zerolog"
)

var (
	// ErrNotFound is returned when no appointment exists for the given id.
	ErrNotFound = errors.New("appointment not found")
	// ErrForbidden is returned when an appointment belongs to another user.
	ErrForbidden = errors.New("appointment belongs to another user")
)

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the service clock. Tests use a fake.
func WithClock(clk clock.Clock) Option {
	return func(s *Service) { s.clk = clk }
}

// Service owns the doctor directory and bookings.
type Service struct {
	doctors DoctorRepository
	repo    Repository
	clk     clock.Clock
	logger  zerolog.Logger
}

func NewService(doctors DoctorRepository, repo Repository, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{doctors: doctors, repo: repo, clk: clock.New(), logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// -- Doctors --

func (s *Service) CreateDoctor(ctx context.Context, d *Doctor) error {
	if d.Name == "" {
		return fmt.Errorf("name is required")
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return s.doctors.Create(ctx, d)
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByID(ctx, id)
}

func (s *Service) ListDoctors(ctx context.Context, specialty string) ([]*Doctor, error) {
	return s.doctors.List(ctx, specialty)
}

// -- Bookings --

// Book validates and persists a booking. The schedule strings must parse so
// the upcoming projection and reminder offsets can rely on them later.
func (s *Service) Book(ctx context.Context, a *Appointment) error {
	if a.DoctorName == "" {
		return fmt.Errorf("doctorName is required")
	}
	a.AppointmentID = uuid.New()
	if _, err := a.StartsAt(); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return err
	}
	s.logger.Info().Str("appointment_id", a.AppointmentID.String()).
		Str("doctor", a.DoctorName).Msg("appointment booked")
	return nil
}

func (s *Service) Cancel(ctx context.Context, userID string, id uuid.UUID) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a.UserID != userID {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, userID string) ([]*Appointment, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Upcoming returns the user's appointments that start after now, soonest
// first. Rows whose schedule strings no longer parse are skipped with a log
// line rather than failing the whole listing.
func (s *Service) Upcoming(ctx context.Context, userID string) ([]*Appointment, error) {
	all, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.clk.Now()
	type timed struct {
		appt *Appointment
		at   int64
	}
	upcoming := make([]timed, 0, len(all))
	for _, a := range all {
		at, err := a.StartsAt()
		if err != nil {
			s.logger.Warn().Err(err).Msg("skipping appointment in upcoming view")
			continue
		}
		if at.After(now) {
			upcoming = append(upcoming, timed{appt: a, at: at.UnixMilli()})
		}
	}
	sort.Slice(upcoming, func(i, j int) bool { return upcoming[i].at < upcoming[j].at })

	out := make([]*Appointment, len(upcoming))
	for i, u := range upcoming {
		out[i] = u.appt
	}
	return out, nil
}

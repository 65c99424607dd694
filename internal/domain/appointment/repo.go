package appointment

import (
	"context"

	"github.com/google/uuid"
)

// DoctorRepository persists the doctor directory.
type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	List(ctx context.Context, specialty string) ([]*Doctor, error)
}

// Repository persists bookings.
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByUser(ctx context.Context, userID string) ([]*Appointment, error)
}

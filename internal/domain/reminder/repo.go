package reminder

import "context"

// Repository persists reminder records.
type Repository interface {
	Create(ctx context.Context, r *Reminder) error
	GetByID(ctx context.Context, reminderID string) (*Reminder, error)
	Delete(ctx context.Context, reminderID string) error
	ListByUser(ctx context.Context, userID string) ([]*Reminder, error)
}

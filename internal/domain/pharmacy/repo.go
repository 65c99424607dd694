package pharmacy

import (
	"context"

	"github.com/google/uuid"
)

// MedicineRepository persists the catalog.
type MedicineRepository interface {
	Create(ctx context.Context, m *Medicine) error
	GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error)
	List(ctx context.Context, search string) ([]*Medicine, error)
}

// CartRepository persists cart items.
type CartRepository interface {
	Add(ctx context.Context, item *CartItem) error
	GetByID(ctx context.Context, cartItemID uuid.UUID) (*CartItem, error)
	FindByMedicine(ctx context.Context, userID string, medicineID uuid.UUID) (*CartItem, bool, error)
	UpdateQuantity(ctx context.Context, cartItemID uuid.UUID, quantity int) error
	Remove(ctx context.Context, cartItemID uuid.UUID) error
	ListByUser(ctx context.Context, userID string) ([]*CartItem, error)
	Clear(ctx context.Context, userID string) error
}

// OrderRepository persists completed orders.
type OrderRepository interface {
	Create(ctx context.Context, o *Order) error
	ListByUser(ctx context.Context, userID string) ([]*Order, error)
}

package pharmacy

import (
	"time"

	"github.com/google/uuid"
)

// Medicine is a catalog entry.
type Medicine struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Price       float64   `db:"price" json:"price"`
}

// CartItem is one catalog entry in a user's cart. Quantity never drops below
// one; removal is a separate operation.
type CartItem struct {
	CartItemID   uuid.UUID `db:"cart_item_id" json:"cartItemId"`
	UserID       string    `db:"user_id" json:"userId"`
	MedicineID   uuid.UUID `db:"medicine_id" json:"medicineId"`
	MedicineName string    `db:"medicine_name" json:"medicineName"`
	Price        float64   `db:"price" json:"price"`
	Quantity     int       `db:"quantity" json:"quantity"`
}

// OrderItem is a cart line frozen into an order.
type OrderItem struct {
	MedicineName string  `json:"medicineName"`
	Price        float64 `json:"price"`
	Quantity     int     `json:"quantity"`
}

// Order is a completed checkout.
type Order struct {
	ID              uuid.UUID   `db:"id" json:"id"`
	UserID          string      `db:"user_id" json:"userId"`
	Items           []OrderItem `db:"items" json:"items"`
	TotalPrice      float64     `db:"total_price" json:"totalPrice"`
	OrderDate       time.Time   `db:"order_date" json:"orderDate"`
	DeliveryAddress string      `db:"delivery_address" json:"deliveryAddress"`
}

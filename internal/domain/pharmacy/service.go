package pharmacy

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrNotFound is returned when a medicine or cart item does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when a cart item belongs to another user.
	ErrForbidden = errors.New("cart item belongs to another user")
	// ErrEmptyCart is returned by Checkout when the cart has no items.
	ErrEmptyCart = errors.New("cart is empty")
)

// ProfileMarker flips the new-user flag after a first checkout. The profile
// service implements it.
type ProfileMarker interface {
	MarkNotNew(ctx context.Context, userID string) error
}

// Service owns the medicine catalog, carts, and orders.
type Service struct {
	medicines MedicineRepository
	cart      CartRepository
	orders    OrderRepository
	profile   ProfileMarker
	logger    zerolog.Logger
}

func NewService(medicines MedicineRepository, cart CartRepository, orders OrderRepository, profile ProfileMarker, logger zerolog.Logger) *Service {
	return &Service{medicines: medicines, cart: cart, orders: orders, profile: profile, logger: logger}
}

// -- Catalog --

func (s *Service) CreateMedicine(ctx context.Context, m *Medicine) error {
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return s.medicines.Create(ctx, m)
}

func (s *Service) ListMedicines(ctx context.Context, search string) ([]*Medicine, error) {
	return s.medicines.List(ctx, search)
}

// -- Cart --

// AddToCart puts a medicine in the user's cart. Adding one that is already
// present bumps its quantity instead of creating a duplicate line.
func (s *Service) AddToCart(ctx context.Context, userID string, medicineID uuid.UUID) (*CartItem, error) {
	existing, found, err := s.cart.FindByMedicine(ctx, userID, medicineID)
	if err != nil {
		return nil, err
	}
	if found {
		existing.Quantity++
		if err := s.cart.UpdateQuantity(ctx, existing.CartItemID, existing.Quantity); err != nil {
			return nil, err
		}
		return existing, nil
	}

	m, err := s.medicines.GetByID(ctx, medicineID)
	if err != nil {
		return nil, err
	}
	item := &CartItem{
		CartItemID:   uuid.New(),
		UserID:       userID,
		MedicineID:   m.ID,
		MedicineName: m.Name,
		Price:        m.Price,
		Quantity:     1,
	}
	if err := s.cart.Add(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// ChangeQuantity adjusts a cart line by delta. Quantity is clamped at one;
// use RemoveFromCart to drop the line.
func (s *Service) ChangeQuantity(ctx context.Context, userID string, cartItemID uuid.UUID, delta int) (*CartItem, error) {
	item, err := s.ownedItem(ctx, userID, cartItemID)
	if err != nil {
		return nil, err
	}

	item.Quantity += delta
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	if err := s.cart.UpdateQuantity(ctx, item.CartItemID, item.Quantity); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) RemoveFromCart(ctx context.Context, userID string, cartItemID uuid.UUID) error {
	item, err := s.ownedItem(ctx, userID, cartItemID)
	if err != nil {
		return err
	}
	return s.cart.Remove(ctx, item.CartItemID)
}

func (s *Service) Cart(ctx context.Context, userID string) ([]*CartItem, error) {
	return s.cart.ListByUser(ctx, userID)
}

func (s *Service) ownedItem(ctx context.Context, userID string, cartItemID uuid.UUID) (*CartItem, error) {
	item, err := s.cart.GetByID(ctx, cartItemID)
	if err != nil {
		return nil, err
	}
	if item.UserID != userID {
		return nil, ErrForbidden
	}
	return item, nil
}

// -- Orders --

// Checkout turns the current cart into an order, clears the cart, and flips
// the user's new-user flag. The order write is the gate: cart clearing and
// the profile flag only happen after it succeeds.
func (s *Service) Checkout(ctx context.Context, userID, deliveryAddress string) (*Order, error) {
	items, err := s.cart.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	order := &Order{
		ID:              uuid.New(),
		UserID:          userID,
		DeliveryAddress: deliveryAddress,
	}
	for _, item := range items {
		order.Items = append(order.Items, OrderItem{
			MedicineName: item.MedicineName,
			Price:        item.Price,
			Quantity:     item.Quantity,
		})
		order.TotalPrice += item.Price * float64(item.Quantity)
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	if err := s.cart.Clear(ctx, userID); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to clear cart after checkout")
	}
	if err := s.profile.MarkNotNew(ctx, userID); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to update new-user flag")
	}

	s.logger.Info().Str("order_id", order.ID.String()).
		Float64("total", order.TotalPrice).Msg("order placed")
	return order, nil
}

func (s *Service) Orders(ctx context.Context, userID string) ([]*Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

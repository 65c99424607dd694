package pharmacy

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// =========== Medicine Repository ===========

type medicineRepoPG struct{ pool *pgxpool.Pool }

// NewMedicineRepoPG creates the Postgres-backed catalog repository.
func NewMedicineRepoPG(pool *pgxpool.Pool) MedicineRepository { return &medicineRepoPG{pool: pool} }

const medicineCols = `id, name, description, price`

func scanMedicine(row pgx.Row) (*Medicine, error) {
	var m Medicine
	err := row.Scan(&m.ID, &m.Name, &m.Description, &m.Price)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *medicineRepoPG) Create(ctx context.Context, m *Medicine) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO medicine (id, name, description, price)
		VALUES ($1,$2,$3,$4)`,
		m.ID, m.Name, m.Description, m.Price)
	return err
}

func (r *medicineRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return scanMedicine(r.pool.QueryRow(ctx, `SELECT `+medicineCols+` FROM medicine WHERE id = $1`, id))
}

func (r *medicineRepoPG) List(ctx context.Context, search string) ([]*Medicine, error) {
	query := `SELECT ` + medicineCols + ` FROM medicine`
	var args []interface{}
	if search != "" {
		query += ` WHERE name ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Medicine
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// =========== Cart Repository ===========

type cartRepoPG struct{ pool *pgxpool.Pool }

// NewCartRepoPG creates the Postgres-backed cart repository.
func NewCartRepoPG(pool *pgxpool.Pool) CartRepository { return &cartRepoPG{pool: pool} }

const cartCols = `cart_item_id, user_id, medicine_id, medicine_name, price, quantity`

func scanCartItem(row pgx.Row) (*CartItem, error) {
	var item CartItem
	err := row.Scan(&item.CartItemID, &item.UserID, &item.MedicineID,
		&item.MedicineName, &item.Price, &item.Quantity)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *cartRepoPG) Add(ctx context.Context, item *CartItem) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO cart_item (cart_item_id, user_id, medicine_id, medicine_name, price, quantity)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		item.CartItemID, item.UserID, item.MedicineID, item.MedicineName, item.Price, item.Quantity)
	return err
}

func (r *cartRepoPG) GetByID(ctx context.Context, cartItemID uuid.UUID) (*CartItem, error) {
	return scanCartItem(r.pool.QueryRow(ctx,
		`SELECT `+cartCols+` FROM cart_item WHERE cart_item_id = $1`, cartItemID))
}

func (r *cartRepoPG) FindByMedicine(ctx context.Context, userID string, medicineID uuid.UUID) (*CartItem, bool, error) {
	item, err := scanCartItem(r.pool.QueryRow(ctx,
		`SELECT `+cartCols+` FROM cart_item WHERE user_id = $1 AND medicine_id = $2`, userID, medicineID))
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return item, true, nil
}

func (r *cartRepoPG) UpdateQuantity(ctx context.Context, cartItemID uuid.UUID, quantity int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE cart_item SET quantity = $2 WHERE cart_item_id = $1`, cartItemID, quantity)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *cartRepoPG) Remove(ctx context.Context, cartItemID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cart_item WHERE cart_item_id = $1`, cartItemID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *cartRepoPG) ListByUser(ctx context.Context, userID string) ([]*CartItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+cartCols+` FROM cart_item WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*CartItem
	for rows.Next() {
		item, err := scanCartItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *cartRepoPG) Clear(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_item WHERE user_id = $1`, userID)
	return err
}

// =========== Order Repository ===========

type orderRepoPG struct{ pool *pgxpool.Pool }

// NewOrderRepoPG creates the Postgres-backed order repository.
func NewOrderRepoPG(pool *pgxpool.Pool) OrderRepository { return &orderRepoPG{pool: pool} }

func (r *orderRepoPG) Create(ctx context.Context, o *Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO orders (id, user_id, items, total_price, delivery_address)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING order_date`,
		o.ID, o.UserID, items, o.TotalPrice, o.DeliveryAddress).Scan(&o.OrderDate)
}

func (r *orderRepoPG) ListByUser(ctx context.Context, userID string) ([]*Order, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, items, total_price, order_date, delivery_address
		FROM orders WHERE user_id = $1 ORDER BY order_date DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		var o Order
		var items []byte
		if err := rows.Scan(&o.ID, &o.UserID, &items, &o.TotalPrice, &o.OrderDate, &o.DeliveryAddress); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, err
		}
		orders = append(orders, &o)
	}
	return orders, rows.Err()
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/food-order-platform/internal/model"
	"github.com/fairyhunter13/food-order-platform/pkg/database"
)

const orderColumns = `id, user_id, items, amount, subtotal, delivery_fee, discount,
	currency, address, instructions, status, date, payment, payment_method,
	coupon_code, coupon_snapshot, stripe_coupon_id`

// OrderRepository provides data access for orders using pgx.
// Items, address and coupon snapshot are stored as jsonb: they are frozen
// copies taken at checkout time, never live references.
type OrderRepository struct {
	pool PoolInterface
}

// NewOrderRepository creates a new OrderRepository with the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// NewOrderRepositoryWithPool creates a new OrderRepository with a custom pool interface.
// This is primarily used for testing.
func NewOrderRepositoryWithPool(pool PoolInterface) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o             model.Order
		itemsJSON     []byte
		addressJSON   []byte
		snapshotJSON  []byte
	)
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&itemsJSON,
		&o.Amount,
		&o.Subtotal,
		&o.DeliveryFee,
		&o.Discount,
		&o.Currency,
		&addressJSON,
		&o.Instructions,
		&o.Status,
		&o.Date,
		&o.Payment,
		&o.PaymentMethod,
		&o.CouponCode,
		&snapshotJSON,
		&o.StripeCouponID,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, fmt.Errorf("decode order items: %w", err)
	}
	if err := json.Unmarshal(addressJSON, &o.Address); err != nil {
		return nil, fmt.Errorf("decode order address: %w", err)
	}
	if len(snapshotJSON) > 0 {
		if err := json.Unmarshal(snapshotJSON, &o.CouponSnapshot); err != nil {
			return nil, fmt.Errorf("decode coupon snapshot: %w", err)
		}
	}
	return &o, nil
}

// Insert persists a new order. Accepts a TxQuerier so placement can write the
// order and clear the cart in the same transaction.
func (r *OrderRepository) Insert(ctx context.Context, tx database.TxQuerier, order *model.Order) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("encode order items: %w", err)
	}
	addressJSON, err := json.Marshal(order.Address)
	if err != nil {
		return fmt.Errorf("encode order address: %w", err)
	}
	var snapshotJSON []byte
	if order.CouponSnapshot != nil {
		snapshotJSON, err = json.Marshal(order.CouponSnapshot)
		if err != nil {
			return fmt.Errorf("encode coupon snapshot: %w", err)
		}
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO orders (id, user_id, items, amount, subtotal, delivery_fee,
			discount, currency, address, instructions, status, date, payment,
			payment_method, coupon_code, coupon_snapshot, stripe_coupon_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		order.ID, order.UserID, itemsJSON, order.Amount, order.Subtotal,
		order.DeliveryFee, order.Discount, order.Currency, addressJSON,
		order.Instructions, order.Status, order.Date, order.Payment,
		order.PaymentMethod, order.CouponCode, snapshotJSON, order.StripeCouponID)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// GetByID retrieves an order by id.
// Returns nil, nil if the order is not found (service layer handles this).
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	return order, nil
}

// MarkPaid flips the paid flag and drops the provider discount-object id,
// which is no longer needed once usage is recorded server-side.
func (r *OrderRepository) MarkPaid(ctx context.Context, tx database.TxQuerier, id string) error {
	_, err := tx.Exec(ctx,
		`UPDATE orders SET payment = TRUE, stripe_coupon_id = NULL WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark order %s paid: %w", id, err)
	}
	return nil
}

// UpdateStatus sets the order's delivery-pipeline status.
// Returns false when the order doesn't exist.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id, status string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return false, fmt.Errorf("update status for order %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes an order. Accepts a TxQuerier so removal can release coupon
// counters in the same transaction.
func (r *OrderRepository) Delete(ctx context.Context, tx database.TxQuerier, id string) error {
	_, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order %s: %w", id, err)
	}
	return nil
}

// ListByUser returns a user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY date DESC`
	return r.listOrders(ctx, query, userID)
}

// ListAll returns every order, newest first.
func (r *OrderRepository) ListAll(ctx context.Context) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY date DESC`
	return r.listOrders(ctx, query)
}

func (r *OrderRepository) listOrders(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}
	return orders, nil
}

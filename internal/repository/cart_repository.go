package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/food-order-platform/pkg/database"
)

// CartRepository provides data access for per-user carts. Each cart is a set
// of (item id, quantity) rows so quantity changes are single atomic updates.
type CartRepository struct {
	pool PoolInterface
}

// NewCartRepository creates a new CartRepository with the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// NewCartRepositoryWithPool creates a new CartRepository with a custom pool interface.
// This is primarily used for testing.
func NewCartRepositoryWithPool(pool PoolInterface) *CartRepository {
	return &CartRepository{pool: pool}
}

// Get returns the user's cart as an item id -> quantity map.
// An empty cart yields an empty map, not nil.
func (r *CartRepository) Get(ctx context.Context, userID string) (map[string]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT item_id, quantity FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart for %s: %w", userID, err)
	}
	defer rows.Close()

	items := map[string]int{}
	for rows.Next() {
		var itemID string
		var quantity int
		if err := rows.Scan(&itemID, &quantity); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items[itemID] = quantity
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart rows: %w", err)
	}
	return items, nil
}

// AddItem increments the quantity of an item in the user's cart.
func (r *CartRepository) AddItem(ctx context.Context, userID, itemID string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO cart_items (user_id, item_id, quantity)
		VALUES ($1, $2, 1)
		ON CONFLICT (user_id, item_id)
		DO UPDATE SET quantity = cart_items.quantity + 1`,
		userID, itemID)
	if err != nil {
		return fmt.Errorf("add cart item: %w", err)
	}
	return nil
}

// RemoveItem decrements the quantity of an item, dropping the row at zero.
func (r *CartRepository) RemoveItem(ctx context.Context, userID, itemID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE cart_items SET quantity = quantity - 1
		WHERE user_id = $1 AND item_id = $2`,
		userID, itemID)
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND item_id = $2 AND quantity <= 0`,
		userID, itemID)
	if err != nil {
		return fmt.Errorf("prune cart item: %w", err)
	}
	return nil
}

// Clear empties the user's cart. Accepts a TxQuerier so order placement can
// clear the cart and persist the order atomically.
func (r *CartRepository) Clear(ctx context.Context, tx database.TxQuerier, userID string) error {
	_, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("clear cart for %s: %w", userID, err)
	}
	return nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/food-order-platform/internal/model"
	"github.com/fairyhunter13/food-order-platform/internal/service"
	"github.com/fairyhunter13/food-order-platform/pkg/database"
)

// PoolInterface defines the database operations needed by repositories.
// This allows for easier testing with mocks.
type PoolInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const couponColumns = `code, label, description, discount_type, discount_value,
	min_order_amount, max_discount_value, start_date, end_date, active,
	usage_limit, usage_count, per_user_limit, created_at, updated_at`

// CouponRepository provides data access for coupons and their usage counters.
// All counters live in the database; increments and decrements go through
// atomic conditional updates, never read-modify-write in process memory.
type CouponRepository struct {
	pool PoolInterface
}

// NewCouponRepository creates a new CouponRepository with the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// NewCouponRepositoryWithPool creates a new CouponRepository with a custom pool interface.
// This is primarily used for testing.
func NewCouponRepositoryWithPool(pool PoolInterface) *CouponRepository {
	return &CouponRepository{pool: pool}
}

func scanCoupon(row pgx.Row) (*model.Coupon, error) {
	var c model.Coupon
	err := row.Scan(
		&c.Code,
		&c.Label,
		&c.Description,
		&c.DiscountType,
		&c.DiscountValue,
		&c.MinOrderAmount,
		&c.MaxDiscountValue,
		&c.StartDate,
		&c.EndDate,
		&c.Active,
		&c.UsageLimit,
		&c.UsageCount,
		&c.PerUserLimit,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Insert inserts a new coupon into the database.
// Returns service.ErrCouponExists if a coupon with the same code already exists.
func (r *CouponRepository) Insert(ctx context.Context, coupon *model.Coupon) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO coupons (code, label, description, discount_type, discount_value,
			min_order_amount, max_discount_value, start_date, end_date, active,
			usage_limit, per_user_limit)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		coupon.Code, coupon.Label, coupon.Description, coupon.DiscountType,
		coupon.DiscountValue, coupon.MinOrderAmount, coupon.MaxDiscountValue,
		coupon.StartDate, coupon.EndDate, coupon.Active,
		coupon.UsageLimit, coupon.PerUserLimit)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return service.ErrCouponExists
		}
		return fmt.Errorf("insert coupon: %w", err)
	}
	return nil
}

// GetByCode retrieves a coupon by its code.
// Returns nil, nil if the coupon is not found (service layer handles this).
func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`

	coupon, err := scanCoupon(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found - let service handle
		}
		return nil, fmt.Errorf("get coupon by code %s: %w", code, err)
	}
	return coupon, nil
}

// List returns all coupons, newest first.
func (r *CouponRepository) List(ctx context.Context) ([]model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	defer rows.Close()

	coupons := []model.Coupon{}
	for rows.Next() {
		coupon, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("scan coupon: %w", err)
		}
		coupons = append(coupons, *coupon)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coupon rows: %w", err)
	}
	return coupons, nil
}

// ListActive returns coupons that are active, inside their validity window,
// and not globally exhausted, newest first, up to limit.
func (r *CouponRepository) ListActive(ctx context.Context, now time.Time, limit int) ([]model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons
		WHERE active
		  AND (start_date IS NULL OR start_date <= $1)
		  AND (end_date IS NULL OR end_date >= $1)
		  AND (usage_limit IS NULL OR usage_count < usage_limit)
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list active coupons: %w", err)
	}
	defer rows.Close()

	coupons := []model.Coupon{}
	for rows.Next() {
		coupon, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("scan coupon: %w", err)
		}
		coupons = append(coupons, *coupon)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coupon rows: %w", err)
	}
	return coupons, nil
}

// Update rewrites a coupon's editable terms. The code is immutable.
// Returns service.ErrCouponNotFound if the coupon doesn't exist.
func (r *CouponRepository) Update(ctx context.Context, coupon *model.Coupon) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE coupons SET
			label = $2, description = $3, discount_type = $4, discount_value = $5,
			min_order_amount = $6, max_discount_value = $7, start_date = $8,
			end_date = $9, active = $10, usage_limit = $11, per_user_limit = $12,
			updated_at = now()
		WHERE code = $1`,
		coupon.Code, coupon.Label, coupon.Description, coupon.DiscountType,
		coupon.DiscountValue, coupon.MinOrderAmount, coupon.MaxDiscountValue,
		coupon.StartDate, coupon.EndDate, coupon.Active,
		coupon.UsageLimit, coupon.PerUserLimit)
	if err != nil {
		return fmt.Errorf("update coupon %s: %w", coupon.Code, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrCouponNotFound
	}
	return nil
}

// Delete removes a coupon and its usage counters.
// Returns service.ErrCouponNotFound if the coupon doesn't exist.
func (r *CouponRepository) Delete(ctx context.Context, code string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM coupons WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("delete coupon %s: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrCouponNotFound
	}
	return nil
}

// GetUserUsage returns the user's recorded redemption count for a coupon.
// A missing counter row means zero redemptions.
func (r *CouponRepository) GetUserUsage(ctx context.Context, code, userID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT count FROM coupon_usages WHERE coupon_code = $1 AND user_id = $2`,
		code, userID).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get usage for coupon %s: %w", code, err)
	}
	return count, nil
}

// Redeem records one redemption for the user inside a transaction, enforcing
// both the global and per-user limits with conditional atomic increments.
// A failed condition is a late-discovered ineligibility:
//   - service.ErrCouponExhausted when the global limit is already reached
//   - service.ErrCouponUserExhausted when the user's limit is already reached
//
// Both statements must run inside the same transaction so a per-user rejection
// rolls the global increment back.
func (r *CouponRepository) Redeem(ctx context.Context, tx database.TxQuerier, code, userID string, perUserLimit int) error {
	tag, err := tx.Exec(ctx,
		`UPDATE coupons
		SET usage_count = usage_count + 1, updated_at = now()
		WHERE code = $1 AND (usage_limit IS NULL OR usage_count < usage_limit)`,
		code)
	if err != nil {
		return fmt.Errorf("increment usage for %s: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrCouponExhausted
	}

	tag, err = tx.Exec(ctx,
		`INSERT INTO coupon_usages (coupon_code, user_id, count)
		VALUES ($1, $2, 1)
		ON CONFLICT (coupon_code, user_id)
		DO UPDATE SET count = coupon_usages.count + 1
		WHERE coupon_usages.count < $3`,
		code, userID, perUserLimit)
	if err != nil {
		return fmt.Errorf("increment user usage for %s: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrCouponUserExhausted
	}
	return nil
}

// RecordRedemption records one redemption without enforcing limits. Used at
// payment confirmation, where the money has already been captured and
// refusing the increment would only make the counters lie.
func (r *CouponRepository) RecordRedemption(ctx context.Context, tx database.TxQuerier, code, userID string) error {
	_, err := tx.Exec(ctx,
		`UPDATE coupons SET usage_count = usage_count + 1, updated_at = now() WHERE code = $1`,
		code)
	if err != nil {
		return fmt.Errorf("record usage for %s: %w", code, err)
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO coupon_usages (coupon_code, user_id, count)
		VALUES ($1, $2, 1)
		ON CONFLICT (coupon_code, user_id)
		DO UPDATE SET count = coupon_usages.count + 1`,
		code, userID)
	if err != nil {
		return fmt.Errorf("record user usage for %s: %w", code, err)
	}
	return nil
}

// Release reverses one redemption, floored at zero so repeated releases can
// never drive a counter negative. Must mirror Redeem exactly or usage
// counters drift permanently.
func (r *CouponRepository) Release(ctx context.Context, tx database.TxQuerier, code, userID string) error {
	_, err := tx.Exec(ctx,
		`UPDATE coupons
		SET usage_count = GREATEST(usage_count - 1, 0), updated_at = now()
		WHERE code = $1`,
		code)
	if err != nil {
		return fmt.Errorf("decrement usage for %s: %w", code, err)
	}
	_, err = tx.Exec(ctx,
		`UPDATE coupon_usages
		SET count = GREATEST(count - 1, 0)
		WHERE coupon_code = $1 AND user_id = $2`,
		code, userID)
	if err != nil {
		return fmt.Errorf("decrement user usage for %s: %w", code, err)
	}
	return nil
}

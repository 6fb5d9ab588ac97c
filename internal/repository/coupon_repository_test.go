package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/food-order-platform/internal/model"
	"github.com/fairyhunter13/food-order-platform/internal/service"
)

// mockRow implements pgx.Row for testing QueryRow paths.
type mockRow struct {
	scanFn func(dest ...any) error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.scanFn != nil {
		return m.scanFn(dest...)
	}
	return nil
}

// mockPool implements PoolInterface for testing.
type mockPool struct {
	execFn     func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	queryRowFn func(ctx context.Context, sql string, args ...any) pgx.Row
	queryFn    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (m *mockPool) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	if m.execFn != nil {
		return m.execFn(ctx, sql, arguments...)
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (m *mockPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if m.queryRowFn != nil {
		return m.queryRowFn(ctx, sql, args...)
	}
	return &mockRow{}
}

func (m *mockPool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, sql, args...)
	}
	return nil, errors.New("query not mocked")
}

// scanCouponInto fills the destinations of a coupon row scan from c.
func scanCouponInto(c model.Coupon, dest ...any) {
	*(dest[0].(*string)) = c.Code
	*(dest[1].(*string)) = c.Label
	*(dest[2].(*string)) = c.Description
	*(dest[3].(*model.DiscountType)) = c.DiscountType
	*(dest[4].(*float64)) = c.DiscountValue
	*(dest[5].(*float64)) = c.MinOrderAmount
	*(dest[6].(**float64)) = c.MaxDiscountValue
	*(dest[7].(**time.Time)) = c.StartDate
	*(dest[8].(**time.Time)) = c.EndDate
	*(dest[9].(*bool)) = c.Active
	*(dest[10].(**int)) = c.UsageLimit
	*(dest[11].(*int)) = c.UsageCount
	*(dest[12].(*int)) = c.PerUserLimit
	*(dest[13].(*time.Time)) = c.CreatedAt
	*(dest[14].(*time.Time)) = c.UpdatedAt
}

func sampleCoupon() model.Coupon {
	limit := 100
	return model.Coupon{
		Code:          "FESTIVE250",
		Label:         "Festive flat 250",
		DiscountType:  model.DiscountFlat,
		DiscountValue: 250,
		Active:        true,
		UsageLimit:    &limit,
		UsageCount:    7,
		PerUserLimit:  1,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
}

func TestCouponRepository_Insert_Success(t *testing.T) {
	var capturedSQL string
	var capturedArgs []any

	mock := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			capturedSQL = sql
			capturedArgs = arguments
			return pgconn.NewCommandTag("INSERT 0 1"), nil
		},
	}

	repo := NewCouponRepositoryWithPool(mock)
	coupon := sampleCoupon()

	err := repo.Insert(context.Background(), &coupon)

	require.NoError(t, err)
	assert.Contains(t, capturedSQL, "INSERT INTO coupons")
	assert.Equal(t, "FESTIVE250", capturedArgs[0])
	assert.Equal(t, "Festive flat 250", capturedArgs[1])
	assert.Equal(t, model.DiscountFlat, capturedArgs[3])
}

func TestCouponRepository_Insert_DuplicateCode(t *testing.T) {
	mock := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			// Simulate PostgreSQL unique violation error (code 23505)
			return pgconn.CommandTag{}, &pgconn.PgError{
				Code:    "23505",
				Message: "duplicate key value violates unique constraint",
			}
		},
	}

	repo := NewCouponRepositoryWithPool(mock)
	coupon := sampleCoupon()

	err := repo.Insert(context.Background(), &coupon)

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrCouponExists), "should return ErrCouponExists for duplicate")
}

func TestCouponRepository_Insert_DatabaseError(t *testing.T) {
	dbErr := errors.New("connection refused")
	mock := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, dbErr
		},
	}

	repo := NewCouponRepositoryWithPool(mock)
	coupon := sampleCoupon()

	err := repo.Insert(context.Background(), &coupon)

	require.Error(t, err)
	assert.False(t, errors.Is(err, service.ErrCouponExists))
	assert.Contains(t, err.Error(), "insert coupon")
	assert.True(t, errors.Is(err, dbErr), "should wrap original error")
}

func TestCouponRepository_GetByCode_Found(t *testing.T) {
	want := sampleCoupon()
	mock := &mockPool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFn: func(dest ...any) error {
				scanCouponInto(want, dest...)
				return nil
			}}
		},
	}

	repo := NewCouponRepositoryWithPool(mock)
	coupon, err := repo.GetByCode(context.Background(), "FESTIVE250")

	require.NoError(t, err)
	require.NotNil(t, coupon)
	assert.Equal(t, "FESTIVE250", coupon.Code)
	assert.Equal(t, 250.0, coupon.DiscountValue)
	require.NotNil(t, coupon.UsageLimit)
	assert.Equal(t, 100, *coupon.UsageLimit)
	assert.Equal(t, 7, coupon.UsageCount)
}

func TestCouponRepository_GetByCode_NotFound(t *testing.T) {
	mock := &mockPool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFn: func(dest ...any) error {
				return pgx.ErrNoRows
			}}
		},
	}

	repo := NewCouponRepositoryWithPool(mock)
	coupon, err := repo.GetByCode(context.Background(), "NOPE")

	require.NoError(t, err, "not found is nil, nil - service decides")
	assert.Nil(t, coupon)
}

func TestCouponRepository_GetByCode_DatabaseError(t *testing.T) {
	dbErr := errors.New("connection reset")
	mock := &mockPool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFn: func(dest ...any) error {
				return dbErr
			}}
		},
	}

	repo := NewCouponRepositoryWithPool(mock)
	coupon, err := repo.GetByCode(context.Background(), "FESTIVE250")

	require.Error(t, err)
	assert.Nil(t, coupon)
	assert.True(t, errors.Is(err, dbErr))
}

func TestCouponRepository_GetUserUsage_NoRowMeansZero(t *testing.T) {
	mock := &mockPool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFn: func(dest ...any) error {
				return pgx.ErrNoRows
			}}
		},
	}

	repo := NewCouponRepositoryWithPool(mock)
	count, err := repo.GetUserUsage(context.Background(), "FESTIVE250", "user_001")

	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestCouponRepository_GetUserUsage_Recorded(t *testing.T) {
	mock := &mockPool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFn: func(dest ...any) error {
				*(dest[0].(*int)) = 3
				return nil
			}}
		},
	}

	repo := NewCouponRepositoryWithPool(mock)
	count, err := repo.GetUserUsage(context.Background(), "FESTIVE250", "user_001")

	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestCouponRepository_Redeem_Success(t *testing.T) {
	var statements []string
	mock := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			statements = append(statements, sql)
			return pgconn.NewCommandTag("UPDATE 1"), nil
		},
	}

	repo := NewCouponRepositoryWithPool(mock)
	err := repo.Redeem(context.Background(), mock, "FESTIVE250", "user_001", 1)

	require.NoError(t, err)
	require.Len(t, statements, 2, "global and per-user counters must both move")
	assert.Contains(t, statements[0], "usage_count < usage_limit",
		"global increment must be conditional")
	assert.Contains(t, statements[1], "ON CONFLICT (coupon_code, user_id)")
	assert.Contains(t, statements[1], "coupon_usages.count < $3",
		"per-user increment must be conditional")
}

func TestCouponRepository_Redeem_GlobalLimitReached(t *testing.T) {
	mock := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			// Conditional update matched no rows: limit already reached.
			return pgconn.NewCommandTag("UPDATE 0"), nil
		},
	}

	repo := NewCouponRepositoryWithPool(mock)
	err := repo.Redeem(context.Background(), mock, "FESTIVE250", "user_001", 1)

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrCouponExhausted))
}

func TestCouponRepository_Redeem_PerUserLimitReached(t *testing.T) {
	calls := 0
	mock := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			calls++
			if calls == 1 {
				return pgconn.NewCommandTag("UPDATE 1"), nil
			}
			return pgconn.NewCommandTag("INSERT 0 0"), nil
		},
	}

	repo := NewCouponRepositoryWithPool(mock)
	err := repo.Redeem(context.Background(), mock, "FESTIVE250", "user_001", 1)

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrCouponUserExhausted))
}

func TestCouponRepository_Release_FlooredAtZero(t *testing.T) {
	var statements []string
	mock := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			statements = append(statements, sql)
			return pgconn.NewCommandTag("UPDATE 1"), nil
		},
	}

	repo := NewCouponRepositoryWithPool(mock)
	err := repo.Release(context.Background(), mock, "FESTIVE250", "user_001")

	require.NoError(t, err)
	require.Len(t, statements, 2)
	assert.Contains(t, statements[0], "GREATEST(usage_count - 1, 0)")
	assert.Contains(t, statements[1], "GREATEST(count - 1, 0)")
}

func TestCouponRepository_Update_NotFound(t *testing.T) {
	mock := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		},
	}

	repo := NewCouponRepositoryWithPool(mock)
	coupon := sampleCoupon()
	err := repo.Update(context.Background(), &coupon)

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrCouponNotFound))
}

func TestCouponRepository_Delete_NotFound(t *testing.T) {
	mock := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("DELETE 0"), nil
		},
	}

	repo := NewCouponRepositoryWithPool(mock)
	err := repo.Delete(context.Background(), "NOPE")

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrCouponNotFound))
}

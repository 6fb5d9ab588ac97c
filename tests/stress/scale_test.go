// Scale stress runs push well past the flash-sale scenario: hundreds of
// goroutines against the placement path, meant to be run with -race.
//
// Usage:
//
//	go test -v -race ./tests/stress/...

package stress

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/food-order-platform/internal/pricing"
)

// TestScaleStress100 fires 100 concurrent placements at a coupon limited
// to 10 redemptions. Exactly 10 succeed, 90 see the limit, and the
// counter never overshoots.
func TestScaleStress100(t *testing.T) {
	cleanupTables(t)

	const (
		couponCode         = "SCALE_100_TEST"
		availableSlots     = 10
		concurrentRequests = 100
		timeout            = 60 * time.Second
	)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	startTime := time.Now()
	t.Logf("Starting scale stress test: %d concurrent requests, %d slots", concurrentRequests, availableSlots)

	limit := availableSlots
	seedCoupon(t, couponCode, &limit, 1)

	svc := newOrderService()

	var wg sync.WaitGroup
	results := make(chan error, concurrentRequests)

	for i := 0; i < concurrentRequests; i++ {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			_, err := svc.PlaceOrder(ctx, userID, codRequest(couponCode))
			results <- err
		}(fmt.Sprintf("scale100_user_%d", i))
	}

	wg.Wait()
	close(results)

	var successes, exhausted, otherErrors int
	for err := range results {
		reason, ineligible := reasonOf(err)
		switch {
		case err == nil:
			successes++
		case ineligible && reason == pricing.ReasonGlobalLimitReached:
			exhausted++
		default:
			otherErrors++
			t.Logf("Unexpected error: %v", err)
		}
	}

	executionTime := time.Since(startTime)
	t.Logf("Results - Successes: %d, Exhausted: %d, Other: %d", successes, exhausted, otherErrors)
	t.Logf("Execution time: %v", executionTime)

	assert.Equal(t, availableSlots, successes, "Exactly %d placements should succeed", availableSlots)
	assert.Equal(t, concurrentRequests-availableSlots, exhausted)
	assert.Equal(t, 0, otherErrors)

	var usageCount, orderCount int
	err := testPool.QueryRow(ctx,
		"SELECT usage_count FROM coupons WHERE code = $1", couponCode).Scan(&usageCount)
	require.NoError(t, err)
	assert.Equal(t, availableSlots, usageCount, "usage_count should be exactly the limit, not more")

	err = testPool.QueryRow(ctx, "SELECT COUNT(*) FROM orders").Scan(&orderCount)
	require.NoError(t, err)
	assert.Equal(t, availableSlots, orderCount, "Losers must roll their order rows back")

	assert.Less(t, executionTime, timeout, "Test should complete within %v", timeout)
}

// TestScaleStress_IndependentCoupons runs three limited coupons side by
// side under load and checks the counters never bleed into each other.
func TestScaleStress_IndependentCoupons(t *testing.T) {
	cleanupTables(t)

	const (
		couponsUnderTest = 3
		slotsPerCoupon   = 10
		buyersPerCoupon  = 50
		timeout          = 120 * time.Second
	)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	codes := make([]string, couponsUnderTest)
	for i := range codes {
		codes[i] = fmt.Sprintf("SCALE_MULTI_%d", i)
		limit := slotsPerCoupon
		seedCoupon(t, codes[i], &limit, 1)
	}

	svc := newOrderService()

	var wg sync.WaitGroup
	results := make(chan error, couponsUnderTest*buyersPerCoupon)

	for _, code := range codes {
		for i := 0; i < buyersPerCoupon; i++ {
			wg.Add(1)
			go func(code, userID string) {
				defer wg.Done()
				_, err := svc.PlaceOrder(ctx, userID, codRequest(code))
				results <- err
			}(code, fmt.Sprintf("%s_user_%d", code, i))
		}
	}

	wg.Wait()
	close(results)

	var successes, exhausted, otherErrors int
	for err := range results {
		reason, ineligible := reasonOf(err)
		switch {
		case err == nil:
			successes++
		case ineligible && reason == pricing.ReasonGlobalLimitReached:
			exhausted++
		default:
			otherErrors++
			t.Logf("Unexpected error: %v", err)
		}
	}

	assert.Equal(t, couponsUnderTest*slotsPerCoupon, successes)
	assert.Equal(t, couponsUnderTest*(buyersPerCoupon-slotsPerCoupon), exhausted)
	assert.Equal(t, 0, otherErrors)

	// Every coupon lands exactly on its own limit
	for _, code := range codes {
		var usageCount int
		err := testPool.QueryRow(ctx,
			"SELECT usage_count FROM coupons WHERE code = $1", code).Scan(&usageCount)
		require.NoError(t, err)
		assert.Equal(t, slotsPerCoupon, usageCount, "Counter for %s must land on its limit", code)
	}
}

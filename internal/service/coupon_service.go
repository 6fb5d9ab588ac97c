package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fairyhunter13/food-order-platform/internal/model"
	"github.com/fairyhunter13/food-order-platform/internal/pricing"
	"github.com/fairyhunter13/food-order-platform/pkg/database"
)

// activeCouponLimit caps the public active-coupon listing.
const activeCouponLimit = 6

// CouponRepositoryInterface defines the interface for coupon data access.
type CouponRepositoryInterface interface {
	Insert(ctx context.Context, coupon *model.Coupon) error
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)
	List(ctx context.Context) ([]model.Coupon, error)
	ListActive(ctx context.Context, now time.Time, limit int) ([]model.Coupon, error)
	Update(ctx context.Context, coupon *model.Coupon) error
	Delete(ctx context.Context, code string) error
	GetUserUsage(ctx context.Context, code, userID string) (int, error)
	Redeem(ctx context.Context, tx database.TxQuerier, code, userID string, perUserLimit int) error
	RecordRedemption(ctx context.Context, tx database.TxQuerier, code, userID string) error
	Release(ctx context.Context, tx database.TxQuerier, code, userID string) error
}

// CouponService provides business logic for coupon administration and
// validation.
type CouponService struct {
	repo CouponRepositoryInterface
	now  func() time.Time
}

// NewCouponService creates a new CouponService with the given repository.
func NewCouponService(repo CouponRepositoryInterface) *CouponService {
	return &CouponService{repo: repo, now: time.Now}
}

// NewCouponServiceWithClock creates a CouponService with a custom clock.
// Primarily used for testing.
func NewCouponServiceWithClock(repo CouponRepositoryInterface, now func() time.Time) *CouponService {
	return &CouponService{repo: repo, now: now}
}

// NormalizeCode canonicalizes a coupon code: trimmed, uppercase.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Create creates a new coupon from the request. Admin only.
// Returns ErrCouponExists if a coupon with the same code already exists.
func (s *CouponService) Create(ctx context.Context, isAdmin bool, req *model.CreateCouponRequest) (*model.Coupon, error) {
	if !isAdmin {
		return nil, ErrForbidden
	}
	// Defense-in-depth: check for nil pointers even though handler validates
	if req == nil || req.DiscountValue == nil {
		return nil, ErrInvalidRequest
	}

	coupon := &model.Coupon{
		Code:             NormalizeCode(req.Code),
		Label:            strings.TrimSpace(req.Label),
		Description:      strings.TrimSpace(req.Description),
		DiscountType:     model.DiscountPercentage,
		DiscountValue:    *req.DiscountValue,
		MinOrderAmount:   req.MinOrderAmount,
		MaxDiscountValue: req.MaxDiscountValue,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		Active:           true,
		UsageLimit:       req.UsageLimit,
		PerUserLimit:     1,
	}
	if req.DiscountType == string(model.DiscountFlat) {
		coupon.DiscountType = model.DiscountFlat
	}
	if req.Active != nil {
		coupon.Active = *req.Active
	}
	if req.PerUserLimit != nil {
		coupon.PerUserLimit = *req.PerUserLimit
	}

	if err := s.repo.Insert(ctx, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// List returns all coupons. Admin only.
func (s *CouponService) List(ctx context.Context, isAdmin bool) ([]model.Coupon, error) {
	if !isAdmin {
		return nil, ErrForbidden
	}
	return s.repo.List(ctx)
}

// Update applies a partial update to a coupon's terms. Admin only.
// Returns ErrCouponNotFound if the coupon doesn't exist.
func (s *CouponService) Update(ctx context.Context, isAdmin bool, code string, req *model.UpdateCouponRequest) (*model.Coupon, error) {
	if !isAdmin {
		return nil, ErrForbidden
	}
	if req == nil {
		return nil, ErrInvalidRequest
	}

	coupon, err := s.repo.GetByCode(ctx, NormalizeCode(code))
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}

	if req.Label != nil {
		coupon.Label = strings.TrimSpace(*req.Label)
	}
	if req.Description != nil {
		coupon.Description = strings.TrimSpace(*req.Description)
	}
	if req.DiscountType != nil {
		coupon.DiscountType = model.DiscountType(*req.DiscountType)
	}
	if req.DiscountValue != nil {
		coupon.DiscountValue = *req.DiscountValue
	}
	if req.MinOrderAmount != nil {
		coupon.MinOrderAmount = *req.MinOrderAmount
	}
	if req.MaxDiscountValue != nil {
		coupon.MaxDiscountValue = req.MaxDiscountValue
	}
	if req.StartDate != nil {
		coupon.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		coupon.EndDate = req.EndDate
	}
	if req.Active != nil {
		coupon.Active = *req.Active
	}
	if req.UsageLimit != nil {
		coupon.UsageLimit = req.UsageLimit
	}
	if req.PerUserLimit != nil {
		coupon.PerUserLimit = *req.PerUserLimit
	}

	if err := s.repo.Update(ctx, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// Delete removes a coupon. Admin only.
// Returns ErrCouponNotFound if the coupon doesn't exist.
func (s *CouponService) Delete(ctx context.Context, isAdmin bool, code string) error {
	if !isAdmin {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, NormalizeCode(code))
}

// Validate decides whether a coupon may be applied to the given subtotal by
// the given user, and quotes the discount it would grant. An ineligible
// coupon yields a *pricing.IneligibilityError carrying the first failing
// check's reason.
func (s *CouponService) Validate(ctx context.Context, code string, subtotal float64, userID string) (*model.CouponQuote, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, ErrInvalidRequest
	}

	coupon, err := s.repo.GetByCode(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}

	userUsage := 0
	if coupon != nil && userID != "" {
		userUsage, err = s.repo.GetUserUsage(ctx, normalized, userID)
		if err != nil {
			return nil, fmt.Errorf("get user usage: %w", err)
		}
	}

	if err := pricing.ValidateEligibility(coupon, subtotal, userUsage, userID, s.now()); err != nil {
		return nil, err
	}

	discount := pricing.FromCents(pricing.Cents(pricing.ComputeDiscount(coupon, subtotal)))
	return &model.CouponQuote{
		DiscountAmount: discount,
		Coupon:         coupon,
	}, nil
}

// ActiveCoupons lists currently redeemable coupons for the storefront.
func (s *CouponService) ActiveCoupons(ctx context.Context) ([]model.ActiveCoupon, error) {
	coupons, err := s.repo.ListActive(ctx, s.now(), activeCouponLimit)
	if err != nil {
		return nil, fmt.Errorf("list active coupons: %w", err)
	}

	active := make([]model.ActiveCoupon, 0, len(coupons))
	for _, coupon := range coupons {
		var remaining *int
		if coupon.UsageLimit != nil {
			left := *coupon.UsageLimit - coupon.UsageCount
			if left < 0 {
				left = 0
			}
			remaining = &left
		}
		active = append(active, model.ActiveCoupon{
			Code:                 coupon.Code,
			Label:                coupon.Label,
			Description:          coupon.Description,
			DiscountType:         coupon.DiscountType,
			DiscountValue:        coupon.DiscountValue,
			MinOrderAmount:       coupon.MinOrderAmount,
			MaxDiscountValue:     coupon.MaxDiscountValue,
			EndDate:              coupon.EndDate,
			RemainingRedemptions: remaining,
		})
	}
	return active, nil
}

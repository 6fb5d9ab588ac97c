package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/food-order-platform/internal/middleware"
	"github.com/fairyhunter13/food-order-platform/internal/model"
	"github.com/fairyhunter13/food-order-platform/internal/pricing"
	"github.com/fairyhunter13/food-order-platform/internal/service"
	"github.com/fairyhunter13/food-order-platform/internal/validator"
)

const testJWTSecret = "handler-test-secret"

// mockCouponService is a mock implementation of CouponServiceInterface.
type mockCouponService struct {
	createFn   func(ctx context.Context, isAdmin bool, req *model.CreateCouponRequest) (*model.Coupon, error)
	listFn     func(ctx context.Context, isAdmin bool) ([]model.Coupon, error)
	updateFn   func(ctx context.Context, isAdmin bool, code string, req *model.UpdateCouponRequest) (*model.Coupon, error)
	deleteFn   func(ctx context.Context, isAdmin bool, code string) error
	validateFn func(ctx context.Context, code string, subtotal float64, userID string) (*model.CouponQuote, error)
	activeFn   func(ctx context.Context) ([]model.ActiveCoupon, error)
}

func (m *mockCouponService) Create(ctx context.Context, isAdmin bool, req *model.CreateCouponRequest) (*model.Coupon, error) {
	if m.createFn != nil {
		return m.createFn(ctx, isAdmin, req)
	}
	return &model.Coupon{}, nil
}

func (m *mockCouponService) List(ctx context.Context, isAdmin bool) ([]model.Coupon, error) {
	if m.listFn != nil {
		return m.listFn(ctx, isAdmin)
	}
	return []model.Coupon{}, nil
}

func (m *mockCouponService) Update(ctx context.Context, isAdmin bool, code string, req *model.UpdateCouponRequest) (*model.Coupon, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, isAdmin, code, req)
	}
	return &model.Coupon{}, nil
}

func (m *mockCouponService) Delete(ctx context.Context, isAdmin bool, code string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, isAdmin, code)
	}
	return nil
}

func (m *mockCouponService) Validate(ctx context.Context, code string, subtotal float64, userID string) (*model.CouponQuote, error) {
	if m.validateFn != nil {
		return m.validateFn(ctx, code, subtotal, userID)
	}
	return &model.CouponQuote{}, nil
}

func (m *mockCouponService) ActiveCoupons(ctx context.Context) ([]model.ActiveCoupon, error) {
	if m.activeFn != nil {
		return m.activeFn(ctx)
	}
	return []model.ActiveCoupon{}, nil
}

func setupCouponApp(mockSvc *mockCouponService) *fiber.App {
	app := fiber.New()
	h := NewCouponHandler(mockSvc, validator.New())
	auth := middleware.Auth(testJWTSecret)
	app.Post("/api/coupons", auth, h.Create)
	app.Get("/api/coupons", auth, h.List)
	app.Put("/api/coupons/:code", auth, h.Update)
	app.Delete("/api/coupons/:code", auth, h.Delete)
	app.Post("/api/coupons/validate", auth, h.Validate)
	app.Get("/api/coupons/active", h.Active)
	return app
}

func bearer(t *testing.T, userID, role string) string {
	t.Helper()
	token, err := middleware.GenerateToken(testJWTSecret, userID, role, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestCouponHandler_Create_Success(t *testing.T) {
	mockSvc := &mockCouponService{
		createFn: func(ctx context.Context, isAdmin bool, req *model.CreateCouponRequest) (*model.Coupon, error) {
			assert.True(t, isAdmin)
			return &model.Coupon{Code: "FESTIVE250", Active: true}, nil
		},
	}
	app := setupCouponApp(mockSvc)

	body := `{"code": "FESTIVE250", "label": "Festive flat 250", "discountType": "flat", "discountValue": 250}`
	req := httptest.NewRequest(http.MethodPost, "/api/coupons", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, "admin_001", middleware.RoleAdmin))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created model.Coupon
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "FESTIVE250", created.Code)
}

func TestCouponHandler_Create_NonAdminForbidden(t *testing.T) {
	mockSvc := &mockCouponService{
		createFn: func(ctx context.Context, isAdmin bool, req *model.CreateCouponRequest) (*model.Coupon, error) {
			assert.False(t, isAdmin)
			return nil, service.ErrForbidden
		},
	}
	app := setupCouponApp(mockSvc)

	body := `{"code": "FESTIVE250", "label": "Festive flat 250", "discountValue": 250}`
	req := httptest.NewRequest(http.MethodPost, "/api/coupons", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, "user_001", "customer"))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestCouponHandler_Create_MissingCode(t *testing.T) {
	app := setupCouponApp(&mockCouponService{})

	body := `{"label": "Festive flat 250", "discountValue": 250}`
	req := httptest.NewRequest(http.MethodPost, "/api/coupons", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, "admin_001", middleware.RoleAdmin))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var result map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "invalid request: code is required", result["error"])
}

func TestCouponHandler_Create_Duplicate(t *testing.T) {
	mockSvc := &mockCouponService{
		createFn: func(ctx context.Context, isAdmin bool, req *model.CreateCouponRequest) (*model.Coupon, error) {
			return nil, service.ErrCouponExists
		},
	}
	app := setupCouponApp(mockSvc)

	body := `{"code": "FESTIVE250", "label": "Festive flat 250", "discountValue": 250}`
	req := httptest.NewRequest(http.MethodPost, "/api/coupons", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, "admin_001", middleware.RoleAdmin))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestCouponHandler_Update_NotFound(t *testing.T) {
	mockSvc := &mockCouponService{
		updateFn: func(ctx context.Context, isAdmin bool, code string, req *model.UpdateCouponRequest) (*model.Coupon, error) {
			return nil, service.ErrCouponNotFound
		},
	}
	app := setupCouponApp(mockSvc)

	req := httptest.NewRequest(http.MethodPut, "/api/coupons/MISSING", bytes.NewBufferString(`{"active": false}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, "admin_001", middleware.RoleAdmin))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestCouponHandler_Delete_Success(t *testing.T) {
	deleted := ""
	mockSvc := &mockCouponService{
		deleteFn: func(ctx context.Context, isAdmin bool, code string) error {
			deleted = code
			return nil
		},
	}
	app := setupCouponApp(mockSvc)

	req := httptest.NewRequest(http.MethodDelete, "/api/coupons/FESTIVE250", nil)
	req.Header.Set("Authorization", bearer(t, "admin_001", middleware.RoleAdmin))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "FESTIVE250", deleted)
}

func TestCouponHandler_Validate_Quote(t *testing.T) {
	mockSvc := &mockCouponService{
		validateFn: func(ctx context.Context, code string, subtotal float64, userID string) (*model.CouponQuote, error) {
			assert.Equal(t, "FESTIVE250", code)
			assert.Equal(t, 1200.0, subtotal)
			assert.Equal(t, "user_001", userID)
			return &model.CouponQuote{DiscountAmount: 250, Coupon: &model.Coupon{Code: code}}, nil
		},
	}
	app := setupCouponApp(mockSvc)

	body := `{"code": "FESTIVE250", "subtotal": 1200}`
	req := httptest.NewRequest(http.MethodPost, "/api/coupons/validate", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, "user_001", "customer"))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var quote model.CouponQuote
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&quote))
	assert.Equal(t, 250.0, quote.DiscountAmount)
}

func TestCouponHandler_Validate_IneligibleCarriesReason(t *testing.T) {
	mockSvc := &mockCouponService{
		validateFn: func(ctx context.Context, code string, subtotal float64, userID string) (*model.CouponQuote, error) {
			return nil, pricing.Ineligible(pricing.ReasonBelowMinimum)
		},
	}
	app := setupCouponApp(mockSvc)

	body := `{"code": "FESTIVE250", "subtotal": 100}`
	req := httptest.NewRequest(http.MethodPost, "/api/coupons/validate", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, "user_001", "customer"))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var result map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, string(pricing.ReasonBelowMinimum), result["reason"], "clients need the structured reason")
	assert.NotEmpty(t, result["error"])
}

func TestCouponHandler_Active_NoAuthRequired(t *testing.T) {
	mockSvc := &mockCouponService{
		activeFn: func(ctx context.Context) ([]model.ActiveCoupon, error) {
			return []model.ActiveCoupon{{Code: "FESTIVE250"}}, nil
		},
	}
	app := setupCouponApp(mockSvc)

	req := httptest.NewRequest(http.MethodGet, "/api/coupons/active", nil)
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result struct {
		Coupons []model.ActiveCoupon `json:"coupons"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.Len(t, result.Coupons, 1)
	assert.Equal(t, "FESTIVE250", result.Coupons[0].Code)
}

func TestCouponHandler_List_RequiresAuth(t *testing.T) {
	app := setupCouponApp(&mockCouponService{})

	req := httptest.NewRequest(http.MethodGet, "/api/coupons", nil)
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stitch-kart/internal/model"
)

// mockStore is a mock implementation of Store.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coupon), args.Error(1)
}

func (m *mockStore) CountUserUsage(ctx context.Context, couponID uuid.UUID, userID string) (int, error) {
	args := m.Called(ctx, couponID, userID)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) CountUserOrders(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestValidator(store Store, now time.Time) Validator {
	v := NewValidator(store, zerolog.Nop()).(*validator)
	v.now = fixedClock(now)
	return v
}

func activeCoupon() *model.Coupon {
	return &model.Coupon{
		ID:              uuid.New(),
		Code:            "SAVE20",
		DiscountType:    model.DiscountPercentage,
		DiscountValue:   decimal.NewFromInt(20),
		StartsAt:        time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		ExpiresAt:       time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		IsActive:        true,
		MaxUsagePerUser: 1,
	}
}

var midYear = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func TestValidator_Validate_Success(t *testing.T) {
	ctx := context.Background()
	c := activeCoupon()

	store := new(mockStore)
	store.On("GetByCode", ctx, "SAVE20").Return(c, nil)
	store.On("CountUserUsage", ctx, c.ID, "user-1").Return(0, nil)

	v := newTestValidator(store, midYear)

	result, err := v.Validate(ctx, "SAVE20", OrderContext{
		UserID:      "user-1",
		OrderAmount: decimal.NewFromInt(400),
		ItemCount:   2,
	})

	require.NoError(t, err)
	assert.True(t, result.Discount.Equal(decimal.NewFromInt(80)), result.Discount.String())
	assert.False(t, result.FreeShipping)
}

func TestValidator_Validate_NotFound(t *testing.T) {
	ctx := context.Background()

	store := new(mockStore)
	store.On("GetByCode", ctx, "NOPE").Return(nil, nil)

	v := newTestValidator(store, midYear)

	_, err := v.Validate(ctx, "NOPE", OrderContext{OrderAmount: decimal.NewFromInt(100)})
	assert.ErrorIs(t, err, model.ErrCouponNotFound)
}

func TestValidator_Validate_Window(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		now  time.Time
		want error
	}{
		{"before window", time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC), model.ErrCouponNotStarted},
		{"at start", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), nil},
		{"inside window", midYear, nil},
		{"at expiry", time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC), model.ErrCouponExpired},
		{"after expiry", time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC), model.ErrCouponExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := activeCoupon()
			store := new(mockStore)
			store.On("GetByCode", ctx, "SAVE20").Return(c, nil)
			store.On("CountUserUsage", ctx, c.ID, mock.Anything).Return(0, nil).Maybe()

			v := newTestValidator(store, tt.now)

			_, err := v.Validate(ctx, "SAVE20", OrderContext{
				UserID:      "user-1",
				OrderAmount: decimal.NewFromInt(400),
			})

			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestValidator_Validate_Inactive(t *testing.T) {
	ctx := context.Background()
	c := activeCoupon()
	c.IsActive = false

	store := new(mockStore)
	store.On("GetByCode", ctx, "SAVE20").Return(c, nil)

	v := newTestValidator(store, midYear)

	_, err := v.Validate(ctx, "SAVE20", OrderContext{OrderAmount: decimal.NewFromInt(400)})
	assert.ErrorIs(t, err, model.ErrCouponInactive)
}

func TestValidator_Validate_GlobalCapReached(t *testing.T) {
	ctx := context.Background()
	maxUsage := 100
	c := activeCoupon()
	c.MaxUsage = &maxUsage
	c.CurrentUsage = 100

	store := new(mockStore)
	store.On("GetByCode", ctx, "SAVE20").Return(c, nil)

	v := newTestValidator(store, midYear)

	_, err := v.Validate(ctx, "SAVE20", OrderContext{OrderAmount: decimal.NewFromInt(400)})
	assert.ErrorIs(t, err, model.ErrCouponUsageExceeded)
}

func TestValidator_Validate_PerUserCapReached(t *testing.T) {
	ctx := context.Background()
	c := activeCoupon()

	store := new(mockStore)
	store.On("GetByCode", ctx, "SAVE20").Return(c, nil)
	store.On("CountUserUsage", ctx, c.ID, "user-1").Return(1, nil)

	v := newTestValidator(store, midYear)

	_, err := v.Validate(ctx, "SAVE20", OrderContext{
		UserID:      "user-1",
		OrderAmount: decimal.NewFromInt(400),
	})
	assert.ErrorIs(t, err, model.ErrCouponUserExceeded)
}

func TestValidator_Validate_UserLists(t *testing.T) {
	ctx := context.Background()

	t.Run("excluded user", func(t *testing.T) {
		c := activeCoupon()
		c.ExcludedUsers = []string{"user-1"}

		store := new(mockStore)
		store.On("GetByCode", ctx, "SAVE20").Return(c, nil)

		v := newTestValidator(store, midYear)

		_, err := v.Validate(ctx, "SAVE20", OrderContext{
			UserID:      "user-1",
			OrderAmount: decimal.NewFromInt(400),
		})
		assert.ErrorIs(t, err, model.ErrCouponNotEligible)
	})

	t.Run("not on allow list", func(t *testing.T) {
		c := activeCoupon()
		c.ApplicableUsers = []string{"vip-1", "vip-2"}

		store := new(mockStore)
		store.On("GetByCode", ctx, "SAVE20").Return(c, nil)

		v := newTestValidator(store, midYear)

		_, err := v.Validate(ctx, "SAVE20", OrderContext{
			UserID:      "user-1",
			OrderAmount: decimal.NewFromInt(400),
		})
		assert.ErrorIs(t, err, model.ErrCouponNotEligible)
	})

	t.Run("on allow list", func(t *testing.T) {
		c := activeCoupon()
		c.ApplicableUsers = []string{"vip-1"}

		store := new(mockStore)
		store.On("GetByCode", ctx, "SAVE20").Return(c, nil)
		store.On("CountUserUsage", ctx, c.ID, "vip-1").Return(0, nil)

		v := newTestValidator(store, midYear)

		_, err := v.Validate(ctx, "SAVE20", OrderContext{
			UserID:      "vip-1",
			OrderAmount: decimal.NewFromInt(400),
		})
		assert.NoError(t, err)
	})
}

func TestValidator_Validate_FirstTimeUserOnly(t *testing.T) {
	ctx := context.Background()

	t.Run("repeat customer rejected", func(t *testing.T) {
		c := activeCoupon()
		c.FirstTimeUserOnly = true

		store := new(mockStore)
		store.On("GetByCode", ctx, "SAVE20").Return(c, nil)
		store.On("CountUserOrders", ctx, "user-1").Return(3, nil)

		v := newTestValidator(store, midYear)

		_, err := v.Validate(ctx, "SAVE20", OrderContext{
			UserID:      "user-1",
			OrderAmount: decimal.NewFromInt(400),
		})
		assert.ErrorIs(t, err, model.ErrCouponFirstTimeOnly)
	})

	t.Run("first order accepted", func(t *testing.T) {
		c := activeCoupon()
		c.FirstTimeUserOnly = true

		store := new(mockStore)
		store.On("GetByCode", ctx, "SAVE20").Return(c, nil)
		store.On("CountUserOrders", ctx, "user-1").Return(0, nil)
		store.On("CountUserUsage", ctx, c.ID, "user-1").Return(0, nil)

		v := newTestValidator(store, midYear)

		_, err := v.Validate(ctx, "SAVE20", OrderContext{
			UserID:      "user-1",
			OrderAmount: decimal.NewFromInt(400),
		})
		assert.NoError(t, err)
	})
}

func TestValidator_Validate_MinimumRequirements(t *testing.T) {
	ctx := context.Background()

	t.Run("below minimum purchase", func(t *testing.T) {
		c := activeCoupon()
		c.MinPurchaseAmount = decimal.NewFromInt(500)

		store := new(mockStore)
		store.On("GetByCode", ctx, "SAVE20").Return(c, nil)
		store.On("CountUserUsage", ctx, c.ID, "user-1").Return(0, nil)

		v := newTestValidator(store, midYear)

		_, err := v.Validate(ctx, "SAVE20", OrderContext{
			UserID:      "user-1",
			OrderAmount: decimal.NewFromInt(400),
		})

		var reqErr *model.CouponRequirementsError
		require.ErrorAs(t, err, &reqErr)
		assert.True(t, reqErr.MinPurchaseAmount.Equal(decimal.NewFromInt(500)))
		assert.True(t, reqErr.OrderAmount.Equal(decimal.NewFromInt(400)))
	})

	t.Run("too few items", func(t *testing.T) {
		c := activeCoupon()
		c.MinItems = 3

		store := new(mockStore)
		store.On("GetByCode", ctx, "SAVE20").Return(c, nil)
		store.On("CountUserUsage", ctx, c.ID, "user-1").Return(0, nil)

		v := newTestValidator(store, midYear)

		_, err := v.Validate(ctx, "SAVE20", OrderContext{
			UserID:      "user-1",
			OrderAmount: decimal.NewFromInt(400),
			ItemCount:   2,
		})

		var reqErr *model.CouponRequirementsError
		require.ErrorAs(t, err, &reqErr)
		assert.Equal(t, 3, reqErr.MinItems)
		assert.Equal(t, 2, reqErr.ItemCount)
	})
}

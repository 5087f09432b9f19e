package service

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

	"stitch-kart/internal/coupon"
	"stitch-kart/internal/model"
)

func newCartServiceForTest(
	cartRepo *MockCartRepository,
	productRepo *MockProductRepository,
	validator *MockCouponValidator,
) CartService {
	return NewCartService(cartRepo, productRepo, validator, zerolog.Nop())
}

func TestCartService_AddItem_Success(t *testing.T) {
	ctx := context.Background()
	cartID := uuid.New()

	tee := &model.Product{
		ID: uuid.New(), Name: "Classic Tee", SKU: "TEE-001",
		Price: decimal.NewFromInt(100), Stock: 10, IsPublished: true,
	}

	emptyCart := &model.Cart{ID: cartID, UserID: "user-1"}
	filledCart := &model.Cart{
		ID: cartID, UserID: "user-1",
		Items: []model.CartItem{
			{ID: uuid.New(), CartID: cartID, ProductID: tee.ID, Quantity: 2,
				UnitPrice: tee.Price, Size: "M", Color: "black", AddedAt: time.Now()},
		},
	}

	mockCartRepo := new(MockCartRepository)
	mockProductRepo := new(MockProductRepository)
	mockValidator := new(MockCouponValidator)

	svc := newCartServiceForTest(mockCartRepo, mockProductRepo, mockValidator)

	mockProductRepo.On("GetByID", ctx, tee.ID).Return(tee, nil)
	mockCartRepo.On("GetOrCreate", ctx, "user-1").Return(emptyCart, nil).Once()
	mockCartRepo.On("UpsertItem", ctx, mock.MatchedBy(func(item *model.CartItem) bool {
		return item.ProductID == tee.ID && item.Quantity == 2 &&
			item.UnitPrice.Equal(tee.Price) && item.Size == "M" && item.Color == "black"
	})).Return(&filledCart.Items[0], nil)
	mockCartRepo.On("GetOrCreate", ctx, "user-1").Return(filledCart, nil).Once()

	resp, err := svc.AddItem(ctx, "user-1", &model.AddItemRequest{
		ProductID: tee.ID, Quantity: 2, Size: "M", Color: "black",
	})

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Len(t, resp.Cart.Items, 1)
	assert.True(t, resp.Subtotal.Equal(decimal.NewFromInt(200)), resp.Subtotal.String())
	assert.True(t, resp.Total.Equal(decimal.NewFromInt(200)), resp.Total.String())

	mockCartRepo.AssertExpectations(t)
	mockProductRepo.AssertExpectations(t)
}

func TestCartService_AddItem_StockExceeded(t *testing.T) {
	ctx := context.Background()
	cartID := uuid.New()

	tee := &model.Product{
		ID: uuid.New(), Name: "Classic Tee", SKU: "TEE-001",
		Price: decimal.NewFromInt(100), Stock: 3, IsPublished: true,
	}

	// Two units of the same line are already in the cart.
	cart := &model.Cart{
		ID: cartID, UserID: "user-1",
		Items: []model.CartItem{
			{ID: uuid.New(), CartID: cartID, ProductID: tee.ID, Quantity: 2,
				UnitPrice: tee.Price, Size: "M", Color: "black"},
		},
	}

	mockCartRepo := new(MockCartRepository)
	mockProductRepo := new(MockProductRepository)
	mockValidator := new(MockCouponValidator)

	svc := newCartServiceForTest(mockCartRepo, mockProductRepo, mockValidator)

	mockProductRepo.On("GetByID", ctx, tee.ID).Return(tee, nil)
	mockCartRepo.On("GetOrCreate", ctx, "user-1").Return(cart, nil)

	resp, err := svc.AddItem(ctx, "user-1", &model.AddItemRequest{
		ProductID: tee.ID, Quantity: 2, Size: "M", Color: "black",
	})

	require.Error(t, err)
	assert.Nil(t, resp)

	var stockErr *model.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 4, stockErr.Requested)
	assert.Equal(t, 3, stockErr.Available)

	mockCartRepo.AssertNotCalled(t, "UpsertItem")
}

func TestCartService_AddItem_InvalidQuantity(t *testing.T) {
	ctx := context.Background()

	mockCartRepo := new(MockCartRepository)
	svc := newCartServiceForTest(mockCartRepo, new(MockProductRepository), new(MockCouponValidator))

	resp, err := svc.AddItem(ctx, "user-1", &model.AddItemRequest{ProductID: uuid.New(), Quantity: 0})

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidQuantity)
	assert.Nil(t, resp)
	mockCartRepo.AssertNotCalled(t, "GetOrCreate")
}

func TestCartService_UpdateItem_NotFound(t *testing.T) {
	ctx := context.Background()
	cartID := uuid.New()
	itemID := uuid.New()

	cart := &model.Cart{ID: cartID, UserID: "user-1"}

	mockCartRepo := new(MockCartRepository)
	svc := newCartServiceForTest(mockCartRepo, new(MockProductRepository), new(MockCouponValidator))

	mockCartRepo.On("GetOrCreate", ctx, "user-1").Return(cart, nil)
	mockCartRepo.On("UpdateItemQuantity", ctx, cartID, itemID, 5).Return(false, nil)

	resp, err := svc.UpdateItem(ctx, "user-1", itemID, 5)

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrCartItemNotFound)
	assert.Nil(t, resp)
}

func TestCartService_RemoveItem_Success(t *testing.T) {
	ctx := context.Background()
	cartID := uuid.New()
	itemID := uuid.New()

	cart := &model.Cart{ID: cartID, UserID: "user-1"}

	mockCartRepo := new(MockCartRepository)
	svc := newCartServiceForTest(mockCartRepo, new(MockProductRepository), new(MockCouponValidator))

	mockCartRepo.On("GetOrCreate", ctx, "user-1").Return(cart, nil)
	mockCartRepo.On("RemoveItem", ctx, cartID, itemID).Return(true, nil)

	resp, err := svc.RemoveItem(ctx, "user-1", itemID)

	require.NoError(t, err)
	require.NotNil(t, resp)
	mockCartRepo.AssertExpectations(t)
}

func TestCartService_ApplyCoupon_Success(t *testing.T) {
	ctx := context.Background()
	cartID := uuid.New()
	productID := uuid.New()

	cart := &model.Cart{
		ID: cartID, UserID: "user-1",
		Items: []model.CartItem{
			{ID: uuid.New(), CartID: cartID, ProductID: productID, Quantity: 3,
				UnitPrice: decimal.NewFromInt(200)},
		},
	}

	cpn := &model.Coupon{ID: uuid.New(), Code: "SAVE20", DiscountType: model.DiscountPercentage}
	discount := decimal.NewFromInt(100)

	mockCartRepo := new(MockCartRepository)
	mockValidator := new(MockCouponValidator)

	svc := newCartServiceForTest(mockCartRepo, new(MockProductRepository), mockValidator)

	mockCartRepo.On("GetOrCreate", ctx, "user-1").Return(cart, nil)
	mockValidator.On("Validate", ctx, "save20", coupon.OrderContext{
		UserID:      "user-1",
		OrderAmount: decimal.NewFromInt(600),
		ItemCount:   3,
	}).Return(&coupon.Result{Coupon: cpn, Discount: discount}, nil)
	mockCartRepo.On("SetCoupon", ctx, cartID, "SAVE20", discount).Return(nil)

	resp, err := svc.ApplyCoupon(ctx, "user-1", "save20")

	require.NoError(t, err)
	require.NotNil(t, resp)
	mockValidator.AssertExpectations(t)
	mockCartRepo.AssertExpectations(t)
}

func TestCartService_ApplyCoupon_Rejected(t *testing.T) {
	ctx := context.Background()
	cartID := uuid.New()

	cart := &model.Cart{ID: cartID, UserID: "user-1"}

	mockCartRepo := new(MockCartRepository)
	mockValidator := new(MockCouponValidator)

	svc := newCartServiceForTest(mockCartRepo, new(MockProductRepository), mockValidator)

	mockCartRepo.On("GetOrCreate", ctx, "user-1").Return(cart, nil)
	mockValidator.On("Validate", ctx, "GONE", mock.AnythingOfType("coupon.OrderContext")).
		Return(nil, model.ErrCouponExpired)

	resp, err := svc.ApplyCoupon(ctx, "user-1", "GONE")

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrCouponExpired)
	assert.Nil(t, resp)
	mockCartRepo.AssertNotCalled(t, "SetCoupon")
}

func TestCartService_Clear(t *testing.T) {
	ctx := context.Background()

	empty := &model.Cart{ID: uuid.New(), UserID: "user-1"}

	mockCartRepo := new(MockCartRepository)
	svc := newCartServiceForTest(mockCartRepo, new(MockProductRepository), new(MockCouponValidator))

	mockCartRepo.On("Clear", ctx, nil, "user-1").Return(nil)
	mockCartRepo.On("GetOrCreate", ctx, "user-1").Return(empty, nil)

	resp, err := svc.Clear(ctx, "user-1")

	require.NoError(t, err)
	assert.Empty(t, resp.Cart.Items)
	assert.True(t, resp.Total.IsZero())
	mockCartRepo.AssertExpectations(t)
}

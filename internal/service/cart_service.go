package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"stitch-kart/internal/coupon"
	"stitch-kart/internal/model"
	"stitch-kart/internal/repository"
)

// cartService implements CartService.
type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	validator   coupon.Validator
	logger      zerolog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	validator coupon.Validator,
	logger zerolog.Logger,
) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		validator:   validator,
		logger:      logger.With().Str("service", "cart").Logger(),
	}
}

// Get returns the user's cart, creating it lazily.
func (s *cartService) Get(ctx context.Context, userID string) (*model.CartResponse, error) {
	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return model.NewCartResponse(cart), nil
}

// AddItem adds a line to the cart, merging by summing quantity when the
// same (product, size, color) triple already exists. The unit price is
// captured from the product at add time.
func (s *cartService) AddItem(ctx context.Context, userID string, req *model.AddItemRequest) (*model.CartResponse, error) {
	if req == nil || req.Quantity <= 0 {
		return nil, model.ErrInvalidQuantity
	}

	product, err := s.productRepo.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil || !product.IsPublished {
		return nil, model.ErrProductNotFound
	}

	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	// Advisory check against current stock including what is already in
	// the cart for the same line. The binding check happens at checkout.
	existing := 0
	for _, item := range cart.Items {
		if item.ProductID == req.ProductID && item.Size == req.Size && item.Color == req.Color {
			existing = item.Quantity
			break
		}
	}
	if existing+req.Quantity > product.Stock {
		return nil, &model.InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   existing + req.Quantity,
			Available:   product.Stock,
		}
	}

	line := &model.CartItem{
		ID:        uuid.New(),
		CartID:    cart.ID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		UnitPrice: product.Price,
		Size:      req.Size,
		Color:     req.Color,
		AddedAt:   time.Now(),
	}
	if _, err := s.cartRepo.UpsertItem(ctx, line); err != nil {
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}

	s.logger.Debug().
		Str("user_id", userID).
		Str("product_id", req.ProductID.String()).
		Int("quantity", req.Quantity).
		Msg("cart item added")

	return s.refresh(ctx, userID)
}

// UpdateItem sets a line's quantity.
func (s *cartService) UpdateItem(ctx context.Context, userID string, itemID uuid.UUID, quantity int) (*model.CartResponse, error) {
	if quantity <= 0 {
		return nil, model.ErrInvalidQuantity
	}

	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	updated, err := s.cartRepo.UpdateItemQuantity(ctx, cart.ID, itemID, quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}
	if !updated {
		return nil, model.ErrCartItemNotFound
	}

	return s.refresh(ctx, userID)
}

// RemoveItem deletes a line.
func (s *cartService) RemoveItem(ctx context.Context, userID string, itemID uuid.UUID) (*model.CartResponse, error) {
	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	removed, err := s.cartRepo.RemoveItem(ctx, cart.ID, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to remove cart item: %w", err)
	}
	if !removed {
		return nil, model.ErrCartItemNotFound
	}

	return s.refresh(ctx, userID)
}

// ApplyCoupon validates the code against the cart's live contents and
// stores the code with its computed discount. Usage is not consumed here;
// redemption happens when the order commits.
func (s *cartService) ApplyCoupon(ctx context.Context, userID, code string) (*model.CartResponse, error) {
	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	itemCount := 0
	for _, item := range cart.Items {
		itemCount += item.Quantity
	}

	result, err := s.validator.Validate(ctx, code, coupon.OrderContext{
		UserID:      userID,
		OrderAmount: cart.Subtotal(),
		ItemCount:   itemCount,
	})
	if err != nil {
		return nil, err
	}

	if err := s.cartRepo.SetCoupon(ctx, cart.ID, result.Coupon.Code, result.Discount); err != nil {
		return nil, fmt.Errorf("failed to apply coupon: %w", err)
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("coupon_code", result.Coupon.Code).
		Str("discount", result.Discount.String()).
		Msg("coupon applied to cart")

	return s.refresh(ctx, userID)
}

// RemoveCoupon clears the coupon association and cached discount.
func (s *cartService) RemoveCoupon(ctx context.Context, userID string) (*model.CartResponse, error) {
	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	if err := s.cartRepo.ClearCoupon(ctx, cart.ID); err != nil {
		return nil, fmt.Errorf("failed to remove coupon: %w", err)
	}

	return s.refresh(ctx, userID)
}

// Clear removes all lines and the coupon association.
func (s *cartService) Clear(ctx context.Context, userID string) (*model.CartResponse, error) {
	if err := s.cartRepo.Clear(ctx, nil, userID); err != nil {
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}
	return s.Get(ctx, userID)
}

// refresh re-reads the cart so responses always reflect persisted state.
func (s *cartService) refresh(ctx context.Context, userID string) (*model.CartResponse, error) {
	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload cart: %w", err)
	}
	return model.NewCartResponse(cart), nil
}

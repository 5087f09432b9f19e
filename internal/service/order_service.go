package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"stitch-kart/internal/config"
	"stitch-kart/internal/coupon"
	"stitch-kart/internal/model"
	"stitch-kart/internal/repository"
)

// maxOrderNumberAttempts bounds regeneration when a generated order number
// collides with an existing one.
const maxOrderNumberAttempts = 5

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	cartRepo    repository.CartRepository
	couponRepo  repository.CouponRepository
	validator   coupon.Validator
	pricing     config.PricingConfig
	logger      zerolog.Logger
	now         func() time.Time
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	cartRepo repository.CartRepository,
	couponRepo repository.CouponRepository,
	validator coupon.Validator,
	pricing config.PricingConfig,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		cartRepo:    cartRepo,
		couponRepo:  couponRepo,
		validator:   validator,
		pricing:     pricing,
		logger:      logger.With().Str("service", "order").Logger(),
		now:         time.Now,
	}
}

// Create builds and persists an order as one unit of work. The order row,
// its line snapshots, every stock debit, the coupon redemption and the
// cart clear commit together or roll back together.
func (s *orderService) Create(ctx context.Context, req *model.OrderRequest) (*model.Order, error) {
	if err := validateOrderRequest(req); err != nil {
		return nil, err
	}

	products, err := s.resolveProducts(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	// Pre-check stock against the aggregate quantity per product so the
	// caller gets a named product and the available amount. The binding
	// check is the conditional debit inside the transaction.
	if err := precheckStock(req.Items, products); err != nil {
		return nil, err
	}

	now := s.now()
	order := s.buildOrder(req, products, now)

	// Price snapshot captured, totals computed. Resolve the coupon last so
	// it sees the final subtotal.
	var redemption *model.CouponUsage
	var couponMaxUsage *int
	var couponMaxPerUser int
	if req.CouponCode != nil && *req.CouponCode != "" {
		result, err := s.validator.Validate(ctx, *req.CouponCode, coupon.OrderContext{
			UserID:      req.UserID,
			OrderAmount: order.Subtotal,
			ItemCount:   totalQuantity(req.Items),
		})
		if err != nil {
			s.logger.Warn().
				Str("coupon_code", *req.CouponCode).
				Str("user_id", req.UserID).
				Err(err).
				Msg("coupon rejected during order creation")
			return nil, err
		}

		order.Discount = result.Discount
		order.CouponCode = &result.Coupon.Code
		if result.FreeShipping {
			order.ShippingFee = decimal.Zero
		}
		couponMaxUsage = result.Coupon.MaxUsage
		couponMaxPerUser = result.Coupon.MaxUsagePerUser
		redemption = &model.CouponUsage{
			ID:             uuid.New(),
			CouponID:       result.Coupon.ID,
			UserID:         req.UserID,
			OrderID:        order.ID,
			DiscountAmount: result.Discount,
			UsedAt:         now,
		}
	}

	order.Total = orderTotal(order)

	for attempt := 0; attempt < maxOrderNumberAttempts; attempt++ {
		err = s.createTx(ctx, order, req, redemption, couponMaxUsage, couponMaxPerUser)
		if isOrderNumberConflict(err) {
			order.OrderNumber = generateOrderNumber(s.now())
			continue
		}
		break
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Str("user_id", order.UserID).
		Str("total", order.Total.String()).
		Int("item_count", len(order.Items)).
		Msg("order created")

	return order, nil
}

// createTx runs the persistence half of order creation in one transaction.
func (s *orderService) createTx(
	ctx context.Context,
	order *model.Order,
	req *model.OrderRequest,
	redemption *model.CouponUsage,
	couponMaxUsage *int,
	couponMaxPerUser int,
) (err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	// Roll back on any failure so no partial order or stock mutation is
	// ever visible to other readers.
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		return err
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, order.Items); err != nil {
		return err
	}

	initial := &model.StatusEntry{
		ID:        uuid.New(),
		OrderID:   order.ID,
		Status:    model.OrderStatusPending,
		Note:      "order placed",
		CreatedAt: order.CreatedAt,
	}
	if err = s.orderRepo.AppendStatusHistory(ctx, tx, initial); err != nil {
		return err
	}

	// Atomic conditional debits. A zero row count means another order took
	// the stock between our pre-check and now; the whole unit of work
	// rolls back.
	for _, item := range order.Items {
		var debited bool
		debited, err = s.productRepo.DebitStock(ctx, tx, item.ProductID, item.Quantity)
		if err != nil {
			return err
		}
		if !debited {
			err = &model.InsufficientStockError{
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				Requested:   item.Quantity,
				AtCommit:    true,
			}
			return err
		}
	}

	if redemption != nil {
		var recorded bool
		recorded, err = s.couponRepo.RecordUsage(ctx, tx, redemption, couponMaxUsage, couponMaxPerUser)
		if err != nil {
			return err
		}
		if !recorded {
			s.logger.Debug().
				Str("order_id", order.ID.String()).
				Msg("coupon already redeemed for this order")
		}
	}

	if req.FromCart {
		if err = s.cartRepo.Clear(ctx, tx, order.UserID); err != nil {
			return err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	order.StatusHistory = []model.StatusEntry{*initial}

	return nil
}

// GetByID retrieves an order with items and status history.
func (s *orderService) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// ListByUser retrieves a user's orders.
func (s *orderService) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus advances the order through the state machine. Moving to
// cancelled is routed through the compensating path.
func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, req *model.UpdateStatusRequest) (*model.Order, error) {
	if !model.ValidOrderStatus(req.Status) {
		return nil, model.NewDomainError(model.ErrCodeValidation,
			fmt.Sprintf("unknown order status %q", req.Status))
	}

	var reason *string
	if req.Status == model.OrderStatusCancelled && req.Note != "" {
		reason = &req.Note
	}

	return s.transition(ctx, id, req.Status, req.Note, req.ChangedBy, reason)
}

// Cancel cancels an order with compensating stock restoration.
func (s *orderService) Cancel(ctx context.Context, id uuid.UUID, req *model.CancelOrderRequest) (*model.Order, error) {
	return s.transition(ctx, id, model.OrderStatusCancelled, req.Reason, req.ChangedBy, &req.Reason)
}

// transition performs one state machine move in a transaction: lock the
// order, check legality, write the new status, append history. Moving to
// cancelled also restores stock as the exact inverse of creation's debits.
func (s *orderService) transition(
	ctx context.Context,
	id uuid.UUID,
	target model.OrderStatus,
	note, changedBy string,
	cancelReason *string,
) (_ *model.Order, err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	order, err := s.orderRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		err = model.ErrOrderNotFound
		return nil, err
	}

	if !model.CanTransition(order.Status, target) {
		err = &model.IllegalTransitionError{From: order.Status, To: target}
		return nil, err
	}

	now := s.now()

	if target == model.OrderStatusCancelled {
		var items []model.OrderItem
		items, err = s.orderRepo.GetItems(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			if err = s.productRepo.RestoreStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return nil, err
			}
		}
	}

	if err = s.orderRepo.UpdateStatus(ctx, tx, id, target, now, cancelReason); err != nil {
		return nil, err
	}

	entry := &model.StatusEntry{
		ID:        uuid.New(),
		OrderID:   id,
		Status:    target,
		Note:      note,
		ChangedBy: changedBy,
		CreatedAt: now,
	}
	if err = s.orderRepo.AppendStatusHistory(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	s.logger.Info().
		Str("order_id", id.String()).
		Str("from", string(order.Status)).
		Str("to", string(target)).
		Msg("order status updated")

	// Cancelling a paid order moves the payment axis to refunded. Payment
	// capture itself is external; this records the refund decision.
	if target == model.OrderStatusCancelled && order.PaymentStatus == model.PaymentStatusPaid {
		if payErr := s.orderRepo.UpdatePayment(ctx, id, model.PaymentStatusRefunded, nil); payErr != nil {
			s.logger.Error().Err(payErr).
				Str("order_id", id.String()).
				Msg("failed to mark payment refunded")
		}
	}

	return s.orderRepo.GetByID(ctx, id)
}

// MarkPaid records successful payment capture. Repeated calls with the
// same payment are no-ops.
func (s *orderService) MarkPaid(ctx context.Context, id uuid.UUID, paymentID string) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	if order.PaymentStatus == model.PaymentStatusPaid {
		return order, nil
	}

	pid := paymentID
	if err := s.orderRepo.UpdatePayment(ctx, id, model.PaymentStatusPaid, &pid); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", id.String()).
		Str("payment_id", paymentID).
		Msg("order marked paid")

	return s.orderRepo.GetByID(ctx, id)
}

// resolveProducts batch-fetches the requested products and rejects missing
// or unpublished ones.
func (s *orderService) resolveProducts(ctx context.Context, items []model.OrderItemRequest) (map[uuid.UUID]model.Product, error) {
	ids := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]bool, len(items))
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}

	fetched, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	products := make(map[uuid.UUID]model.Product, len(fetched))
	for _, p := range fetched {
		products[p.ID] = p
	}

	for _, id := range ids {
		p, ok := products[id]
		if !ok || !p.IsPublished {
			s.logger.Warn().Str("product_id", id.String()).Msg("product not orderable")
			return nil, model.ErrProductNotFound
		}
	}

	return products, nil
}

// buildOrder assembles the order with line snapshots and pricing, except
// discount and total which depend on coupon resolution.
func (s *orderService) buildOrder(req *model.OrderRequest, products map[uuid.UUID]model.Product, now time.Time) *model.Order {
	orderID := uuid.New()

	items := make([]model.OrderItem, len(req.Items))
	subtotal := decimal.Zero
	for i, item := range req.Items {
		p := products[item.ProductID]
		items[i] = model.OrderItem{
			ID:          uuid.New(),
			OrderID:     orderID,
			ProductID:   p.ID,
			ProductName: p.Name,
			ProductSKU:  p.SKU,
			Image:       p.Image,
			UnitPrice:   p.Price,
			Quantity:    item.Quantity,
			Size:        item.Size,
			Color:       item.Color,
		}
		subtotal = subtotal.Add(p.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	tax := subtotal.Mul(s.pricing.TaxRate).Round(2)

	shippingFee := s.pricing.ShippingFee
	if subtotal.GreaterThan(s.pricing.FreeShippingThreshold) {
		shippingFee = decimal.Zero
	}

	return &model.Order{
		ID:              orderID,
		OrderNumber:     generateOrderNumber(now),
		UserID:          req.UserID,
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		Subtotal:        subtotal,
		Tax:             tax,
		ShippingFee:     shippingFee,
		Discount:        decimal.Zero,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   model.PaymentStatusPending,
		Status:          model.OrderStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// orderTotal computes total = subtotal + tax + shippingFee - discount,
// floored at zero.
func orderTotal(o *model.Order) decimal.Decimal {
	total := o.Subtotal.Add(o.Tax).Add(o.ShippingFee).Sub(o.Discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total.Round(2)
}

// precheckStock validates requested quantities against current stock,
// aggregated per product across lines, so errors can name the product and
// the available amount.
func precheckStock(items []model.OrderItemRequest, products map[uuid.UUID]model.Product) error {
	requested := make(map[uuid.UUID]int, len(items))
	for _, item := range items {
		requested[item.ProductID] += item.Quantity
	}

	for id, qty := range requested {
		p := products[id]
		if p.Stock < qty {
			return &model.InsufficientStockError{
				ProductID:   id,
				ProductName: p.Name,
				Requested:   qty,
				Available:   p.Stock,
			}
		}
	}

	return nil
}

// validateOrderRequest validates the order request shape.
func validateOrderRequest(req *model.OrderRequest) error {
	if req == nil {
		return model.NewDomainError(model.ErrCodeValidation, "order request is nil")
	}

	if req.UserID == "" {
		return model.NewDomainError(model.ErrCodeValidation, "user id is required")
	}

	if len(req.Items) == 0 {
		return model.ErrEmptyOrder
	}

	if req.PaymentMethod == "" {
		return model.NewDomainError(model.ErrCodeValidation, "payment method is required")
	}

	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return model.ErrInvalidQuantity
		}
	}

	return nil
}

// totalQuantity sums quantities across all requested lines.
func totalQuantity(items []model.OrderItemRequest) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}

// generateOrderNumber produces a human-readable unique order number:
// ORD-<8 timestamp digits>-<3 random digits>. Collisions are handled by
// regeneration before commit; once committed the number never changes.
func generateOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%08d-%03d", now.Unix()%100000000, rand.IntN(900)+100)
}

// isOrderNumberConflict reports whether err is a unique violation on the
// order number column.
func isOrderNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_order_number_key"
	}
	return false
}

package router

import (
	"net/http"

	"github.com/rs/zerolog"

	"stitch-kart/internal/handler"
	"stitch-kart/internal/middleware"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	productHandler *handler.ProductHandler,
	cartHandler *handler.CartHandler,
	orderHandler *handler.OrderHandler,
	couponHandler *handler.CouponHandler,
	reviewHandler *handler.ReviewHandler,
	apiKey string,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	// Catalogue
	mux.HandleFunc("GET /api/products", productHandler.List)
	mux.HandleFunc("GET /api/products/low-stock", productHandler.LowStock)
	mux.HandleFunc("GET /api/products/{idOrSlug}", productHandler.Get)

	// Reviews
	mux.HandleFunc("POST /api/products/{productId}/reviews", reviewHandler.Submit)
	mux.HandleFunc("GET /api/products/{productId}/reviews", reviewHandler.ListByProduct)
	mux.HandleFunc("PUT /api/reviews/{id}/moderate", reviewHandler.Moderate)

	// Carts
	mux.HandleFunc("GET /api/carts/{userId}", cartHandler.Get)
	mux.HandleFunc("DELETE /api/carts/{userId}", cartHandler.Clear)
	mux.HandleFunc("POST /api/carts/{userId}/items", cartHandler.AddItem)
	mux.HandleFunc("PUT /api/carts/{userId}/items/{itemId}", cartHandler.UpdateItem)
	mux.HandleFunc("DELETE /api/carts/{userId}/items/{itemId}", cartHandler.RemoveItem)
	mux.HandleFunc("POST /api/carts/{userId}/coupon", cartHandler.ApplyCoupon)
	mux.HandleFunc("DELETE /api/carts/{userId}/coupon", cartHandler.RemoveCoupon)

	// Orders
	mux.HandleFunc("POST /api/orders", orderHandler.Create)
	mux.HandleFunc("GET /api/orders/{id}", orderHandler.GetByID)
	mux.HandleFunc("PUT /api/orders/{id}/status", orderHandler.UpdateStatus)
	mux.HandleFunc("PUT /api/orders/{id}/cancel", orderHandler.Cancel)
	mux.HandleFunc("PUT /api/orders/{id}/payment", orderHandler.MarkPaid)
	mux.HandleFunc("GET /api/users/{userId}/orders", orderHandler.ListByUser)

	// Coupons
	mux.HandleFunc("POST /api/coupons/validate", couponHandler.Validate)

	// Apply middleware in order: Recovery -> Logging -> CORS -> APIKeyAuth
	var h http.Handler = mux
	h = middleware.APIKeyAuth(apiKey, logger)(h)
	h = middleware.CORS(h)
	h = middleware.Logging(logger)(h)
	h = middleware.Recovery(logger)(h)

	return h
}

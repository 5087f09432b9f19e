package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"stitch-kart/internal/model"
	"stitch-kart/internal/service"
)

// CartHandler handles cart-related HTTP requests.
type CartHandler struct {
	service service.CartService
	logger  zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(service service.CartService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  logger.With().Str("handler", "cart").Logger(),
	}
}

// Get handles GET /api/carts/{userId} requests.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	cart, err := h.service.Get(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, cart)
}

// AddItem handles POST /api/carts/{userId}/items requests.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req model.AddItemRequest
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	cart, err := h.service.AddItem(r.Context(), userID, &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, cart)
}

// UpdateItem handles PUT /api/carts/{userId}/items/{itemId} requests.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	itemID, err := uuid.Parse(r.PathValue("itemId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "invalid item ID format", h.logger)
		return
	}

	var req model.UpdateItemRequest
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	cart, err := h.service.UpdateItem(r.Context(), userID, itemID, req.Quantity)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, cart)
}

// RemoveItem handles DELETE /api/carts/{userId}/items/{itemId} requests.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	itemID, err := uuid.Parse(r.PathValue("itemId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "invalid item ID format", h.logger)
		return
	}

	cart, err := h.service.RemoveItem(r.Context(), userID, itemID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, cart)
}

// ApplyCoupon handles POST /api/carts/{userId}/coupon requests.
func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req model.ApplyCouponRequest
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "coupon code is required", h.logger)
		return
	}

	cart, err := h.service.ApplyCoupon(r.Context(), userID, req.Code)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, cart)
}

// RemoveCoupon handles DELETE /api/carts/{userId}/coupon requests.
func (h *CartHandler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	cart, err := h.service.RemoveCoupon(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, cart)
}

// Clear handles DELETE /api/carts/{userId} requests.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	cart, err := h.service.Clear(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, cart)
}

// userID extracts the {userId} path segment.
func (h *CartHandler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.PathValue("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "user ID is required", h.logger)
		return "", false
	}
	return userID, true
}

package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"stitch-kart/internal/model"
	"stitch-kart/internal/service"
)

// CouponHandler handles coupon-related HTTP requests.
type CouponHandler struct {
	service service.CouponService
	logger  zerolog.Logger
}

// NewCouponHandler creates a new coupon handler.
func NewCouponHandler(service service.CouponService, logger zerolog.Logger) *CouponHandler {
	return &CouponHandler{
		service: service,
		logger:  logger.With().Str("handler", "coupon").Logger(),
	}
}

// Validate handles POST /api/coupons/validate requests. It previews a
// coupon against an order amount without consuming usage.
func (h *CouponHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req model.ValidateCouponRequest
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	resp, err := h.service.Preview(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

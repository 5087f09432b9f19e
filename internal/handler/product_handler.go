package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"stitch-kart/internal/model"
	"stitch-kart/internal/service"
)

// ProductHandler handles product-related HTTP requests.
type ProductHandler struct {
	service service.ProductService
	logger  zerolog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(service service.ProductService, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger.With().Str("handler", "product").Logger(),
	}
}

// List handles GET /api/products requests.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	products, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, products)
}

// Get handles GET /api/products/{idOrSlug} requests.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	idOrSlug := r.PathValue("idOrSlug")
	if idOrSlug == "" {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "product ID is required", h.logger)
		return
	}

	product, err := h.service.Get(r.Context(), idOrSlug)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	if product == nil {
		writeDomainError(w, model.ErrProductNotFound, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// LowStock handles GET /api/products/low-stock requests.
func (h *ProductHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.LowStock(r.Context())
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, products)
}

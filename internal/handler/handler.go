package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"stitch-kart/internal/model"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code, error
// code and message.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	logger.Error().Str("code", code).Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// writeDomainError maps a service error onto an HTTP status and writes it.
func writeDomainError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var stockErr *model.InsufficientStockError
	if errors.As(err, &stockErr) {
		writeError(w, http.StatusBadRequest, model.ErrCodeInsufficientStock, stockErr.Error(), logger)
		return
	}

	var transErr *model.IllegalTransitionError
	if errors.As(err, &transErr) {
		writeError(w, http.StatusBadRequest, model.ErrCodeIllegalTransition, transErr.Error(), logger)
		return
	}

	var reqErr *model.CouponRequirementsError
	if errors.As(err, &reqErr) {
		writeError(w, http.StatusBadRequest, model.ErrCodeCouponRequirements, reqErr.Error(), logger)
		return
	}

	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		writeError(w, statusForCode(domainErr.Code), domainErr.Code, domainErr.Message, logger)
		return
	}

	writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error", logger)
}

// statusForCode maps domain error codes onto HTTP status codes.
func statusForCode(code string) int {
	switch code {
	case model.ErrCodeProductNotFound, model.ErrCodeOrderNotFound,
		model.ErrCodeCartItemNotFound, model.ErrCodeReviewNotFound:
		return http.StatusNotFound
	case model.ErrCodeCouponNotFound, model.ErrCodeInvalidCoupon,
		model.ErrCodeValidation, model.ErrCodeInvalidQuantity, model.ErrCodeInvalidJSON:
		return http.StatusBadRequest
	case model.ErrCodeConcurrencyConflict:
		return http.StatusConflict
	case model.ErrCodeUnauthorised:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody decodes a JSON request body into dst.
func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return model.NewDomainError(model.ErrCodeInvalidJSON, "invalid request body")
	}
	return nil
}

package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/servicesartisans/booking/internal/domain"
)

const (
	codeConflict         = "slot_conflict"
	codeExpired          = "hold_expired"
	codeNotFound         = "not_found"
	codeValidation       = "validation_error"
	codeStoreUnavailable = "store_unavailable"
	codeInternal         = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeError maps the error taxonomy onto HTTP statuses: conflicts are 409,
// expired or missing holds are 410, validation is 400, transient store
// trouble is 503 so clients know a retry is legitimate.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrSlotConflict), errors.Is(err, domain.ErrBookingExists):
		c.JSON(http.StatusConflict, errorResponse{Error: err.Error(), Code: codeConflict})
	case errors.Is(err, domain.ErrHoldExpired), errors.Is(err, domain.ErrHoldNotFound):
		c.JSON(http.StatusGone, errorResponse{Error: err.Error(), Code: codeExpired})
	case errors.Is(err, domain.ErrSlotNotFound), errors.Is(err, domain.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error(), Code: codeNotFound})
	case errors.Is(err, domain.ErrHolderTokenRequired),
		errors.Is(err, domain.ErrClientNameRequired),
		errors.Is(err, domain.ErrContactRequired),
		errors.Is(err, domain.ErrInvalidDeposit),
		errors.Is(err, domain.ErrInvalidPeriod):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Code: codeValidation})
	case errors.Is(err, domain.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "store unavailable", Code: codeStoreUnavailable})
	default:
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error", Code: codeInternal})
	}
}

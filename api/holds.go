package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/servicesartisans/booking/internal/domain"
	"github.com/servicesartisans/booking/internal/payment"
	"github.com/servicesartisans/booking/internal/service/reservation"
)

type HoldHandler struct {
	service  reservation.ReservationUseCase
	payments payment.Provider
}

type placeHoldRequest struct {
	SlotID      string `json:"slot_id" binding:"required"`
	HolderToken string `json:"holder_token"`
}

type holdResponse struct {
	HoldID    string `json:"hold_id"`
	SlotID    string `json:"slot_id"`
	Status    string `json:"status"`
	ExpiresAt string `json:"expires_at"`
}

type confirmRequest struct {
	ClientName         string `json:"client_name"`
	ClientPhone        string `json:"client_phone"`
	ClientEmail        string `json:"client_email"`
	ServiceDescription string `json:"service_description"`
	DepositCents       int64  `json:"deposit_cents"`
}

type bookingResponse struct {
	BookingID    string `json:"booking_id"`
	SlotID       string `json:"slot_id"`
	Status       string `json:"status"`
	DepositCents int64  `json:"deposit_cents,omitempty"`
	PaymentURL   string `json:"payment_url,omitempty"`
	CreatedAt    string `json:"created_at"`
}

func NewHoldHandler(service reservation.ReservationUseCase, payments payment.Provider) *HoldHandler {
	return &HoldHandler{service: service, payments: payments}
}

func (h *HoldHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.place)
	router.POST("/:id/confirm", h.confirm)
	router.DELETE("/:id", h.release)
}

func (h *HoldHandler) place(c *gin.Context) {
	var req placeHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Code: codeValidation})
		return
	}

	hold, err := h.service.PlaceHold(c.Request.Context(), req.SlotID, req.HolderToken)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, holdResponse{
		HoldID:    hold.ID,
		SlotID:    hold.SlotID,
		Status:    string(hold.Status),
		ExpiresAt: hold.ExpiresAt.Format(time.RFC3339),
	})
}

func (h *HoldHandler) confirm(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Code: codeValidation})
		return
	}

	booking, err := h.service.ConfirmHold(c.Request.Context(), c.Param("id"), domain.BookingDetails{
		ClientName:         req.ClientName,
		ClientPhone:        req.ClientPhone,
		ClientEmail:        req.ClientEmail,
		ServiceDescription: req.ServiceDescription,
		DepositCents:       req.DepositCents,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	resp := bookingResponse{
		BookingID:    booking.ID,
		SlotID:       booking.SlotID,
		Status:       string(booking.Status),
		DepositCents: booking.DepositCents,
		CreatedAt:    booking.CreatedAt.Format(time.RFC3339),
	}
	// Deposit bookings get a checkout redirect; a failed session leaves the
	// booking confirmed regardless.
	if booking.DepositCents > 0 && h.payments != nil {
		if url, err := h.payments.CreateSession(c.Request.Context(), booking.ID, booking.DepositCents); err == nil {
			resp.PaymentURL = url
		}
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *HoldHandler) release(c *gin.Context) {
	if err := h.service.ReleaseHold(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

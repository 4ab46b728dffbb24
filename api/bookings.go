package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/servicesartisans/booking/internal/payment"
	"github.com/servicesartisans/booking/internal/service/reservation"
)

type BookingHandler struct {
	service  reservation.ReservationUseCase
	payments payment.Provider
}

func NewBookingHandler(service reservation.ReservationUseCase, payments payment.Provider) *BookingHandler {
	return &BookingHandler{service: service, payments: payments}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.DELETE("/:id", h.cancel)
	router.POST("/:id/payment", h.paymentSession)
}

func (h *BookingHandler) cancel(c *gin.Context) {
	retire := c.Query("retire") == "true"

	booking, err := h.service.CancelBooking(c.Request.Context(), c.Param("id"), retire)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookingResponse{
		BookingID: booking.ID,
		SlotID:    booking.SlotID,
		Status:    string(booking.Status),
		CreatedAt: booking.CreatedAt.Format(time.RFC3339),
	})
}

func (h *BookingHandler) paymentSession(c *gin.Context) {
	booking, err := h.service.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	url, err := h.payments.CreateSession(c.Request.Context(), booking.ID, booking.DepositCents)
	if err != nil {
		if err == payment.ErrNoDeposit {
			c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Code: codeValidation})
			return
		}
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"booking_id": booking.ID, "redirect_url": url})
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/servicesartisans/booking/internal/service/reservation"
)

// SlotHandler exposes provider-side slot management.
type SlotHandler struct {
	service reservation.ReservationUseCase
}

func NewSlotHandler(service reservation.ReservationUseCase) *SlotHandler {
	return &SlotHandler{service: service}
}

func (h *SlotHandler) Register(router *gin.RouterGroup) {
	router.POST("/:id/slots/:slotId/block", h.block)
	router.POST("/:id/slots/:slotId/open", h.open)
}

type slotResponse struct {
	SlotID    string `json:"slot_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Status    string `json:"status"`
}

func (h *SlotHandler) block(c *gin.Context) {
	h.setBlocked(c, true)
}

func (h *SlotHandler) open(c *gin.Context) {
	h.setBlocked(c, false)
}

func (h *SlotHandler) setBlocked(c *gin.Context, blocked bool) {
	slot, err := h.service.SetSlotBlocked(c.Request.Context(), c.Param("slotId"), blocked)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, slotResponse{
		SlotID:    slot.ID,
		Date:      slot.Date.Format("2006-01-02"),
		StartTime: slot.StartTime,
		EndTime:   slot.EndTime,
		Status:    string(slot.Status),
	})
}

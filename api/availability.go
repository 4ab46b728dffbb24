package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/servicesartisans/booking/config"
	"github.com/servicesartisans/booking/internal/clock"
	"github.com/servicesartisans/booking/internal/service/availability"
	"github.com/servicesartisans/booking/internal/service/recommend"
)

type AvailabilityHandler struct {
	service   availability.AvailabilityUseCase
	recommend config.RecommendConfig
	clock     clock.Clock
}

func NewAvailabilityHandler(service availability.AvailabilityUseCase, rec config.RecommendConfig, clk clock.Clock) *AvailabilityHandler {
	return &AvailabilityHandler{service: service, recommend: rec, clock: clk}
}

func (h *AvailabilityHandler) Register(router *gin.RouterGroup) {
	router.GET("/:id/availability", h.month)
	router.GET("/:id/recommendations", h.recommendations)
}

func (h *AvailabilityHandler) month(c *gin.Context) {
	providerID := c.Param("id")
	yearMonth := c.Query("month")
	holderToken := c.Query("holder_token")

	byDate, err := h.service.MonthAvailability(c.Request.Context(), providerID, yearMonth, holderToken)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"provider_id": providerID, "month": yearMonth, "days": byDate})
}

func (h *AvailabilityHandler) recommendations(c *gin.Context) {
	providerID := c.Param("id")
	yearMonth := c.Query("month")

	open, err := h.service.OpenSlots(c.Request.Context(), providerID, yearMonth)
	if err != nil {
		writeError(c, err)
		return
	}

	sig := recommend.NewSignals(h.recommend, h.clock.Now())
	if n := c.Query("n"); n != "" {
		if limit, err := strconv.Atoi(n); err == nil && limit > 0 {
			sig.Limit = limit
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"provider_id":     providerID,
		"month":           yearMonth,
		"recommendations": recommend.Rank(open, sig),
	})
}

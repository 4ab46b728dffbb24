package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/servicesartisans/booking/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestSlotHandler_block(t *testing.T) {
	mockService := &MockReservationUseCase{}
	handler := NewSlotHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "prov-1"}, {Key: "slotId", Value: "slot-1"}}
	c.Request = httptest.NewRequest("POST", "/providers/prov-1/slots/slot-1/block", nil)

	blocked := &domain.Slot{
		ID:        "slot-1",
		Date:      time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC),
		StartTime: "10:00",
		EndTime:   "11:00",
		Status:    domain.SlotStatusBlocked,
	}
	mockService.On("SetSlotBlocked", c.Request.Context(), "slot-1", true).Return(blocked, nil)

	handler.block(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response slotResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, string(domain.SlotStatusBlocked), response.Status)
	assert.Equal(t, "2026-03-14", response.Date)

	mockService.AssertExpectations(t)
}

func TestSlotHandler_block_heldSlotConflicts(t *testing.T) {
	mockService := &MockReservationUseCase{}
	handler := NewSlotHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "prov-1"}, {Key: "slotId", Value: "slot-1"}}
	c.Request = httptest.NewRequest("POST", "/providers/prov-1/slots/slot-1/block", nil)

	mockService.On("SetSlotBlocked", c.Request.Context(), "slot-1", true).Return(nil, domain.ErrSlotConflict)

	handler.block(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSlotHandler_open(t *testing.T) {
	mockService := &MockReservationUseCase{}
	handler := NewSlotHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "prov-1"}, {Key: "slotId", Value: "slot-1"}}
	c.Request = httptest.NewRequest("POST", "/providers/prov-1/slots/slot-1/open", nil)

	reopened := &domain.Slot{
		ID:        "slot-1",
		Date:      time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC),
		StartTime: "10:00",
		EndTime:   "11:00",
		Status:    domain.SlotStatusOpen,
	}
	mockService.On("SetSlotBlocked", c.Request.Context(), "slot-1", false).Return(reopened, nil)

	handler.open(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response slotResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, string(domain.SlotStatusOpen), response.Status)
}

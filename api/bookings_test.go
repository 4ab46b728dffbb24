package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/servicesartisans/booking/internal/domain"
	"github.com/servicesartisans/booking/internal/payment"
	"github.com/stretchr/testify/assert"
)

func TestBookingHandler_cancel(t *testing.T) {
	mockService := &MockReservationUseCase{}
	handler := NewBookingHandler(mockService, nil)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "bk-1"}}
	c.Request = httptest.NewRequest("DELETE", "/bookings/bk-1", nil)

	cancelled := &domain.Booking{ID: "bk-1", SlotID: "slot-1", Status: domain.BookingStatusCancelled}
	mockService.On("CancelBooking", c.Request.Context(), "bk-1", false).Return(cancelled, nil)

	handler.cancel(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response bookingResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, string(domain.BookingStatusCancelled), response.Status)

	mockService.AssertExpectations(t)
}

func TestBookingHandler_cancel_retire(t *testing.T) {
	mockService := &MockReservationUseCase{}
	handler := NewBookingHandler(mockService, nil)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "bk-1"}}
	c.Request = httptest.NewRequest("DELETE", "/bookings/bk-1?retire=true", nil)

	cancelled := &domain.Booking{ID: "bk-1", SlotID: "slot-1", Status: domain.BookingStatusCancelled}
	mockService.On("CancelBooking", c.Request.Context(), "bk-1", true).Return(cancelled, nil)

	handler.cancel(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestBookingHandler_cancel_notFound(t *testing.T) {
	mockService := &MockReservationUseCase{}
	handler := NewBookingHandler(mockService, nil)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "bk-x"}}
	c.Request = httptest.NewRequest("DELETE", "/bookings/bk-x", nil)

	mockService.On("CancelBooking", c.Request.Context(), "bk-x", false).Return(nil, domain.ErrBookingNotFound)

	handler.cancel(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookingHandler_paymentSession(t *testing.T) {
	mockService := &MockReservationUseCase{}
	mockPayments := &MockPaymentProvider{}
	handler := NewBookingHandler(mockService, mockPayments)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "bk-1"}}
	c.Request = httptest.NewRequest("POST", "/bookings/bk-1/payment", nil)

	booking := &domain.Booking{ID: "bk-1", DepositCents: 2500, Status: domain.BookingStatusConfirmed}
	mockService.On("GetBooking", c.Request.Context(), "bk-1").Return(booking, nil)
	mockPayments.On("CreateSession", c.Request.Context(), "bk-1", int64(2500)).Return("https://pay.example/checkout?booking=bk-1", nil)

	handler.paymentSession(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]string
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "https://pay.example/checkout?booking=bk-1", response["redirect_url"])

	mockPayments.AssertExpectations(t)
}

func TestBookingHandler_paymentSession_noDeposit(t *testing.T) {
	mockService := &MockReservationUseCase{}
	mockPayments := &MockPaymentProvider{}
	handler := NewBookingHandler(mockService, mockPayments)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "bk-1"}}
	c.Request = httptest.NewRequest("POST", "/bookings/bk-1/payment", nil)

	booking := &domain.Booking{ID: "bk-1", DepositCents: 0, Status: domain.BookingStatusConfirmed}
	mockService.On("GetBooking", c.Request.Context(), "bk-1").Return(booking, nil)
	mockPayments.On("CreateSession", c.Request.Context(), "bk-1", int64(0)).Return("", payment.ErrNoDeposit)

	handler.paymentSession(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

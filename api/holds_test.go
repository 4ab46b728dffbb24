package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/servicesartisans/booking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockReservationUseCase is a mock implementation of reservation.ReservationUseCase
type MockReservationUseCase struct {
	mock.Mock
}

func (m *MockReservationUseCase) PlaceHold(ctx context.Context, slotID, holderToken string) (*domain.Hold, error) {
	args := m.Called(ctx, slotID, holderToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Hold), args.Error(1)
}

func (m *MockReservationUseCase) ConfirmHold(ctx context.Context, holdID string, details domain.BookingDetails) (*domain.Booking, error) {
	args := m.Called(ctx, holdID, details)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockReservationUseCase) ReleaseHold(ctx context.Context, holdID string) error {
	args := m.Called(ctx, holdID)
	return args.Error(0)
}

func (m *MockReservationUseCase) CancelBooking(ctx context.Context, bookingID string, retire bool) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID, retire)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockReservationUseCase) GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockReservationUseCase) SetSlotBlocked(ctx context.Context, slotID string, blocked bool) (*domain.Slot, error) {
	args := m.Called(ctx, slotID, blocked)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Slot), args.Error(1)
}

func (m *MockReservationUseCase) SweepExpiredHolds(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockPaymentProvider struct {
	mock.Mock
}

func (m *MockPaymentProvider) CreateSession(ctx context.Context, bookingID string, amountCents int64) (string, error) {
	args := m.Called(ctx, bookingID, amountCents)
	return args.String(0), args.Error(1)
}

func TestHoldHandler_place(t *testing.T) {
	mockService := &MockReservationUseCase{}
	handler := NewHoldHandler(mockService, nil)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body, _ := json.Marshal(placeHoldRequest{SlotID: "slot-1", HolderToken: "token-a"})
	c.Request = httptest.NewRequest("POST", "/holds", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	expiresAt := time.Date(2026, time.March, 10, 9, 5, 0, 0, time.UTC)
	hold := &domain.Hold{
		ID:          "hold-1",
		SlotID:      "slot-1",
		HolderToken: "token-a",
		Status:      domain.HoldStatusActive,
		ExpiresAt:   expiresAt,
	}

	mockService.On("PlaceHold", c.Request.Context(), "slot-1", "token-a").Return(hold, nil)

	handler.place(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response holdResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "hold-1", response.HoldID)
	assert.Equal(t, string(domain.HoldStatusActive), response.Status)
	assert.Equal(t, expiresAt.Format(time.RFC3339), response.ExpiresAt)

	mockService.AssertExpectations(t)
}

func TestHoldHandler_place_conflict(t *testing.T) {
	mockService := &MockReservationUseCase{}
	handler := NewHoldHandler(mockService, nil)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body, _ := json.Marshal(placeHoldRequest{SlotID: "slot-1", HolderToken: "token-b"})
	c.Request = httptest.NewRequest("POST", "/holds", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	mockService.On("PlaceHold", c.Request.Context(), "slot-1", "token-b").Return(nil, domain.ErrSlotConflict)

	handler.place(c)

	assert.Equal(t, http.StatusConflict, w.Code)

	var response errorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, codeConflict, response.Code)
}

func TestHoldHandler_place_missingSlotID(t *testing.T) {
	handler := NewHoldHandler(&MockReservationUseCase{}, nil)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Request = httptest.NewRequest("POST", "/holds", bytes.NewReader([]byte(`{"holder_token":"t"}`)))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.place(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHoldHandler_confirm(t *testing.T) {
	mockService := &MockReservationUseCase{}
	handler := NewHoldHandler(mockService, nil)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "hold-1"}}
	body, _ := json.Marshal(confirmRequest{ClientName: "Alex", ClientEmail: "alex@example.com"})
	c.Request = httptest.NewRequest("POST", "/holds/hold-1/confirm", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	booking := &domain.Booking{
		ID:     "bk-1",
		SlotID: "slot-1",
		Status: domain.BookingStatusConfirmed,
	}
	details := domain.BookingDetails{ClientName: "Alex", ClientEmail: "alex@example.com"}

	mockService.On("ConfirmHold", c.Request.Context(), "hold-1", details).Return(booking, nil)

	handler.confirm(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response bookingResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "bk-1", response.BookingID)
	assert.Equal(t, string(domain.BookingStatusConfirmed), response.Status)
	assert.Empty(t, response.PaymentURL)

	mockService.AssertExpectations(t)
}

func TestHoldHandler_confirm_withDeposit(t *testing.T) {
	mockService := &MockReservationUseCase{}
	mockPayments := &MockPaymentProvider{}
	handler := NewHoldHandler(mockService, mockPayments)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "hold-1"}}
	body, _ := json.Marshal(confirmRequest{ClientName: "Alex", ClientPhone: "555-0100", DepositCents: 2500})
	c.Request = httptest.NewRequest("POST", "/holds/hold-1/confirm", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	booking := &domain.Booking{
		ID:           "bk-1",
		SlotID:       "slot-1",
		Status:       domain.BookingStatusConfirmed,
		DepositCents: 2500,
	}

	mockService.On("ConfirmHold", c.Request.Context(), "hold-1", mock.Anything).Return(booking, nil)
	mockPayments.On("CreateSession", c.Request.Context(), "bk-1", int64(2500)).Return("https://pay.example/checkout?booking=bk-1", nil)

	handler.confirm(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response bookingResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "https://pay.example/checkout?booking=bk-1", response.PaymentURL)

	mockPayments.AssertExpectations(t)
}

func TestHoldHandler_confirm_expired(t *testing.T) {
	mockService := &MockReservationUseCase{}
	handler := NewHoldHandler(mockService, nil)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "hold-1"}}
	body, _ := json.Marshal(confirmRequest{ClientName: "Alex", ClientEmail: "alex@example.com"})
	c.Request = httptest.NewRequest("POST", "/holds/hold-1/confirm", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	mockService.On("ConfirmHold", c.Request.Context(), "hold-1", mock.Anything).Return(nil, domain.ErrHoldExpired)

	handler.confirm(c)

	assert.Equal(t, http.StatusGone, w.Code)

	var response errorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, codeExpired, response.Code)
}

func TestHoldHandler_release(t *testing.T) {
	mockService := &MockReservationUseCase{}
	handler := NewHoldHandler(mockService, nil)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "hold-1"}}
	c.Request = httptest.NewRequest("DELETE", "/holds/hold-1", nil)

	mockService.On("ReleaseHold", c.Request.Context(), "hold-1").Return(nil)

	handler.release(c)
	// c.Status defers the header write until the body is written; flush it so
	// the recorder sees the 204.
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockService.AssertExpectations(t)
}

func TestWriteError_StoreUnavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	writeError(c, domain.ErrStoreUnavailable)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

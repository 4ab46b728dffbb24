package repository

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/servicesartisans/booking/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestNewRepositories(t *testing.T) {
	pool := &pgxpool.Pool{}
	assert.NotNil(t, NewSlotRepository(pool))
	assert.NotNil(t, NewHoldRepository(pool))
	assert.NotNil(t, NewBookingRepository(pool))
}

func TestStoreErr_TaggedTransient(t *testing.T) {
	cause := errors.New("connection refused")
	err := storeErr("read month", cause)

	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "read month")
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "40001"}))
	assert.False(t, isUniqueViolation(errors.New("plain error")))
}

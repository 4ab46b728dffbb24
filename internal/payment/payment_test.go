package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedirectProvider_CreateSession(t *testing.T) {
	p := NewRedirectProvider("https://pay.example")

	url, err := p.CreateSession(context.Background(), "bk-1", 2500)

	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/checkout?booking=bk-1&amount=2500", url)
}

func TestRedirectProvider_NoDeposit(t *testing.T) {
	p := NewRedirectProvider("https://pay.example")

	_, err := p.CreateSession(context.Background(), "bk-1", 0)

	assert.ErrorIs(t, err, ErrNoDeposit)
}

package payment

import (
	"context"
	"errors"
	"fmt"
)

// Provider creates a payment session for a confirmed booking's deposit and
// returns the redirect target. Invoked only after confirmation; a declined
// or deferred payment never reverts the booking.
type Provider interface {
	CreateSession(ctx context.Context, bookingID string, amountCents int64) (string, error)
}

var ErrNoDeposit = errors.New("booking requires no deposit")

// RedirectProvider is a hosted-checkout provider addressed by URL.
type RedirectProvider struct {
	baseURL string
}

func NewRedirectProvider(baseURL string) *RedirectProvider {
	return &RedirectProvider{baseURL: baseURL}
}

func (p *RedirectProvider) CreateSession(ctx context.Context, bookingID string, amountCents int64) (string, error) {
	if amountCents <= 0 {
		return "", ErrNoDeposit
	}
	return fmt.Sprintf("%s/checkout?booking=%s&amount=%d", p.baseURL, bookingID, amountCents), nil
}

var _ Provider = (*RedirectProvider)(nil)

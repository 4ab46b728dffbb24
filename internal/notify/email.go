package notify

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/servicesartisans/booking/internal/kafka"
)

// Sender delivers confirmation messages for reservation events. Delivery is
// fire-and-forget; a failed send never affects booking state.
type Sender struct {
	logger zerolog.Logger
}

func NewSender(logger zerolog.Logger) *Sender {
	return &Sender{logger: logger}
}

func (s *Sender) Send(ctx context.Context, event kafka.ReservationEvent) error {
	s.logger.Info().
		Str("type", event.Type).
		Str("slot_id", event.SlotID).
		Str("booking_id", event.BookingID).
		Str("email", event.ClientEmail).
		Str("phone", event.ClientPhone).
		Msg("dispatch notification")
	return nil
}

package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// ReservationEvent is the payload emitted on every slot lifecycle change.
type ReservationEvent struct {
	Type        string    `json:"type"`
	SlotID      string    `json:"slot_id"`
	ProviderID  string    `json:"provider_id"`
	HoldID      string    `json:"hold_id,omitempty"`
	BookingID   string    `json:"booking_id,omitempty"`
	ClientEmail string    `json:"client_email,omitempty"`
	ClientPhone string    `json:"client_phone,omitempty"`
	Date        string    `json:"date,omitempty"`
	StartTime   string    `json:"start_time,omitempty"`
	EndTime     string    `json:"end_time,omitempty"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

const (
	EventHoldPlaced       = "hold_placed"
	EventHoldReleased     = "hold_released"
	EventHoldExpired      = "hold_expired"
	EventBookingConfirmed = "booking_confirmed"
	EventBookingCancelled = "booking_cancelled"
	EventSlotBlocked      = "slot_blocked"
	EventSlotReopened     = "slot_reopened"
)

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

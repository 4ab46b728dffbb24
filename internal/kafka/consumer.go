package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Consumer reads reservation events from a topic as part of a consumer
// group. A message that does not decode as a ReservationEvent is logged and
// skipped so one bad record cannot wedge the partition.
type Consumer struct {
	reader *kafka.Reader
	logger zerolog.Logger
}

func NewConsumer(brokers []string, groupID, topic string, logger zerolog.Logger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
		logger: logger,
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume delivers decoded events to handler until the context is canceled
// or the handler fails.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, ReservationEvent) error) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			return err
		}

		event, err := decodeReservationEvent(msg.Value)
		if err != nil {
			c.logger.Error().Err(err).
				Str("topic", msg.Topic).
				Int64("offset", msg.Offset).
				Msg("skip undecodable event")
			continue
		}

		if err := handler(ctx, event); err != nil {
			return err
		}
	}
}

func decodeReservationEvent(value []byte) (ReservationEvent, error) {
	var event ReservationEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return ReservationEvent{}, fmt.Errorf("decode reservation event: %w", err)
	}
	return event, nil
}

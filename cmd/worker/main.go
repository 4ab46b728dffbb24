package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/servicesartisans/booking/config"
	"github.com/servicesartisans/booking/internal/cache"
	"github.com/servicesartisans/booking/internal/clock"
	"github.com/servicesartisans/booking/internal/kafka"
	"github.com/servicesartisans/booking/internal/metrics"
	"github.com/servicesartisans/booking/internal/notify"
	"github.com/servicesartisans/booking/internal/repository"
	"github.com/servicesartisans/booking/internal/service/reservation"
	"github.com/servicesartisans/booking/migrations"
)

func main() {
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Str("component", "worker").Logger()

	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	if err := migrations.Apply(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}

	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.CacheTTL())
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	clk := clock.NewSystem()
	slotRepo := repository.NewSlotRepository(pool)
	holdRepo := repository.NewHoldRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)

	reservationSvc := reservation.NewService(
		slotRepo,
		holdRepo,
		bookingRepo,
		redisCache,
		producer,
		cfg.Kafka.BookingEventsTopic,
		clk,
		logger,
		cfg.Booking.HoldTTL(),
		reservation.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		reservation.WithTransientRetry(cfg.Booking.TransientRetries, cfg.Booking.TransientBackoff()),
	)

	go runSweeper(ctx, logger, reservationSvc, cfg.Worker.SweepInterval())
	go runPurge(ctx, logger, slotRepo, cfg.Worker.SlotRetention())

	sender := notify.NewSender(logger)
	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, logger)
	defer consumer.Close()

	logger.Info().
		Str("topic", cfg.Kafka.NotificationsTopic).
		Dur("sweep_interval", cfg.Worker.SweepInterval()).
		Msg("worker started")

	err = consumer.Consume(ctx, func(ctx context.Context, event kafka.ReservationEvent) error {
		if err := sender.Send(ctx, event); err != nil {
			logger.Error().Err(err).Str("type", event.Type).Msg("send notification")
		}
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("consumer stopped")
	}
}

// runPurge drops slot rows whose date fell out of the retention window. Runs
// daily; bookings are kept forever, only the slot calendar is pruned.
func runPurge(ctx context.Context, logger zerolog.Logger, slots repository.SlotRepository, retention time.Duration) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		cutoff := time.Now().UTC().Add(-retention).Truncate(24 * time.Hour)
		deleted, err := slots.DeletePastBefore(ctx, cutoff)
		if err != nil {
			logger.Error().Err(err).Msg("purge past slots")
		} else if deleted > 0 {
			logger.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("past slots purged")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func runSweeper(ctx context.Context, logger zerolog.Logger, svc reservation.ReservationUseCase, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			swept, err := svc.SweepExpiredHolds(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("sweep expired holds")
				continue
			}
			if swept > 0 {
				logger.Info().Int("released", swept).Msg("expired holds reclaimed")
			}
		}
	}
}

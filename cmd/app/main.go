package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/servicesartisans/booking/config"
	"github.com/servicesartisans/booking/internal/bootstrap"
	"github.com/servicesartisans/booking/internal/cache"
	"github.com/servicesartisans/booking/internal/clock"
	"github.com/servicesartisans/booking/internal/kafka"
	"github.com/servicesartisans/booking/internal/metrics"
	"github.com/servicesartisans/booking/internal/payment"
	"github.com/servicesartisans/booking/internal/repository"
	"github.com/servicesartisans/booking/internal/service/availability"
	"github.com/servicesartisans/booking/internal/service/reservation"
	"github.com/servicesartisans/booking/migrations"
)

func main() {
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Str("component", "api").Logger()

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

	availabilitySvc := availability.NewService(slotRepo, holdRepo, redisCache)
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
	payments := payment.NewRedirectProvider(cfg.Payment.RedirectBaseURL)

	if err := bootstrap.Run(ctx, cfg, logger, availabilitySvc, reservationSvc, payments, clk); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}

package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/servicesartisans/booking/api"
	"github.com/servicesartisans/booking/config"
	"github.com/servicesartisans/booking/internal/clock"
	"github.com/servicesartisans/booking/internal/payment"
	"github.com/servicesartisans/booking/internal/service/availability"
	"github.com/servicesartisans/booking/internal/service/reservation"
)

// Run wires the HTTP surface and blocks until the context is canceled or the
// server fails.
func Run(
	ctx context.Context,
	cfg *config.Config,
	logger zerolog.Logger,
	availabilitySvc availability.AvailabilityUseCase,
	reservationSvc reservation.ReservationUseCase,
	payments payment.Provider,
	clk clock.Clock,
) error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")

	providers := v1.Group("/providers")
	api.NewAvailabilityHandler(availabilitySvc, cfg.Recommend, clk).Register(providers)
	api.NewSlotHandler(reservationSvc).Register(providers)

	holds := v1.Group("/holds")
	holds.Use(api.RateLimit(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst))
	api.NewHoldHandler(reservationSvc, payments).Register(holds)

	bookings := v1.Group("/bookings")
	api.NewBookingHandler(reservationSvc, payments).Register(bookings)

	server := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()

	logger.Info().Str("address", cfg.HTTP.Address).Msg("api listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

package reservation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/servicesartisans/booking/internal/clock"
	"github.com/servicesartisans/booking/internal/domain"
	"github.com/servicesartisans/booking/internal/kafka"
	"github.com/servicesartisans/booking/internal/metrics"
	"github.com/servicesartisans/booking/internal/repository"
)

type ReservationUseCase interface {
	PlaceHold(ctx context.Context, slotID, holderToken string) (*domain.Hold, error)
	ConfirmHold(ctx context.Context, holdID string, details domain.BookingDetails) (*domain.Booking, error)
	ReleaseHold(ctx context.Context, holdID string) error
	CancelBooking(ctx context.Context, bookingID string, retire bool) (*domain.Booking, error)
	GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error)
	SetSlotBlocked(ctx context.Context, slotID string, blocked bool) (*domain.Slot, error)
	SweepExpiredHolds(ctx context.Context) (int, error)
}

type Cache interface {
	InvalidateMonth(ctx context.Context, providerID, yearMonth string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// Service is the only writer of hold and booking records. Correctness rests
// on the slot version compare-and-swap, not on any lock: a losing caller gets
// an immediate, definitive conflict.
type Service struct {
	slots              repository.SlotRepository
	holds              repository.HoldRepository
	bookings           repository.BookingRepository
	cache              Cache
	producer           Producer
	eventsTopic        string
	notificationsTopic string
	clock              clock.Clock
	logger             zerolog.Logger
	holdTTL            time.Duration
	retries            int
	backoff            time.Duration
}

type ServiceOption func(*Service)

func WithNotificationsTopic(topic string) ServiceOption {
	return func(s *Service) {
		s.notificationsTopic = topic
	}
}

// WithTransientRetry bounds the internal retry of transient store errors.
func WithTransientRetry(retries int, backoff time.Duration) ServiceOption {
	return func(s *Service) {
		if retries >= 0 {
			s.retries = retries
		}
		if backoff > 0 {
			s.backoff = backoff
		}
	}
}

func NewService(
	slots repository.SlotRepository,
	holds repository.HoldRepository,
	bookings repository.BookingRepository,
	cache Cache,
	producer Producer,
	eventsTopic string,
	clk clock.Clock,
	logger zerolog.Logger,
	holdTTL time.Duration,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		slots:       slots,
		holds:       holds,
		bookings:    bookings,
		cache:       cache,
		producer:    producer,
		eventsTopic: eventsTopic,
		clock:       clk,
		logger:      logger,
		holdTTL:     holdTTL,
		retries:     3,
		backoff:     200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceHold is idempotent per (slotID, holderToken): a client retry after a
// network timeout returns the original hold instead of creating a second one.
func (s *Service) PlaceHold(ctx context.Context, slotID, holderToken string) (*domain.Hold, error) {
	if holderToken == "" {
		return nil, domain.ErrHolderTokenRequired
	}

	now := s.clock.Now()

	var existing *domain.Hold
	err := s.withRetry(ctx, func() error {
		var err error
		existing, err = s.holds.FindActiveBySlotAndToken(ctx, slotID, holderToken)
		return err
	})
	if err != nil {
		return nil, err
	}
	if existing != nil && !existing.ExpiredAt(now) {
		metrics.IncHoldPlaced("idempotent")
		return existing, nil
	}

	var slot *domain.Slot
	err = s.withRetry(ctx, func() error {
		var err error
		slot, err = s.slots.GetByID(ctx, slotID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if slot.Status != domain.SlotStatusOpen {
		// The slot may be held by this very token: a timeout retry can race
		// its own original request, which commits between our idempotency
		// lookup and this read.
		if own := s.ownActiveHold(ctx, slotID, holderToken, now); own != nil {
			metrics.IncHoldPlaced("idempotent")
			return own, nil
		}
		metrics.IncHoldPlaced("conflict")
		return nil, domain.ErrSlotConflict
	}

	hold := &domain.Hold{
		ID:          uuid.NewString(),
		SlotID:      slotID,
		HolderToken: holderToken,
		Status:      domain.HoldStatusActive,
		ExpiresAt:   now.Add(s.holdTTL),
	}

	err = s.withRetry(ctx, func() error {
		return s.holds.CreateWithTransition(ctx, hold, slot.Version)
	})
	switch {
	case errors.Is(err, domain.ErrDuplicateHold):
		// A concurrent retry with the same token got there first.
		winner, ferr := s.holds.FindActiveBySlotAndToken(ctx, slotID, holderToken)
		if ferr != nil {
			return nil, ferr
		}
		if winner == nil {
			return nil, domain.ErrSlotConflict
		}
		metrics.IncHoldPlaced("idempotent")
		return winner, nil
	case errors.Is(err, domain.ErrSlotConflict):
		// Same race as above, lost at the CAS instead: if the winner is our
		// own token's hold, hand it back rather than reporting a conflict
		// the caller cannot act on.
		if own := s.ownActiveHold(ctx, slotID, holderToken, now); own != nil {
			metrics.IncHoldPlaced("idempotent")
			return own, nil
		}
		metrics.IncHoldPlaced("conflict")
		return nil, err
	case err != nil:
		return nil, err
	}

	metrics.IncHoldPlaced("ok")
	s.afterTransition(ctx, slot, kafka.ReservationEvent{
		Type:      kafka.EventHoldPlaced,
		HoldID:    hold.ID,
		ExpiresAt: hold.ExpiresAt,
	})
	return hold, nil
}

// ownActiveHold reports whether the holder token already owns the slot. A
// lookup failure is treated as no hold; the caller falls back to conflict.
func (s *Service) ownActiveHold(ctx context.Context, slotID, holderToken string, now time.Time) *domain.Hold {
	hold, err := s.holds.FindActiveBySlotAndToken(ctx, slotID, holderToken)
	if err != nil || hold == nil || hold.ExpiredAt(now) {
		return nil
	}
	return hold
}

// ConfirmHold turns a still-valid hold into a booking in one atomic unit. An
// expired hold fails closed with no slot mutation; the sweep reclaims it.
func (s *Service) ConfirmHold(ctx context.Context, holdID string, details domain.BookingDetails) (*domain.Booking, error) {
	if err := details.Validate(); err != nil {
		return nil, err
	}

	var hold *domain.Hold
	err := s.withRetry(ctx, func() error {
		var err error
		hold, err = s.holds.GetByID(ctx, holdID)
		return err
	})
	if err != nil {
		return nil, err
	}

	switch hold.Status {
	case domain.HoldStatusConfirmed:
		metrics.IncConfirm("duplicate")
		return nil, domain.ErrBookingExists
	case domain.HoldStatusReleased, domain.HoldStatusExpired:
		metrics.IncConfirm("expired")
		return nil, domain.ErrHoldExpired
	}
	if hold.ExpiredAt(s.clock.Now()) {
		metrics.IncConfirm("expired")
		return nil, domain.ErrHoldExpired
	}

	var slot *domain.Slot
	err = s.withRetry(ctx, func() error {
		var err error
		slot, err = s.slots.GetByID(ctx, hold.SlotID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if slot.Status != domain.SlotStatusHeld {
		return nil, s.confirmConflict(ctx, holdID)
	}

	booking := &domain.Booking{
		ID:                 uuid.NewString(),
		SlotID:             hold.SlotID,
		HoldID:             hold.ID,
		ClientName:         details.ClientName,
		ClientPhone:        details.ClientPhone,
		ClientEmail:        details.ClientEmail,
		ServiceDescription: details.ServiceDescription,
		DepositCents:       details.DepositCents,
	}

	err = s.withRetry(ctx, func() error {
		return s.bookings.CreateConfirmed(ctx, booking, slot.Version)
	})
	switch {
	case errors.Is(err, domain.ErrSlotConflict):
		return nil, s.confirmConflict(ctx, holdID)
	case errors.Is(err, domain.ErrHoldExpired):
		// The sweep reclaimed the hold between our read and the write.
		metrics.IncConfirm("expired")
		return nil, err
	case err != nil:
		return nil, err
	}

	metrics.IncConfirm("ok")
	s.afterTransition(ctx, slot, kafka.ReservationEvent{
		Type:        kafka.EventBookingConfirmed,
		HoldID:      hold.ID,
		BookingID:   booking.ID,
		ClientEmail: booking.ClientEmail,
		ClientPhone: booking.ClientPhone,
	})
	return booking, nil
}

// confirmConflict tells an expired hold apart from a genuine slot conflict.
// When the sweep reclaims the hold between our expiry check and the write,
// the slot CAS fails, but the truthful answer is expiry, not conflict.
func (s *Service) confirmConflict(ctx context.Context, holdID string) error {
	hold, err := s.holds.GetByID(ctx, holdID)
	if err == nil && hold.Status != domain.HoldStatusActive {
		metrics.IncConfirm("expired")
		return domain.ErrHoldExpired
	}
	metrics.IncConfirm("conflict")
	return domain.ErrSlotConflict
}

// ReleaseHold is the explicit client cancel. Best-effort: the TTL sweep is
// the safety net, so a failure here costs responsiveness, not correctness.
func (s *Service) ReleaseHold(ctx context.Context, holdID string) error {
	hold, err := s.holds.GetByID(ctx, holdID)
	if err != nil {
		if errors.Is(err, domain.ErrHoldNotFound) {
			return nil
		}
		return err
	}

	released, err := s.holds.Release(ctx, holdID, domain.HoldStatusReleased)
	if err != nil {
		return err
	}
	if !released {
		return nil
	}

	slot, err := s.slots.GetByID(ctx, hold.SlotID)
	if err == nil {
		s.afterTransition(ctx, slot, kafka.ReservationEvent{
			Type:   kafka.EventHoldReleased,
			HoldID: hold.ID,
		})
	}
	return nil
}

func (s *Service) CancelBooking(ctx context.Context, bookingID string, retire bool) (*domain.Booking, error) {
	var booking *domain.Booking
	err := s.withRetry(ctx, func() error {
		var err error
		booking, err = s.bookings.Cancel(ctx, bookingID, retire)
		return err
	})
	if err != nil {
		return nil, err
	}

	slot, err := s.slots.GetByID(ctx, booking.SlotID)
	if err == nil {
		s.afterTransition(ctx, slot, kafka.ReservationEvent{
			Type:        kafka.EventBookingCancelled,
			BookingID:   booking.ID,
			ClientEmail: booking.ClientEmail,
			ClientPhone: booking.ClientPhone,
		})
	}
	return booking, nil
}

func (s *Service) GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	var booking *domain.Booking
	err := s.withRetry(ctx, func() error {
		var err error
		booking, err = s.bookings.GetByID(ctx, bookingID)
		return err
	})
	return booking, err
}

// SetSlotBlocked takes an open slot off the market or relists a blocked one.
// Held or confirmed slots cannot be blocked; cancel their booking first.
func (s *Service) SetSlotBlocked(ctx context.Context, slotID string, blocked bool) (*domain.Slot, error) {
	var slot *domain.Slot
	err := s.withRetry(ctx, func() error {
		var err error
		slot, err = s.slots.GetByID(ctx, slotID)
		return err
	})
	if err != nil {
		return nil, err
	}

	from, to := domain.SlotStatusOpen, domain.SlotStatusBlocked
	event := kafka.EventSlotBlocked
	if !blocked {
		from, to = domain.SlotStatusBlocked, domain.SlotStatusOpen
		event = kafka.EventSlotReopened
	}
	if slot.Status == to {
		return slot, nil
	}

	err = s.withRetry(ctx, func() error {
		return s.slots.TryTransition(ctx, slotID, from, to, slot.Version)
	})
	if err != nil {
		return nil, err
	}
	slot.Status = to
	slot.Version++

	s.afterTransition(ctx, slot, kafka.ReservationEvent{Type: event})
	return slot, nil
}

const sweepBatchSize = 500

// SweepExpiredHolds reclaims holds past expiry, bounding how long an
// abandoned browser tab can keep a slot off the market.
func (s *Service) SweepExpiredHolds(ctx context.Context) (int, error) {
	now := s.clock.Now()
	expired, err := s.holds.ListExpiredActive(ctx, now, sweepBatchSize)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, h := range expired {
		ok, err := s.holds.Release(ctx, h.ID, domain.HoldStatusExpired)
		if err != nil {
			s.logger.Error().Err(err).Str("hold_id", h.ID).Msg("sweep release failed")
			continue
		}
		if !ok {
			continue
		}
		swept++

		slot, err := s.slots.GetByID(ctx, h.SlotID)
		if err != nil {
			continue
		}
		s.afterTransition(ctx, slot, kafka.ReservationEvent{
			Type:   kafka.EventHoldExpired,
			HoldID: h.ID,
		})
	}

	metrics.AddHoldsSwept(swept)
	return swept, nil
}

// withRetry retries transient store failures a bounded number of times.
// Definitive outcomes (conflict, expired, not found) pass through untouched.
func (s *Service) withRetry(ctx context.Context, op func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = op()
		if err == nil || !errors.Is(err, domain.ErrStoreUnavailable) || attempt >= s.retries {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * s.backoff):
		}
	}
}

func (s *Service) afterTransition(ctx context.Context, slot *domain.Slot, event kafka.ReservationEvent) {
	yearMonth := slot.Date.Format("2006-01")
	if s.cache != nil {
		if err := s.cache.InvalidateMonth(ctx, slot.ProviderID, yearMonth); err != nil {
			s.logger.Warn().Err(err).Str("provider_id", slot.ProviderID).Msg("cache invalidation failed")
		}
	}

	event.SlotID = slot.ID
	event.ProviderID = slot.ProviderID
	event.Date = slot.Date.Format("2006-01-02")
	event.StartTime = slot.StartTime
	event.EndTime = slot.EndTime
	event.OccurredAt = s.clock.Now()
	s.publish(ctx, event)
}

func (s *Service) publish(ctx context.Context, event kafka.ReservationEvent) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	if err := s.producer.Publish(ctx, s.eventsTopic, event.SlotID, event); err != nil {
		s.logger.Warn().Err(err).Str("type", event.Type).Msg("publish event failed")
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, event.SlotID, event); err != nil {
			s.logger.Warn().Err(err).Str("type", event.Type).Msg("publish notification failed")
		}
	}
}

var _ ReservationUseCase = (*Service)(nil)

package availability

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/servicesartisans/booking/internal/domain"
	"github.com/servicesartisans/booking/internal/metrics"
	"github.com/servicesartisans/booking/internal/repository"
)

type AvailabilityUseCase interface {
	MonthAvailability(ctx context.Context, providerID, yearMonth, holderToken string) (map[string][]SlotView, error)
	OpenSlots(ctx context.Context, providerID, yearMonth string) ([]domain.Slot, error)
}

type Cache interface {
	GetMonth(ctx context.Context, providerID, yearMonth string) ([]domain.Slot, error)
	SetMonth(ctx context.Context, providerID, yearMonth string, slots []domain.Slot) error
}

// SlotView is what the calendar UI sees. Every read is advisory: a slot
// shown as available may still lose the race at hold time.
type SlotView struct {
	SlotID    string `json:"slot_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Available bool   `json:"available"`
	Yours     bool   `json:"yours,omitempty"`
}

type Service struct {
	slots repository.SlotRepository
	holds repository.HoldRepository
	cache Cache
}

func NewService(slots repository.SlotRepository, holds repository.HoldRepository, cache Cache) *Service {
	return &Service{slots: slots, holds: holds, cache: cache}
}

var yearMonthRe = regexp.MustCompile(`^(\d{4})-(\d{2})$`)

// ParsePeriod validates a YYYY-MM period string.
func ParsePeriod(yearMonth string) (int, time.Month, error) {
	m := yearMonthRe.FindStringSubmatch(yearMonth)
	if m == nil {
		return 0, 0, domain.ErrInvalidPeriod
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	if month < 1 || month > 12 {
		return 0, 0, domain.ErrInvalidPeriod
	}
	return year, time.Month(month), nil
}

// MonthAvailability returns open slots grouped by date, plus held slots that
// belong to the caller's own holder token, flagged as theirs.
func (s *Service) MonthAvailability(ctx context.Context, providerID, yearMonth, holderToken string) (map[string][]SlotView, error) {
	slots, err := s.monthSlots(ctx, providerID, yearMonth)
	if err != nil {
		return nil, err
	}

	// One holds lookup per request; checking per held slot would defeat the
	// cache on busy months.
	mine := map[string]bool{}
	if holderToken != "" {
		holds, err := s.holds.FindActiveByToken(ctx, holderToken)
		if err != nil {
			return nil, err
		}
		for _, h := range holds {
			mine[h.SlotID] = true
		}
	}

	byDate := make(map[string][]SlotView)
	for _, slot := range slots {
		view := SlotView{
			SlotID:    slot.ID,
			StartTime: slot.StartTime,
			EndTime:   slot.EndTime,
		}
		switch slot.Status {
		case domain.SlotStatusOpen:
			view.Available = true
		case domain.SlotStatusHeld:
			if !mine[slot.ID] {
				continue
			}
			view.Yours = true
		default:
			continue
		}
		date := slot.Date.Format("2006-01-02")
		byDate[date] = append(byDate[date], view)
	}
	return byDate, nil
}

// OpenSlots feeds the recommendation scorer; it never includes held or
// confirmed slots.
func (s *Service) OpenSlots(ctx context.Context, providerID, yearMonth string) ([]domain.Slot, error) {
	slots, err := s.monthSlots(ctx, providerID, yearMonth)
	if err != nil {
		return nil, err
	}

	open := make([]domain.Slot, 0, len(slots))
	for _, slot := range slots {
		if slot.Status == domain.SlotStatusOpen {
			open = append(open, slot)
		}
	}
	sort.Slice(open, func(i, j int) bool {
		if !open[i].Date.Equal(open[j].Date) {
			return open[i].Date.Before(open[j].Date)
		}
		if open[i].StartTime != open[j].StartTime {
			return open[i].StartTime < open[j].StartTime
		}
		return open[i].ID < open[j].ID
	})
	return open, nil
}

func (s *Service) monthSlots(ctx context.Context, providerID, yearMonth string) ([]domain.Slot, error) {
	year, month, err := ParsePeriod(yearMonth)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if cached, err := s.cache.GetMonth(ctx, providerID, yearMonth); err == nil && cached != nil {
			metrics.IncAvailabilityCache("hit")
			return cached, nil
		}
		metrics.IncAvailabilityCache("miss")
	}

	slots, err := s.slots.ReadMonth(ctx, providerID, year, month)
	if err != nil {
		return nil, fmt.Errorf("read month %s: %w", yearMonth, err)
	}
	if s.cache != nil {
		_ = s.cache.SetMonth(ctx, providerID, yearMonth, slots)
	}
	return slots, nil
}

var _ AvailabilityUseCase = (*Service)(nil)

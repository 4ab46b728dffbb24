package recommend

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/servicesartisans/booking/config"
	"github.com/servicesartisans/booking/internal/domain"
)

// Signals are the demand inputs to the scorer. The scorer itself is a pure
// function: no store access, no side effects, identical inputs always give
// identical output.
type Signals struct {
	PopularTimes   map[string]struct{}
	HighDemandDays map[time.Weekday]struct{}
	Now            time.Time
	Limit          int
}

const defaultLimit = 3

// NewSignals builds scorer signals from configuration. Weekday names that do
// not parse are skipped.
func NewSignals(cfg config.RecommendConfig, now time.Time) Signals {
	sig := Signals{
		PopularTimes:   make(map[string]struct{}, len(cfg.PopularTimes)),
		HighDemandDays: make(map[time.Weekday]struct{}, len(cfg.HighDemandWeekdays)),
		Now:            now,
		Limit:          cfg.Limit,
	}
	for _, t := range cfg.PopularTimes {
		sig.PopularTimes[t] = struct{}{}
	}
	for _, name := range cfg.HighDemandWeekdays {
		if wd, ok := parseWeekday(name); ok {
			sig.HighDemandDays[wd] = struct{}{}
		}
	}
	if sig.Limit <= 0 {
		sig.Limit = defaultLimit
	}
	return sig
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func parseWeekday(name string) (time.Weekday, bool) {
	wd, ok := weekdays[strings.ToLower(name)]
	return wd, ok
}

const lastMinuteWindow = 48 * time.Hour

// Rank scores and orders open slots. Badge priority decides the order:
// last_minute beats popular beats recommended beats plain; within one badge
// the earliest slot comes first, ties broken by slot id. Output is capped at
// the configured limit.
func Rank(slots []domain.Slot, sig Signals) []domain.Recommendation {
	limit := sig.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	recs := make([]domain.Recommendation, 0, len(slots))
	for _, slot := range slots {
		recs = append(recs, score(slot, sig))
	}

	sort.Slice(recs, func(i, j int) bool {
		pi, pj := badgePriority(recs[i].Badge), badgePriority(recs[j].Badge)
		if pi != pj {
			return pi < pj
		}
		if recs[i].Date != recs[j].Date {
			return recs[i].Date < recs[j].Date
		}
		if recs[i].StartTime != recs[j].StartTime {
			return recs[i].StartTime < recs[j].StartTime
		}
		return recs[i].SlotID < recs[j].SlotID
	})

	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}

func score(slot domain.Slot, sig Signals) domain.Recommendation {
	rec := domain.Recommendation{
		SlotID:    slot.ID,
		Date:      slot.Date.Format("2006-01-02"),
		StartTime: slot.StartTime,
		EndTime:   slot.EndTime,
		Score:     50,
	}

	start := slotStart(slot)
	untilStart := start.Sub(sig.Now)
	lastMinute := untilStart > 0 && untilStart <= lastMinuteWindow
	_, popular := sig.PopularTimes[slot.StartTime]
	_, highDemand := sig.HighDemandDays[slot.Date.Weekday()]

	if popular {
		rec.Score += 10
	}
	if lastMinute {
		rec.Score += 8
	}
	if highDemand {
		rec.Score += 5
	}
	if hour := startHour(slot.StartTime); hour >= 9 && hour < 12 {
		rec.Score += 5
	}

	switch {
	case lastMinute:
		rec.Badge = domain.BadgeLastMinute
	case popular:
		rec.Badge = domain.BadgePopular
	case highDemand:
		rec.Badge = domain.BadgeRecommended
	}
	return rec
}

func badgePriority(b domain.Badge) int {
	switch b {
	case domain.BadgeLastMinute:
		return 0
	case domain.BadgePopular:
		return 1
	case domain.BadgeRecommended:
		return 2
	default:
		return 3
	}
}

func slotStart(slot domain.Slot) time.Time {
	hour, minute := 0, 0
	if parts := strings.SplitN(slot.StartTime, ":", 2); len(parts) == 2 {
		hour, _ = strconv.Atoi(parts[0])
		minute, _ = strconv.Atoi(parts[1])
	}
	d := slot.Date
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, time.UTC)
}

func startHour(startTime string) int {
	parts := strings.SplitN(startTime, ":", 2)
	hour, _ := strconv.Atoi(parts[0])
	return hour
}

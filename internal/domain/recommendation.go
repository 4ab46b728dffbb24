package domain

type Badge string

const (
	BadgeLastMinute  Badge = "last_minute"
	BadgePopular     Badge = "popular"
	BadgeRecommended Badge = "recommended"
	BadgeNone        Badge = ""
)

// Recommendation is a derived, per-request annotation of an open slot. It is
// never persisted; identical inputs must always produce identical output.
type Recommendation struct {
	SlotID    string `json:"slot_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Score     int    `json:"score"`
	Badge     Badge  `json:"badge,omitempty"`
}

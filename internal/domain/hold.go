package domain

import "time"

type HoldStatus string

const (
	HoldStatusActive    HoldStatus = "ACTIVE"
	HoldStatusConfirmed HoldStatus = "CONFIRMED"
	HoldStatusReleased  HoldStatus = "RELEASED"
	HoldStatusExpired   HoldStatus = "EXPIRED"
)

// Hold is a time-boxed claim on a slot while the client fills in the booking
// form. The holder token is generated client-side; retrying a hold request
// with the same token must return the same hold, not create a second one.
type Hold struct {
	ID          string
	SlotID      string
	HolderToken string
	Status      HoldStatus
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// ExpiredAt reports whether the hold is logically void at the given instant.
// Readers must treat an overdue hold as void even before the sweep reclaims it.
func (h Hold) ExpiredAt(now time.Time) bool {
	return !h.ExpiresAt.After(now)
}

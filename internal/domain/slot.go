package domain

import "time"

type SlotStatus string

const (
	SlotStatusOpen      SlotStatus = "OPEN"
	SlotStatusHeld      SlotStatus = "HELD"
	SlotStatusConfirmed SlotStatus = "CONFIRMED"
	SlotStatusBlocked   SlotStatus = "BLOCKED"
)

// Slot is one bookable time interval published by a provider. Version grows
// by one on every status transition and is the optimistic-lock token: no
// write to a slot succeeds unless the caller presents the current version.
type Slot struct {
	ID         string
	ProviderID string
	ResourceID string
	Date       time.Time
	StartTime  string
	EndTime    string
	Status     SlotStatus
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Available reports whether the slot can be offered to a new client.
func (s Slot) Available() bool {
	return s.Status == SlotStatusOpen
}

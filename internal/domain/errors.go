package domain

import "errors"

var (
	// ErrSlotConflict is definitive: another party won the slot. Never retry
	// against the same slot.
	ErrSlotConflict = errors.New("slot conflict")
	// ErrHoldExpired is definitive: the hold TTL elapsed. The caller must
	// restart from a fresh hold.
	ErrHoldExpired = errors.New("hold expired")
	// ErrStoreUnavailable is transient and safe to retry with backoff.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrDuplicateHold signals a concurrent retry with the same holder token
	// won the insert first; the caller re-reads the existing hold.
	ErrDuplicateHold = errors.New("duplicate hold")
	// ErrBookingExists signals the slot already carries a confirmed booking.
	ErrBookingExists = errors.New("booking already exists for slot")

	ErrSlotNotFound    = errors.New("slot not found")
	ErrHoldNotFound    = errors.New("hold not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrSlotNotOpen     = errors.New("slot not open")

	ErrHolderTokenRequired = errors.New("holder token required")
	ErrClientNameRequired  = errors.New("client name required")
	ErrContactRequired     = errors.New("client email or phone required")
	ErrInvalidDeposit      = errors.New("deposit must not be negative")
	ErrInvalidPeriod       = errors.New("invalid period")
)

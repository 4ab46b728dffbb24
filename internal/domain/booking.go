package domain

import "time"

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// Booking is the durable outcome of a confirmed hold. Bookings are never
// deleted; cancellation flips the status and keeps the row for audit.
type Booking struct {
	ID                 string
	SlotID             string
	HoldID             string
	ClientName         string
	ClientPhone        string
	ClientEmail        string
	ServiceDescription string
	DepositCents       int64
	Status             BookingStatus
	CancelledAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type BookingDetails struct {
	ClientName         string
	ClientPhone        string
	ClientEmail        string
	ServiceDescription string
	DepositCents       int64
}

// Validate checks the required contact fields before any store interaction.
func (d BookingDetails) Validate() error {
	if d.ClientName == "" {
		return ErrClientNameRequired
	}
	if d.ClientEmail == "" && d.ClientPhone == "" {
		return ErrContactRequired
	}
	if d.DepositCents < 0 {
		return ErrInvalidDeposit
	}
	return nil
}

package workflow

import (
	"context"
	"errors"

	"github.com/servicesartisans/booking/internal/domain"
)

// Coordinator is the slice of the reservation service the workflow drives.
type Coordinator interface {
	PlaceHold(ctx context.Context, slotID, holderToken string) (*domain.Hold, error)
	ConfirmHold(ctx context.Context, holdID string, details domain.BookingDetails) (*domain.Booking, error)
	ReleaseHold(ctx context.Context, holdID string) error
}

// Workflow advances sessions through the booking state machine. Every
// terminal failure rolls the optimistic mark back; the workflow only reaches
// confirmed on an explicit success from the coordinator.
type Workflow struct {
	fsm         *FSM
	coordinator Coordinator
}

func New(coordinator Coordinator) *Workflow {
	return &Workflow{
		fsm:         NewFSM(),
		coordinator: coordinator,
	}
}

// SelectSlot optimistically marks the slot as reserved, then places the
// hold. On conflict the mark is rolled back and the session stays browsing
// with the slot removed from its visible open set.
func (w *Workflow) SelectSlot(ctx context.Context, session *Session, slotID string) error {
	session.mu.Lock()
	if session.State != StateBrowsing {
		session.mu.Unlock()
		return ErrInvalidTransition
	}
	session.overlay[slotID] = OverlayOptimistic
	session.mu.Unlock()

	hold, err := w.coordinator.PlaceHold(ctx, slotID, session.HolderToken)

	session.mu.Lock()
	defer session.mu.Unlock()
	if err != nil {
		session.rollback(slotID)
		return err
	}

	session.overlay[slotID] = OverlayConfirmed
	session.SlotID = slotID
	session.HoldID = hold.ID
	session.setState(StateHeld)
	return nil
}

// CollectDetails stores validated contact details; no store interaction.
func (w *Workflow) CollectDetails(session *Session, details domain.BookingDetails) error {
	if err := details.Validate(); err != nil {
		return err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if !w.fsm.CanTransition(session.State, StateDetailsCollected) {
		return ErrInvalidTransition
	}
	session.Details = details
	session.setState(StateDetailsCollected)
	return nil
}

// Confirm submits the hold. Expired or conflicting confirms send the session
// back to browsing: the original hold is gone and a new slot must be picked.
func (w *Workflow) Confirm(ctx context.Context, session *Session) (*domain.Booking, error) {
	session.mu.Lock()
	if !w.fsm.CanTransition(session.State, StateConfirming) {
		session.mu.Unlock()
		return nil, ErrInvalidTransition
	}
	session.setState(StateConfirming)
	holdID, details, slotID := session.HoldID, session.Details, session.SlotID
	session.mu.Unlock()

	booking, err := w.coordinator.ConfirmHold(ctx, holdID, details)

	session.mu.Lock()
	defer session.mu.Unlock()
	switch {
	case err == nil:
		session.BookingID = booking.ID
		session.setState(StateConfirmed)
		return booking, nil
	case errors.Is(err, domain.ErrHoldExpired), errors.Is(err, domain.ErrSlotConflict):
		session.rollback(slotID)
		session.HoldID = ""
		session.SlotID = ""
		session.setState(StateBrowsing)
		return nil, err
	default:
		session.rollback(slotID)
		session.setState(StateFailed)
		return nil, err
	}
}

// Abandon releases the hold when the user navigates away. The release is
// best-effort: the server-side sweep reclaims the hold regardless.
func (w *Workflow) Abandon(ctx context.Context, session *Session) error {
	session.mu.Lock()
	if !w.fsm.CanTransition(session.State, StateAbandoned) {
		session.mu.Unlock()
		return ErrInvalidTransition
	}
	holdID, slotID := session.HoldID, session.SlotID
	session.rollback(slotID)
	session.setState(StateAbandoned)
	session.mu.Unlock()

	if holdID == "" {
		return nil
	}
	return w.coordinator.ReleaseHold(ctx, holdID)
}

// Retry moves a failed session back to browsing.
func (w *Workflow) Retry(session *Session) error {
	session.mu.Lock()
	defer session.mu.Unlock()
	if !w.fsm.CanTransition(session.State, StateBrowsing) {
		return ErrInvalidTransition
	}
	session.HoldID = ""
	session.SlotID = ""
	session.setState(StateBrowsing)
	return nil
}

var ErrInvalidTransition = errors.New("invalid workflow transition")

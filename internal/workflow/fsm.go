// Package workflow implements the client-visible booking state machine that
// drives the reservation coordinator and rolls back optimistic UI state.
package workflow

import (
	"sync"
	"time"

	"github.com/servicesartisans/booking/internal/domain"
)

// State represents where a booking attempt currently stands.
type State string

const (
	StateBrowsing         State = "browsing"
	StateHeld             State = "held"
	StateDetailsCollected State = "details_collected"
	StateConfirming       State = "confirming"
	StateConfirmed        State = "confirmed"
	StateFailed           State = "failed"
	StateAbandoned        State = "abandoned"
)

// OverlayState is the three-state optimistic mark layered over the
// authoritative availability view, so rollback is one deterministic step.
type OverlayState string

const (
	OverlayOptimistic OverlayState = "optimistic"
	OverlayConfirmed  OverlayState = "confirmed"
	OverlayRolledBack OverlayState = "rolled_back"
)

// Session tracks one client's booking attempt.
type Session struct {
	HolderToken string
	State       State
	SlotID      string
	HoldID      string
	BookingID   string
	Details     domain.BookingDetails
	StartedAt   time.Time
	UpdatedAt   time.Time

	overlay map[string]OverlayState
	mu      sync.Mutex
}

// NewSession creates a session in the browsing state.
func NewSession(holderToken string) *Session {
	now := time.Now()
	return &Session{
		HolderToken: holderToken,
		State:       StateBrowsing,
		StartedAt:   now,
		UpdatedAt:   now,
		overlay:     make(map[string]OverlayState),
	}
}

func (s *Session) GetState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.State
}

func (s *Session) setState(state State) {
	s.State = state
	s.UpdatedAt = time.Now()
}

// MarkOptimistic records the instant local reservation mark, before the
// server has answered.
func (s *Session) MarkOptimistic(slotID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overlay[slotID] = OverlayOptimistic
}

// Overlay returns the optimistic mark for a slot, if any.
func (s *Session) Overlay(slotID string) (OverlayState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.overlay[slotID]
	return st, ok
}

// Rollback unconditionally reverts the optimistic mark for a slot. The slot
// is also hidden from the client's visible open set until the next refresh.
func (s *Session) rollback(slotID string) {
	s.overlay[slotID] = OverlayRolledBack
}

// VisiblyOpen reports whether the client should still offer a slot: a slot
// whose optimistic mark was rolled back stays hidden even if a stale
// availability read lists it as open.
func (s *Session) VisiblyOpen(slotID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overlay[slotID] != OverlayRolledBack
}

// IsExpired checks if the session has been idle past the timeout.
func (s *Session) IsExpired(timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.UpdatedAt) > timeout
}

// FSM holds the allowed transitions of the booking workflow.
type FSM struct {
	transitions map[State][]State
}

func NewFSM() *FSM {
	return &FSM{
		transitions: map[State][]State{
			StateBrowsing:         {StateHeld},
			StateHeld:             {StateDetailsCollected, StateFailed, StateAbandoned, StateBrowsing},
			StateDetailsCollected: {StateConfirming, StateFailed},
			StateConfirming:       {StateConfirmed, StateFailed, StateBrowsing},
			StateFailed:           {StateBrowsing},
			StateConfirmed:        {},
			StateAbandoned:        {},
		},
	}
}

// CanTransition checks if a transition is allowed.
func (f *FSM) CanTransition(from, to State) bool {
	for _, s := range f.transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// SessionStore manages booking sessions keyed by holder token.
type SessionStore struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	timeout  time.Duration
}

func NewSessionStore(timeout time.Duration) *SessionStore {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &SessionStore{
		sessions: make(map[string]*Session),
		timeout:  timeout,
	}
}

func (ss *SessionStore) Get(holderToken string) *Session {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.sessions[holderToken]
}

// GetOrCreate returns the existing live session or starts a fresh one.
func (ss *SessionStore) GetOrCreate(holderToken string) *Session {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	session, ok := ss.sessions[holderToken]
	if ok && !session.IsExpired(ss.timeout) {
		return session
	}

	session = NewSession(holderToken)
	ss.sessions[holderToken] = session
	return session
}

func (ss *SessionStore) Delete(holderToken string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.sessions, holderToken)
}

// Cleanup removes expired sessions and returns how many were dropped.
func (ss *SessionStore) Cleanup() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	removed := 0
	for token, session := range ss.sessions {
		if session.IsExpired(ss.timeout) {
			delete(ss.sessions, token)
			removed++
		}
	}
	return removed
}

package bmc

import (
	"fmt"
	"sync"
)

// validTransition reports whether moving from one session phase to
// another is allowed by the session establishment state machine.
func validTransition(from, to SessionPhase) bool {
	switch from {
	case PhaseClosed:
		return to == PhaseAuthCap
	case PhaseAuthCap:
		return to == PhaseChallengeReq || to == PhaseClosed
	case PhaseChallengeReq:
		return to == PhaseActivateReq || to == PhaseClosed
	case PhaseActivateReq:
		return to == PhaseSetPriv || to == PhaseClosed
	case PhaseSetPriv:
		return to == PhaseActive || to == PhaseClosed
	case PhaseActive:
		return to == PhaseActive || to == PhaseClosing
	case PhaseClosing:
		return to == PhaseClosed
	default:
		return false
	}
}

// stateMachine tracks a Session's current phase and enforces the
// transition table above. Phase transitions happen on Open's goroutine
// during the handshake and afterwards only on the Session's own loop
// goroutine, but current() is read from caller
// goroutines calling Request, so the phase itself is mutex-guarded.
type stateMachine struct {
	mu    sync.Mutex
	phase SessionPhase
}

func (m *stateMachine) transition(to SessionPhase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !validTransition(m.phase, to) {
		return fmt.Errorf("bmc: invalid session transition %v -> %v", m.phase, to)
	}
	m.phase = to
	return nil
}

func (m *stateMachine) current() SessionPhase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

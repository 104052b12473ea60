package bmc

import "sync"

// activeSessions is the process-wide registry of open sessions, keyed by
// their handle.
var activeSessions sync.Map // SessionHandle -> *Session

func registerSession(s *Session) {
	activeSessions.Store(s.handle, s)
	sessionsActive.Inc()
}

func unregisterSession(s *Session) {
	if _, ok := activeSessions.LoadAndDelete(s.handle); ok {
		sessionsActive.Dec()
	}
}

// Statistics is the snapshot returned by Stats.
type Statistics struct {
	Sessions  []SessionHandle
	Observers []int
}

// Stats reports every currently open session and every registered event
// observer.
func Stats() Statistics {
	var sessions []SessionHandle
	activeSessions.Range(func(k, _ interface{}) bool {
		sessions = append(sessions, k.(SessionHandle))
		return true
	})
	return Statistics{Sessions: sessions, Observers: globalBus.tokens()}
}

package bmc

import (
	"errors"
	"fmt"

	"github.com/nwilkes/ipmibmc/pkg/ipmi"
)

// ErrNoSession is returned by any Session operation issued after the
// session has been removed: closed, timed out during setup, or torn down
// by a transport error.
var ErrNoSession = errors.New("bmc: no session")

// ErrTimeout is returned when a request's deadline elapses before a
// response is correlated to it.
var ErrTimeout = errors.New("bmc: request timeout")

// ErrUnsupportedFRUData re-exports the FRU format-version error from
// pkg/ipmi: the inventory declared a common-header version other than 1
// (as distinct from a checksum failure, which is handled leniently by
// dropping just that area).
var ErrUnsupportedFRUData = ipmi.ErrUnsupportedFRUData

// ErrIncorrectHeaderChecksum re-exports the FRU common-header checksum
// error from pkg/ipmi under the root package's error taxonomy.
var ErrIncorrectHeaderChecksum = ipmi.ErrIncorrectHeaderChecksum

// BMCError wraps a non-normal IPMI completion code returned by the BMC in
// response to a request.
type BMCError struct {
	Code ipmi.CompletionCode
}

func (e *BMCError) Error() string {
	return fmt.Sprintf("bmc: bmc error: %v", e.Code)
}

// SessionPhase names a step of the session establishment state machine,
// used to report which step an AuthError or open failure occurred at.
type SessionPhase int

const (
	PhaseClosed SessionPhase = iota
	PhaseAuthCap
	PhaseChallengeReq
	PhaseActivateReq
	PhaseSetPriv
	PhaseActive
	PhaseClosing
)

func (p SessionPhase) String() string {
	switch p {
	case PhaseClosed:
		return "closed"
	case PhaseAuthCap:
		return "auth_cap"
	case PhaseChallengeReq:
		return "challenge_req"
	case PhaseActivateReq:
		return "activate_req"
	case PhaseSetPriv:
		return "set_priv"
	case PhaseActive:
		return "active"
	case PhaseClosing:
		return "closing"
	default:
		return fmt.Sprintf("SessionPhase(%d)", int(p))
	}
}

// AuthError reports that session establishment failed at a named step.
type AuthError struct {
	Step SessionPhase
	Err  error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("bmc: auth error at %v: %v", e.Step, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// TransportError wraps an underlying I/O error from the UDP transport.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("bmc: transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError re-exports pkg/ipmi's structural decode error under the root
// package so callers need not import pkg/ipmi to use errors.As.
type DecodeError = ipmi.DecodeError

package bmc

import (
	"time"

	"github.com/nwilkes/ipmibmc/pkg/ipmi"
)

// SessionOpts configures Open. Every field is optional; zero values
// resolve to documented defaults.
type SessionOpts struct {
	// Port is the BMC's RMCP/IPMI UDP port. Defaults to 623.
	Port uint16

	// Timeout is the per-request deadline. Defaults to one second.
	Timeout time.Duration

	// Username is at most 16 bytes; longer values are truncated.
	Username string
	// Password is at most 16 bytes; longer values are truncated.
	Password []byte

	// PrivilegeLevel is requested via Set Session Privilege Level during
	// activation. Defaults to PrivilegeLevelAdministrator.
	PrivilegeLevel ipmi.PrivilegeLevel

	// RequestorAddress is this console's slave address/software ID, valid
	// range 0x81..0x8D. Defaults to ipmi.AddressRemoteConsole (0x81).
	RequestorAddress ipmi.Address

	// InitialOutboundSequence is the outbound session sequence number
	// requested at Activate Session. Defaults to 0x1337.
	InitialOutboundSequence uint32
}

const (
	defaultPort                 = 623
	defaultTimeout              = time.Second
	defaultPrivilegeLevel       = ipmi.PrivilegeLevelAdministrator
	defaultRequestorAddress     = ipmi.AddressRemoteConsole
	defaultInitialOutboundSeqNr = 0x1337
	maxCredentialLength         = 16
)

func (o SessionOpts) withDefaults() SessionOpts {
	if o.Port == 0 {
		o.Port = defaultPort
	}
	if o.Timeout == 0 {
		o.Timeout = defaultTimeout
	}
	if o.PrivilegeLevel == 0 {
		o.PrivilegeLevel = defaultPrivilegeLevel
	}
	if o.RequestorAddress == 0 {
		o.RequestorAddress = defaultRequestorAddress
	}
	if o.InitialOutboundSequence == 0 {
		o.InitialOutboundSequence = defaultInitialOutboundSeqNr
	}
	if len(o.Username) > maxCredentialLength {
		o.Username = o.Username[:maxCredentialLength]
	}
	if len(o.Password) > maxCredentialLength {
		o.Password = o.Password[:maxCredentialLength]
	}
	return o
}

func (o SessionOpts) paddedUsername() [16]byte {
	var buf [16]byte
	copy(buf[:], o.Username)
	return buf
}

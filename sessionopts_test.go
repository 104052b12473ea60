package bmc

import (
	"testing"

	"github.com/nwilkes/ipmibmc/pkg/ipmi"
)

func TestSessionOptsWithDefaults(t *testing.T) {
	got := SessionOpts{}.withDefaults()
	if got.Port != defaultPort {
		t.Errorf("Port = %d, want %d", got.Port, defaultPort)
	}
	if got.Timeout != defaultTimeout {
		t.Errorf("Timeout = %v, want %v", got.Timeout, defaultTimeout)
	}
	if got.PrivilegeLevel != ipmi.PrivilegeLevelAdministrator {
		t.Errorf("PrivilegeLevel = %v, want administrator", got.PrivilegeLevel)
	}
	if got.RequestorAddress != ipmi.AddressRemoteConsole {
		t.Errorf("RequestorAddress = %v, want 0x81", got.RequestorAddress)
	}
	if got.InitialOutboundSequence != defaultInitialOutboundSeqNr {
		t.Errorf("InitialOutboundSequence = 0x%x, want 0x%x", got.InitialOutboundSequence, defaultInitialOutboundSeqNr)
	}
}

func TestSessionOptsWithDefaultsPreservesExplicitValues(t *testing.T) {
	opts := SessionOpts{Port: 6230, PrivilegeLevel: ipmi.PrivilegeLevelUser}
	got := opts.withDefaults()
	if got.Port != 6230 {
		t.Errorf("Port = %d, want 6230 (explicit value should survive)", got.Port)
	}
	if got.PrivilegeLevel != ipmi.PrivilegeLevelUser {
		t.Errorf("PrivilegeLevel = %v, want user", got.PrivilegeLevel)
	}
}

func TestSessionOptsWithDefaultsTruncatesLongCredentials(t *testing.T) {
	opts := SessionOpts{Username: "a-very-long-username-indeed", Password: []byte("a-very-long-password-indeed")}
	got := opts.withDefaults()
	if len(got.Username) != maxCredentialLength {
		t.Errorf("Username length = %d, want %d", len(got.Username), maxCredentialLength)
	}
	if len(got.Password) != maxCredentialLength {
		t.Errorf("Password length = %d, want %d", len(got.Password), maxCredentialLength)
	}
}

func TestPaddedUsername(t *testing.T) {
	opts := SessionOpts{Username: "root"}
	buf := opts.paddedUsername()
	if string(buf[:4]) != "root" {
		t.Fatalf("padded username = %q, want root prefix", buf[:4])
	}
	for _, b := range buf[4:] {
		if b != 0 {
			t.Fatalf("expected zero padding, got %v", buf)
		}
	}
}

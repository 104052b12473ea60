// Package bmc implements an IPMI v1.5 remote console over RMCP/UDP:
// session establishment, request/response correlation, FRU inventory and
// System Event Log readers, and RMCP ASF discovery. pkg/ipmi provides the
// wire-format layers; this package turns them into a usable client.
package bmc

import (
	"fmt"

	"github.com/google/gopacket"

	"github.com/nwilkes/ipmibmc/pkg/ipmi"
)

var (
	// serializeOptions is used for every frame this package builds: lengths
	// and checksums are always computed fresh rather than trusted from
	// caller-supplied struct fields.
	serializeOptions = gopacket.SerializeOptions{
		FixLengths:       true,
		ComputeChecksums: true,
	}

	namespace = "bmc"
)

// ValidateResponse is a helper to remove boilerplate error handling after a
// Request call: it passes through a non-nil error, and turns a non-normal
// completion code into one.
func ValidateResponse(c ipmi.CompletionCode, err error) error {
	if err != nil {
		return err
	}
	if c != ipmi.CompletionCodeNormal {
		return fmt.Errorf("bmc: received non-normal completion code: %v", c)
	}
	return nil
}

package ipmi

import (
	"fmt"

	"github.com/google/gopacket"
	"github.com/nwilkes/ipmibmc/pkg/iana"
)

// Operation uniquely identifies a command that the BMC can perform. This is not
// terminology defined in the specification; this exists to allow us to identify
// the payload type of a particular IPMI message, which contains this type.
type Operation struct {

	// Function is the network function code of the message. The command field
	// indicates the specific functionality desired within this function class.
	Function NetworkFunction

	// Body is the defining body code. It is only relevant if the function is
	// Group, and is ignored otherwise.
	Body BodyCode

	// Enterprise is the enterprise number when the function is OEM. It is
	// ignored otherwise.
	Enterprise iana.Enterprise

	// Command is the BMC function being requested, or the response.
	Command CommandNumber
}

// Named operations this library issues or decodes. Unlike the wider BMC
// client this was adapted from, an Operation here does not pick a next
// gopacket layer to chain into: every command's payload is a plain typed
// struct decoded directly by the session once it knows, from the pending
// request it is resolving, which (net-fn, command) pair the bytes belong
// to. NextLayerType therefore always resolves to gopacket.LayerTypePayload;
// it is retained so Message keeps reporting a proper gopacket layer chain
// for introspection with tools like gopacket's layer dumper.
var (
	OperationGetDeviceIDReq = Operation{Function: NetworkFunctionAppReq, Command: CommandGetDeviceID}
	OperationGetDeviceIDRsp = Operation{Function: NetworkFunctionAppRsp, Command: CommandGetDeviceID}

	OperationGetChassisStatusReq = Operation{Function: NetworkFunctionChassisReq, Command: CommandChassisStatus}
	OperationGetChassisStatusRsp = Operation{Function: NetworkFunctionChassisRsp, Command: CommandChassisStatus}

	OperationChassisControlReq = Operation{Function: NetworkFunctionChassisReq, Command: CommandChassisControl}
	OperationChassisControlRsp = Operation{Function: NetworkFunctionChassisRsp, Command: CommandChassisControl}

	OperationGetChannelAuthenticationCapabilitiesReq = Operation{Function: NetworkFunctionAppReq, Command: CommandGetChannelAuthenticationCapabilities}
	OperationGetChannelAuthenticationCapabilitiesRsp = Operation{Function: NetworkFunctionAppRsp, Command: CommandGetChannelAuthenticationCapabilities}

	OperationGetSessionChallengeReq = Operation{Function: NetworkFunctionAppReq, Command: CommandGetSessionChallenge}
	OperationGetSessionChallengeRsp = Operation{Function: NetworkFunctionAppRsp, Command: CommandGetSessionChallenge}

	OperationActivateSessionReq = Operation{Function: NetworkFunctionAppReq, Command: CommandActivateSession}
	OperationActivateSessionRsp = Operation{Function: NetworkFunctionAppRsp, Command: CommandActivateSession}

	OperationSetSessionPrivilegeLevelReq = Operation{Function: NetworkFunctionAppReq, Command: CommandSetSessionPrivilegeLevel}
	OperationSetSessionPrivilegeLevelRsp = Operation{Function: NetworkFunctionAppRsp, Command: CommandSetSessionPrivilegeLevel}

	OperationCloseSessionReq = Operation{Function: NetworkFunctionAppReq, Command: CommandCloseSession}
	OperationCloseSessionRsp = Operation{Function: NetworkFunctionAppRsp, Command: CommandCloseSession}

	OperationGetSessionInfoReq = Operation{Function: NetworkFunctionAppReq, Command: CommandGetSessionInfo}
	OperationGetSessionInfoRsp = Operation{Function: NetworkFunctionAppRsp, Command: CommandGetSessionInfo}

	OperationGetFRUInventoryAreaInfoReq = Operation{Function: NetworkFunctionStorageReq, Command: CommandGetFRUInventoryAreaInfo}
	OperationGetFRUInventoryAreaInfoRsp = Operation{Function: NetworkFunctionStorageRsp, Command: CommandGetFRUInventoryAreaInfo}

	OperationReadFRUDataReq = Operation{Function: NetworkFunctionStorageReq, Command: CommandReadFRUData}
	OperationReadFRUDataRsp = Operation{Function: NetworkFunctionStorageRsp, Command: CommandReadFRUData}

	OperationReserveSELReq = Operation{Function: NetworkFunctionStorageReq, Command: CommandReserveSEL}
	OperationReserveSELRsp = Operation{Function: NetworkFunctionStorageRsp, Command: CommandReserveSEL}

	OperationGetSELEntryReq = Operation{Function: NetworkFunctionStorageReq, Command: CommandGetSELEntry}
	OperationGetSELEntryRsp = Operation{Function: NetworkFunctionStorageRsp, Command: CommandGetSELEntry}

	OperationClearSELReq = Operation{Function: NetworkFunctionStorageReq, Command: CommandClearSEL}
	OperationClearSELRsp = Operation{Function: NetworkFunctionStorageRsp, Command: CommandClearSEL}
)

func (o Operation) String() string {
	return fmt.Sprintf("%v/0x%02x", o.Function, uint8(o.Command))
}

// enterpriseFromBytes decodes the 3-byte little-endian IANA enterprise
// number carried in OEM network function messages.
func enterpriseFromBytes(b0, b1, b2 byte) iana.Enterprise {
	return iana.Enterprise(uint32(b0) | uint32(b1)<<8 | uint32(b2)<<16)
}

// enterpriseToBytes is the inverse of enterpriseFromBytes.
func enterpriseToBytes(e iana.Enterprise) (b0, b1, b2 byte) {
	v := uint32(e)
	return uint8(v), uint8(v >> 8), uint8(v >> 16)
}

// NextLayerType always reports gopacket.LayerTypePayload; see the doc
// comment on the var block above for why this package does not register a
// gopacket layer per command.
func (o Operation) NextLayerType() gopacket.LayerType {
	return gopacket.LayerTypePayload
}

package ipmi

import "fmt"

// Address is a slave address or software ID, as carried in the RemoteAddress
// and LocalAddress fields of Message. The least-significant bit dictates
// whether the remaining 7 bits are a slave address (0) or a software ID (1).
type Address uint8

// Well-known addresses.
const (
	// AddressBMC is the slave address of the BMC itself (0x20).
	AddressBMC Address = 0x20
	// AddressRemoteConsole is the default software ID a remote console
	// uses as its requestor address (0x81).
	AddressRemoteConsole Address = 0x81
)

func (a Address) String() string {
	return fmt.Sprintf("0x%02x", uint8(a))
}

// LUN is a 2-bit logical unit number.
type LUN uint8

func (l LUN) String() string {
	return fmt.Sprintf("%d", uint8(l))
}

// NetworkFunction is the 6-bit IPMI network function code. Request codes are
// always even; the matching response code is the request code with the
// low bit set.
type NetworkFunction uint8

// Network function codes used by this library. Only the functions the
// FRU/SEL/chassis/app surface touches are named; OEM and Group network
// functions are handled generically via Operation.Body/Enterprise.
const (
	NetworkFunctionChassisReq NetworkFunction = 0x00
	NetworkFunctionChassisRsp NetworkFunction = 0x01
	NetworkFunctionSensorReq  NetworkFunction = 0x04
	NetworkFunctionSensorRsp  NetworkFunction = 0x05
	NetworkFunctionAppReq     NetworkFunction = 0x06
	NetworkFunctionAppRsp     NetworkFunction = 0x07
	NetworkFunctionStorageReq NetworkFunction = 0x0a
	NetworkFunctionStorageRsp NetworkFunction = 0x0b
	NetworkFunctionGroupReq   NetworkFunction = 0x2c
	NetworkFunctionGroupRsp   NetworkFunction = 0x2d
	NetworkFunctionOEMReq     NetworkFunction = 0x2e
	NetworkFunctionOEMRsp     NetworkFunction = 0x2f
)

// IsRequest reports whether the network function denotes a request. Request
// codes are always even.
func (f NetworkFunction) IsRequest() bool {
	return f&0x01 == 0
}

// Response returns the response network function matching this request
// function (request | 1). Calling it on a response function is a no-op.
func (f NetworkFunction) Response() NetworkFunction {
	return f | 0x01
}

func (f NetworkFunction) String() string {
	switch f {
	case NetworkFunctionChassisReq:
		return "Chassis-Req"
	case NetworkFunctionChassisRsp:
		return "Chassis-Rsp"
	case NetworkFunctionSensorReq:
		return "Sensor-Req"
	case NetworkFunctionSensorRsp:
		return "Sensor-Rsp"
	case NetworkFunctionAppReq:
		return "App-Req"
	case NetworkFunctionAppRsp:
		return "App-Rsp"
	case NetworkFunctionStorageReq:
		return "Storage-Req"
	case NetworkFunctionStorageRsp:
		return "Storage-Rsp"
	case NetworkFunctionGroupReq:
		return "Group-Req"
	case NetworkFunctionGroupRsp:
		return "Group-Rsp"
	case NetworkFunctionOEMReq:
		return "OEM-Req"
	case NetworkFunctionOEMRsp:
		return "OEM-Rsp"
	default:
		return fmt.Sprintf("NetFn(0x%02x)", uint8(f))
	}
}

// BodyCode is the defining body code for Group network function messages.
type BodyCode uint8

// CommandNumber identifies a command within a network function.
type CommandNumber uint8

// Commands used by this library, grouped by the network function they
// belong to.
const (
	CommandGetDeviceID CommandNumber = 0x01

	CommandChassisStatus  CommandNumber = 0x01
	CommandChassisControl CommandNumber = 0x02

	CommandGetChannelAuthenticationCapabilities CommandNumber = 0x38
	CommandGetSessionChallenge                  CommandNumber = 0x39
	CommandActivateSession                      CommandNumber = 0x3a
	CommandSetSessionPrivilegeLevel             CommandNumber = 0x3b
	CommandCloseSession                         CommandNumber = 0x3c
	CommandGetSessionInfo                       CommandNumber = 0x3d

	CommandGetFRUInventoryAreaInfo CommandNumber = 0x10
	CommandReadFRUData             CommandNumber = 0x11

	CommandReserveSEL  CommandNumber = 0x42
	CommandGetSELEntry CommandNumber = 0x43
	CommandClearSEL    CommandNumber = 0x47
)

// CompletionCode is the single status byte present in every IPMI response.
type CompletionCode uint8

// Completion codes named in the IPMI completion code table that this
// library needs to distinguish by mnemonic.
const (
	CompletionCodeNormal                  CompletionCode = 0x00
	CompletionCodeNodeBusy                CompletionCode = 0xc0
	CompletionCodeInvalidCommand          CompletionCode = 0xc1
	CompletionCodeInvalidCommandForLUN    CompletionCode = 0xc2
	CompletionCodeTimeout                 CompletionCode = 0xc3
	CompletionCodeOutOfSpace              CompletionCode = 0xc4
	CompletionCodeReservationCanceled     CompletionCode = 0xc5
	CompletionCodeRequestDataTruncated    CompletionCode = 0xc6
	CompletionCodeRequestDataInvalid      CompletionCode = 0xc7
	CompletionCodeRequestDataFieldLength  CompletionCode = 0xc8
	CompletionCodeParameterOutOfRange     CompletionCode = 0xc9
	CompletionCodeCannotReturnRequested   CompletionCode = 0xca
	CompletionCodeRequestedDataNotPresent CompletionCode = 0xcb
	CompletionCodeInvalidDataField        CompletionCode = 0xcc
	CompletionCodeCommandIllegal          CompletionCode = 0xcd
	CompletionCodeCannotRespond           CompletionCode = 0xce
	CompletionCodeDuplicatedRequest       CompletionCode = 0xcf
	CompletionCodeSDRInUpdateMode         CompletionCode = 0xd0
	CompletionCodeInsufficientPrivilege   CompletionCode = 0xd4
	CompletionCodeUnspecified             CompletionCode = 0xff
	CompletionCodeInvalidUser             CompletionCode = 0x81
)

// Mnemonic returns the human-readable name of the completion code, or its
// numeric value formatted as "0xNN" when the code is not one this library
// recognises.
func (c CompletionCode) Mnemonic() string {
	switch c {
	case CompletionCodeNormal:
		return "normal"
	case CompletionCodeNodeBusy:
		return "node_busy"
	case CompletionCodeInvalidCommand:
		return "invalid_command"
	case CompletionCodeInvalidCommandForLUN:
		return "invalid_command_for_lun"
	case CompletionCodeTimeout:
		return "command_timeout"
	case CompletionCodeOutOfSpace:
		return "out_of_space"
	case CompletionCodeReservationCanceled:
		return "reservation_canceled"
	case CompletionCodeRequestDataTruncated:
		return "request_data_truncated"
	case CompletionCodeRequestDataInvalid:
		return "request_data_invalid"
	case CompletionCodeRequestDataFieldLength:
		return "request_data_field_length_invalid"
	case CompletionCodeParameterOutOfRange:
		return "parameter_out_of_range"
	case CompletionCodeCannotReturnRequested:
		return "cannot_return_requested_bytes"
	case CompletionCodeRequestedDataNotPresent:
		return "requested_data_not_present"
	case CompletionCodeInvalidDataField:
		return "invalid_data_field"
	case CompletionCodeCommandIllegal:
		return "command_illegal_for_state"
	case CompletionCodeCannotRespond:
		return "cannot_respond"
	case CompletionCodeDuplicatedRequest:
		return "duplicated_request"
	case CompletionCodeSDRInUpdateMode:
		return "sdr_repository_in_update_mode"
	case CompletionCodeInsufficientPrivilege:
		return "insufficient_privilege"
	case CompletionCodeInvalidUser:
		return "invalid_user_name"
	case CompletionCodeUnspecified:
		return "unspecified"
	default:
		return fmt.Sprintf("0x%02x", uint8(c))
	}
}

func (c CompletionCode) String() string {
	return c.Mnemonic()
}

// AuthType is an IPMI v1.5 session authentication type.
type AuthType uint8

const (
	AuthTypeNone     AuthType = 0x00
	AuthTypeMD2      AuthType = 0x01
	AuthTypeMD5      AuthType = 0x02
	AuthTypePassword AuthType = 0x04
	AuthTypeOEM      AuthType = 0x05
)

func (a AuthType) String() string {
	switch a {
	case AuthTypeNone:
		return "none"
	case AuthTypeMD2:
		return "md2"
	case AuthTypeMD5:
		return "md5"
	case AuthTypePassword:
		return "password"
	case AuthTypeOEM:
		return "oem"
	default:
		return fmt.Sprintf("AuthType(0x%02x)", uint8(a))
	}
}

// PrivilegeLevel is an IPMI channel privilege level.
type PrivilegeLevel uint8

const (
	PrivilegeLevelCallback      PrivilegeLevel = 0x01
	PrivilegeLevelUser          PrivilegeLevel = 0x02
	PrivilegeLevelOperator      PrivilegeLevel = 0x03
	PrivilegeLevelAdministrator PrivilegeLevel = 0x04
)

func (p PrivilegeLevel) String() string {
	switch p {
	case PrivilegeLevelCallback:
		return "callback"
	case PrivilegeLevelUser:
		return "user"
	case PrivilegeLevelOperator:
		return "operator"
	case PrivilegeLevelAdministrator:
		return "administrator"
	default:
		return fmt.Sprintf("PrivilegeLevel(0x%02x)", uint8(p))
	}
}

// ChassisControl is the control action sent by the Chassis Control command.
type ChassisControl uint8

const (
	ChassisControlPowerOff            ChassisControl = 0x00
	ChassisControlPowerOn             ChassisControl = 0x01
	ChassisControlPowerCycle          ChassisControl = 0x02
	ChassisControlHardReset           ChassisControl = 0x03
	ChassisControlDiagnosticInterrupt ChassisControl = 0x04
	ChassisControlSoftPowerOff        ChassisControl = 0x05
)

func (c ChassisControl) String() string {
	switch c {
	case ChassisControlPowerOff:
		return "power-off"
	case ChassisControlPowerOn:
		return "power-on"
	case ChassisControlPowerCycle:
		return "power-cycle"
	case ChassisControlHardReset:
		return "hard-reset"
	case ChassisControlDiagnosticInterrupt:
		return "diagnostic-interrupt"
	case ChassisControlSoftPowerOff:
		return "soft-power-off"
	default:
		return fmt.Sprintf("ChassisControl(0x%02x)", uint8(c))
	}
}

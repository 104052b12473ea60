package ipmi

import "encoding/binary"

// This file holds the plain typed request/response payloads for the
// commands the session setup sequence and the higher-level readers issue.
// Per the design note on the Operation var block, these are decoded
// directly by the caller that knows which command a response belongs to,
// rather than through a gopacket layer per command.

// AuthTypeSupport is the bitmap of session authentication types a channel
// supports, returned by Get Channel Authentication Capabilities.
type AuthTypeSupport uint8

const (
	AuthTypeSupportNone     AuthTypeSupport = 1 << 0
	AuthTypeSupportMD2      AuthTypeSupport = 1 << 1
	AuthTypeSupportMD5      AuthTypeSupport = 1 << 2
	AuthTypeSupportPassword AuthTypeSupport = 1 << 4
	AuthTypeSupportOEM      AuthTypeSupport = 1 << 5
)

// Supports reports whether t is advertised as supported.
func (s AuthTypeSupport) Supports(t AuthType) bool {
	switch t {
	case AuthTypeNone:
		return s&AuthTypeSupportNone != 0
	case AuthTypeMD2:
		return s&AuthTypeSupportMD2 != 0
	case AuthTypeMD5:
		return s&AuthTypeSupportMD5 != 0
	case AuthTypePassword:
		return s&AuthTypeSupportPassword != 0
	default:
		return false
	}
}

// GetChannelAuthenticationCapabilitiesResponse is the decoded response to
// Get Channel Authentication Capabilities.
type GetChannelAuthenticationCapabilitiesResponse struct {
	Channel                uint8
	AuthTypeSupport        AuthTypeSupport
	AnonymousLoginEnabled  bool
	NullUsernameEnabled    bool
	PerMessageAuthDisabled bool
	UserLevelAuthDisabled  bool
}

// EncodeGetChannelAuthenticationCapabilitiesRequest builds the request
// body: current channel (0x0e) and the requested privilege level.
func EncodeGetChannelAuthenticationCapabilitiesRequest(priv PrivilegeLevel) []byte {
	const currentChannel = 0x0e
	return []byte{currentChannel, uint8(priv)}
}

// DecodeGetChannelAuthenticationCapabilitiesResponse decodes the response.
func DecodeGetChannelAuthenticationCapabilitiesResponse(data []byte) (*GetChannelAuthenticationCapabilitiesResponse, error) {
	if len(data) < 8 {
		return nil, &DecodeError{Reason: ReasonBadLength, Detail: "get channel auth capabilities response too short"}
	}
	return &GetChannelAuthenticationCapabilitiesResponse{
		Channel:                data[0] & 0x0f,
		AuthTypeSupport:        AuthTypeSupport(data[1]),
		AnonymousLoginEnabled:  data[2]&0x01 != 0,
		NullUsernameEnabled:    data[2]&0x02 != 0,
		PerMessageAuthDisabled: data[2]&0x10 != 0,
		UserLevelAuthDisabled:  data[2]&0x20 != 0,
	}, nil
}

// EncodeGetSessionChallengeRequest builds the request body for the
// authentication type chosen and a 16-byte padded username.
func EncodeGetSessionChallengeRequest(authType AuthType, username [16]byte) []byte {
	buf := make([]byte, 17)
	buf[0] = uint8(authType)
	copy(buf[1:], username[:])
	return buf
}

// GetSessionChallengeResponse is the decoded response to Get Session
// Challenge.
type GetSessionChallengeResponse struct {
	TemporarySessionID uint32
	Challenge          [16]byte
}

// DecodeGetSessionChallengeResponse decodes the response.
func DecodeGetSessionChallengeResponse(data []byte) (*GetSessionChallengeResponse, error) {
	if len(data) < 20 {
		return nil, &DecodeError{Reason: ReasonBadLength, Detail: "get session challenge response too short"}
	}
	r := &GetSessionChallengeResponse{TemporarySessionID: binary.LittleEndian.Uint32(data[0:4])}
	copy(r.Challenge[:], data[4:20])
	return r, nil
}

// EncodeActivateSessionRequest builds the Activate Session request body.
func EncodeActivateSessionRequest(authType AuthType, priv PrivilegeLevel, challenge [16]byte, initialOutboundSeq uint32) []byte {
	buf := make([]byte, 22)
	buf[0] = uint8(authType)
	buf[1] = uint8(priv)
	copy(buf[2:18], challenge[:])
	binary.LittleEndian.PutUint32(buf[18:22], initialOutboundSeq)
	return buf
}

// ActivateSessionResponse is the decoded response to Activate Session.
type ActivateSessionResponse struct {
	AuthType          AuthType
	SessionID         uint32
	InitialInboundSeq uint32
	PrivilegeLevel    PrivilegeLevel
}

// DecodeActivateSessionResponse decodes the response.
func DecodeActivateSessionResponse(data []byte) (*ActivateSessionResponse, error) {
	if len(data) < 10 {
		return nil, &DecodeError{Reason: ReasonBadLength, Detail: "activate session response too short"}
	}
	return &ActivateSessionResponse{
		AuthType:          AuthType(data[0]),
		SessionID:         binary.LittleEndian.Uint32(data[1:5]),
		InitialInboundSeq: binary.LittleEndian.Uint32(data[5:9]),
		PrivilegeLevel:    PrivilegeLevel(data[9] & 0x0f),
	}, nil
}

// EncodeSetSessionPrivilegeLevelRequest builds the request body.
func EncodeSetSessionPrivilegeLevelRequest(priv PrivilegeLevel) []byte {
	return []byte{uint8(priv)}
}

// SetSessionPrivilegeLevelResponse is the decoded response.
type SetSessionPrivilegeLevelResponse struct {
	PrivilegeLevel PrivilegeLevel
}

// DecodeSetSessionPrivilegeLevelResponse decodes the response.
func DecodeSetSessionPrivilegeLevelResponse(data []byte) (*SetSessionPrivilegeLevelResponse, error) {
	if len(data) < 1 {
		return nil, &DecodeError{Reason: ReasonBadLength, Detail: "set session privilege level response too short"}
	}
	return &SetSessionPrivilegeLevelResponse{PrivilegeLevel: PrivilegeLevel(data[0] & 0x0f)}, nil
}

// EncodeCloseSessionRequest builds the request body for the given session.
func EncodeCloseSessionRequest(sessionID uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, sessionID)
	return buf
}

// EncodeGetSessionInfoRequest requests info for the given 1-based session
// index, or 0 to query the session the request arrived on.
func EncodeGetSessionInfoRequest(sessionIndex uint8) []byte {
	return []byte{sessionIndex}
}

// GetSessionInfoResponse is the decoded response to Get Session Info.
type GetSessionInfoResponse struct {
	ActiveSessionCount uint8
	MaxSessionSlots    uint8
	// UserID/PrivilegeLevel/Channel are only present when the queried
	// session slot is occupied; OK reports whether they were included.
	OK             bool
	UserID         uint8
	PrivilegeLevel PrivilegeLevel
	Channel        uint8
}

// DecodeGetSessionInfoResponse decodes the response.
func DecodeGetSessionInfoResponse(data []byte) (*GetSessionInfoResponse, error) {
	if len(data) < 3 {
		return nil, &DecodeError{Reason: ReasonBadLength, Detail: "get session info response too short"}
	}
	r := &GetSessionInfoResponse{ActiveSessionCount: data[0], MaxSessionSlots: data[1]}
	if len(data) >= 6 {
		r.OK = true
		r.UserID = data[2] & 0x3f
		r.PrivilegeLevel = PrivilegeLevel(data[3] & 0x0f)
		r.Channel = data[4] & 0x0f
	}
	return r, nil
}

// GetDeviceIDResponse is the decoded response to Get Device ID.
type GetDeviceIDResponse struct {
	DeviceID          uint8
	DeviceRevision    uint8
	FirmwareRevision1 uint8
	FirmwareRevision2 uint8
	IPMIVersion       uint8
	ManufacturerID    uint32
	ProductID         uint16
}

// DecodeGetDeviceIDResponse decodes the response.
func DecodeGetDeviceIDResponse(data []byte) (*GetDeviceIDResponse, error) {
	if len(data) < 11 {
		return nil, &DecodeError{Reason: ReasonBadLength, Detail: "get device id response too short"}
	}
	return &GetDeviceIDResponse{
		DeviceID:          data[0],
		DeviceRevision:    data[1] & 0x0f,
		FirmwareRevision1: data[2] & 0x7f,
		FirmwareRevision2: data[3],
		IPMIVersion:       data[4],
		ManufacturerID:    uint32(data[6]) | uint32(data[7])<<8 | uint32(data[8])<<16,
		ProductID:         binary.LittleEndian.Uint16(data[9:11]),
	}, nil
}

// EncodeChassisControlRequest builds the request body for the given action.
func EncodeChassisControlRequest(c ChassisControl) []byte {
	return []byte{uint8(c)}
}

// ChassisStatusResponse is the decoded response to Get Chassis Status.
type ChassisStatusResponse struct {
	PowerOn           bool
	PowerOverload     bool
	Interlock         bool
	PowerFault        bool
	PowerControlFault bool
	RestorePolicy     uint8
	LastPowerEvent    uint8
	ChassisIntrusion  bool
	FrontPanelLockout bool
	DriveFault        bool
	CoolingFault      bool
}

// DecodeChassisStatusResponse decodes the response.
func DecodeChassisStatusResponse(data []byte) (*ChassisStatusResponse, error) {
	if len(data) < 3 {
		return nil, &DecodeError{Reason: ReasonBadLength, Detail: "get chassis status response too short"}
	}
	cur := data[0]
	last := data[1]
	misc := data[2]
	return &ChassisStatusResponse{
		PowerOn:           cur&0x01 != 0,
		PowerOverload:     cur&0x02 != 0,
		Interlock:         cur&0x04 != 0,
		PowerFault:        cur&0x08 != 0,
		PowerControlFault: cur&0x10 != 0,
		RestorePolicy:     (cur >> 5) & 0x03,
		LastPowerEvent:    last & 0x1f,
		ChassisIntrusion:  misc&0x01 != 0,
		FrontPanelLockout: misc&0x02 != 0,
		DriveFault:        misc&0x04 != 0,
		CoolingFault:      misc&0x08 != 0,
	}, nil
}

// GetFRUInventoryAreaInfoResponse is the decoded response to Get FRU
// Inventory Area Info.
type GetFRUInventoryAreaInfoResponse struct {
	AreaSizeUnits   uint16 // in bytes or words, per AccessedByWords
	AccessedByWords bool
}

// EncodeGetFRUInventoryAreaInfoRequest builds the request body.
func EncodeGetFRUInventoryAreaInfoRequest(fruID uint8) []byte {
	return []byte{fruID}
}

// DecodeGetFRUInventoryAreaInfoResponse decodes the response.
func DecodeGetFRUInventoryAreaInfoResponse(data []byte) (*GetFRUInventoryAreaInfoResponse, error) {
	if len(data) < 3 {
		return nil, &DecodeError{Reason: ReasonBadLength, Detail: "get fru inventory area info response too short"}
	}
	return &GetFRUInventoryAreaInfoResponse{
		AreaSizeUnits:   binary.LittleEndian.Uint16(data[0:2]),
		AccessedByWords: data[2]&0x01 != 0,
	}, nil
}

// EncodeReadFRUDataRequest builds the request body for a chunked read: the
// byte/word offset and the number of units to read (BMCs commonly cap
// this at 23 in practice).
func EncodeReadFRUDataRequest(fruID uint8, offset uint16, count uint8) []byte {
	buf := make([]byte, 4)
	buf[0] = fruID
	binary.LittleEndian.PutUint16(buf[1:3], offset)
	buf[3] = count
	return buf
}

// DecodeReadFRUDataResponse decodes the response: a count byte followed by
// that many data bytes, which may be fewer than requested.
func DecodeReadFRUDataResponse(data []byte) ([]byte, error) {
	if len(data) < 1 {
		return nil, &DecodeError{Reason: ReasonBadLength, Detail: "read fru data response too short"}
	}
	count := int(data[0])
	if len(data)-1 < count {
		count = len(data) - 1
	}
	return append([]byte(nil), data[1:1+count]...), nil
}

// ReserveSELResponse is the decoded response to Reserve SEL.
type ReserveSELResponse struct {
	ReservationID uint16
}

// DecodeReserveSELResponse decodes the response.
func DecodeReserveSELResponse(data []byte) (*ReserveSELResponse, error) {
	if len(data) < 2 {
		return nil, &DecodeError{Reason: ReasonBadLength, Detail: "reserve sel response too short"}
	}
	return &ReserveSELResponse{ReservationID: binary.LittleEndian.Uint16(data[0:2])}, nil
}

// SELFirstRecordID/SELLastRecordID are sentinel record ids used to request
// the first entry and to detect end-of-log.
const (
	SELFirstRecordID uint16 = 0x0000
	SELLastRecordID  uint16 = 0xffff
)

// EncodeGetSELEntryRequest builds the request body to read an entire
// 16-byte SEL entry in one command (offset 0, count 0xff meaning "read the
// whole record" on BMCs that support it).
func EncodeGetSELEntryRequest(reservationID, recordID uint16) []byte {
	buf := make([]byte, 6)
	binary.LittleEndian.PutUint16(buf[0:2], reservationID)
	binary.LittleEndian.PutUint16(buf[2:4], recordID)
	buf[4] = 0    // offset into record
	buf[5] = 0xff // read entire record
	return buf
}

// GetSELEntryResponse is the decoded response to Get SEL Entry.
type GetSELEntryResponse struct {
	NextRecordID uint16
	Entry        *SELEntry
}

// DecodeGetSELEntryResponse decodes the response.
func DecodeGetSELEntryResponse(data []byte) (*GetSELEntryResponse, error) {
	if len(data) < 2 {
		return nil, &DecodeError{Reason: ReasonBadLength, Detail: "get sel entry response too short"}
	}
	r := &GetSELEntryResponse{NextRecordID: binary.LittleEndian.Uint16(data[0:2])}
	if entry, err := DecodeSELEntry(data[2:]); err == nil {
		r.Entry = entry
	} else {
		return r, err
	}
	return r, nil
}

// EncodeClearSELRequest builds the request body: the reservation ID, the
// ASCII marker "CLR", then 0x00 for the "get status" sub-command (initiate
// false) or 0xAA for "initiate erase" (initiate true).
func EncodeClearSELRequest(reservationID uint16, initiate bool) []byte {
	buf := make([]byte, 6)
	binary.LittleEndian.PutUint16(buf[0:2], reservationID)
	buf[2], buf[3], buf[4] = 'C', 'L', 'R'
	if initiate {
		buf[5] = 0xaa
	} else {
		buf[5] = 0x00
	}
	return buf
}

// ClearSELProgress is the single status byte returned by Clear SEL.
type ClearSELProgress uint8

const (
	ClearSELInProgress ClearSELProgress = 0x00
	ClearSELCompleted  ClearSELProgress = 0x01
)

// DecodeClearSELResponse decodes the response.
func DecodeClearSELResponse(data []byte) (ClearSELProgress, error) {
	if len(data) < 1 {
		return 0, &DecodeError{Reason: ReasonBadLength, Detail: "clear sel response too short"}
	}
	return ClearSELProgress(data[0] & 0x0f), nil
}

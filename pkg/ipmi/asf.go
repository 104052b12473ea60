package ipmi

import (
	"encoding/binary"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/nwilkes/ipmibmc/pkg/iana"
)

// ASFMessageType identifies the kind of ASF message.
type ASFMessageType uint8

const (
	ASFMessageTypePong ASFMessageType = 0x40
	ASFMessageTypePing ASFMessageType = 0x80
)

func (t ASFMessageType) String() string {
	switch t {
	case ASFMessageTypePing:
		return "Ping"
	case ASFMessageTypePong:
		return "Pong"
	default:
		return fmt.Sprintf("ASFMessageType(0x%02x)", uint8(t))
	}
}

const asfHeaderSize = 8

// asfPongSupportedEntitiesIPMIBit is set in the pong's "supported entities"
// byte when the responder supports IPMI.
const asfPongSupportedEntitiesIPMIBit = 0x80

// asfPongPayloadSize is the fixed 16-byte pong body (OEM IANA number,
// OEM-defined, supported entities, supported interactions, 6 reserved).
const asfPongPayloadSize = 16

// ASF is an Alert Standard Format message: IANA enterprise number, message
// type, message tag, a reserved byte, a data length and the type-specific
// data.
type ASF struct {
	layers.BaseLayer

	IANAEnterpriseNumber iana.Enterprise
	MessageType          ASFMessageType
	MessageTag           uint8

	// Pong fields, populated when MessageType == ASFMessageTypePong.
	PongOEM                   uint32
	PongOEMDefined            uint32
	PongSupportedEntities     uint8
	PongSupportedInteractions uint8
}

func (*ASF) LayerType() gopacket.LayerType    { return LayerTypeASF }
func (a *ASF) CanDecode() gopacket.LayerClass { return LayerTypeASF }
func (a *ASF) NextLayerType() gopacket.LayerType {
	return gopacket.LayerTypeZero
}

// SupportsIPMI reports whether a pong's supported-entities byte indicates
// IPMI support (bit 7 set).
func (a *ASF) SupportsIPMI() bool {
	return a.PongSupportedEntities&asfPongSupportedEntitiesIPMIBit != 0
}

func (a *ASF) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < asfHeaderSize {
		df.SetTruncated()
		return &DecodeError{Reason: ReasonBadLength, Detail: fmt.Sprintf("asf header needs %d bytes, got %d", asfHeaderSize, len(data))}
	}
	a.IANAEnterpriseNumber = iana.Enterprise(binary.BigEndian.Uint32(data[0:4]))
	a.MessageType = ASFMessageType(data[4])
	a.MessageTag = data[5]
	// data[6] reserved
	dataLen := int(data[7])
	if len(data) < asfHeaderSize+dataLen {
		df.SetTruncated()
		return &DecodeError{Reason: ReasonBadLength, Detail: "asf data length exceeds buffer"}
	}
	body := data[asfHeaderSize : asfHeaderSize+dataLen]
	if a.MessageType == ASFMessageTypePong {
		if len(body) < asfPongPayloadSize {
			df.SetTruncated()
			return &DecodeError{Reason: ReasonBadLength, Detail: "asf pong body too short"}
		}
		a.PongOEM = binary.BigEndian.Uint32(body[0:4])
		a.PongOEMDefined = binary.BigEndian.Uint32(body[4:8])
		a.PongSupportedEntities = body[8]
		a.PongSupportedInteractions = body[9]
	}
	a.BaseLayer = layers.BaseLayer{
		Contents: data[:asfHeaderSize+dataLen],
		Payload:  data[asfHeaderSize+dataLen:],
	}
	return nil
}

func (a *ASF) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	var body []byte
	switch a.MessageType {
	case ASFMessageTypePong:
		body = make([]byte, asfPongPayloadSize)
		binary.BigEndian.PutUint32(body[0:4], a.PongOEM)
		binary.BigEndian.PutUint32(body[4:8], a.PongOEMDefined)
		body[8] = a.PongSupportedEntities
		body[9] = a.PongSupportedInteractions
	case ASFMessageTypePing:
		body = nil
	}
	buf, err := b.PrependBytes(asfHeaderSize + len(body))
	if err != nil {
		return err
	}
	enterprise := a.IANAEnterpriseNumber
	if enterprise == 0 {
		enterprise = iana.EnterpriseASF
	}
	binary.BigEndian.PutUint32(buf[0:4], uint32(enterprise))
	buf[4] = uint8(a.MessageType)
	buf[5] = a.MessageTag
	buf[6] = 0x00
	buf[7] = uint8(len(body))
	copy(buf[asfHeaderSize:], body)
	return nil
}

func (a *ASF) String() string {
	return fmt.Sprintf("ASF{Type:%v,Tag:%d}", a.MessageType, a.MessageTag)
}

// NewASFPing builds a presence ping with the given message tag.
func NewASFPing(tag uint8) *ASF {
	return &ASF{IANAEnterpriseNumber: iana.EnterpriseASF, MessageType: ASFMessageTypePing, MessageTag: tag}
}

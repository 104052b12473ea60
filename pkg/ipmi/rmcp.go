package ipmi

import (
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// RMCPVersion is the only version byte this library understands.
const RMCPVersion uint8 = 0x06

// RMCPClass identifies the payload carried by an RMCP envelope.
type RMCPClass uint8

const (
	// RMCPClassASF carries an Alert Standard Format presence ping/pong.
	RMCPClassASF RMCPClass = 0x06
	// RMCPClassIPMI carries an IPMI session header and message.
	RMCPClassIPMI RMCPClass = 0x07

	rmcpClassAckBit = 0x80
)

// IsAck reports whether the class byte's ACK bit (the most-significant bit)
// is set.
func (c RMCPClass) IsAck() bool {
	return c&rmcpClassAckBit != 0
}

// Type strips the ACK bit, leaving the payload class.
func (c RMCPClass) Type() RMCPClass {
	return c &^ rmcpClassAckBit
}

func (c RMCPClass) String() string {
	ack := ""
	if c.IsAck() {
		ack = "+ACK"
	}
	switch c.Type() {
	case RMCPClassASF:
		return "ASF" + ack
	case RMCPClassIPMI:
		return "IPMI" + ack
	default:
		return fmt.Sprintf("RMCPClass(0x%02x)%s", uint8(c.Type()), ack)
	}
}

// rmcpHeaderSize is the fixed 4-byte envelope size.
const rmcpHeaderSize = 4

// rmcpSeqNoAck suppresses the ACK requirement regardless of the class byte.
const rmcpSeqNoAck uint8 = 0xff

// RMCP is the 4-byte Remote Management Control Protocol envelope that wraps
// every ASF and IPMI-over-LAN datagram. A sequence number of 0xff
// suppresses the requirement for an ACK; otherwise every data frame (class
// byte's high bit clear) requires one. An ACK frame is a data-less frame
// whose class byte has that bit set - decoders must tell this apart from a
// data frame of the same class by checking payload length.
type RMCP struct {
	layers.BaseLayer

	Version  uint8
	Sequence uint8
	Class    RMCPClass
}

func (*RMCP) LayerType() gopacket.LayerType { return LayerTypeRMCP }

func (r *RMCP) CanDecode() gopacket.LayerClass { return LayerTypeRMCP }

func (r *RMCP) NextLayerType() gopacket.LayerType {
	if r.IsAck() {
		return gopacket.LayerTypeZero
	}
	switch r.Class.Type() {
	case RMCPClassASF:
		return LayerTypeASF
	case RMCPClassIPMI:
		return LayerTypeSessionHeader
	default:
		return gopacket.LayerTypePayload
	}
}

// IsAck reports whether this envelope is an acknowledgement frame: the
// class byte's high bit is set and there is no payload.
func (r *RMCP) IsAck() bool {
	return r.Class.IsAck() && len(r.Payload) == 0
}

// RequiresAck reports whether the sender of this frame expects an ACK in
// return: it is a data frame, not itself an ACK, and its sequence number
// has not suppressed the requirement.
func (r *RMCP) RequiresAck() bool {
	return r.Sequence != rmcpSeqNoAck && !r.Class.IsAck()
}

func (r *RMCP) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < rmcpHeaderSize {
		df.SetTruncated()
		return fmt.Errorf("ipmi: rmcp header must be at least %d bytes, got %d", rmcpHeaderSize, len(data))
	}
	if data[0] != RMCPVersion {
		return &DecodeError{Reason: "bad_version", Detail: fmt.Sprintf("rmcp version 0x%02x", data[0])}
	}
	r.Version = data[0]
	// data[1] is reserved.
	r.Sequence = data[2]
	r.Class = RMCPClass(data[3])
	r.BaseLayer = layers.BaseLayer{Contents: data[:rmcpHeaderSize], Payload: data[rmcpHeaderSize:]}
	return nil
}

func (r *RMCP) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	buf, err := b.PrependBytes(rmcpHeaderSize)
	if err != nil {
		return err
	}
	version := r.Version
	if version == 0 {
		version = RMCPVersion
	}
	buf[0] = version
	buf[1] = 0x00
	buf[2] = r.Sequence
	buf[3] = uint8(r.Class)
	return nil
}

func (r *RMCP) String() string {
	return fmt.Sprintf("RMCP{Seq:%d,Class:%v}", r.Sequence, r.Class)
}

// NewRMCPForIPMI builds an RMCP envelope for an IPMI session datagram with
// the ACK requirement suppressed; IPMI-over-LAN traffic carries its own
// correlation and never uses RMCP-level acknowledgement.
func NewRMCPForIPMI() *RMCP {
	return &RMCP{Version: RMCPVersion, Sequence: rmcpSeqNoAck, Class: RMCPClassIPMI}
}

// NewRMCPAck builds an ACK envelope replying to seq.
func NewRMCPAck(seq uint8) *RMCP {
	return &RMCP{Version: RMCPVersion, Sequence: seq, Class: RMCPClassASF | rmcpClassAckBit}
}

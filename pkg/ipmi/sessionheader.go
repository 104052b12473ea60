package ipmi

import (
	"encoding/binary"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	sessionHeaderSizeNoAuth = 10 // auth-type + seq(4) + id(4) + payload-length
	sessionHeaderSizeAuth   = sessionHeaderSizeNoAuth + 16
)

// SessionHeader is the IPMI v1.5 session layer header: authentication
// type, session sequence number, session id, an optional 16-byte
// authentication code, and the payload length of the following Message.
type SessionHeader struct {
	layers.BaseLayer

	AuthType      AuthType
	Sequence      uint32
	SessionID     uint32
	AuthCode      [16]byte
	PayloadLength uint8
}

func (*SessionHeader) LayerType() gopacket.LayerType    { return LayerTypeSessionHeader }
func (s *SessionHeader) CanDecode() gopacket.LayerClass { return LayerTypeSessionHeader }
func (s *SessionHeader) NextLayerType() gopacket.LayerType {
	return LayerTypeMessage
}

func (s *SessionHeader) headerSize() int {
	if s.AuthType == AuthTypeNone {
		return sessionHeaderSizeNoAuth
	}
	return sessionHeaderSizeAuth
}

func (s *SessionHeader) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < sessionHeaderSizeNoAuth {
		df.SetTruncated()
		return &DecodeError{Reason: ReasonBadLength, Detail: fmt.Sprintf("session header needs %d bytes, got %d", sessionHeaderSizeNoAuth, len(data))}
	}
	s.AuthType = AuthType(data[0])
	s.Sequence = binary.LittleEndian.Uint32(data[1:5])
	s.SessionID = binary.LittleEndian.Uint32(data[5:9])

	size := s.headerSize()
	if len(data) < size {
		df.SetTruncated()
		return &DecodeError{Reason: ReasonBadLength, Detail: fmt.Sprintf("session header with auth needs %d bytes, got %d", size, len(data))}
	}
	if s.AuthType != AuthTypeNone {
		copy(s.AuthCode[:], data[9:25])
		s.PayloadLength = data[25]
	} else {
		s.PayloadLength = data[9]
	}
	s.BaseLayer = layers.BaseLayer{
		Contents: data[:size],
		Payload:  data[size:],
	}
	return nil
}

func (s *SessionHeader) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	size := s.headerSize()
	buf, err := b.PrependBytes(size)
	if err != nil {
		return err
	}
	buf[0] = uint8(s.AuthType)
	binary.LittleEndian.PutUint32(buf[1:5], s.Sequence)
	binary.LittleEndian.PutUint32(buf[5:9], s.SessionID)
	if s.AuthType != AuthTypeNone {
		copy(buf[9:25], s.AuthCode[:])
		buf[25] = s.PayloadLength
	} else {
		buf[9] = s.PayloadLength
	}
	return nil
}

func (s *SessionHeader) String() string {
	return fmt.Sprintf("SessionHeader{Auth:%v,Seq:%d,ID:%d,Len:%d}", s.AuthType, s.Sequence, s.SessionID, s.PayloadLength)
}

// AuthCodeFor computes the session authentication code for outbound traffic:
// none -> 16 zero bytes; password -> the right-padded 16-byte password;
// md5/md2 -> digest(session-id || password || payload || session-seq ||
// password).
func AuthCodeFor(authType AuthType, sessionID uint32, password []byte, payload []byte, sequence uint32) [16]byte {
	var code [16]byte
	switch authType {
	case AuthTypeNone:
	case AuthTypePassword:
		copy(code[:], password)
	case AuthTypeMD5:
		copy(code[:], md5AuthCode(sessionID, password, payload, sequence))
	case AuthTypeMD2:
		copy(code[:], md2AuthCode(sessionID, password, payload, sequence))
	}
	return code
}

package ipmi

import (
	"crypto/md5"
	"encoding/binary"

	"github.com/nwilkes/ipmibmc/internal/pkg/md2"
)

// md5AuthCode and md2AuthCode compute the IPMI v1.5 session authentication
// code: digest(session-id || password || payload || session-seq ||
// password).
func md5AuthCode(sessionID uint32, password, payload []byte, sequence uint32) []byte {
	h := md5.New()
	writeAuthInput(h, sessionID, password, payload, sequence)
	return h.Sum(nil)
}

func md2AuthCode(sessionID uint32, password, payload []byte, sequence uint32) []byte {
	h := md2.New()
	writeAuthInput(h, sessionID, password, payload, sequence)
	return h.Sum(nil)
}

type hashWriter interface {
	Write(p []byte) (int, error)
}

func writeAuthInput(h hashWriter, sessionID uint32, password, payload []byte, sequence uint32) {
	var idBuf, seqBuf [4]byte
	binary.LittleEndian.PutUint32(idBuf[:], sessionID)
	binary.LittleEndian.PutUint32(seqBuf[:], sequence)

	var pw [16]byte
	copy(pw[:], password)

	h.Write(idBuf[:])
	h.Write(pw[:])
	h.Write(payload)
	h.Write(seqBuf[:])
	h.Write(pw[:])
}

package ipmi

import (
	"testing"

	"github.com/google/gopacket"
)

func TestSessionHeaderRoundTripNoAuth(t *testing.T) {
	want := &SessionHeader{AuthType: AuthTypeNone, Sequence: 7, SessionID: 0, PayloadLength: 9}
	buf := gopacket.NewSerializeBuffer()
	if err := want.SerializeTo(buf, gopacket.SerializeOptions{}); err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if len(buf.Bytes()) != sessionHeaderSizeNoAuth {
		t.Fatalf("serialized length = %d, want %d", len(buf.Bytes()), sessionHeaderSizeNoAuth)
	}

	got := &SessionHeader{}
	if err := got.DecodeFromBytes(buf.Bytes(), gopacket.NilDecodeFeedback); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.AuthType != want.AuthType || got.Sequence != want.Sequence || got.PayloadLength != want.PayloadLength {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestSessionHeaderRoundTripWithAuth(t *testing.T) {
	want := &SessionHeader{AuthType: AuthTypeMD5, Sequence: 99, SessionID: 0xdeadbeef, PayloadLength: 12}
	copy(want.AuthCode[:], []byte("0123456789abcdef"))

	buf := gopacket.NewSerializeBuffer()
	if err := want.SerializeTo(buf, gopacket.SerializeOptions{}); err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if len(buf.Bytes()) != sessionHeaderSizeAuth {
		t.Fatalf("serialized length = %d, want %d", len(buf.Bytes()), sessionHeaderSizeAuth)
	}

	got := &SessionHeader{}
	if err := got.DecodeFromBytes(buf.Bytes(), gopacket.NilDecodeFeedback); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.SessionID != want.SessionID || got.AuthCode != want.AuthCode {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestSessionHeaderDecodeTooShort(t *testing.T) {
	h := &SessionHeader{}
	if err := h.DecodeFromBytes([]byte{0x02, 0x01}, gopacket.NilDecodeFeedback); err == nil {
		t.Fatal("expected error decoding truncated session header")
	}
}

func TestAuthCodeForNoneIsZero(t *testing.T) {
	code := AuthCodeFor(AuthTypeNone, 1, []byte("secret"), []byte("payload"), 1)
	var zero [16]byte
	if code != zero {
		t.Fatalf("expected zero auth code for AuthTypeNone, got %x", code)
	}
}

func TestAuthCodeForPasswordIsPaddedPassword(t *testing.T) {
	code := AuthCodeFor(AuthTypePassword, 1, []byte("secret"), []byte("payload"), 1)
	var want [16]byte
	copy(want[:], []byte("secret"))
	if code != want {
		t.Fatalf("got %x, want %x", code, want)
	}
}

func TestAuthCodeForMD5DiffersOnSessionID(t *testing.T) {
	a := AuthCodeFor(AuthTypeMD5, 1, []byte("secret"), []byte("payload"), 1)
	b := AuthCodeFor(AuthTypeMD5, 2, []byte("secret"), []byte("payload"), 1)
	if a == b {
		t.Fatal("expected different digests for different session IDs")
	}
}

func TestAuthCodeForMD5Deterministic(t *testing.T) {
	a := AuthCodeFor(AuthTypeMD5, 1, []byte("secret"), []byte("payload"), 1)
	b := AuthCodeFor(AuthTypeMD5, 1, []byte("secret"), []byte("payload"), 1)
	if a != b {
		t.Fatal("expected identical inputs to produce identical digests")
	}
}

func TestAuthCodeForMD2Deterministic(t *testing.T) {
	a := AuthCodeFor(AuthTypeMD2, 1, []byte("secret"), []byte("payload"), 1)
	b := AuthCodeFor(AuthTypeMD2, 1, []byte("secret"), []byte("payload"), 1)
	if a != b {
		t.Fatal("expected identical inputs to produce identical digests")
	}
	if a == AuthCodeFor(AuthTypeMD5, 1, []byte("secret"), []byte("payload"), 1) {
		t.Fatal("md2 and md5 should not coincidentally produce the same digest")
	}
}

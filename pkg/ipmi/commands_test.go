package ipmi

import (
	"encoding/binary"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAuthTypeSupportSupports(t *testing.T) {
	s := AuthTypeSupportMD5 | AuthTypeSupportNone
	if !s.Supports(AuthTypeMD5) {
		t.Fatal("expected md5 to be supported")
	}
	if s.Supports(AuthTypeMD2) {
		t.Fatal("md2 should not be supported")
	}
}

func TestDecodeGetChannelAuthenticationCapabilitiesResponse(t *testing.T) {
	data := []byte{0x01, uint8(AuthTypeSupportMD5 | AuthTypeSupportNone), 0x03, 0, 0, 0, 0, 0}
	r, err := DecodeGetChannelAuthenticationCapabilitiesResponse(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := &GetChannelAuthenticationCapabilitiesResponse{
		Channel:               1,
		AuthTypeSupport:       AuthTypeSupportMD5 | AuthTypeSupportNone,
		AnonymousLoginEnabled: true,
		NullUsernameEnabled:   true,
	}
	if diff := cmp.Diff(want, r); diff != "" {
		t.Fatalf("unexpected response (-want +got):\n%s", diff)
	}
}

func TestEncodeDecodeGetSessionChallenge(t *testing.T) {
	username := [16]byte{}
	copy(username[:], "admin")
	req := EncodeGetSessionChallengeRequest(AuthTypeMD5, username)
	if req[0] != uint8(AuthTypeMD5) {
		t.Fatalf("request auth type = 0x%02x", req[0])
	}

	resp := make([]byte, 20)
	binary.LittleEndian.PutUint32(resp[0:4], 0xcafebabe)
	for i := range resp[4:20] {
		resp[4+i] = byte(i)
	}
	got, err := DecodeGetSessionChallengeResponse(resp)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.TemporarySessionID != 0xcafebabe {
		t.Fatalf("TemporarySessionID = 0x%x", got.TemporarySessionID)
	}
}

func TestEncodeDecodeActivateSession(t *testing.T) {
	var challenge [16]byte
	copy(challenge[:], "0123456789abcdef")
	req := EncodeActivateSessionRequest(AuthTypeMD5, PrivilegeLevelOperator, challenge, 0x1337)
	if len(req) != 22 {
		t.Fatalf("request length = %d, want 22", len(req))
	}

	resp := make([]byte, 10)
	resp[0] = uint8(AuthTypeMD5)
	binary.LittleEndian.PutUint32(resp[1:5], 0x1000)
	binary.LittleEndian.PutUint32(resp[5:9], 0x2000)
	resp[9] = uint8(PrivilegeLevelOperator)

	got, err := DecodeActivateSessionResponse(resp)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.SessionID != 0x1000 || got.InitialInboundSeq != 0x2000 || got.PrivilegeLevel != PrivilegeLevelOperator {
		t.Fatalf("got %+v", got)
	}
}

func TestDecodeReadFRUDataResponseClampsToAvailable(t *testing.T) {
	data := []byte{10, 0x01, 0x02, 0x03} // claims 10 bytes but only 3 follow
	got, err := DecodeReadFRUDataResponse(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d bytes, want 3", len(got))
	}
}

func TestGetSELEntryRequestReadsWholeRecord(t *testing.T) {
	req := EncodeGetSELEntryRequest(0x1234, SELFirstRecordID)
	if req[5] != 0xff {
		t.Fatalf("count byte = 0x%02x, want 0xff (whole record)", req[5])
	}
}

func TestDecodeGetSELEntryResponseNextRecordID(t *testing.T) {
	data := make([]byte, 2+16)
	binary.LittleEndian.PutUint16(data[0:2], SELLastRecordID)
	copy(data[2:], buildSELEntry(5, 10, 1, 1))

	r, err := DecodeGetSELEntryResponse(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r.NextRecordID != SELLastRecordID {
		t.Fatalf("NextRecordID = 0x%04x, want 0x%04x", r.NextRecordID, SELLastRecordID)
	}
	if r.Entry == nil || r.Entry.RecordID != 5 {
		t.Fatalf("Entry = %+v", r.Entry)
	}
}

func TestEncodeClearSELRequestMarkers(t *testing.T) {
	req := EncodeClearSELRequest(0x0042, true)
	if string(req[2:5]) != "CLR" {
		t.Fatalf("marker bytes = %q, want CLR", req[2:5])
	}
	if req[5] != 0xaa {
		t.Fatalf("initiate byte = 0x%02x, want 0xaa", req[5])
	}
}

func TestDecodeChassisStatusResponse(t *testing.T) {
	data := []byte{0x01 | 0x04, 0x02, 0x01}
	s, err := DecodeChassisStatusResponse(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := &ChassisStatusResponse{
		PowerOn:          true,
		Interlock:        true,
		LastPowerEvent:   0x02,
		ChassisIntrusion: true,
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Fatalf("unexpected response (-want +got):\n%s", diff)
	}
}

func TestDecodeGetFRUInventoryAreaInfoResponse(t *testing.T) {
	data := []byte{0x20, 0x00, 0x01}
	r, err := DecodeGetFRUInventoryAreaInfoResponse(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r.AreaSizeUnits != 0x20 || !r.AccessedByWords {
		t.Fatalf("got %+v", r)
	}
}

package ipmi

import (
	"testing"

	"github.com/google/gopacket"
)

var serializeOpts = gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}

func TestMessageRoundTripRequest(t *testing.T) {
	want := &Message{
		Operation:     OperationGetDeviceIDReq,
		RemoteAddress: AddressBMC,
		LocalAddress:  AddressRemoteConsole,
		Sequence:      12,
	}
	buf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf, serializeOpts, want, gopacket.Payload(nil)); err != nil {
		t.Fatalf("serialize: %v", err)
	}

	got := &Message{}
	if err := got.DecodeFromBytes(buf.Bytes(), gopacket.NilDecodeFeedback); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Function != want.Function || got.Command != want.Command || got.Sequence != want.Sequence {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	if got.RemoteAddress != want.RemoteAddress || got.LocalAddress != want.LocalAddress {
		t.Fatalf("address mismatch: got %+v, want %+v", got, want)
	}
}

func TestMessageRoundTripResponseWithPayload(t *testing.T) {
	msg := &Message{
		Operation:      OperationGetDeviceIDRsp,
		RemoteAddress:  AddressRemoteConsole,
		LocalAddress:   AddressBMC,
		Sequence:       3,
		CompletionCode: CompletionCodeNormal,
	}
	payload := []byte{0x01, 0x02, 0x03, 0x04}

	buf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf, serializeOpts, msg, gopacket.Payload(payload)); err != nil {
		t.Fatalf("serialize: %v", err)
	}

	got := &Message{}
	if err := got.DecodeFromBytes(buf.Bytes(), gopacket.NilDecodeFeedback); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.CompletionCode != CompletionCodeNormal {
		t.Fatalf("CompletionCode = %v, want normal", got.CompletionCode)
	}
	if string(got.Payload) != string(payload) {
		t.Fatalf("payload = %x, want %x", got.Payload, payload)
	}
}

func TestMessageDecodeBadChecksum1(t *testing.T) {
	data := []byte{0x20, 0x18, 0x00, 0x81, 0x0c, 0x01, 0x00}
	m := &Message{}
	if err := m.DecodeFromBytes(data, gopacket.NilDecodeFeedback); err == nil {
		t.Fatal("expected checksum1 error")
	}
}

func TestMessageNonNormalCompletionCodeStopsDecode(t *testing.T) {
	msg := &Message{
		Operation:      OperationGetDeviceIDRsp,
		RemoteAddress:  AddressRemoteConsole,
		LocalAddress:   AddressBMC,
		CompletionCode: CompletionCodeInsufficientPrivilege,
	}
	if msg.NextLayerType() != gopacket.LayerTypePayload {
		t.Fatalf("expected non-normal completion code to route to raw payload")
	}
}

func TestChecksumSelfInverse(t *testing.T) {
	data := []byte{0x20, 0x18}
	c := checksum(data)
	if checksum(append(append([]byte(nil), data...), c)) != 0 {
		t.Fatal("checksum + its own complement should sum to zero")
	}
}

package bmc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/google/gopacket"

	"github.com/nwilkes/ipmibmc/pkg/ipmi"
)

// fakeASFResponder listens on a loopback UDP port and answers the first ASF
// ping it receives with a pong carrying the given supported-entities byte.
// Before the pong it sends a bare RMCP ACK, which the prober must ignore and
// keep waiting through. The frame the prober sends back after the pong (its
// ACK) is delivered on the returned channel.
func fakeASFResponder(t *testing.T, supportedEntities uint8) (port uint16, gotAck <-chan []byte) {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	ackC := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 512)
		n, raddr, err := conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		rmcp := &ipmi.RMCP{}
		if err := rmcp.DecodeFromBytes(buf[:n], gopacket.NilDecodeFeedback); err != nil {
			t.Errorf("responder: decode rmcp: %v", err)
			return
		}
		asf := &ipmi.ASF{}
		if err := asf.DecodeFromBytes(rmcp.Payload, gopacket.NilDecodeFeedback); err != nil {
			t.Errorf("responder: decode asf: %v", err)
			return
		}
		if asf.MessageType != ipmi.ASFMessageTypePing {
			t.Errorf("responder: got %v, want a ping", asf.MessageType)
			return
		}

		ackBuf := gopacket.NewSerializeBuffer()
		if err := gopacket.SerializeLayers(ackBuf, serializeOptions, ipmi.NewRMCPAck(0)); err == nil {
			conn.WriteToUDP(ackBuf.Bytes(), raddr)
		}

		pongBuf := gopacket.NewSerializeBuffer()
		err = gopacket.SerializeLayers(pongBuf, serializeOptions,
			&ipmi.RMCP{Version: ipmi.RMCPVersion, Sequence: 1, Class: ipmi.RMCPClassASF},
			&ipmi.ASF{
				MessageType:           ipmi.ASFMessageTypePong,
				MessageTag:            asf.MessageTag,
				PongSupportedEntities: supportedEntities,
			})
		if err != nil {
			t.Errorf("responder: encode pong: %v", err)
			return
		}
		if _, err := conn.WriteToUDP(pongBuf.Bytes(), raddr); err != nil {
			return
		}

		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		n, _, err = conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		frame := make([]byte, n)
		copy(frame, buf[:n])
		ackC <- frame
	}()

	return uint16(conn.LocalAddr().(*net.UDPAddr).Port), ackC
}

func TestPingReachable(t *testing.T) {
	port, gotAck := fakeASFResponder(t, 0x81)

	if !ping(context.Background(), Target{Host: "127.0.0.1", Port: port}, 2*time.Second) {
		t.Fatal("ping = false, want true for a pong advertising IPMI")
	}

	select {
	case frame := <-gotAck:
		rmcp := &ipmi.RMCP{}
		if err := rmcp.DecodeFromBytes(frame, gopacket.NilDecodeFeedback); err != nil {
			t.Fatalf("decode ack: %v", err)
		}
		if !rmcp.IsAck() {
			t.Fatalf("prober replied with %v, want an RMCP ACK", rmcp)
		}
		if rmcp.Sequence != 1 {
			t.Fatalf("ack sequence = %d, want 1 (mirroring the pong)", rmcp.Sequence)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("prober never acked the pong")
	}
}

func TestPingIPMIUnsupported(t *testing.T) {
	port, _ := fakeASFResponder(t, 0x01)

	if ping(context.Background(), Target{Host: "127.0.0.1", Port: port}, 2*time.Second) {
		t.Fatal("ping = true, want false for a pong without IPMI support")
	}
}

func TestPingTimesOut(t *testing.T) {
	// A listener that never answers: ping must report false, not hang.
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer conn.Close()
	port := uint16(conn.LocalAddr().(*net.UDPAddr).Port)

	if ping(context.Background(), Target{Host: "127.0.0.1", Port: port}, 100*time.Millisecond) {
		t.Fatal("ping = true, want false on timeout")
	}
}

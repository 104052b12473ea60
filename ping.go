package bmc

import (
	"context"
	"time"

	"github.com/google/gopacket"

	"github.com/nwilkes/ipmibmc/internal/pkg/transport"
	"github.com/nwilkes/ipmibmc/pkg/ipmi"
)

// Ping performs RMCP ASF discovery against host:623: it opens a transient
// UDP endpoint, sends a single ASF ping, ignores any
// RMCP ACKs it receives while waiting, accepts the first ASF pong carrying
// the ping's message tag, replies
// with an RMCP ACK, and reports whether the pong's supported-entities byte
// indicates IPMI support. Any error or timeout reports false rather than
// an error, matching the discovery probe's best-effort nature.
func Ping(ctx context.Context, host string, timeout time.Duration) bool {
	return ping(ctx, Target{Host: host, Port: defaultPort}, timeout)
}

func ping(ctx context.Context, target Target, timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	tp, err := transport.New(ctx, target.addr())
	if err != nil {
		return false
	}
	defer tp.Close()

	tag := uint8(time.Now().UnixNano())
	pingBuf := gopacket.NewSerializeBuffer()
	pingFrame := &ipmi.RMCP{Version: ipmi.RMCPVersion, Sequence: 0xff, Class: ipmi.RMCPClassASF}
	if err := gopacket.SerializeLayers(pingBuf, serializeOptions, pingFrame, ipmi.NewASFPing(tag)); err != nil {
		return false
	}
	if err := tp.Send(pingBuf.Bytes()); err != nil {
		return false
	}

	deadline, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	want := tp.RemoteAddr()
	for {
		data, from, err := tp.Receive(deadline)
		if err != nil {
			return false
		}
		if !sameRemote(from, want) {
			continue
		}
		rmcp := &ipmi.RMCP{}
		if err := rmcp.DecodeFromBytes(data, gopacket.NilDecodeFeedback); err != nil {
			continue
		}
		if rmcp.Class.Type() != ipmi.RMCPClassASF {
			continue
		}
		if rmcp.IsAck() {
			continue
		}
		asf := &ipmi.ASF{}
		if err := asf.DecodeFromBytes(rmcp.Payload, gopacket.NilDecodeFeedback); err != nil {
			continue
		}
		if asf.MessageType != ipmi.ASFMessageTypePong || asf.MessageTag != tag {
			continue
		}

		if rmcp.RequiresAck() {
			ackBuf := gopacket.NewSerializeBuffer()
			if err := gopacket.SerializeLayers(ackBuf, serializeOptions, ipmi.NewRMCPAck(rmcp.Sequence)); err == nil {
				tp.Send(ackBuf.Bytes())
			}
		}
		return asf.SupportsIPMI()
	}
}

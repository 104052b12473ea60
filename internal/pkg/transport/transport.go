// Package transport implements the UDP endpoint a Session owns: one
// ephemeral-port socket per session, framed send/receive, and a retrying
// bind.
package transport

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// maxDatagramSize is comfortably larger than any RMCP/IPMI v1.5 datagram
// this library emits or expects to receive; IPMI LAN messages top out
// around 38 bytes of payload plus framing, so this leaves generous room
// for well-behaved and not-so-well-behaved BMCs alike.
const maxDatagramSize = 8192

// Transport is the UDP endpoint abstraction a Session drives. A Session
// calls Receive from one goroutine at a time, while Send is called from
// other goroutines concurrently with it.
type Transport interface {
	// Send writes a single datagram to the remote target.
	Send(data []byte) error
	// Receive blocks until a datagram arrives, ctx is cancelled, or an I/O
	// error occurs. It reports the address the datagram actually arrived
	// from, so callers can reject spoofed replies.
	Receive(ctx context.Context) (data []byte, from net.Addr, err error)
	// LocalAddr reports the transport's bound local address.
	LocalAddr() net.Addr
	// RemoteAddr reports the resolved address every Send is written to,
	// so callers can reject datagrams that did not actually arrive from it.
	RemoteAddr() net.Addr
	// Close releases the underlying socket.
	Close() error
}

type udpTransport struct {
	conn  *net.UDPConn
	raddr *net.UDPAddr
}

// New binds an ephemeral local UDP port and resolves addr (host:port) as
// the destination of every Send. The socket is not connected, so Receive
// sees datagrams from any source. Binding retries with an exponential backoff to ride out a transient
// "address already in use" on busy hosts; it gives up once the backoff is
// exhausted.
func New(ctx context.Context, addr string) (Transport, error) {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("bmc/transport: resolve %q: %w", addr, err)
	}

	var conn *net.UDPConn
	op := func() error {
		c, err := net.ListenUDP("udp", &net.UDPAddr{Port: 0})
		if err != nil {
			return err
		}
		conn = c
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return nil, fmt.Errorf("bmc/transport: bind ephemeral port: %w", err)
	}

	if err := conn.SetReadBuffer(maxDatagramSize); err != nil {
		conn.Close()
		return nil, fmt.Errorf("bmc/transport: set read buffer: %w", err)
	}

	return &udpTransport{conn: conn, raddr: raddr}, nil
}

func (t *udpTransport) Send(data []byte) error {
	_, err := t.conn.WriteToUDP(data, t.raddr)
	return err
}

func (t *udpTransport) Receive(ctx context.Context) ([]byte, net.Addr, error) {
	if deadline, ok := ctx.Deadline(); ok {
		t.conn.SetReadDeadline(deadline)
	} else {
		t.conn.SetReadDeadline(time.Time{})
	}
	if done := ctx.Done(); done != nil {
		stop := make(chan struct{})
		defer close(stop)
		go func() {
			select {
			case <-done:
				t.conn.SetReadDeadline(time.Now())
			case <-stop:
			}
		}()
	}
	buf := make([]byte, maxDatagramSize)
	n, from, err := t.conn.ReadFromUDP(buf)
	if err != nil {
		return nil, nil, err
	}
	return buf[:n], from, nil
}

func (t *udpTransport) LocalAddr() net.Addr {
	return t.conn.LocalAddr()
}

func (t *udpTransport) RemoteAddr() net.Addr {
	return t.raddr
}

func (t *udpTransport) Close() error {
	return t.conn.Close()
}

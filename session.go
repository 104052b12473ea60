package bmc

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/gopacket"

	"github.com/nwilkes/ipmibmc/internal/pkg/registry"
	"github.com/nwilkes/ipmibmc/internal/pkg/transport"
	"github.com/nwilkes/ipmibmc/pkg/ipmi"
)

// replayWindow bounds how far behind the highest session sequence number
// seen so far an inbound datagram may be before it is rejected as a
// replay. 8 covers reordering on a LAN path without opening a wide replay
// surface.
const replayWindow = 8

var sessionTagCounter uint64

func nextSessionTag() uint64 {
	return atomic.AddUint64(&sessionTagCounter, 1)
}

type datagram struct {
	data []byte
}

// Session is one established IPMI v1.5 session with a BMC. Once Open
// returns, the session is Active and Request (and the typed helpers built
// on it) may be called concurrently from any number of goroutines; a
// single internal loop goroutine owns the socket and the pending-request
// registry.
type Session struct {
	target     Target
	opts       SessionOpts
	transport  transport.Transport
	remoteAddr net.Addr
	registry   *registry.Registry
	handle     SessionHandle

	sm SessionStateMachine

	authType  ipmi.AuthType
	password  []byte
	sessionID uint32

	outboundSessionSeq uint32 // atomic
	maxSeenInboundSeq  uint32 // owned by loop's goroutine only

	inbound    chan datagram
	inboundErr chan error
	closeReq   chan chan error
	closed     chan struct{}

	wg sync.WaitGroup
}

// SessionStateMachine is an exported alias so callers inspecting a Session
// via reflection-free means still see a named type in stack traces; the
// behavior lives in stateMachine.
type SessionStateMachine = stateMachine

// Open performs RMCP discovery-free session establishment against host (a
// name or IP without a port; the UDP port is SessionOpts.Port) per the
// sequential four-step handshake: Get Channel Authentication
// Capabilities, Get Session Challenge, Activate
// Session, Set Session Privilege Level. Each step is a single in-flight
// request/response exchange, so setup does not use the Registry or the
// Active-phase loop at all; those only start once the session reaches
// PhaseActive.
func Open(ctx context.Context, host string, opts SessionOpts) (*Session, error) {
	sessionOpenAttempts.Inc()
	opts = opts.withDefaults()
	target := Target{Host: host, Port: opts.Port}

	tp, err := transport.New(ctx, target.addr())
	if err != nil {
		sessionOpenFailures.WithLabelValues(PhaseClosed.String()).Inc()
		return nil, &TransportError{Err: err}
	}

	s := &Session{
		target:     target,
		opts:       opts,
		transport:  tp,
		remoteAddr: tp.RemoteAddr(),
		registry:   registry.New(),
		password:   opts.Password,
		inbound:    make(chan datagram, 16),
		inboundErr: make(chan error, 1),
		closeReq:   make(chan chan error),
		closed:     make(chan struct{}),
	}

	if err := s.handshake(ctx); err != nil {
		tp.Close()
		return nil, err
	}

	s.handle = SessionHandle{Target: target, tag: nextSessionTag()}
	registerSession(s)

	s.wg.Add(2)
	go s.recvLoop()
	go s.loop()

	globalBus.publish(Event{Type: EventEstablished, Handle: s.handle})
	return s, nil
}

func chooseAuthType(support ipmi.AuthTypeSupport) ipmi.AuthType {
	switch {
	case support.Supports(ipmi.AuthTypeMD5):
		return ipmi.AuthTypeMD5
	case support.Supports(ipmi.AuthTypeMD2):
		return ipmi.AuthTypeMD2
	case support.Supports(ipmi.AuthTypePassword):
		return ipmi.AuthTypePassword
	default:
		return ipmi.AuthTypeNone
	}
}

func (s *Session) handshake(ctx context.Context) error {
	if err := s.sm.transition(PhaseAuthCap); err != nil {
		return err
	}
	capPayload := ipmi.EncodeGetChannelAuthenticationCapabilitiesRequest(s.opts.PrivilegeLevel)
	capResp, err := s.doSetupRequest(ctx, PhaseAuthCap,
		ipmi.OperationGetChannelAuthenticationCapabilitiesReq, ipmi.OperationGetChannelAuthenticationCapabilitiesRsp,
		capPayload, ipmi.AuthTypeNone, 0, 0)
	if err != nil {
		sessionOpenFailures.WithLabelValues(PhaseAuthCap.String()).Inc()
		return err
	}
	caps, err := ipmi.DecodeGetChannelAuthenticationCapabilitiesResponse(capResp)
	if err != nil {
		sessionOpenFailures.WithLabelValues(PhaseAuthCap.String()).Inc()
		return &AuthError{Step: PhaseAuthCap, Err: err}
	}
	authType := chooseAuthType(caps.AuthTypeSupport)

	if err := s.sm.transition(PhaseChallengeReq); err != nil {
		return err
	}
	challPayload := ipmi.EncodeGetSessionChallengeRequest(authType, s.opts.paddedUsername())
	challResp, err := s.doSetupRequest(ctx, PhaseChallengeReq,
		ipmi.OperationGetSessionChallengeReq, ipmi.OperationGetSessionChallengeRsp,
		challPayload, ipmi.AuthTypeNone, 0, 0)
	if err != nil {
		sessionOpenFailures.WithLabelValues(PhaseChallengeReq.String()).Inc()
		return err
	}
	chall, err := ipmi.DecodeGetSessionChallengeResponse(challResp)
	if err != nil {
		sessionOpenFailures.WithLabelValues(PhaseChallengeReq.String()).Inc()
		return &AuthError{Step: PhaseChallengeReq, Err: err}
	}

	if err := s.sm.transition(PhaseActivateReq); err != nil {
		return err
	}
	actPayload := ipmi.EncodeActivateSessionRequest(authType, s.opts.PrivilegeLevel, chall.Challenge, s.opts.InitialOutboundSequence)
	actResp, err := s.doSetupRequest(ctx, PhaseActivateReq,
		ipmi.OperationActivateSessionReq, ipmi.OperationActivateSessionRsp,
		actPayload, authType, chall.TemporarySessionID, 0)
	if err != nil {
		sessionOpenFailures.WithLabelValues(PhaseActivateReq.String()).Inc()
		return err
	}
	act, err := ipmi.DecodeActivateSessionResponse(actResp)
	if err != nil {
		sessionOpenFailures.WithLabelValues(PhaseActivateReq.String()).Inc()
		return &AuthError{Step: PhaseActivateReq, Err: err}
	}
	s.authType = act.AuthType
	s.sessionID = act.SessionID
	s.outboundSessionSeq = s.opts.InitialOutboundSequence
	s.maxSeenInboundSeq = act.InitialInboundSeq

	if err := s.sm.transition(PhaseSetPriv); err != nil {
		return err
	}
	privPayload := ipmi.EncodeSetSessionPrivilegeLevelRequest(s.opts.PrivilegeLevel)
	seq := atomic.AddUint32(&s.outboundSessionSeq, 1)
	if _, err := s.doSetupRequest(ctx, PhaseSetPriv,
		ipmi.OperationSetSessionPrivilegeLevelReq, ipmi.OperationSetSessionPrivilegeLevelRsp,
		privPayload, s.authType, s.sessionID, seq); err != nil {
		sessionOpenFailures.WithLabelValues(PhaseSetPriv.String()).Inc()
		return err
	}

	return s.sm.transition(PhaseActive)
}

// doSetupRequest sends one setup-phase request and blocks for its matching
// response, ignoring any unrelated datagram that arrives in the meantime
// (e.g. a straggler from a previous, abandoned Open attempt against the
// same target). Setup never has more than one outstanding request, so it
// bypasses the Registry entirely.
func (s *Session) doSetupRequest(ctx context.Context, phase SessionPhase, reqOp, rspOp ipmi.Operation, payload []byte, authType ipmi.AuthType, sessionID uint32, sessionSeq uint32) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	frame, err := s.encodeFrame(reqOp, authType, sessionID, 0, sessionSeq, payload)
	if err != nil {
		return nil, &AuthError{Step: phase, Err: err}
	}
	if err := s.transport.Send(frame); err != nil {
		return nil, &AuthError{Step: phase, Err: &TransportError{Err: err}}
	}
	requestsSent.Inc()

	for {
		data, from, err := s.transport.Receive(reqCtx)
		if err != nil {
			return nil, &AuthError{Step: phase, Err: ErrTimeout}
		}
		if !sameRemote(from, s.remoteAddr) {
			s.reportDecodeError(&ipmi.DecodeError{Reason: ipmi.ReasonUnexpectedSource})
			continue
		}
		msg, _, ok := s.decodeFrame(data)
		if !ok {
			continue
		}
		if msg.Operation != rspOp {
			continue
		}
		if msg.CompletionCode != ipmi.CompletionCodeNormal {
			return nil, &AuthError{Step: phase, Err: &BMCError{Code: msg.CompletionCode}}
		}
		return msg.Payload, nil
	}
}

// encodeFrame builds a complete RMCP+session+message wire frame. The
// session header's authentication code depends on the already-serialized
// message bytes, so the message and its payload are serialized first, the
// auth code computed over that, and only then is the
// full frame serialized in a second pass.
func (s *Session) encodeFrame(op ipmi.Operation, authType ipmi.AuthType, sessionID uint32, seq uint8, sessionSeq uint32, payload []byte) ([]byte, error) {
	msg := &ipmi.Message{
		Operation:     op,
		RemoteAddress: ipmi.AddressBMC,
		LocalAddress:  s.opts.RequestorAddress,
		Sequence:      seq,
	}
	msgBuf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(msgBuf, serializeOptions, msg, gopacket.Payload(payload)); err != nil {
		return nil, fmt.Errorf("bmc: encode message: %w", err)
	}
	messageBytes := msgBuf.Bytes()

	header := &ipmi.SessionHeader{
		AuthType:      authType,
		Sequence:      sessionSeq,
		SessionID:     sessionID,
		AuthCode:      ipmi.AuthCodeFor(authType, sessionID, s.password, messageBytes, sessionSeq),
		PayloadLength: uint8(len(messageBytes)),
	}

	frameBuf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(frameBuf, serializeOptions, ipmi.NewRMCPForIPMI(), header, gopacket.Payload(messageBytes)); err != nil {
		return nil, fmt.Errorf("bmc: encode frame: %w", err)
	}
	return frameBuf.Bytes(), nil
}

// decodeFrame decodes an inbound datagram as far as the Message layer,
// bypassing gopacket.NewPacket/PacketBuilder: every caller here already
// knows, from context (a pending setup step, or a registry entry), which
// command the response belongs to, so there is no need to build a full
// gopacket.Packet and its layer index just to hand the caller a *Message.
// ok is false for anything that is not a well-formed IPMI session datagram
// for this session (ASF traffic, garbage, or a frame for a different
// session ID sharing the same UDP port).
func (s *Session) decodeFrame(data []byte) (msg *ipmi.Message, header *ipmi.SessionHeader, ok bool) {
	rmcp := &ipmi.RMCP{}
	if err := rmcp.DecodeFromBytes(data, gopacket.NilDecodeFeedback); err != nil {
		s.reportDecodeError(err)
		return nil, nil, false
	}
	if rmcp.Class.Type() != ipmi.RMCPClassIPMI {
		return nil, nil, false
	}
	header = &ipmi.SessionHeader{}
	if err := header.DecodeFromBytes(rmcp.Payload, gopacket.NilDecodeFeedback); err != nil {
		s.reportDecodeError(err)
		return nil, nil, false
	}
	msg = &ipmi.Message{}
	if err := msg.DecodeFromBytes(header.Payload, gopacket.NilDecodeFeedback); err != nil {
		s.reportDecodeError(err)
		return nil, nil, false
	}
	return msg, header, true
}

func (s *Session) reportDecodeError(err error) {
	reason := "decode_error"
	if de, ok := err.(*ipmi.DecodeError); ok {
		reason = de.Reason
	}
	decodeErrors.WithLabelValues(reason).Inc()
	globalBus.publish(Event{Type: EventDecodeError, Handle: s.handle, Reason: reason})
}

// recvLoop is the only goroutine that reads the socket. It hands each
// datagram to loop over a channel rather than decoding inline, keeping all
// session state mutation (the registry, maxSeenInboundSeq, the state
// machine) on loop's single goroutine.
func (s *Session) recvLoop() {
	defer s.wg.Done()
	for {
		data, from, err := s.transport.Receive(context.Background())
		if err != nil {
			select {
			case s.inboundErr <- err:
			case <-s.closed:
			}
			return
		}
		if !sameRemote(from, s.remoteAddr) {
			s.reportDecodeError(&ipmi.DecodeError{Reason: ipmi.ReasonUnexpectedSource})
			continue
		}
		cp := make([]byte, len(data))
		copy(cp, data)
		select {
		case s.inbound <- datagram{data: cp}:
		case <-s.closed:
			return
		}
	}
}

// loop owns the registry and the session's sequence-number state for the
// Active phase. It demultiplexes inbound responses to their waiting
// Request caller, fires per-request timeouts off the registry's
// deadline-ordered heap, and tears the session down on a transport error
// or a Close call.
func (s *Session) loop() {
	defer s.wg.Done()
	defer close(s.closed)
	for {
		var timer *time.Timer
		var timerC <-chan time.Time
		if d, ok := s.registry.NextDeadline(); ok {
			timer = time.NewTimer(time.Until(d))
			timerC = timer.C
		}

		select {
		case d := <-s.inbound:
			s.handleDatagram(d)
		case err := <-s.inboundErr:
			stopTimer(timer)
			s.teardown(&TransportError{Err: err})
			return
		case <-timerC:
			for _, seq := range s.registry.ExpireDue(time.Now(), ErrTimeout) {
				requestsTimedOut.Inc()
				globalBus.publish(Event{Type: EventRequestTimeout, Handle: s.handle, Seq: seq})
			}
		case reply := <-s.closeReq:
			stopTimer(timer)
			s.teardownGraceful()
			reply <- nil
			return
		}
		stopTimer(timer)
	}
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}

func (s *Session) handleDatagram(d datagram) {
	msg, header, ok := s.decodeFrame(d.data)
	if !ok {
		return
	}
	if header.SessionID != s.sessionID {
		return
	}
	if !s.acceptSessionSequence(header.Sequence) {
		return
	}

	res := registry.Result{Data: msg.Payload}
	if msg.CompletionCode != ipmi.CompletionCodeNormal {
		res = registry.Result{Err: &BMCError{Code: msg.CompletionCode}}
	}
	requestsCompleted.WithLabelValues(msg.CompletionCode.Mnemonic()).Inc()
	if !s.registry.Resolve(msg.Sequence, res) {
		globalBus.publish(Event{Type: EventNoRequestor, Handle: s.handle, Seq: msg.Sequence, Decoded: msg})
	}
}

// sameRemote reports whether from is the same endpoint as want. Both sides
// are compared as *net.UDPAddr by IP and port when possible, since that is
// what every Transport in this tree returns; String() is the fallback for
// any other net.Addr implementation.
func sameRemote(from, want net.Addr) bool {
	if from == nil || want == nil {
		return false
	}
	fu, fok := from.(*net.UDPAddr)
	wu, wok := want.(*net.UDPAddr)
	if fok && wok {
		return fu.IP.Equal(wu.IP) && fu.Port == wu.Port
	}
	return from.String() == want.String()
}

// acceptSessionSequence implements the replay-rejection check: a session
// sequence number replayWindow or more behind the highest one seen so
// far is rejected as a replay. It is only ever called
// from loop's own goroutine, so maxSeenInboundSeq needs no locking.
func (s *Session) acceptSessionSequence(seq uint32) bool {
	if seq == 0 {
		return true
	}
	if seq+replayWindow <= s.maxSeenInboundSeq {
		return false
	}
	if seq > s.maxSeenInboundSeq {
		s.maxSeenInboundSeq = seq
	}
	return true
}

func (s *Session) teardown(cause error) {
	s.sm.transition(PhaseClosing)
	s.registry.CloseAll(registry.Result{Err: ErrNoSession})
	s.sm.transition(PhaseClosed)
	unregisterSession(s)
	s.transport.Close()
	reason := "transport error"
	if cause != nil {
		reason = cause.Error()
	}
	globalBus.publish(Event{Type: EventClosed, Handle: s.handle, Reason: reason})
}

func (s *Session) teardownGraceful() {
	s.sm.transition(PhaseClosing)
	closePayload := ipmi.EncodeCloseSessionRequest(s.sessionID)
	seq := atomic.AddUint32(&s.outboundSessionSeq, 1)
	if frame, err := s.encodeFrame(ipmi.OperationCloseSessionReq, s.authType, s.sessionID, 0, seq, closePayload); err == nil {
		s.transport.Send(frame)
	}
	s.registry.CloseAll(registry.Result{Err: ErrNoSession})
	s.sm.transition(PhaseClosed)
	unregisterSession(s)
	s.transport.Close()
	globalBus.publish(Event{Type: EventClosed, Handle: s.handle, Reason: "closed"})
}

// Close gracefully ends the session: it sends Close Session best-effort,
// fails every outstanding Request with ErrNoSession, and releases the
// transport.
func (s *Session) Close() error {
	reply := make(chan error, 1)
	select {
	case s.closeReq <- reply:
		<-reply
	case <-s.closed:
	}
	s.wg.Wait()
	return nil
}

// Handle returns the opaque (target, tag) identifying this Session.
func (s *Session) Handle() SessionHandle {
	return s.handle
}

// Request sends a single IPMI command on an Active session and blocks
// until its response is correlated, the deadline in ctx (or the session's
// configured Timeout, whichever is sooner) elapses, or the session is
// closed. It is safe to call concurrently from any number of goroutines;
// correlation is handled by the Registry keyed on the 6-bit requestor
// sequence number.
func (s *Session) Request(ctx context.Context, op ipmi.Operation, payload []byte) ([]byte, error) {
	if s.sm.current() != PhaseActive {
		return nil, ErrNoSession
	}

	deadline := time.Now().Add(s.opts.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	entry, ok := s.registry.Allocate(deadline)
	if !ok {
		return nil, fmt.Errorf("bmc: no free sequence numbers")
	}

	sessionSeq := atomic.AddUint32(&s.outboundSessionSeq, 1)
	frame, err := s.encodeFrame(op, s.authType, s.sessionID, entry.Seq, sessionSeq, payload)
	if err != nil {
		s.registry.Cancel(entry.Seq)
		return nil, err
	}
	if err := s.transport.Send(frame); err != nil {
		s.registry.Cancel(entry.Seq)
		return nil, &TransportError{Err: err}
	}
	requestsSent.Inc()

	select {
	case res := <-entry.Done:
		return res.Data, res.Err
	case <-ctx.Done():
		s.registry.Cancel(entry.Seq)
		return nil, ctx.Err()
	case <-s.closed:
		return nil, ErrNoSession
	}
}

// Raw issues op with payload and returns the response payload verbatim,
// for commands this package does not otherwise expose a typed wrapper for.
func (s *Session) Raw(ctx context.Context, op ipmi.Operation, payload []byte) ([]byte, error) {
	return s.Request(ctx, op, payload)
}

// GetDeviceID issues Get Device ID and returns the decoded response.
func (s *Session) GetDeviceID(ctx context.Context) (*ipmi.GetDeviceIDResponse, error) {
	data, err := s.Request(ctx, ipmi.OperationGetDeviceIDReq, nil)
	if err != nil {
		return nil, err
	}
	return ipmi.DecodeGetDeviceIDResponse(data)
}

// GetSessionInfo issues Get Session Info for sessionIndex (0 means "this
// session").
func (s *Session) GetSessionInfo(ctx context.Context, sessionIndex uint8) (*ipmi.GetSessionInfoResponse, error) {
	data, err := s.Request(ctx, ipmi.OperationGetSessionInfoReq, ipmi.EncodeGetSessionInfoRequest(sessionIndex))
	if err != nil {
		return nil, err
	}
	return ipmi.DecodeGetSessionInfoResponse(data)
}

// ChassisControl issues a Chassis Control command (power on/off/cycle/
// reset, or diagnostic interrupt).
func (s *Session) ChassisControl(ctx context.Context, c ipmi.ChassisControl) error {
	_, err := s.Request(ctx, ipmi.OperationChassisControlReq, ipmi.EncodeChassisControlRequest(c))
	return err
}

// GetChassisStatus issues Get Chassis Status and returns the decoded
// response.
func (s *Session) GetChassisStatus(ctx context.Context) (*ipmi.ChassisStatusResponse, error) {
	data, err := s.Request(ctx, ipmi.OperationGetChassisStatusReq, nil)
	if err != nil {
		return nil, err
	}
	return ipmi.DecodeChassisStatusResponse(data)
}

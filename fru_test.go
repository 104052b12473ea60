package bmc

import (
	"context"
	"testing"

	"github.com/nwilkes/ipmibmc/pkg/ipmi"
)

func fruChecksum(data []byte) byte {
	var c byte
	for _, b := range data {
		c += b
	}
	return -c
}

// buildMinimalFRU returns a complete FRU image with only a board area
// carrying a single manufacturer field, matching the common-header/board-
// area layout pkg/ipmi's decoder expects.
func buildMinimalFRU(manufacturer string) []byte {
	board := []byte{0x01, 0x00, 0x00, 0x00, 0x00, 0x00} // format, length placeholder, language, mfg date/time
	board = append(board, uint8(ipmi.FRUFieldTypeText)<<6|byte(len(manufacturer)))
	board = append(board, []byte(manufacturer)...)
	board = append(board, 0xc1) // sentinel
	for (len(board)+1)%8 != 0 {
		board = append(board, 0x00)
	}
	board[1] = uint8((len(board) + 1) / 8)
	board = append(board, fruChecksum(board))

	header := make([]byte, 8)
	header[0] = 0x01
	header[3] = 0x01 // board area starts at offset 8
	header[7] = fruChecksum(header[:7])

	return append(header, board...)
}

func TestReadFRUChunkedReassembly(t *testing.T) {
	fru := buildMinimalFRU("ACME Corp")
	s, _, b := newTestSession(t, SessionOpts{})
	s.sm = stateMachine{phase: PhaseActive}
	b.authType = ipmi.AuthTypeNone

	b.respond[ipmi.CommandGetFRUInventoryAreaInfo] = func(req *ipmi.Message, payload []byte) (ipmi.Operation, []byte) {
		areaInfo := []byte{byte(len(fru)), byte(len(fru) >> 8), 0x00} // byte-accessed
		return ipmi.OperationGetFRUInventoryAreaInfoRsp, areaInfo
	}
	offset := 0
	b.respond[ipmi.CommandReadFRUData] = func(req *ipmi.Message, payload []byte) (ipmi.Operation, []byte) {
		count := int(payload[3])
		if offset+count > len(fru) {
			count = len(fru) - offset
		}
		chunk := fru[offset : offset+count]
		offset += count
		return ipmi.OperationReadFRUDataRsp, append([]byte{byte(len(chunk))}, chunk...)
	}

	go b.run()
	defer b.Close()
	s.wg.Add(2)
	go s.recvLoop()
	go s.loop()
	defer s.Close()

	got, err := s.ReadFRU(context.Background(), 0)
	if err != nil {
		t.Fatalf("ReadFRU: %v", err)
	}
	if got.Board == nil {
		t.Fatal("expected a decoded board area")
	}
	if got := got.Board.Manufacturer.String(0); got != "ACME Corp" {
		t.Fatalf("manufacturer = %q, want ACME Corp", got)
	}
}

func TestReadFRUAbsentAreaYieldsEmpty(t *testing.T) {
	s, _, b := newTestSession(t, SessionOpts{})
	s.sm = stateMachine{phase: PhaseActive}
	b.authType = ipmi.AuthTypeNone

	b.replyWithError(ipmi.CommandGetFRUInventoryAreaInfo, ipmi.CompletionCodeParameterOutOfRange)

	go b.run()
	defer b.Close()
	s.wg.Add(2)
	go s.recvLoop()
	go s.loop()
	defer s.Close()

	fru, err := s.ReadFRU(context.Background(), 5)
	if err != nil {
		t.Fatalf("ReadFRU: %v", err)
	}
	if fru.Chassis != nil || fru.Board != nil || fru.Product != nil || len(fru.MultiRecords) != 0 {
		t.Fatalf("expected an empty inventory for an absent fru, got %+v", fru)
	}
}

package bmc

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/nwilkes/ipmibmc/pkg/ipmi"
)

// buildTestSELEntry returns a 16-byte standard SEL entry record.
func buildTestSELEntry(recordID uint16, sensorNumber uint8) []byte {
	entry := make([]byte, 16)
	binary.LittleEndian.PutUint16(entry[0:2], recordID)
	entry[2] = 0x02 // standard record type
	binary.LittleEndian.PutUint32(entry[3:7], 0)
	entry[7] = 0x20 // generator id low
	entry[9] = 0x04 // event message format version
	entry[10] = 0x01
	entry[11] = sensorNumber
	return entry
}

func TestReadSELWalksUntilLastRecord(t *testing.T) {
	s, _, b := newTestSession(t, SessionOpts{})
	s.sm = stateMachine{phase: PhaseActive}
	b.authType = ipmi.AuthTypeNone

	b.respond[ipmi.CommandReserveSEL] = func(req *ipmi.Message, payload []byte) (ipmi.Operation, []byte) {
		return ipmi.OperationReserveSELRsp, []byte{0x01, 0x00}
	}
	records := []struct {
		id   uint16
		next uint16
	}{
		{1, 2},
		{2, ipmi.SELLastRecordID},
	}
	b.respond[ipmi.CommandGetSELEntry] = func(req *ipmi.Message, payload []byte) (ipmi.Operation, []byte) {
		recordID := binary.LittleEndian.Uint16(payload[2:4])
		for _, r := range records {
			if r.id == recordID || (recordID == ipmi.SELFirstRecordID && r.id == 1) {
				resp := make([]byte, 2+16)
				binary.LittleEndian.PutUint16(resp[0:2], r.next)
				copy(resp[2:], buildTestSELEntry(r.id, uint8(r.id)))
				return ipmi.OperationGetSELEntryRsp, resp
			}
		}
		t.Fatalf("unexpected record id requested: %d", recordID)
		return ipmi.OperationGetSELEntryRsp, nil
	}

	go b.run()
	defer b.Close()
	s.wg.Add(2)
	go s.recvLoop()
	go s.loop()
	defer s.Close()

	entries, err := s.ReadSEL(context.Background(), false)
	if err != nil {
		t.Fatalf("ReadSEL: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].RecordID != 1 || entries[1].RecordID != 2 {
		t.Fatalf("got record ids %d, %d, want 1, 2", entries[0].RecordID, entries[1].RecordID)
	}
}

func TestReadSELWithClearIssuesClearAfterWalk(t *testing.T) {
	s, _, b := newTestSession(t, SessionOpts{})
	s.sm = stateMachine{phase: PhaseActive}
	b.authType = ipmi.AuthTypeNone

	b.respond[ipmi.CommandReserveSEL] = func(req *ipmi.Message, payload []byte) (ipmi.Operation, []byte) {
		return ipmi.OperationReserveSELRsp, []byte{0x02, 0x00}
	}
	b.respond[ipmi.CommandGetSELEntry] = func(req *ipmi.Message, payload []byte) (ipmi.Operation, []byte) {
		resp := make([]byte, 2+16)
		binary.LittleEndian.PutUint16(resp[0:2], ipmi.SELLastRecordID)
		copy(resp[2:], buildTestSELEntry(1, 1))
		return ipmi.OperationGetSELEntryRsp, resp
	}
	cleared := false
	b.respond[ipmi.CommandClearSEL] = func(req *ipmi.Message, payload []byte) (ipmi.Operation, []byte) {
		cleared = true
		return ipmi.OperationClearSELRsp, []byte{uint8(ipmi.ClearSELCompleted)}
	}

	go b.run()
	defer b.Close()
	s.wg.Add(2)
	go s.recvLoop()
	go s.loop()
	defer s.Close()

	if _, err := s.ReadSEL(context.Background(), true); err != nil {
		t.Fatalf("ReadSEL: %v", err)
	}
	if !cleared {
		t.Fatal("expected Clear SEL to be issued after the walk completed")
	}
}

package ipmi

import (
	"encoding/binary"
	"testing"
	"time"
)

func buildSELEntry(recordID uint16, seconds uint32, sensorType, sensorNumber uint8) []byte {
	data := make([]byte, selEntrySize)
	binary.LittleEndian.PutUint16(data[0:2], recordID)
	data[2] = uint8(SELEventTypeSystemEvent)
	binary.LittleEndian.PutUint32(data[3:7], seconds)
	data[10] = sensorType
	data[11] = sensorNumber
	data[12] = 0x06 // assertion, event type 6
	return data
}

func TestDecodeSELEntryStandard(t *testing.T) {
	data := buildSELEntry(1, 3600, 0x07, 2)
	e, err := DecodeSELEntry(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if e.RecordID != 1 || e.SensorType != 0x07 || e.SensorNumber != 2 {
		t.Fatalf("got %+v", e)
	}
	if e.EventDirection {
		t.Fatal("expected assertion (deassertion bit clear)")
	}
	wantTime := selEpoch.Add(3600 * time.Second)
	if !e.Timestamp.Equal(wantTime) {
		t.Fatalf("timestamp = %v, want %v", e.Timestamp, wantTime)
	}
}

func TestDecodeSELEntryTooShort(t *testing.T) {
	_, err := DecodeSELEntry(make([]byte, 10))
	if err == nil {
		t.Fatal("expected error for short sel entry")
	}
}

func TestDecodeSELEntryOEMRecord(t *testing.T) {
	data := buildSELEntry(2, 0, 0, 0)
	data[2] = 0xc5 // OEM timestamped record type
	e, err := DecodeSELEntry(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if e.RecordType != 0xc5 {
		t.Fatalf("RecordType = 0x%02x, want 0xc5", e.RecordType)
	}
}

package ipmi

import (
	"encoding/binary"
	"fmt"
	"time"
)

const selEntrySize = 16

// SELEventType identifies whether a SEL entry carries a standard sensor
// event or an OEM-defined one, per IPMI v1.5 section 31.6.
type SELEventType uint8

const (
	SELEventTypeSystemEvent SELEventType = 0x02
)

// SELEntry is a single 16-byte System Event Log record, decoded per
// IPMI v1.5 section 31.6.
type SELEntry struct {
	RecordID             uint16
	RecordType           uint8
	Timestamp            time.Time
	GeneratorID          uint16
	EventMessageRevision uint8
	SensorType           uint8
	SensorNumber         uint8
	EventDirection       bool // true = deassertion
	EventType            uint8
	EventData            [3]uint8
}

// selEpoch is the IPMI SEL timestamp base (1970-01-01 UTC, seconds since
// epoch, as a plain uint32).
var selEpoch = time.Unix(0, 0).UTC()

// DecodeSELEntry decodes a single 16-byte SEL record. A malformed entry is
// reported to the caller (the SEL reader) rather than aborting iteration.
func DecodeSELEntry(data []byte) (*SELEntry, error) {
	if len(data) < selEntrySize {
		return nil, &DecodeError{Reason: ReasonBadLength, Detail: fmt.Sprintf("sel entry needs %d bytes, got %d", selEntrySize, len(data))}
	}
	e := &SELEntry{
		RecordID:   binary.LittleEndian.Uint16(data[0:2]),
		RecordType: data[2],
	}
	if e.RecordType < 0xc0 {
		// Standard system event record: timestamped.
		seconds := binary.LittleEndian.Uint32(data[3:7])
		e.Timestamp = selEpoch.Add(time.Duration(seconds) * time.Second)
		e.GeneratorID = binary.LittleEndian.Uint16(data[7:9])
		e.EventMessageRevision = data[9]
		e.SensorType = data[10]
		e.SensorNumber = data[11]
		e.EventDirection = data[12]&0x80 != 0
		e.EventType = data[12] & 0x7f
		copy(e.EventData[:], data[13:16])
	} else {
		// OEM record (timestamped 0xc0-0xdf, non-timestamped 0xe0-0xff):
		// the body is device-specific, so only the bytes that happen to
		// line up with the standard layout are captured.
		copy(e.EventData[:], data[13:16])
		e.GeneratorID = binary.LittleEndian.Uint16(data[7:9])
	}
	return e, nil
}

func (e *SELEntry) String() string {
	return fmt.Sprintf("SELEntry{ID:0x%04x,Type:0x%02x,Sensor:%d/%d}", e.RecordID, e.RecordType, e.SensorType, e.SensorNumber)
}

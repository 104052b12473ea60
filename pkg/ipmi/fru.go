package ipmi

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrIncorrectHeaderChecksum is returned when a FRU common header's checksum
// byte does not make the 8-byte header sum to zero mod 256.
var ErrIncorrectHeaderChecksum = errors.New("ipmi: incorrect fru header checksum")

// ErrUnsupportedFRUData is returned when the FRU common header declares a
// format version other than 1, the only one this library understands.
var ErrUnsupportedFRUData = errors.New("ipmi: unsupported fru data")

// FRUFieldType is the 2-bit type code of a FRU type/length field.
type FRUFieldType uint8

const (
	FRUFieldTypeBinary    FRUFieldType = 0
	FRUFieldTypeBCDPlus   FRUFieldType = 1
	FRUFieldTypeASCII6Bit FRUFieldType = 2
	// FRUFieldTypeText is 8-bit ASCII+Latin-1 when the area's language code
	// is English (0 or 25), otherwise UTF-16LE.
	FRUFieldTypeText FRUFieldType = 3
)

// fruFieldSentinel (type=3, length=1, pattern 0xC1) ends a field list.
const fruFieldSentinel = 0xc1

// FRUField is a single type/length-encoded field decoded from a FRU info
// area. Zero-length fields are never materialized; see decodeFRUFields.
type FRUField struct {
	Type FRUFieldType
	Data []byte
}

// String decodes the field per its type and the area's language code,
// falling back to the raw bytes for binary/unsupported encodings.
func (f FRUField) String(languageCode uint8) string {
	switch f.Type {
	case FRUFieldTypeASCII6Bit:
		return decodeSixBitASCII(f.Data)
	case FRUFieldTypeBCDPlus:
		return decodeBCDPlus(f.Data)
	case FRUFieldTypeText:
		if languageCode == 0 || languageCode == 25 {
			return string(f.Data)
		}
		return decodeUTF16LE(f.Data)
	default:
		return fmt.Sprintf("% x", f.Data)
	}
}

func decodeBCDPlus(data []byte) string {
	const digits = "0123456789 -."
	out := make([]byte, 0, len(data)*2)
	for _, b := range data {
		hi, lo := b>>4, b&0x0f
		if int(hi) < len(digits) {
			out = append(out, digits[hi])
		}
		if int(lo) < len(digits) {
			out = append(out, digits[lo])
		}
	}
	return string(out)
}

func decodeSixBitASCII(data []byte) string {
	var out []byte
	var acc uint32
	var bits uint
	for _, b := range data {
		acc |= uint32(b) << bits
		bits += 8
		for bits >= 6 {
			out = append(out, byte(acc&0x3f)+0x20)
			acc >>= 6
			bits -= 6
		}
	}
	return string(out)
}

func decodeUTF16LE(data []byte) string {
	units := make([]uint16, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		units = append(units, uint16(data[i])|uint16(data[i+1])<<8)
	}
	runes := make([]rune, len(units))
	for i, u := range units {
		runes[i] = rune(u)
	}
	return string(runes)
}

// decodeFRUFields decodes a type/length-encoded field list until the
// sentinel 0xC1 is reached. A leading sentinel yields an empty list, with
// the cursor left just past it. Fields of zero length are omitted
// entirely from the result.
func decodeFRUFields(data []byte) (fields []FRUField, consumed int, err error) {
	offset := 0
	for offset < len(data) {
		tl := data[offset]
		if tl == fruFieldSentinel {
			offset++
			return fields, offset, nil
		}
		typ := FRUFieldType(tl >> 6)
		length := int(tl & 0x3f)
		offset++
		if offset+length > len(data) {
			return fields, offset, &DecodeError{Reason: ReasonBadLength, Detail: "fru field length exceeds buffer"}
		}
		if length > 0 {
			field := FRUField{Type: typ, Data: append([]byte(nil), data[offset:offset+length]...)}
			fields = append(fields, field)
		}
		offset += length
	}
	return fields, offset, &DecodeError{Reason: ReasonBadLength, Detail: "fru field list missing sentinel"}
}

// FRUCommonHeader is the 8-byte FRU common header: a version nibble, five
// area offsets in 8-byte units, and a checksum byte
// such that the sum of all 8 header bytes mod 256 is zero.
type FRUCommonHeader struct {
	Version uint8

	InternalUseOffset uint8
	ChassisOffset     uint8
	BoardOffset       uint8
	ProductOffset     uint8
	MultiRecordOffset uint8
}

const fruCommonHeaderSize = 8

func decodeFRUCommonHeader(data []byte) (FRUCommonHeader, error) {
	if len(data) < fruCommonHeaderSize {
		return FRUCommonHeader{}, &DecodeError{Reason: ReasonBadLength, Detail: "fru common header too short"}
	}
	if checksum(data[:fruCommonHeaderSize]) != 0 {
		return FRUCommonHeader{}, ErrIncorrectHeaderChecksum
	}
	if data[0]&0x0f != 1 {
		return FRUCommonHeader{}, ErrUnsupportedFRUData
	}
	return FRUCommonHeader{
		Version:           data[0] & 0x0f,
		InternalUseOffset: data[1],
		ChassisOffset:     data[2],
		BoardOffset:       data[3],
		ProductOffset:     data[4],
		MultiRecordOffset: data[5],
	}, nil
}

// FRUChassisArea is the decoded chassis info area.
type FRUChassisArea struct {
	Type         uint8
	PartNumber   FRUField
	SerialNumber FRUField
	Custom       []FRUField
}

// FRUBoardArea is the decoded board info area.
type FRUBoardArea struct {
	LanguageCode uint8
	MfgDateTime  time.Time
	Manufacturer FRUField
	ProductName  FRUField
	SerialNumber FRUField
	PartNumber   FRUField
	FRUFileID    FRUField
	Custom       []FRUField
}

// FRUProductArea is the decoded product info area.
type FRUProductArea struct {
	LanguageCode uint8
	Manufacturer FRUField
	ProductName  FRUField
	PartNumber   FRUField
	Version      FRUField
	SerialNumber FRUField
	AssetTag     FRUField
	FRUFileID    FRUField
	Custom       []FRUField
}

// decodeAreaChecksum validates an info area's trailing checksum against its
// length byte (length is in 8-byte units, including the checksum itself).
// A bad checksum is reported so the caller can drop the area leniently
// without aborting the rest of the decode.
func decodeAreaChecksum(data []byte) ([]byte, error) {
	if len(data) < 2 {
		return nil, &DecodeError{Reason: ReasonBadLength, Detail: "fru area too short"}
	}
	length := int(data[1]) * 8
	if length == 0 || length > len(data) {
		return nil, &DecodeError{Reason: ReasonBadLength, Detail: "fru area length invalid"}
	}
	area := data[:length]
	if checksum(area) != 0 {
		return nil, &DecodeError{Reason: ReasonBadChecksum, Detail: "fru area checksum"}
	}
	return area, nil
}

func decodeFRUChassisArea(data []byte) (*FRUChassisArea, error) {
	area, err := decodeAreaChecksum(data)
	if err != nil {
		return nil, err
	}
	c := &FRUChassisArea{Type: area[2]}
	fields, _, err := decodeFRUFields(area[3 : len(area)-1])
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		c.PartNumber = fields[0]
		fields = fields[1:]
	}
	if len(fields) > 0 {
		c.SerialNumber = fields[0]
		fields = fields[1:]
	}
	c.Custom = fields
	return c, nil
}

func decodeFRUBoardArea(data []byte) (*FRUBoardArea, error) {
	area, err := decodeAreaChecksum(data)
	if err != nil {
		return nil, err
	}
	if len(area) < 6 {
		return nil, &DecodeError{Reason: ReasonBadLength, Detail: "fru board area too short"}
	}
	b := &FRUBoardArea{LanguageCode: area[2]}
	minutes := uint32(area[3]) | uint32(area[4])<<8 | uint32(area[5])<<16
	b.MfgDateTime = fruEpoch.Add(time.Duration(minutes) * time.Minute)

	fields, _, err := decodeFRUFields(area[6 : len(area)-1])
	if err != nil {
		return nil, err
	}
	named := []*FRUField{&b.Manufacturer, &b.ProductName, &b.SerialNumber, &b.PartNumber, &b.FRUFileID}
	for _, dst := range named {
		if len(fields) == 0 {
			break
		}
		*dst = fields[0]
		fields = fields[1:]
	}
	b.Custom = fields
	return b, nil
}

// fruEpoch is the FRU manufacturing date/time base (1996-01-01 00:00 UTC),
// per the IPMI Platform Management FRU Information Storage Definition.
var fruEpoch = time.Date(1996, time.January, 1, 0, 0, 0, 0, time.UTC)

func decodeFRUProductArea(data []byte) (*FRUProductArea, error) {
	area, err := decodeAreaChecksum(data)
	if err != nil {
		return nil, err
	}
	p := &FRUProductArea{LanguageCode: area[2]}
	fields, _, err := decodeFRUFields(area[3 : len(area)-1])
	if err != nil {
		return nil, err
	}
	named := []*FRUField{&p.Manufacturer, &p.ProductName, &p.PartNumber, &p.Version, &p.SerialNumber, &p.AssetTag, &p.FRUFileID}
	for _, dst := range named {
		if len(fields) == 0 {
			break
		}
		*dst = fields[0]
		fields = fields[1:]
	}
	p.Custom = fields
	return p, nil
}

// FRUMultiRecordType identifies the kind of a multi-record area entry.
// Types outside this set are silently dropped.
type FRUMultiRecordType uint8

const (
	FRUMultiRecordTypePowerSupply           FRUMultiRecordType = 0x00
	FRUMultiRecordTypeDCOutput              FRUMultiRecordType = 0x01
	FRUMultiRecordTypeDCLoad                FRUMultiRecordType = 0x02
	FRUMultiRecordTypeManagementAccess      FRUMultiRecordType = 0x03
	FRUMultiRecordTypeBaseCompatibility     FRUMultiRecordType = 0x04
	FRUMultiRecordTypeExtendedCompatibility FRUMultiRecordType = 0x05
)

// FRUMultiRecord is one decoded entry from the FRU multi-record area. Data
// holds the raw record payload; use DecodePowerSupply/DecodeDCOutput/etc to
// further decode it once Type identifies which of those it is.
type FRUMultiRecord struct {
	Type FRUMultiRecordType
	Data []byte
}

// decodeFRUMultiRecords walks the multi-record chain: each entry is a
// 5-byte header followed by its payload. A record whose payload checksum
// fails is skipped, but a bad header
// checksum abandons the whole chain since subsequent offsets can no longer
// be trusted. Parsing also halts the instant the end-of-list bit is seen.
func decodeFRUMultiRecords(data []byte) []FRUMultiRecord {
	var records []FRUMultiRecord
	offset := 0
	for offset+5 <= len(data) {
		header := data[offset : offset+5]
		recordType := header[0]
		endOfList := header[1]&0x80 != 0
		length := int(header[2])
		payloadChecksum := header[3]
		headerChecksum := header[4]

		if checksum(header[:4]) != headerChecksum {
			break
		}
		if offset+5+length > len(data) {
			break
		}
		payload := data[offset+5 : offset+5+length]
		if checksum(payload) == payloadChecksum && recordType <= uint8(FRUMultiRecordTypeExtendedCompatibility) {
			records = append(records, FRUMultiRecord{
				Type: FRUMultiRecordType(recordType & 0x7f),
				Data: append([]byte(nil), payload...),
			})
		}
		offset += 5 + length
		if endOfList {
			break
		}
	}
	return records
}

// unspecifiedU8/U16 report the sentinel values the FRU spec defines to mean
// "unspecified" for a given field width.
func unspecifiedU8(v uint8) bool   { return v == 0 || v == 0xff }
func unspecifiedU16(v uint16) bool { return v == 0 || v == 0xffff }

func le16(b []byte) uint16 { return uint16(b[0]) | uint16(b[1])<<8 }

// FRUPowerSupply is the decoded Power Supply Information multi-record.
// Voltages are in volts, currents in amps.
type FRUPowerSupply struct {
	OverallCapacityWatts  uint16
	PeakVAUnspecified     bool
	PeakVA                uint16
	InrushCurrentAmps     float64
	InrushIntervalMillis  uint8
	InrushUnspecified     bool
	LowVoltageRange1      float64
	HighVoltageRange1     float64
	LowVoltageRange2      float64
	HighVoltageRange2     float64
	LowFrequencyHz        uint8
	HighFrequencyHz       uint8
	PredictiveFailSupport bool
	HotSwapSupport        bool
}

// DecodePowerSupply decodes a Power Supply Information multi-record
// payload.
func DecodePowerSupply(data []byte) (*FRUPowerSupply, error) {
	if len(data) < 14 {
		return nil, &DecodeError{Reason: ReasonBadLength, Detail: "power supply record too short"}
	}
	p := &FRUPowerSupply{
		OverallCapacityWatts: le16(data[0:2]) & 0x0fff,
		PeakVAUnspecified:    unspecifiedU16(le16(data[2:4])),
		PeakVA:               le16(data[2:4]),
		InrushCurrentAmps:    float64(data[4]),
		InrushIntervalMillis: data[5],
		InrushUnspecified:    unspecifiedU8(data[4]),
		LowVoltageRange1:     float64(le16(data[6:8])) / 100,
		HighVoltageRange1:    float64(le16(data[8:10])) / 100,
		LowVoltageRange2:     float64(le16(data[10:12])) / 100,
		HighVoltageRange2:    float64(le16(data[12:14])) / 100,
	}
	if len(data) >= 16 {
		p.LowFrequencyHz = data[14]
		p.HighFrequencyHz = data[15]
	}
	if len(data) >= 19 {
		caps := data[18]
		p.PredictiveFailSupport = caps&0x01 != 0
		p.HotSwapSupport = caps&0x08 != 0
	}
	return p, nil
}

// FRUDCOutput is the decoded DC Output multi-record.
type FRUDCOutput struct {
	OutputNumber    uint8
	Standby         bool
	NominalVoltage  float64
	MinDeviation    float64
	MaxDeviation    float64
	RippleMillivolt uint16
	MinCurrentAmps  float64
	MaxCurrentAmps  float64
}

// DecodeDCOutput decodes a DC Output multi-record payload.
func DecodeDCOutput(data []byte) (*FRUDCOutput, error) {
	if len(data) < 13 {
		return nil, &DecodeError{Reason: ReasonBadLength, Detail: "dc output record too short"}
	}
	return &FRUDCOutput{
		OutputNumber:    data[0] & 0x0f,
		Standby:         data[0]&0x80 != 0,
		NominalVoltage:  float64(int16(le16(data[1:3]))) / 100,
		MinDeviation:    float64(int16(le16(data[3:5]))) / 100,
		MaxDeviation:    float64(int16(le16(data[5:7]))) / 100,
		RippleMillivolt: le16(data[7:9]),
		MinCurrentAmps:  float64(le16(data[9:11])) / 1000,
		MaxCurrentAmps:  float64(le16(data[11:13])) / 1000,
	}, nil
}

// FRUDCLoad is the decoded DC Load multi-record.
type FRUDCLoad struct {
	OutputNumber    uint8
	NominalVoltage  float64
	MinVoltage      float64
	MaxVoltage      float64
	RippleMillivolt uint16
	MinCurrentAmps  float64
	MaxCurrentAmps  float64
}

// DecodeDCLoad decodes a DC Load multi-record payload.
func DecodeDCLoad(data []byte) (*FRUDCLoad, error) {
	if len(data) < 13 {
		return nil, &DecodeError{Reason: ReasonBadLength, Detail: "dc load record too short"}
	}
	return &FRUDCLoad{
		OutputNumber:    data[0] & 0x0f,
		NominalVoltage:  float64(int16(le16(data[1:3]))) / 100,
		MinVoltage:      float64(int16(le16(data[3:5]))) / 100,
		MaxVoltage:      float64(int16(le16(data[5:7]))) / 100,
		RippleMillivolt: le16(data[7:9]),
		MinCurrentAmps:  float64(le16(data[9:11])) / 1000,
		MaxCurrentAmps:  float64(le16(data[11:13])) / 1000,
	}, nil
}

// ManagementAccessSubtype identifies the kind of data carried by a
// Management Access Record.
type ManagementAccessSubtype uint8

const (
	ManagementAccessSystemManagementURL    ManagementAccessSubtype = 0x01
	ManagementAccessSystemName              ManagementAccessSubtype = 0x02
	ManagementAccessSystemPingAddress       ManagementAccessSubtype = 0x03
	ManagementAccessComponentManagementURL  ManagementAccessSubtype = 0x04
	ManagementAccessComponentName           ManagementAccessSubtype = 0x05
	ManagementAccessComponentPingAddress    ManagementAccessSubtype = 0x06
	ManagementAccessComponentUniqueID       ManagementAccessSubtype = 0x07
)

// FRUManagementAccess is the decoded Management Access multi-record. Text
// subtypes (URL/name) are decoded to a string; the ping-address and
// unique-id subtypes are left as raw bytes since their wire layout is
// rarely used in practice.
type FRUManagementAccess struct {
	Subtype ManagementAccessSubtype
	Text    string
	Raw     []byte
}

// DecodeManagementAccess decodes a Management Access multi-record payload.
func DecodeManagementAccess(data []byte) (*FRUManagementAccess, error) {
	if len(data) < 1 {
		return nil, &DecodeError{Reason: ReasonBadLength, Detail: "management access record empty"}
	}
	m := &FRUManagementAccess{Subtype: ManagementAccessSubtype(data[0])}
	switch m.Subtype {
	case ManagementAccessSystemManagementURL, ManagementAccessSystemName,
		ManagementAccessComponentManagementURL, ManagementAccessComponentName:
		m.Text = string(data[1:])
	default:
		m.Raw = append([]byte(nil), data[1:]...)
	}
	return m, nil
}

// FRUCompatibility is the decoded Base or Extended Compatibility
// multi-record.
type FRUCompatibility struct {
	ManufacturerID    uint32
	EntityID          uint8
	CompatibilityBase uint8
	CodeStart         uint8
	Codes             []int
}

// DecodeCompatibility decodes a Base/Extended Compatibility multi-record
// payload: a 3-byte manufacturer id, entity id, compatibility base, code
// start, and a code range mask. The mask is expanded into a sorted list of
// integer codes; the code start value is itself always compatible and leads
// the list.
func DecodeCompatibility(data []byte) (*FRUCompatibility, error) {
	if len(data) < 6 {
		return nil, &DecodeError{Reason: ReasonBadLength, Detail: "compatibility record too short"}
	}
	c := &FRUCompatibility{
		ManufacturerID:    uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16,
		EntityID:          data[3],
		CompatibilityBase: data[4],
		CodeStart:         data[5],
	}
	c.Codes = expandCompatibilityBitmap(c.CodeStart, data[6:])
	return c, nil
}

// expandCompatibilityBitmap expands a compatibility code range mask into a
// sorted list of integer codes. The code start itself is always included;
// each set bit i (enumerated MSB-first within each byte) contributes
// code-start + ((i/8)*8 + (8 - i%8)).
func expandCompatibilityBitmap(codeStart uint8, bitmap []byte) []int {
	codes := []int{int(codeStart)}
	for i := 0; i < len(bitmap)*8; i++ {
		byteIdx := i / 8
		bitInByte := i % 8
		mask := byte(0x80) >> uint(bitInByte)
		if bitmap[byteIdx]&mask != 0 {
			codes = append(codes, int(codeStart)+((i/8)*8+(8-bitInByte)))
		}
	}
	sort.Ints(codes)
	return codes
}

// FRU is the fully decoded FRU inventory. Areas with a bad trailing
// checksum are dropped leniently and left nil; MultiRecords contains only
// records that survived header/payload checksum validation.
type FRU struct {
	Chassis      *FRUChassisArea
	Board        *FRUBoardArea
	Product      *FRUProductArea
	MultiRecords []FRUMultiRecord
}

// DecodeFRU decodes a full FRU inventory area image: validate the common
// header, then decode each declared area independently, dropping any area
// whose own checksum fails without affecting the others.
func DecodeFRU(data []byte) (*FRU, error) {
	header, err := decodeFRUCommonHeader(data)
	if err != nil {
		return nil, err
	}

	fru := &FRU{}

	areaBounds := func(offset uint8) (int, int, bool) {
		if offset == 0 {
			return 0, 0, false
		}
		start := int(offset) * 8
		if start >= len(data) {
			return 0, 0, false
		}
		end := len(data)
		for _, next := range []uint8{header.ChassisOffset, header.BoardOffset, header.ProductOffset, header.MultiRecordOffset} {
			if next == 0 || int(next) <= int(offset) {
				continue
			}
			nextStart := int(next) * 8
			if nextStart < end {
				end = nextStart
			}
		}
		return start, end, true
	}

	if start, end, ok := areaBounds(header.ChassisOffset); ok {
		if area, err := decodeFRUChassisArea(data[start:end]); err == nil {
			fru.Chassis = area
		}
	}
	if start, end, ok := areaBounds(header.BoardOffset); ok {
		if area, err := decodeFRUBoardArea(data[start:end]); err == nil {
			fru.Board = area
		}
	}
	if start, end, ok := areaBounds(header.ProductOffset); ok {
		if area, err := decodeFRUProductArea(data[start:end]); err == nil {
			fru.Product = area
		}
	}
	if header.MultiRecordOffset != 0 {
		start := int(header.MultiRecordOffset) * 8
		if start < len(data) {
			fru.MultiRecords = decodeFRUMultiRecords(data[start:])
		}
	}

	return fru, nil
}

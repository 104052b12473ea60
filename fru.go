package bmc

import (
	"context"
	"fmt"

	"github.com/nwilkes/ipmibmc/pkg/ipmi"
)

// fruReadChunk is the number of bytes requested per Read FRU Data call.
// BMCs commonly cap this at 23; keeping every request at or below that
// avoids relying on larger-transfer support that is not universal.
const fruReadChunk = 23

// ReadFRU retrieves and decodes the complete FRU inventory area fruID,
// orchestrating Get FRU Inventory Area Info followed by as many chunked
// Read FRU Data calls as needed. A CompletionCodeParameterOutOfRange
// response to the area-info call means the device has no such FRU; that is
// reported as an empty inventory rather than an error.
func (s *Session) ReadFRU(ctx context.Context, fruID uint8) (*ipmi.FRU, error) {
	infoData, err := s.Request(ctx, ipmi.OperationGetFRUInventoryAreaInfoReq, ipmi.EncodeGetFRUInventoryAreaInfoRequest(fruID))
	if err != nil {
		if bmcErr, ok := err.(*BMCError); ok && bmcErr.Code == ipmi.CompletionCodeParameterOutOfRange {
			fruReads.WithLabelValues("absent").Inc()
			return &ipmi.FRU{}, nil
		}
		fruReads.WithLabelValues("error").Inc()
		return nil, err
	}
	info, err := ipmi.DecodeGetFRUInventoryAreaInfoResponse(infoData)
	if err != nil {
		fruReads.WithLabelValues("error").Inc()
		return nil, err
	}

	unit := 1
	if info.AccessedByWords {
		unit = 2
	}
	totalBytes := int(info.AreaSizeUnits) * unit

	data := make([]byte, 0, totalBytes)
	for offset := 0; offset < totalBytes; {
		remaining := totalBytes - offset
		count := fruReadChunk
		if info.AccessedByWords {
			count = fruReadChunk / unit
		}
		if remaining/unit < count {
			count = remaining / unit
		}
		if count == 0 {
			count = 1
		}

		readOffset := offset
		if info.AccessedByWords {
			readOffset = offset / unit
		}
		respData, err := s.Request(ctx, ipmi.OperationReadFRUDataReq, ipmi.EncodeReadFRUDataRequest(fruID, uint16(readOffset), uint8(count)))
		if err != nil {
			fruReads.WithLabelValues("error").Inc()
			return nil, err
		}
		chunk, err := ipmi.DecodeReadFRUDataResponse(respData)
		if err != nil {
			fruReads.WithLabelValues("error").Inc()
			return nil, err
		}
		if len(chunk) == 0 {
			break // BMC has nothing more to give; stop rather than loop forever
		}
		data = append(data, chunk...)
		offset += len(chunk)
	}

	fru, err := ipmi.DecodeFRU(data)
	if err != nil {
		fruReads.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("bmc: decode fru %d: %w", fruID, err)
	}
	fruReads.WithLabelValues("ok").Inc()
	return fru, nil
}

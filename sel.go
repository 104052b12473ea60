package bmc

import (
	"context"

	"github.com/nwilkes/ipmibmc/pkg/ipmi"
)

// ReadSEL retrieves every entry in the System Event Log, reserving it first
// so concurrent Clear SEL activity elsewhere is detected, and optionally
// clears the log once every entry has been read. A malformed entry is
// reported as a decode_error event and skipped rather than aborting the
// whole read, matching the lenient FRU-area handling for the same reason.
func (s *Session) ReadSEL(ctx context.Context, clear bool) ([]*ipmi.SELEntry, error) {
	reserveData, err := s.Request(ctx, ipmi.OperationReserveSELReq, nil)
	if err != nil {
		selReads.WithLabelValues("error").Inc()
		return nil, err
	}
	reservation, err := ipmi.DecodeReserveSELResponse(reserveData)
	if err != nil {
		selReads.WithLabelValues("error").Inc()
		return nil, err
	}

	var entries []*ipmi.SELEntry
	recordID := ipmi.SELFirstRecordID
	for {
		data, err := s.Request(ctx, ipmi.OperationGetSELEntryReq, ipmi.EncodeGetSELEntryRequest(reservation.ReservationID, recordID))
		if err != nil {
			selReads.WithLabelValues("error").Inc()
			return entries, err
		}
		resp, err := ipmi.DecodeGetSELEntryResponse(data)
		if resp == nil {
			s.reportDecodeError(err)
			break
		}
		if err != nil {
			s.reportDecodeError(err)
		} else if resp.Entry != nil {
			entries = append(entries, resp.Entry)
		}
		if resp.NextRecordID == ipmi.SELLastRecordID {
			break
		}
		recordID = resp.NextRecordID
	}

	if clear {
		if _, err := s.Request(ctx, ipmi.OperationClearSELReq, ipmi.EncodeClearSELRequest(reservation.ReservationID, true)); err != nil {
			selReads.WithLabelValues("error").Inc()
			return entries, err
		}
	}

	selReads.WithLabelValues("ok").Inc()
	return entries, nil
}

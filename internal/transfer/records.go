package transfer

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/trailcapture/core/internal/catalog"
)

// Fixed-point quantization factors shared with the wire format's Location
// fields (spec.md §4.7): coordinates in micro-degrees, speed/accuracy in
// centimeters.
const (
	coordScale    = 1_000_000.0
	speedScale    = 100.0
	accuracyScale = 100.0
)

// encodeEvents reads every Event for a measurement and encodes it as one
// field per column, matching the delta-offset convention used throughout
// the payload. Events are few per measurement (lifecycle + modality
// changes), so no paging is needed here.
func encodeEvents(ctx context.Context, cat *catalog.Store, mid int64) ([]byte, error) {
	events, err := cat.ListEvents(ctx, mid)
	if err != nil {
		return nil, fmt.Errorf("transfer: listing events for %d: %w", mid, err)
	}

	buf := make([]byte, binary.MaxVarintLen64)
	body := make([]byte, 0, len(events)*16)

	n := binary.PutUvarint(buf, uint64(len(events)))
	body = append(body, buf[:n]...)

	timestamps := make([]int64, len(events))
	for i, e := range events {
		timestamps[i] = e.Timestamp
	}

	writeSeq(&body, buf, timestamps)

	for _, e := range events {
		writeShortString(&body, buf, string(e.Type))
		writeShortString(&body, buf, e.Value)
	}

	return body, nil
}

// encodeLocations pages through every Location for a measurement
// (PageSize rows per query, spec.md §4.2/§4.7), collects the pages into
// one slice and then delta-encodes each quantized field. Every Location of
// the measurement is held in memory at once while the fields are encoded.
func encodeLocations(ctx context.Context, cat *catalog.Store, mid int64) ([]byte, error) {
	var all []catalog.Location

	var cursorTimestamp, cursorID int64

	for {
		page, err := cat.LocationPage(ctx, mid, cursorTimestamp, cursorID)
		if err != nil {
			return nil, fmt.Errorf("transfer: paging locations for %d: %w", mid, err)
		}

		if len(page) == 0 {
			break
		}

		all = append(all, page...)

		last := page[len(page)-1]
		cursorTimestamp, cursorID = last.Timestamp, last.ID

		if len(page) < catalog.PageSize {
			break
		}
	}

	return encodeLocationRecords(all), nil
}

func encodeLocationRecords(locs []catalog.Location) []byte {
	buf := make([]byte, binary.MaxVarintLen64)
	body := make([]byte, 0, len(locs)*24)

	n := binary.PutUvarint(buf, uint64(len(locs)))
	body = append(body, buf[:n]...)

	field := func(get func(catalog.Location) int64) {
		vals := make([]int64, len(locs))
		for i, l := range locs {
			vals[i] = get(l)
		}

		writeSeq(&body, buf, vals)
	}

	field(func(l catalog.Location) int64 { return l.Timestamp })
	field(func(l catalog.Location) int64 { return quantize(l.Lat, coordScale) })
	field(func(l catalog.Location) int64 { return quantize(l.Lon, coordScale) })
	field(func(l catalog.Location) int64 { return quantize(l.Speed, speedScale) })
	field(func(l catalog.Location) int64 { return quantizeOptional(l.Altitude, 1) })
	field(func(l catalog.Location) int64 { return quantizeOptional(l.Accuracy, accuracyScale) })
	field(func(l catalog.Location) int64 { return quantizeOptional(l.VerticalAccuracy, accuracyScale) })

	return body
}

// quantizeOptional maps a nullable field to noValueSentinel (math.MinInt32)
// when absent, so the delta-encoded stream stays a plain []int64 without
// a parallel presence bitmap.
func quantizeOptional(v *float64, factor float64) int64 {
	if v == nil {
		return noValueSentinel
	}

	return quantize(*v, factor)
}

// noValueSentinel marks an absent optional field. It sits far outside any
// plausible quantized altitude/accuracy value (which stay within a few
// million after scaling) while remaining small enough that a delta
// against it can never overflow int64.
const noValueSentinel = int64(math.MinInt32)

func writeShortString(body *[]byte, buf []byte, s string) {
	n := binary.PutUvarint(buf, uint64(len(s)))
	*body = append(*body, buf[:n]...)
	*body = append(*body, s...)
}

package transfer

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trailcapture/core/internal/catalog"
)

func TestEncodeLocationRecordsRoundTripsCountAndTimestamps(t *testing.T) {
	locs := []catalog.Location{
		{Timestamp: 1000, Lat: 1.0, Lon: 2.0, Speed: 3.0},
		{Timestamp: 2000, Lat: 1.5, Lon: 2.5, Speed: 3.5},
	}

	body := encodeLocationRecords(locs)
	require.NotEmpty(t, body)

	count, n := binary.Uvarint(body)
	require.Greater(t, n, 0)
	require.Equal(t, uint64(2), count)
	body = body[n:]

	var got []int64
	var prev int64
	for range locs {
		delta, m := binary.Varint(body)
		require.Greater(t, m, 0)
		body = body[m:]
		prev += delta
		got = append(got, prev)
	}
	require.Equal(t, []int64{1000, 2000}, got)
}

func TestQuantizeOptionalUsesSentinelForNil(t *testing.T) {
	require.Equal(t, noValueSentinel, quantizeOptional(nil, accuracyScale))

	v := 12.34
	require.Equal(t, quantize(12.34, accuracyScale), quantizeOptional(&v, accuracyScale))
}

func TestQuantizeRoundsToNearestUnit(t *testing.T) {
	require.Equal(t, int64(1235), quantize(12.345, 100))
	require.Equal(t, int64(-1235), quantize(-12.345, 100))
}

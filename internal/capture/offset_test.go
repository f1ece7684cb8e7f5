package capture_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trailcapture/core/internal/capture"
)

// spec.md §8 scenario 5: elapsedRealtime = R, systemTime = S,
// event.time = (R - 9_000_000) ns -> offset == S - R/1_000_000 (+-1ms).
func TestComputeEventTimeOffsetBootClock(t *testing.T) {
	const (
		systemTimeMillis int64 = 1_700_000_000_000
		elapsedRealtimeNs int64 = 123_456_000_000
	)

	eventTimeNanos := elapsedRealtimeNs - 9_000_000

	offset := capture.ComputeEventTimeOffset(systemTimeMillis, eventTimeNanos)

	want := systemTimeMillis - elapsedRealtimeNs/1_000_000
	require.InDelta(t, want, offset, 1)
}

// event.time = S*1_000_000 - 9_000_000 -> offset == 0.
func TestComputeEventTimeOffsetWallClock(t *testing.T) {
	const systemTimeMillis int64 = 1_700_000_000_000

	eventTimeNanos := systemTimeMillis*1_000_000 - 9_000_000

	offset := capture.ComputeEventTimeOffset(systemTimeMillis, eventTimeNanos)

	require.InDelta(t, 0, offset, 1)
}

func TestToWallClockMillisRoundTrips(t *testing.T) {
	const (
		systemTimeMillis int64 = 1_700_000_000_000
		eventTimeNanos   int64 = 1_699_999_999_000_000_000
	)

	offset := capture.ComputeEventTimeOffset(systemTimeMillis, eventTimeNanos)
	got := capture.ToWallClockMillis(eventTimeNanos, offset)

	require.Equal(t, systemTimeMillis, got)
}

package capture_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trailcapture/core/internal/capture"
)

// spec.md §8 scenario 6.
func TestIsCachedFix(t *testing.T) {
	const (
		startupTimeMs     int64 = 1_000_000_000
		rolloverOffsetMs  int64 = 619_315_200_000
	)

	require.False(t, capture.IsCachedFix(startupTimeMs+1, startupTimeMs, rolloverOffsetMs))
	require.True(t, capture.IsCachedFix(startupTimeMs-1, startupTimeMs, rolloverOffsetMs))
	require.False(t, capture.IsCachedFix(startupTimeMs-rolloverOffsetMs+1, startupTimeMs, rolloverOffsetMs))
	require.True(t, capture.IsCachedFix(startupTimeMs-rolloverOffsetMs-1, startupTimeMs, rolloverOffsetMs))
}

func TestIsCachedFixIdempotent(t *testing.T) {
	const (
		startupTimeMs    int64 = 1_000_000_000
		rolloverOffsetMs int64 = 619_315_200_000
	)

	fixTimeMs := startupTimeMs - 1

	first := capture.IsCachedFix(fixTimeMs, startupTimeMs, rolloverOffsetMs)
	second := capture.IsCachedFix(fixTimeMs, startupTimeMs, rolloverOffsetMs)

	require.Equal(t, first, second)
	require.True(t, first)
}

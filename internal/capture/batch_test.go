package capture_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trailcapture/core/internal/capture"
)

func TestBatcherFlushesAtSampleCount(t *testing.T) {
	clock := time.Unix(0, 0)
	now := func() time.Time { return clock }

	b := capture.NewBatcher[int](3, time.Hour, now)

	require.Nil(t, b.Add(1))
	require.Nil(t, b.Add(2))
	require.Equal(t, []int{1, 2, 3}, b.Add(3))
}

func TestBatcherFlushesAtWindowExpiry(t *testing.T) {
	clock := time.Unix(0, 0)
	now := func() time.Time { return clock }

	b := capture.NewBatcher[int](100, time.Second, now)

	require.Nil(t, b.Add(1))

	clock = clock.Add(2 * time.Second)

	require.Equal(t, []int{1, 2}, b.Add(2))
}

func TestBatcherFlushForcesOutPending(t *testing.T) {
	clock := time.Unix(0, 0)
	now := func() time.Time { return clock }

	b := capture.NewBatcher[int](100, time.Hour, now)

	require.Nil(t, b.Flush())

	b.Add(1)

	require.Equal(t, []int{1}, b.Flush())
	require.Nil(t, b.Flush())
}

func TestBatcherPendingReportsWindowStart(t *testing.T) {
	clock := time.Unix(0, 0)
	now := func() time.Time { return clock }

	b := capture.NewBatcher[int](100, time.Hour, now)

	_, ok := b.Pending()
	require.False(t, ok)

	b.Add(1)

	since, ok := b.Pending()
	require.True(t, ok)
	require.Equal(t, clock, since)
}

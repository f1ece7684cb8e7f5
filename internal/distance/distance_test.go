package distance_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trailcapture/core/internal/distance"
)

func TestFirstFixContributesNothing(t *testing.T) {
	acc := distance.New(nil)

	require.Zero(t, acc.Accept(distance.Point{Lat: 52.5, Lon: 13.4}))
}

func TestHaversineKnownDistance(t *testing.T) {
	// Roughly one degree of longitude at the equator is ~111.2 km.
	acc := distance.New(nil)

	acc.Accept(distance.Point{Lat: 0, Lon: 0})
	got := acc.Accept(distance.Point{Lat: 0, Lon: 1})

	require.InDelta(t, 111_195, got, 500)
}

func TestResetDropsSpuriousJumpAcrossPause(t *testing.T) {
	acc := distance.New(nil)

	acc.Accept(distance.Point{Lat: 0, Lon: 0})
	acc.Accept(distance.Point{Lat: 0, Lon: 1})

	acc.Reset()

	// First fix after reset must contribute 0 even though it is far from
	// the last pre-pause fix.
	require.Zero(t, acc.Accept(distance.Point{Lat: 40, Lon: 90}))
}

type zeroStrategy struct{}

func (zeroStrategy) DistanceMeters(_, _ distance.Point) float64 { return 0 }

func TestPluggableStrategy(t *testing.T) {
	acc := distance.New(zeroStrategy{})

	acc.Accept(distance.Point{Lat: 0, Lon: 0})
	require.Zero(t, acc.Accept(distance.Point{Lat: 10, Lon: 10}))
}

package track_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trailcapture/core/internal/catalog"
	"github.com/trailcapture/core/internal/track"
)

func withAccuracy(accuracy, speed float64) catalog.Location {
	return catalog.Location{Accuracy: &accuracy, Speed: speed}
}

// Exact boundary values from spec.md §8 scenario 3: accuracy must be
// strictly under 20m, speed strictly inside (1.0, 100.0).
func TestDefaultCleaningStrategyBoundaries(t *testing.T) {
	cases := []struct {
		name     string
		loc      catalog.Location
		wantKeep bool
	}{
		{"accuracy at threshold dropped", withAccuracy(20.0, 5), false},
		{"speed at lower threshold dropped", withAccuracy(5, 1.0), false},
		{"speed just above lower threshold kept", withAccuracy(5, 1.01), true},
		{"accuracy just under threshold kept", withAccuracy(19.99, 5), true},
		{"speed at upper threshold dropped", withAccuracy(5, 100.0), false},
	}

	var strat track.DefaultCleaningStrategy

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.wantKeep, strat.Keep(tc.loc))
		})
	}
}

func TestDefaultCleaningStrategyRejectsUnknownAccuracy(t *testing.T) {
	var strat track.DefaultCleaningStrategy

	require.False(t, strat.Keep(catalog.Location{Accuracy: nil, Speed: 5}))
}

func TestCleanFiltersInOrder(t *testing.T) {
	locations := []catalog.Location{
		withAccuracy(5, 5),
		withAccuracy(25, 5),
		withAccuracy(5, 200),
	}

	got := track.Clean(locations, track.DefaultCleaningStrategy{})

	require.Len(t, got, 1)
}

func TestCleanWithNilStrategyKeepsEverything(t *testing.T) {
	locations := []catalog.Location{withAccuracy(25, 200)}

	got := track.Clean(locations, nil)

	require.Equal(t, locations, got)
}

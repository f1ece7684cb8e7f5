package telemetry

import (
	"context"
	"fmt"

	"github.com/trailcapture/core/internal/track"
)

// LoadTracks assembles a measurement's locations into tracks split at its
// PAUSE/RESUME boundaries (spec.md §4.5), filtering locations first with
// strategy. A nil strategy keeps every location.
func (e *Engine) LoadTracks(ctx context.Context, mid int64, strategy track.CleaningStrategy) ([]track.Track, error) {
	events, err := e.catalog.ListEvents(ctx, mid)
	if err != nil {
		return nil, fmt.Errorf("telemetry: loading events for track assembly: %w", err)
	}

	locations, err := e.catalog.ListLocations(ctx, mid)
	if err != nil {
		return nil, fmt.Errorf("telemetry: loading locations for track assembly: %w", err)
	}

	cleaned := track.Clean(locations, strategy)

	return track.Assemble(events, cleaned), nil
}

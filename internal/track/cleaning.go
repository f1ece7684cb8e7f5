package track

import "github.com/trailcapture/core/internal/catalog"

// CleaningStrategy filters individual Locations before track assembly.
// Pluggable per spec.md §4.5; DefaultCleaningStrategy is the default.
type CleaningStrategy interface {
	Keep(l catalog.Location) bool
}

// DefaultCleaningStrategy keeps a Location iff its accuracy is known and
// under 20m and its reported speed is within (1.0, 100.0) m/s — the
// policy spec.md §4.5 derives from observed noisy-fix bugs in the source.
type DefaultCleaningStrategy struct{}

// Keep implements CleaningStrategy.
func (DefaultCleaningStrategy) Keep(l catalog.Location) bool {
	if l.Accuracy == nil || *l.Accuracy >= 20 {
		return false
	}

	if l.Speed <= 1.0 || l.Speed >= 100.0 {
		return false
	}

	return true
}

// Clean filters locations in place order, returning only the ones the
// strategy keeps. A nil strategy keeps everything.
func Clean(locations []catalog.Location, strategy CleaningStrategy) []catalog.Location {
	if strategy == nil {
		return locations
	}

	out := make([]catalog.Location, 0, len(locations))

	for _, l := range locations {
		if strategy.Keep(l) {
			out = append(out, l)
		}
	}

	return out
}

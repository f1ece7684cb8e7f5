// Package track reconstructs per-measurement tracks (C5): ordered
// sequences of Locations split by PAUSE/RESUME boundaries, per the
// boundary and cleaning policy of spec.md §4.5.
package track

import "github.com/trailcapture/core/internal/catalog"

// Track is a maximal contiguous sub-sequence of Locations within one
// measurement with no intervening PAUSE/RESUME (spec.md glossary).
type Track struct {
	Locations []catalog.Location
}

func isBoundaryStart(t catalog.EventType) bool {
	return t == catalog.EventLifecycleStart || t == catalog.EventLifecycleResume
}

func isBoundaryEnd(t catalog.EventType) bool {
	return t == catalog.EventLifecyclePause || t == catalog.EventLifecycleStop
}

// Assemble walks events and locations (both must already be sorted by
// timestamp ascending) and returns the resulting tracks, omitting any
// track with zero locations. events may include MODALITY_TYPE_CHANGE
// rows; they are ignored since they carry no track boundary.
//
// Edge cases, all load-bearing (spec.md §4.5, §8 scenario 1-2):
//   - A location at exactly a PAUSE timestamp belongs to the pre-pause
//     track; a location strictly between PAUSE and RESUME is discarded;
//     a location at exactly a RESUME timestamp belongs to the post-resume
//     track. Both fall out of the two-pointer walk below without special
//     casing, because locations are consumed in timestamp order: the
//     closing step consumes everything "<= boundary end" and the opening
//     step first discards everything "< boundary start" left over from
//     the gap.
//   - The final STOP, and only the final STOP, is inclusive of any
//     trailing locations whose timestamp is after it — there is no later
//     RESUME to claim them, and spec.md §8 scenario 2 requires them
//     attached to the last track rather than dropped.
func Assemble(events []catalog.Event, locations []catalog.Location) []Track {
	lifecycle := make([]catalog.Event, 0, len(events))

	for _, e := range events {
		if isBoundaryStart(e.Type) || isBoundaryEnd(e.Type) {
			lifecycle = append(lifecycle, e)
		}
	}

	var (
		tracks []Track
		cur    *Track
		li     int
	)

	n := len(locations)

	for ei, e := range lifecycle {
		switch {
		case isBoundaryStart(e.Type):
			// Discard anything left in the PAUSE..RESUME gap with
			// timestamp strictly before this boundary (spec.md §4.5: a
			// fix strictly between PAUSE and RESUME belongs to no track).
			for li < n && locations[li].Timestamp < e.Timestamp {
				li++
			}

			// Collection into this track happens lazily: the matching
			// end-boundary case below consumes everything up to its own
			// timestamp, which is exactly the set that belongs between
			// this start and that end.
			cur = &Track{}

		case isBoundaryEnd(e.Type):
			if cur == nil {
				// STOP/PAUSE with no preceding START/RESUME (e.g. the
				// START, PAUSE, STOP sequence of spec.md §8 scenario 2):
				// nothing to close, but the final STOP still claims any
				// trailing locations onto the last closed track rather
				// than dropping them.
				for li < n && locations[li].Timestamp <= e.Timestamp {
					li++
				}

				isFinalEvent := ei == len(lifecycle)-1

				if e.Type == catalog.EventLifecycleStop && isFinalEvent && len(tracks) > 0 {
					last := &tracks[len(tracks)-1]

					for li < n {
						last.Locations = append(last.Locations, locations[li])
						li++
					}
				}

				continue
			}

			for li < n && locations[li].Timestamp <= e.Timestamp {
				cur.Locations = append(cur.Locations, locations[li])
				li++
			}

			isFinalEvent := ei == len(lifecycle)-1

			if e.Type == catalog.EventLifecycleStop && isFinalEvent {
				for li < n {
					cur.Locations = append(cur.Locations, locations[li])
					li++
				}
			}

			tracks = append(tracks, *cur)
			cur = nil
		}
	}

	return omitEmpty(tracks)
}

func omitEmpty(tracks []Track) []Track {
	out := make([]Track, 0, len(tracks))

	for _, t := range tracks {
		if len(t.Locations) > 0 {
			out = append(out, t)
		}
	}

	return out
}

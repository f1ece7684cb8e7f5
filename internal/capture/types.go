// Package capture implements the capturing pipeline (C3): translating
// platform sensor and location callbacks into wall-clock-stamped samples,
// batching sensor data, rejecting cached/stale fixes, and dispatching
// writes to the catalog and point-file stores through a single persistence
// worker (spec.md §4.3, §5).
package capture

import "github.com/trailcapture/core/internal/catalog"

// RawSensorSample is one 3-axis sample as delivered by a platform sensor
// callback, before wall-clock reconciliation. EventTimeNanos is
// event.time — nanoseconds on either a monotonic boot clock or the wall
// clock, per spec.md §4.3. SystemTimeMillis is the wall-clock time the
// pipeline observed when the callback fired.
type RawSensorSample struct {
	EventTimeNanos   int64
	SystemTimeMillis int64
	X, Y, Z          float64
}

// RawLocationFix is a location fix as delivered by the platform, already
// in wall-clock milliseconds (spec.md §4.3: "Location fixes carry their
// own wall-clock ms; no offsetting is required").
type RawLocationFix struct {
	TimestampMs      int64
	Lat, Lon         float64
	Altitude         *float64
	Speed            float64
	Accuracy         *float64
	VerticalAccuracy *float64
}

// Listener receives live notifications from an active session. The host
// app implements this to drive UI; internal/capturedebug implements it to
// broadcast the same notifications over a local debug socket.
type Listener interface {
	OnLocationFix(loc catalog.Location)
	OnLocationFixLost()
}

// NopListener implements Listener by doing nothing. Used when the host
// supplies none.
type NopListener struct{}

// OnLocationFix implements Listener.
func (NopListener) OnLocationFix(catalog.Location) {}

// OnLocationFixLost implements Listener.
func (NopListener) OnLocationFixLost() {}

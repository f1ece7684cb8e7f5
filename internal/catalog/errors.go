package catalog

import "errors"

// Sentinel errors for the taxonomy members the store can itself detect
// (spec.md §7). Callers should use errors.Is against these.
var (
	// ErrNoSuchMeasurement is returned when a lookup by id finds nothing.
	ErrNoSuchMeasurement = errors.New("catalog: no such measurement")
	// ErrIllegalTransition is returned by UpdateStatus for a transition
	// not present in the state machine of spec.md §4.4.
	ErrIllegalTransition = errors.New("catalog: illegal status transition")
	// ErrDistanceWhileClosed is returned by UpdateDistance when the
	// measurement is not OPEN or PAUSED.
	ErrDistanceWhileClosed = errors.New("catalog: distance update requires OPEN or PAUSED status")
	// ErrNonMonotonicEvent is returned when an event's timestamp would not
	// be strictly greater than the measurement's last lifecycle event.
	ErrNonMonotonicEvent = errors.New("catalog: event timestamp is not strictly monotonic")
	// ErrActiveMeasurementExists is returned by NewMeasurement when a
	// measurement with status OPEN or PAUSED already exists.
	ErrActiveMeasurementExists = errors.New("catalog: an OPEN or PAUSED measurement already exists")
)

package errorcode

import (
	"errors"

	"github.com/trailcapture/core/internal/catalog"
	"github.com/trailcapture/core/internal/lifecycle"
)

// From maps an error returned by the core to its flat code. Errors that do
// not match any taxonomy member map to Unexpected, matching the "fatal
// programmer error" handling of spec.md §7 for anything not explicitly
// classified.
func From(err error) Code {
	switch {
	case err == nil:
		return Unexpected
	case errors.Is(err, catalog.ErrNoSuchMeasurement):
		return NoSuchMeasurement
	case errors.Is(err, catalog.ErrNoSuchAttachment):
		return BadRequest
	case errors.Is(err, catalog.ErrIllegalTransition),
		errors.Is(err, catalog.ErrDistanceWhileClosed),
		errors.Is(err, catalog.ErrNonMonotonicEvent),
		errors.Is(err, catalog.ErrActiveMeasurementExists),
		errors.Is(err, lifecycle.ErrDeleteWhileOpen):
		return Conflict
	case errors.Is(err, lifecycle.ErrIllegalFinishTarget):
		return BadRequest
	default:
		return Unexpected
	}
}

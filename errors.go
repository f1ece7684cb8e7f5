package telemetry

import (
	"errors"

	"github.com/trailcapture/core/internal/errorcode"
)

// ErrorCode maps an error returned by this package to the flat integer
// space a host app is expected to branch on (spec.md §7). Callers should
// still log the original error — the code alone discards detail.
func ErrorCode(err error) errorcode.Code {
	// ErrNoActiveSession is a root-package sentinel; internal/errorcode
	// cannot depend on the root package without an import cycle, so it is
	// classified here instead of inside errorcode.From.
	if errors.Is(err, ErrNoActiveSession) {
		return errorcode.BadRequest
	}

	return errorcode.From(err)
}

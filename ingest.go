package telemetry

import (
	"context"
	"errors"
	"fmt"

	"github.com/trailcapture/core/internal/capture"
	"github.com/trailcapture/core/internal/pointfile"
)

// ErrNoActiveSession is returned by every ingest method when no measurement
// is currently OPEN or PAUSED to receive samples.
var ErrNoActiveSession = errors.New("telemetry: no active capture session")

// SubmitSensorBatch hands a completed batch of platform sensor callbacks to
// the active session, reconciling event-time timestamps onto the wall-clock
// epoch (spec.md §4.3). systemTimeMillis is the wall-clock time observed
// when the batch's callbacks fired.
func (e *Engine) SubmitSensorBatch(ctx context.Context, typ pointfile.SampleType, systemTimeMillis int64, samples []capture.RawSensorSample) error {
	if e.activeSess == nil {
		return ErrNoActiveSession
	}

	if err := e.activeSess.IngestRawSensorBatch(ctx, typ, systemTimeMillis, samples); err != nil {
		return fmt.Errorf("telemetry: submitting sensor batch: %w", err)
	}

	return nil
}

// SubmitLocationFix hands a platform location callback to the active
// session. Cached/stale fixes are silently dropped (spec.md §4.3).
func (e *Engine) SubmitLocationFix(ctx context.Context, fix capture.RawLocationFix) error {
	if e.activeSess == nil {
		return ErrNoActiveSession
	}

	if err := e.activeSess.IngestLocationFix(ctx, fix); err != nil {
		return fmt.Errorf("telemetry: submitting location fix: %w", err)
	}

	return nil
}

// SubmitPressureSample hands one barometric reading to the active session.
func (e *Engine) SubmitPressureSample(ctx context.Context, timestampMs int64, hPa float64) error {
	if e.activeSess == nil {
		return ErrNoActiveSession
	}

	if err := e.activeSess.IngestPressureSample(ctx, timestampMs, hPa); err != nil {
		return fmt.Errorf("telemetry: submitting pressure sample: %w", err)
	}

	return nil
}

// PollFixLost must be called periodically by the host's own scheduling loop
// so a fix-lost transition can be emitted even when no new fix ever arrives
// to trigger one (spec.md §4.3). A no-op when no session is active.
func (e *Engine) PollFixLost() {
	if e.activeSess != nil {
		e.activeSess.NoteFixLost()
	}
}

package telemetry

import (
	"context"
	"fmt"

	"github.com/trailcapture/core/internal/catalog"
	"github.com/trailcapture/core/internal/lifecycle"
	"github.com/trailcapture/core/internal/pointfile"
)

// NewMeasurement starts a new measurement and its capture pipeline. Fails
// if a measurement is already OPEN or PAUSED (spec.md §3, §4.4).
func (e *Engine) NewMeasurement(ctx context.Context, modality catalog.Modality) (*catalog.Measurement, error) {
	m, err := e.coordinator.New(ctx, modality, int32(pointfile.FormatVersion), nil)
	if err != nil {
		return nil, fmt.Errorf("telemetry: new measurement: %w", err)
	}

	if err := e.startSession(m); err != nil {
		return nil, err
	}

	return m, nil
}

// Pause transitions the measurement to PAUSED. The capture session keeps
// running — it simply stops contributing to distance — since Session's
// status check re-reads the catalog on every fix.
func (e *Engine) Pause(ctx context.Context, mid int64) error {
	return e.coordinator.Pause(ctx, mid, nil)
}

// Resume transitions a PAUSED measurement back to OPEN.
func (e *Engine) Resume(ctx context.Context, mid int64) error {
	return e.coordinator.Resume(ctx, mid, nil)
}

// Stop flushes the active capture session and transitions the
// measurement to FINISHED. Per spec.md §5's cancellation policy, the
// session must be flushed before LIFECYCLE_STOP is recorded.
func (e *Engine) Stop(ctx context.Context, mid int64) error {
	if e.activeSess != nil {
		if err := e.activeSess.Stop(); err != nil {
			return fmt.Errorf("telemetry: flushing capture session: %w", err)
		}

		e.activeSess = nil
		e.activeAccum = nil
	}

	return e.coordinator.Stop(ctx, mid, nil)
}

// ChangeModality records a transport-mode change on the active
// measurement.
func (e *Engine) ChangeModality(ctx context.Context, mid int64, modality catalog.Modality) error {
	return e.coordinator.ChangeModality(ctx, mid, modality, nil)
}

// MarkFinishedAs transitions a FINISHED measurement to SYNCED or
// SYNCABLE_ATTACHMENTS once an upload attempt has concluded.
func (e *Engine) MarkFinishedAs(ctx context.Context, mid int64, status catalog.Status) error {
	return e.coordinator.MarkFinishedAs(ctx, mid, status)
}

// Delete removes a measurement's catalog rows, point files and
// attachments. Fails if the measurement is currently OPEN; checked before
// any file is removed, since the attachment files are gone for good once
// deleted and the coordinator's own OPEN check happens too late to undo
// that.
func (e *Engine) Delete(ctx context.Context, mid int64) error {
	m, err := e.catalog.GetMeasurement(ctx, mid)
	if err != nil {
		return err
	}

	if m.Status == catalog.StatusOpen {
		return fmt.Errorf("%w: measurement %d", lifecycle.ErrDeleteWhileOpen, mid)
	}

	if err := e.attachments.DeleteByMeasurement(ctx, mid); err != nil {
		return fmt.Errorf("telemetry: deleting attachments: %w", err)
	}

	return e.coordinator.Delete(ctx, mid)
}

// LoadMeasurements returns every measurement, optionally filtered to a
// single status. Pass "" for no filter.
func (e *Engine) LoadMeasurements(ctx context.Context, status catalog.Status) ([]catalog.Measurement, error) {
	return e.catalog.ListMeasurements(ctx, status)
}

// LoadMeasurement loads a single measurement by id.
func (e *Engine) LoadMeasurement(ctx context.Context, mid int64) (*catalog.Measurement, error) {
	return e.catalog.GetMeasurement(ctx, mid)
}

// LoadCurrentlyCapturedMeasurement returns the single OPEN or PAUSED
// measurement, or catalog.ErrNoSuchMeasurement if none is active
// (spec.md §6).
func (e *Engine) LoadCurrentlyCapturedMeasurement(ctx context.Context) (*catalog.Measurement, error) {
	return e.catalog.CurrentActiveMeasurement(ctx)
}

// Package lifecycle owns the measurement state machine (C4): it is the
// only component permitted to transition a Measurement's status, and it
// guarantees every transition is paired with the Event that records it.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/trailcapture/core/internal/catalog"
	"github.com/trailcapture/core/internal/pointfile"
)

// ErrDeleteWhileOpen is returned by Delete when the target measurement is
// currently OPEN (spec.md §4.4).
var ErrDeleteWhileOpen = errors.New("lifecycle: cannot delete an OPEN measurement")

// ErrIllegalFinishTarget is returned by MarkFinishedAs for any status
// other than SYNCED or SYNCABLE_ATTACHMENTS.
var ErrIllegalFinishTarget = errors.New("lifecycle: mark_finished_as accepts only SYNCED or SYNCABLE_ATTACHMENTS")

// DistanceResetter is implemented by the distance accumulator; the
// coordinator resets it on PAUSE so the first post-RESUME fix does not
// contribute a spurious jump (spec.md §4.6). Keeping this as a narrow
// interface avoids an import cycle between lifecycle and distance.
type DistanceResetter interface {
	Reset()
}

// Coordinator implements the state machine of spec.md §4.4. It is the
// only component that writes Measurement.status and lifecycle Events.
type Coordinator struct {
	catalog   *catalog.Store
	points    *pointfile.Store
	distances map[int64]DistanceResetter
	clock     func() int64
	logger    *slog.Logger
}

// Clock returns the current wall-clock time in milliseconds since epoch.
// Exposed as a field type so tests can substitute a fixed clock.
type Clock = func() int64

// New creates a Coordinator. clock supplies the current time in ms for
// events whose caller did not pass an explicit timestamp.
func New(store *catalog.Store, points *pointfile.Store, clock Clock, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		catalog:   store,
		points:    points,
		distances: make(map[int64]DistanceResetter),
		clock:     clock,
		logger:    logger,
	}
}

// RegisterDistanceAccumulator associates a measurement id with its
// distance accumulator so Pause can reset it. Call once per measurement
// after New.
func (c *Coordinator) RegisterDistanceAccumulator(mid int64, acc DistanceResetter) {
	c.distances[mid] = acc
}

func (c *Coordinator) unregisterDistanceAccumulator(mid int64) {
	delete(c.distances, mid)
}

func (c *Coordinator) resolveTimestamp(explicit *int64) int64 {
	if explicit != nil {
		return *explicit
	}

	return c.clock()
}

// New creates a new OPEN measurement and its LIFECYCLE_START event. Fails
// if a measurement with status OPEN or PAUSED already exists.
func (c *Coordinator) New(ctx context.Context, modality catalog.Modality, fileFormatVersion int32, timestampMs *int64) (*catalog.Measurement, error) {
	ts := c.resolveTimestamp(timestampMs)

	m, err := c.catalog.NewMeasurement(ctx, modality, ts, fileFormatVersion)
	if err != nil {
		return nil, err
	}

	if _, err := c.catalog.InsertEvent(ctx, m.ID, ts, catalog.EventLifecycleStart, ""); err != nil {
		return nil, fmt.Errorf("lifecycle: recording start event: %w", err)
	}

	c.logger.Info("measurement started", "measurement_id", m.ID, "modality", modality)

	return m, nil
}

// Pause transitions an OPEN measurement to PAUSED and records
// LIFECYCLE_PAUSE. Resets the measurement's distance accumulator.
func (c *Coordinator) Pause(ctx context.Context, mid int64, timestampMs *int64) error {
	ts := c.resolveTimestamp(timestampMs)

	if _, err := c.catalog.RecordTransition(ctx, mid, ts, catalog.EventLifecyclePause, "", catalog.StatusPaused); err != nil {
		return fmt.Errorf("lifecycle: pause: %w", err)
	}

	if acc, ok := c.distances[mid]; ok {
		acc.Reset()
	}

	c.logger.Info("measurement paused", "measurement_id", mid)

	return nil
}

// Resume transitions a PAUSED measurement back to OPEN and records
// LIFECYCLE_RESUME.
func (c *Coordinator) Resume(ctx context.Context, mid int64, timestampMs *int64) error {
	ts := c.resolveTimestamp(timestampMs)

	if _, err := c.catalog.RecordTransition(ctx, mid, ts, catalog.EventLifecycleResume, "", catalog.StatusOpen); err != nil {
		return fmt.Errorf("lifecycle: resume: %w", err)
	}

	c.logger.Info("measurement resumed", "measurement_id", mid)

	return nil
}

// Stop transitions an OPEN or PAUSED measurement to FINISHED and records
// LIFECYCLE_STOP. Callers owning the capture pipeline must flush any
// pending batches before calling Stop (spec.md §5 cancellation policy);
// this coordinator has no visibility into pending batches.
func (c *Coordinator) Stop(ctx context.Context, mid int64, timestampMs *int64) error {
	ts := c.resolveTimestamp(timestampMs)

	if _, err := c.catalog.RecordTransition(ctx, mid, ts, catalog.EventLifecycleStop, "", catalog.StatusFinished); err != nil {
		return fmt.Errorf("lifecycle: stop: %w", err)
	}

	c.unregisterDistanceAccumulator(mid)

	c.logger.Info("measurement stopped", "measurement_id", mid)

	return nil
}

// ChangeModality records a MODALITY_TYPE_CHANGE event and updates the
// measurement's current modality.
func (c *Coordinator) ChangeModality(ctx context.Context, mid int64, modality catalog.Modality, timestampMs *int64) error {
	ts := c.resolveTimestamp(timestampMs)

	if _, err := c.catalog.InsertEvent(ctx, mid, ts, catalog.EventModalityTypeChange, string(modality)); err != nil {
		return fmt.Errorf("lifecycle: recording modality change event: %w", err)
	}

	if err := c.catalog.UpdateModality(ctx, mid, modality); err != nil {
		return fmt.Errorf("lifecycle: updating modality: %w", err)
	}

	c.logger.Info("modality changed", "measurement_id", mid, "modality", modality)

	return nil
}

// MarkFinishedAs transitions a FINISHED measurement to SYNCED or
// SYNCABLE_ATTACHMENTS after an upload attempt (spec.md §6).
func (c *Coordinator) MarkFinishedAs(ctx context.Context, mid int64, status catalog.Status) error {
	if status != catalog.StatusSynced && status != catalog.StatusSyncableAttachments {
		return fmt.Errorf("%w: got %s", ErrIllegalFinishTarget, status)
	}

	if err := c.catalog.UpdateStatus(ctx, mid, status); err != nil {
		return fmt.Errorf("lifecycle: mark finished as %s: %w", status, err)
	}

	c.logger.Info("measurement marked finished", "measurement_id", mid, "status", status)

	return nil
}

// Delete removes a measurement's catalog rows (cascading) and its three
// point files. Fails if the measurement is currently OPEN.
func (c *Coordinator) Delete(ctx context.Context, mid int64) error {
	m, err := c.catalog.GetMeasurement(ctx, mid)
	if err != nil {
		return err
	}

	if m.Status == catalog.StatusOpen {
		return fmt.Errorf("%w: measurement %d", ErrDeleteWhileOpen, mid)
	}

	if err := c.points.Delete(mid); err != nil {
		return fmt.Errorf("lifecycle: deleting point files: %w", err)
	}

	if err := c.catalog.DeleteMeasurement(ctx, mid); err != nil {
		return fmt.Errorf("lifecycle: deleting measurement: %w", err)
	}

	c.unregisterDistanceAccumulator(mid)

	c.logger.Info("measurement deleted", "measurement_id", mid)

	return nil
}

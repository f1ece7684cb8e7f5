package capture_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trailcapture/core/internal/capture"
	"github.com/trailcapture/core/internal/catalog"
	"github.com/trailcapture/core/internal/config"
	"github.com/trailcapture/core/internal/distance"
	"github.com/trailcapture/core/internal/pointfile"
)

type recordingListener struct {
	fixes []catalog.Location
	lostN int
}

func (r *recordingListener) OnLocationFix(l catalog.Location) { r.fixes = append(r.fixes, l) }
func (r *recordingListener) OnLocationFixLost()                 { r.lostN++ }

func newTestSession(t *testing.T, statusOpen bool) (*capture.Session, *catalog.Store, *recordingListener, int64) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cat, err := catalog.NewStore(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })

	m, err := cat.NewMeasurement(context.Background(), catalog.ModalityCar, 1000, 3)
	require.NoError(t, err)

	points, err := pointfile.NewStore(t.TempDir(), logger)
	require.NoError(t, err)

	acc := distance.New(nil)
	listener := &recordingListener{}

	sess, err := capture.NewSession(
		m.ID, cat, points, acc, config.DefaultConfig().Capture, logger, listener,
		func() bool { return statusOpen }, 1000,
	)
	require.NoError(t, err)

	return sess, cat, listener, m.ID
}

func TestSessionIngestLocationFixPersistsAndNotifies(t *testing.T) {
	sess, cat, listener, _ := newTestSession(t, true)
	ctx := context.Background()

	sess.Start(ctx)

	require.NoError(t, sess.IngestLocationFix(ctx, capture.RawLocationFix{TimestampMs: 2000, Lat: 1, Lon: 1, Speed: 2}))
	require.NoError(t, sess.IngestLocationFix(ctx, capture.RawLocationFix{TimestampMs: 3000, Lat: 1.001, Lon: 1.001, Speed: 2}))

	require.NoError(t, sess.Stop())

	require.Len(t, listener.fixes, 2)

	m, err := cat.GetMeasurement(ctx, listener.fixes[0].MeasurementID)
	require.NoError(t, err)
	require.Greater(t, m.Distance, 0.0)
}

func TestSessionIngestLocationFixSkipsDistanceWhenNotOpen(t *testing.T) {
	sess, cat, listener, _ := newTestSession(t, false)
	ctx := context.Background()

	sess.Start(ctx)

	require.NoError(t, sess.IngestLocationFix(ctx, capture.RawLocationFix{TimestampMs: 2000, Lat: 1, Lon: 1}))
	require.NoError(t, sess.IngestLocationFix(ctx, capture.RawLocationFix{TimestampMs: 3000, Lat: 2, Lon: 2}))

	require.NoError(t, sess.Stop())

	require.Len(t, listener.fixes, 2)

	m, err := cat.GetMeasurement(ctx, listener.fixes[0].MeasurementID)
	require.NoError(t, err)
	require.Equal(t, 0.0, m.Distance)
}

func TestSessionIngestLocationFixDropsCachedFix(t *testing.T) {
	sess, _, listener, _ := newTestSession(t, true)
	ctx := context.Background()

	sess.Start(ctx)

	// startupTimeMs is 1000; this fix predates it and must be dropped.
	require.NoError(t, sess.IngestLocationFix(ctx, capture.RawLocationFix{TimestampMs: 500, Lat: 1, Lon: 1}))

	require.NoError(t, sess.Stop())

	require.Empty(t, listener.fixes)
}

func TestSessionIngestSensorBatchWritesAndReleasesSlot(t *testing.T) {
	sess, _, _, _ := newTestSession(t, true)
	ctx := context.Background()

	sess.Start(ctx)

	batch := []pointfile.Point3D{{Timestamp: 1, X: 1, Y: 1, Z: 1}, {Timestamp: 2, X: 2, Y: 2, Z: 2}}

	require.NoError(t, sess.IngestSensorBatch(ctx, pointfile.SampleAcceleration, batch))
	require.NoError(t, sess.IngestSensorBatch(ctx, pointfile.SampleAcceleration, batch))

	require.NoError(t, sess.Stop())
}

func TestSessionIngestRawSensorBatchSucceeds(t *testing.T) {
	sess, _, _, _ := newTestSession(t, true)
	ctx := context.Background()

	sess.Start(ctx)

	// systemTimeMillis=5000 observed when event.time (boot clock) was
	// 1_000_000_000ns; the offset this implies must carry through to every
	// sample in the batch, not just the first.
	raw := []capture.RawSensorSample{
		{EventTimeNanos: 1_000_000_000, X: 1, Y: 2, Z: 3},
		{EventTimeNanos: 1_010_000_000, X: 4, Y: 5, Z: 6},
	}

	require.NoError(t, sess.IngestRawSensorBatch(ctx, pointfile.SampleRotation, 5000, raw))
	require.NoError(t, sess.Stop())
}

func TestSessionIngestPressureSamplePersists(t *testing.T) {
	sess, cat, _, mid := newTestSession(t, true)
	ctx := context.Background()

	sess.Start(ctx)

	require.NoError(t, sess.IngestPressureSample(ctx, 2000, 1013.25))

	require.NoError(t, sess.Stop())

	pressures, err := cat.PressurePage(ctx, mid, 0, 0)
	require.NoError(t, err)
	require.Len(t, pressures, 1)
	require.InDelta(t, 1013.25, pressures[0].Pressure, 0.0001)
}

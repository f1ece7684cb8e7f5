package catalog_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trailcapture/core/internal/catalog"
)

func newTestStore(t *testing.T) *catalog.Store {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := catalog.NewStore(":memory:", logger)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, s.Close()) })

	return s
}

func TestNewMeasurementRejectsSecondActive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m, err := s.NewMeasurement(ctx, catalog.ModalityCar, 1000, 3)
	require.NoError(t, err)
	require.Equal(t, catalog.StatusOpen, m.Status)

	_, err = s.NewMeasurement(ctx, catalog.ModalityBike, 2000, 3)
	require.ErrorIs(t, err, catalog.ErrActiveMeasurementExists)

	require.NoError(t, s.UpdateStatus(ctx, m.ID, catalog.StatusFinished))

	m2, err := s.NewMeasurement(ctx, catalog.ModalityBike, 3000, 3)
	require.NoError(t, err)
	require.NotEqual(t, m.ID, m2.ID)
}

func TestUpdateStatusEnforcesLegalTransitions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m, err := s.NewMeasurement(ctx, catalog.ModalityCar, 1000, 3)
	require.NoError(t, err)

	require.ErrorIs(t, s.UpdateStatus(ctx, m.ID, catalog.StatusSynced), catalog.ErrIllegalTransition)

	require.NoError(t, s.UpdateStatus(ctx, m.ID, catalog.StatusPaused))
	require.NoError(t, s.UpdateStatus(ctx, m.ID, catalog.StatusOpen))
	require.NoError(t, s.UpdateStatus(ctx, m.ID, catalog.StatusFinished))
	require.NoError(t, s.UpdateStatus(ctx, m.ID, catalog.StatusSynced))

	require.ErrorIs(t, s.UpdateStatus(ctx, m.ID, catalog.StatusOpen), catalog.ErrIllegalTransition)
}

func TestUpdateDistanceRequiresOpenOrPaused(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m, err := s.NewMeasurement(ctx, catalog.ModalityCar, 1000, 3)
	require.NoError(t, err)

	require.NoError(t, s.UpdateDistance(ctx, m.ID, 42.5))

	got, err := s.GetMeasurement(ctx, m.ID)
	require.NoError(t, err)
	require.InDelta(t, 42.5, got.Distance, 0.0001)

	require.NoError(t, s.UpdateStatus(ctx, m.ID, catalog.StatusFinished))
	require.ErrorIs(t, s.UpdateDistance(ctx, m.ID, 50), catalog.ErrDistanceWhileClosed)
}

func TestInsertEventRejectsNonMonotonicTimestamp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m, err := s.NewMeasurement(ctx, catalog.ModalityCar, 1000, 3)
	require.NoError(t, err)

	_, err = s.InsertEvent(ctx, m.ID, 1000, catalog.EventLifecycleStart, "")
	require.NoError(t, err)

	_, err = s.InsertEvent(ctx, m.ID, 999, catalog.EventLifecyclePause, "")
	require.ErrorIs(t, err, catalog.ErrNonMonotonicEvent)

	_, err = s.InsertEvent(ctx, m.ID, 1000, catalog.EventLifecyclePause, "")
	require.ErrorIs(t, err, catalog.ErrNonMonotonicEvent)

	_, err = s.InsertEvent(ctx, m.ID, 1500, catalog.EventLifecyclePause, "")
	require.NoError(t, err)

	events, err := s.ListEvents(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Less(t, events[0].Timestamp, events[1].Timestamp)
}

func TestRecordTransitionWritesEventAndStatusTogether(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m, err := s.NewMeasurement(ctx, catalog.ModalityCar, 1000, 3)
	require.NoError(t, err)

	_, err = s.InsertEvent(ctx, m.ID, 1000, catalog.EventLifecycleStart, "")
	require.NoError(t, err)

	_, err = s.RecordTransition(ctx, m.ID, 2000, catalog.EventLifecyclePause, "", catalog.StatusPaused)
	require.NoError(t, err)

	got, err := s.GetMeasurement(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, catalog.StatusPaused, got.Status)

	events, err := s.ListEvents(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, catalog.EventLifecyclePause, events[1].Type)
}

// An illegal transition must roll back the Event insert too, so a failed
// RecordTransition never leaves a dangling Event behind.
func TestRecordTransitionRollsBackEventOnIllegalTransition(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m, err := s.NewMeasurement(ctx, catalog.ModalityCar, 1000, 3)
	require.NoError(t, err)

	_, err = s.InsertEvent(ctx, m.ID, 1000, catalog.EventLifecycleStart, "")
	require.NoError(t, err)

	_, err = s.RecordTransition(ctx, m.ID, 2000, catalog.EventLifecycleStop, "", catalog.StatusSynced)
	require.ErrorIs(t, err, catalog.ErrIllegalTransition)

	events, err := s.ListEvents(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)

	got, err := s.GetMeasurement(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, catalog.StatusOpen, got.Status)
}

func TestDeleteMeasurementCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m, err := s.NewMeasurement(ctx, catalog.ModalityCar, 1000, 3)
	require.NoError(t, err)

	_, err = s.InsertEvent(ctx, m.ID, 1000, catalog.EventLifecycleStart, "")
	require.NoError(t, err)

	_, err = s.InsertLocation(ctx, catalog.Location{MeasurementID: m.ID, Timestamp: 1001, Lat: 1, Lon: 2, Speed: 3})
	require.NoError(t, err)

	_, err = s.InsertPressure(ctx, catalog.Pressure{MeasurementID: m.ID, Timestamp: 1001, Pressure: 1013.2})
	require.NoError(t, err)

	_, err = s.InsertAttachment(ctx, catalog.Attachment{MeasurementID: m.ID, Timestamp: 1001, Status: catalog.AttachmentSaved, Type: catalog.AttachmentJPG, Path: "/tmp/a.jpg"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteMeasurement(ctx, m.ID))

	events, err := s.ListEvents(ctx, m.ID)
	require.NoError(t, err)
	require.Empty(t, events)

	locs, err := s.ListLocations(ctx, m.ID)
	require.NoError(t, err)
	require.Empty(t, locs)

	n, err := s.CountPressures(ctx, m.ID)
	require.NoError(t, err)
	require.Zero(t, n)

	atts, err := s.ListAttachmentsByMeasurementAndStatus(ctx, m.ID, catalog.AttachmentSaved)
	require.NoError(t, err)
	require.Empty(t, atts)

	require.ErrorIs(t, s.DeleteMeasurement(ctx, m.ID), catalog.ErrNoSuchMeasurement)
}

func TestLocationPagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m, err := s.NewMeasurement(ctx, catalog.ModalityCar, 0, 3)
	require.NoError(t, err)

	const total = catalog.PageSize + 17

	for i := 0; i < total; i++ {
		_, err := s.InsertLocation(ctx, catalog.Location{
			MeasurementID: m.ID,
			Timestamp:     int64(i),
			Lat:           1,
			Lon:           2,
			Speed:         3,
		})
		require.NoError(t, err)
	}

	var (
		seen                       int
		cursorTimestamp, cursorID int64
	)

	for {
		page, err := s.LocationPage(ctx, m.ID, cursorTimestamp, cursorID)
		require.NoError(t, err)

		if len(page) == 0 {
			break
		}

		seen += len(page)
		last := page[len(page)-1]
		cursorTimestamp, cursorID = last.Timestamp, last.ID
	}

	require.Equal(t, total, seen)
}

func TestRestoreOrCreateDeviceIDIsStable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.RestoreOrCreateDeviceID(ctx)
	require.NoError(t, err)

	second, err := s.RestoreOrCreateDeviceID(ctx)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

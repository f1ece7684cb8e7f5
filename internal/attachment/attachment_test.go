package attachment_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trailcapture/core/internal/attachment"
	"github.com/trailcapture/core/internal/catalog"
)

func newTestStore(t *testing.T) (*attachment.Store, *catalog.Store, int64) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cat, err := catalog.NewStore(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })

	m, err := cat.NewMeasurement(context.Background(), catalog.ModalityCar, 1000, 3)
	require.NoError(t, err)

	store, err := attachment.New(cat, t.TempDir())
	require.NoError(t, err)

	return store, cat, m.ID
}

func TestNormalizeFileNameNFC(t *testing.T) {
	// "é" decomposed (NFD, e + combining acute) normalizes to the composed
	// NFC form, so two byte-different names that look identical collapse
	// to the same string.
	decomposed := "café.jpg"
	composed := "café.jpg"

	require.Equal(t, composed, attachment.NormalizeFileName(decomposed))
}

func TestStoreCreateCopiesFileAndInsertsRow(t *testing.T) {
	store, cat, mid := newTestStore(t)

	src := filepath.Join(t.TempDir(), "dashcam.jpg")
	require.NoError(t, os.WriteFile(src, []byte("fake jpeg bytes"), 0o644))

	a, err := store.Create(context.Background(), mid, 2000, catalog.AttachmentJPG, 3, src, nil, nil, nil)
	require.NoError(t, err)
	require.Equal(t, int64(len("fake jpeg bytes")), a.Size)

	data, err := os.ReadFile(a.Path)
	require.NoError(t, err)
	require.Equal(t, "fake jpeg bytes", string(data))

	got, err := cat.GetAttachment(context.Background(), a.ID)
	require.NoError(t, err)
	require.Equal(t, catalog.AttachmentSaved, got.Status)
}

func TestStoreListByMeasurementAndStatus(t *testing.T) {
	store, _, mid := newTestStore(t)

	src := filepath.Join(t.TempDir(), "log.json")
	require.NoError(t, os.WriteFile(src, []byte("{}"), 0o644))

	_, err := store.Create(context.Background(), mid, 2000, catalog.AttachmentJSON, 3, src, nil, nil, nil)
	require.NoError(t, err)

	saved, err := store.ListByMeasurementAndStatus(context.Background(), mid, catalog.AttachmentSaved)
	require.NoError(t, err)
	require.Len(t, saved, 1)

	uploaded, err := store.ListByMeasurementAndStatus(context.Background(), mid, catalog.AttachmentUploaded)
	require.NoError(t, err)
	require.Empty(t, uploaded)
}

func TestStoreUpdateStatus(t *testing.T) {
	store, _, mid := newTestStore(t)

	src := filepath.Join(t.TempDir(), "log.json")
	require.NoError(t, os.WriteFile(src, []byte("{}"), 0o644))

	a, err := store.Create(context.Background(), mid, 2000, catalog.AttachmentJSON, 3, src, nil, nil, nil)
	require.NoError(t, err)

	require.NoError(t, store.UpdateStatus(context.Background(), a.ID, catalog.AttachmentUploaded))

	got, err := store.Get(context.Background(), a.ID)
	require.NoError(t, err)
	require.Equal(t, catalog.AttachmentUploaded, got.Status)
}

func TestStoreDeleteByMeasurementRemovesFilesAndRows(t *testing.T) {
	store, cat, mid := newTestStore(t)

	src := filepath.Join(t.TempDir(), "log.json")
	require.NoError(t, os.WriteFile(src, []byte("{}"), 0o644))

	a, err := store.Create(context.Background(), mid, 2000, catalog.AttachmentJSON, 3, src, nil, nil, nil)
	require.NoError(t, err)

	require.NoError(t, store.DeleteByMeasurement(context.Background(), mid))

	_, err = os.Stat(a.Path)
	require.True(t, os.IsNotExist(err))

	_, err = cat.GetAttachment(context.Background(), a.ID)
	require.ErrorIs(t, err, catalog.ErrNoSuchAttachment)
}

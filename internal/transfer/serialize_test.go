package transfer_test

import (
	"bytes"
	"compress/flate"
	"context"
	"encoding/binary"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trailcapture/core/internal/attachment"
	"github.com/trailcapture/core/internal/catalog"
	"github.com/trailcapture/core/internal/pointfile"
	"github.com/trailcapture/core/internal/transfer"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSerializer(t *testing.T) (*transfer.Serializer, *catalog.Store, *pointfile.Store, *attachment.Store, int64) {
	t.Helper()

	logger := testLogger()

	cat, err := catalog.NewStore(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })

	m, err := cat.NewMeasurement(context.Background(), catalog.ModalityCar, 1000, 3)
	require.NoError(t, err)

	points, err := pointfile.NewStore(t.TempDir(), logger)
	require.NoError(t, err)

	attach, err := attachment.New(cat, t.TempDir())
	require.NoError(t, err)

	ser, err := transfer.New(cat, points, attach, t.TempDir(), logger)
	require.NoError(t, err)

	return ser, cat, points, attach, m.ID
}

func TestWriteSerializedCompressedProducesValidHeaderAndDeflateStream(t *testing.T) {
	ser, cat, points, _, mid := newTestSerializer(t)
	ctx := context.Background()

	_, err := cat.InsertLocation(ctx, catalog.Location{MeasurementID: mid, Timestamp: 2000, Lat: 1.0, Lon: 2.0, Speed: 3})
	require.NoError(t, err)

	ref, err := points.Create(mid, pointfile.SampleAcceleration)
	require.NoError(t, err)
	require.NoError(t, ref.Append([]pointfile.Point3D{{Timestamp: 1, X: 1, Y: 1, Z: 1}}))
	require.NoError(t, ref.Close())

	path, err := ser.WriteSerializedCompressed(ctx, mid)
	require.NoError(t, err)
	defer os.Remove(path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	decompressed, err := io.ReadAll(flate.NewReader(bytes.NewReader(raw)))
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(decompressed), 2)
	require.Equal(t, transfer.FormatVersion, binary.BigEndian.Uint16(decompressed[:2]))
}

func TestWriteSerializedCompressedFailsOnMeasurementNotFound(t *testing.T) {
	ser, _, _, _, _ := newTestSerializer(t)

	_, err := ser.WriteSerializedCompressed(context.Background(), 999)
	require.Error(t, err)
}

func TestNewSweepsStaleScratchFiles(t *testing.T) {
	logger := testLogger()

	cat, err := catalog.NewStore(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })

	points, err := pointfile.NewStore(t.TempDir(), logger)
	require.NoError(t, err)

	attach, err := attachment.New(cat, t.TempDir())
	require.NoError(t, err)

	scratch := t.TempDir()
	stale := filepath.Join(scratch, "compressedTransferFile123.tmp")
	require.NoError(t, os.WriteFile(stale, []byte("leftover"), 0o644))

	kept := filepath.Join(scratch, "unrelated.txt")
	require.NoError(t, os.WriteFile(kept, []byte("keep me"), 0o644))

	_, err = transfer.New(cat, points, attach, scratch, logger)
	require.NoError(t, err)

	_, err = os.Stat(stale)
	require.True(t, os.IsNotExist(err))

	_, err = os.Stat(kept)
	require.NoError(t, err)
}

func TestWriteSerializedAttachmentCopiesBytesVerbatim(t *testing.T) {
	ser, _, _, attach, mid := newTestSerializer(t)
	ctx := context.Background()

	src := filepath.Join(t.TempDir(), "log.json")
	require.NoError(t, os.WriteFile(src, []byte(`{"ok":true}`), 0o644))

	a, err := attach.Create(ctx, mid, 2000, catalog.AttachmentJSON, 3, src, nil, nil, nil)
	require.NoError(t, err)

	path, err := ser.WriteSerializedAttachment(ctx, a.ID)
	require.NoError(t, err)
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, `{"ok":true}`, string(data))
}

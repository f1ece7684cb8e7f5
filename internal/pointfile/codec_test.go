package pointfile_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trailcapture/core/internal/pointfile"
)

func TestEncodeDecodeBatchRoundTrip(t *testing.T) {
	samples := []pointfile.Point3D{
		{Timestamp: 1000, X: 0.981, Y: -0.123, Z: 9.812},
		{Timestamp: 1010, X: 0.982, Y: -0.130, Z: 9.810},
		{Timestamp: 1020, X: 0.980, Y: -0.125, Z: 9.811},
	}

	record, err := pointfile.EncodeBatch(samples, pointfile.SampleAcceleration)
	require.NoError(t, err)

	got, err := pointfile.DecodeBatch(bytes.NewReader(record), pointfile.SampleAcceleration)
	require.NoError(t, err)
	require.Len(t, got, len(samples))

	for i, s := range samples {
		require.Equal(t, s.Timestamp, got[i].Timestamp)
		require.InDelta(t, s.X, got[i].X, 0.001)
		require.InDelta(t, s.Y, got[i].Y, 0.001)
		require.InDelta(t, s.Z, got[i].Z, 0.001)
	}
}

func TestEncodeBatchRejectsEmpty(t *testing.T) {
	_, err := pointfile.EncodeBatch(nil, pointfile.SampleRotation)
	require.ErrorIs(t, err, pointfile.ErrEmptyBatch)
}

func TestDecodeBatchMultipleRecords(t *testing.T) {
	var buf bytes.Buffer

	batch1 := []pointfile.Point3D{{Timestamp: 1, X: 1, Y: 1, Z: 1}}
	batch2 := []pointfile.Point3D{{Timestamp: 2, X: 2, Y: 2, Z: 2}, {Timestamp: 3, X: 3, Y: 3, Z: 3}}

	r1, err := pointfile.EncodeBatch(batch1, pointfile.SampleDirection)
	require.NoError(t, err)
	buf.Write(r1)

	r2, err := pointfile.EncodeBatch(batch2, pointfile.SampleDirection)
	require.NoError(t, err)
	buf.Write(r2)

	got1, err := pointfile.DecodeBatch(&buf, pointfile.SampleDirection)
	require.NoError(t, err)
	require.Len(t, got1, 1)

	got2, err := pointfile.DecodeBatch(&buf, pointfile.SampleDirection)
	require.NoError(t, err)
	require.Len(t, got2, 2)
}

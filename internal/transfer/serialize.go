package transfer

import (
	"compress/flate"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/trailcapture/core/internal/pointfile"
)

// deflateLevel matches spec.md §4.7: raw deflate (no zlib wrapper), level
// 5 — a fixed middle-ground the spec hardcodes rather than exposing as a
// tunable, since the trade-off it strikes (CPU vs. payload size on a
// mobile device) is not something a host app should need to reason
// about.
const deflateLevel = 5

// WriteSerializedCompressed builds the full transfer payload for mid and
// writes it, deflate-compressed, to a fresh scratch file. The caller owns
// the returned path and must delete it once the upload completes.
func (s *Serializer) WriteSerializedCompressed(ctx context.Context, mid int64) (string, error) {
	f, err := s.newScratchFile(compressedScratchPrefix)
	if err != nil {
		return "", fmt.Errorf("transfer: creating scratch file: %w", err)
	}

	path := f.Name()

	if err := s.writeCompressedPayload(ctx, mid, f); err != nil {
		f.Close()
		os.Remove(path)

		return "", err
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("transfer: closing scratch file: %w", err)
	}

	return path, nil
}

func (s *Serializer) writeCompressedPayload(ctx context.Context, mid int64, w io.Writer) error {
	fw, err := flate.NewWriter(w, deflateLevel)
	if err != nil {
		return fmt.Errorf("transfer: creating deflate writer: %w", err)
	}

	if err := s.writePayload(ctx, mid, fw); err != nil {
		return err
	}

	if err := fw.Close(); err != nil {
		return fmt.Errorf("transfer: flushing deflate stream: %w", err)
	}

	return nil
}

// writePayload emits the wire format of spec.md §4.7: a 2-byte version
// header followed by one record per measurement. There is exactly one
// measurement per call today, but the record framing matches what a
// future multi-measurement batch upload would reuse unchanged.
func (s *Serializer) writePayload(ctx context.Context, mid int64, w io.Writer) error {
	var header [2]byte
	binary.BigEndian.PutUint16(header[:], FormatVersion)

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("transfer: writing format version: %w", err)
	}

	m, err := s.cat.GetMeasurement(ctx, mid)
	if err != nil {
		return fmt.Errorf("transfer: loading measurement %d: %w", mid, err)
	}

	eventsBody, err := encodeEvents(ctx, s.cat, mid)
	if err != nil {
		return err
	}

	locationsBody, err := encodeLocations(ctx, s.cat, mid)
	if err != nil {
		return err
	}

	accel, err := s.points.LoadBytes(mid, pointfile.SampleAcceleration)
	if err != nil {
		return fmt.Errorf("transfer: loading acceleration bytes: %w", err)
	}

	rotation, err := s.points.LoadBytes(mid, pointfile.SampleRotation)
	if err != nil {
		return fmt.Errorf("transfer: loading rotation bytes: %w", err)
	}

	direction, err := s.points.LoadBytes(mid, pointfile.SampleDirection)
	if err != nil {
		return fmt.Errorf("transfer: loading direction bytes: %w", err)
	}

	b := newWireBuilder(w)

	b.writeUvarint(uint64(m.FileFormatVersion))
	b.writeBytes(eventsBody)
	b.writeBytes(locationsBody)
	b.writeBytes(accel)
	b.writeBytes(rotation)
	b.writeBytes(direction)

	if b.Err() != nil {
		return fmt.Errorf("transfer: writing measurement record: %w", b.Err())
	}

	return nil
}

// WriteSerializedAttachment copies one attachment's file bytes unchanged
// into a fresh scratch file (spec.md §4.7: "no outer wrapper, one HTTP
// request per attachment"). The core never interprets the bytes.
func (s *Serializer) WriteSerializedAttachment(ctx context.Context, attachmentID int64) (string, error) {
	a, err := s.attach.Get(ctx, attachmentID)
	if err != nil {
		return "", fmt.Errorf("transfer: loading attachment %d: %w", attachmentID, err)
	}

	src, err := os.Open(a.Path)
	if err != nil {
		return "", fmt.Errorf("transfer: opening attachment file %s: %w", a.Path, err)
	}
	defer src.Close()

	dst, err := s.newScratchFile(rawScratchPrefix)
	if err != nil {
		return "", fmt.Errorf("transfer: creating scratch file: %w", err)
	}

	path := dst.Name()

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)

		return "", fmt.Errorf("transfer: copying attachment bytes: %w", err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("transfer: closing scratch file: %w", err)
	}

	return path, nil
}

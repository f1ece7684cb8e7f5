package pointfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// ErrEmptyBatch is returned by EncodeBatch for a zero-length sample slice;
// the capture pipeline must never hand the persistence worker an empty
// batch (spec.md §4.3).
var ErrEmptyBatch = errors.New("pointfile: empty batch")

// ErrCorruptBatch is returned by DecodeBatch when a record's declared
// length does not match the bytes actually available.
var ErrCorruptBatch = errors.New("pointfile: corrupt batch record")

// EncodeBatch quantizes and delta-encodes one batch of samples into a
// single self-contained, length-prefixed record: a 4-byte big-endian
// length followed by a varint sample count and four delta-encoded varint
// sequences (timestamp, x, y, z), first value absolute and the rest
// deltas against the previous value — the "offset format" of spec.md §4.1
// and §4.7, applied here rather than re-derived at serialization time so
// the transfer serializer can copy these bytes unchanged.
func EncodeBatch(samples []Point3D, typ SampleType) ([]byte, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyBatch
	}

	factor := scale[typ]

	body := make([]byte, 0, len(samples)*4*binary.MaxVarintLen64)
	buf := make([]byte, binary.MaxVarintLen64)

	n := binary.PutUvarint(buf, uint64(len(samples)))
	body = append(body, buf[:n]...)

	writeSeq(&body, buf, samples, func(p Point3D) int64 { return p.Timestamp })
	writeSeq(&body, buf, samples, func(p Point3D) int64 { return quantize(p.X, factor) })
	writeSeq(&body, buf, samples, func(p Point3D) int64 { return quantize(p.Y, factor) })
	writeSeq(&body, buf, samples, func(p Point3D) int64 { return quantize(p.Z, factor) })

	record := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(record[:4], uint32(len(body)))
	copy(record[4:], body)

	return record, nil
}

func writeSeq(body *[]byte, buf []byte, samples []Point3D, field func(Point3D) int64) {
	var prev int64

	for i, p := range samples {
		v := field(p)

		delta := v
		if i > 0 {
			delta = v - prev
		}

		n := binary.PutVarint(buf, delta)
		*body = append(*body, buf[:n]...)
		prev = v
	}
}

func quantize(v, factor float64) int64 {
	return int64(math.Round(v * factor))
}

// DecodeBatch reads one length-prefixed record from r and returns the
// reconstructed samples. Used by tests and by crash-recovery tooling;
// the transfer serializer deliberately never calls this (spec.md §4.7).
func DecodeBatch(r io.Reader, typ SampleType) ([]Point3D, error) {
	var lenBuf [4]byte

	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err // io.EOF propagates to signal "no more batches"
	}

	recordLen := binary.BigEndian.Uint32(lenBuf[:])

	body := make([]byte, recordLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptBatch, err)
	}

	br := &byteReader{buf: body}

	count, err := binary.ReadUvarint(br)
	if err != nil {
		return nil, fmt.Errorf("%w: reading count: %w", ErrCorruptBatch, err)
	}

	timestamps, err := readSeq(br, int(count))
	if err != nil {
		return nil, fmt.Errorf("%w: reading timestamps: %w", ErrCorruptBatch, err)
	}

	xs, err := readSeq(br, int(count))
	if err != nil {
		return nil, fmt.Errorf("%w: reading x: %w", ErrCorruptBatch, err)
	}

	ys, err := readSeq(br, int(count))
	if err != nil {
		return nil, fmt.Errorf("%w: reading y: %w", ErrCorruptBatch, err)
	}

	zs, err := readSeq(br, int(count))
	if err != nil {
		return nil, fmt.Errorf("%w: reading z: %w", ErrCorruptBatch, err)
	}

	factor := scale[typ]
	out := make([]Point3D, count)

	for i := range out {
		out[i] = Point3D{
			Timestamp: timestamps[i],
			X:         float64(xs[i]) / factor,
			Y:         float64(ys[i]) / factor,
			Z:         float64(zs[i]) / factor,
		}
	}

	return out, nil
}

func readSeq(br *byteReader, count int) ([]int64, error) {
	out := make([]int64, count)

	var prev int64

	for i := 0; i < count; i++ {
		delta, err := binary.ReadVarint(br)
		if err != nil {
			return nil, err
		}

		v := delta
		if i > 0 {
			v = prev + delta
		}

		out[i] = v
		prev = v
	}

	return out, nil
}

// byteReader adapts a []byte to io.ByteReader for binary.ReadVarint /
// binary.ReadUvarint without an extra bytes.Reader allocation per batch.
type byteReader struct {
	buf []byte
	pos int
}

func (r *byteReader) ReadByte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, io.EOF
	}

	b := r.buf[r.pos]
	r.pos++

	return b, nil
}

package transfer

import (
	"encoding/binary"
	"io"
	"math"
)

// wireBuilder is the byte-oriented builder spec.md §4.7 calls for:
// one record is a sequence of length-prefixed fields, most of them
// pre-encoded elsewhere (the three sensor blobs arrive as-is from
// pointfile.Store.LoadBytes) so the serializer never has to decode and
// re-encode millions of samples to produce a transfer payload.
type wireBuilder struct {
	w   io.Writer
	buf [binary.MaxVarintLen64]byte
	err error
}

func newWireBuilder(w io.Writer) *wireBuilder {
	return &wireBuilder{w: w}
}

// writeUvarint writes an unsigned varint field with no length prefix —
// used for small fixed-role scalars like format_version.
func (b *wireBuilder) writeUvarint(v uint64) {
	if b.err != nil {
		return
	}

	n := binary.PutUvarint(b.buf[:], v)
	_, b.err = b.w.Write(b.buf[:n])
}

// writeBytes writes a varint length prefix followed by data verbatim.
// This is the hook that lets already-encoded sensor batches and
// already-encoded location pages flow into the payload unchanged.
func (b *wireBuilder) writeBytes(data []byte) {
	if b.err != nil {
		return
	}

	n := binary.PutUvarint(b.buf[:], uint64(len(data)))

	if _, err := b.w.Write(b.buf[:n]); err != nil {
		b.err = err
		return
	}

	_, b.err = b.w.Write(data)
}

func (b *wireBuilder) Err() error { return b.err }

// writeSeq varint-delta-encodes a sequence of int64 values: the first
// value absolute, every following value as a signed delta against its
// predecessor — the same "offset format" pointfile.EncodeBatch applies to
// sensor samples, reused here for Locations and Events so every numeric
// stream in the payload shares one encoding rule.
func writeSeq(body *[]byte, buf []byte, values []int64) {
	var prev int64

	for i, v := range values {
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

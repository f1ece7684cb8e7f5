// Package pointfile implements the append-only per-measurement binary
// point files (C1): one file per (measurement, sample type), written once
// and appended to in self-contained delimited batches so that a write
// failure can never corrupt an already-persisted batch (spec.md §4.1).
package pointfile

// SampleType is one of the three 3-axis sensor streams the capture
// pipeline persists outside the relational catalog.
type SampleType string

const (
	SampleAcceleration SampleType = "ACCELERATION"
	SampleRotation     SampleType = "ROTATION"
	SampleDirection    SampleType = "DIRECTION"
)

// FormatVersion is PERSISTENCE_FILE_FORMAT_VERSION from spec.md §6,
// written as the first two bytes of every point file.
const FormatVersion uint16 = 3

// extension maps a SampleType to its on-disk file extension
// (spec.md §6: <app_files>/<dir>/<mid>.<ext>).
var extension = map[SampleType]string{
	SampleAcceleration: "cyfa",
	SampleRotation:     "cyfr",
	SampleDirection:     "cyfd",
}

// directory maps a SampleType to its directory name under the store root.
var directory = map[SampleType]string{
	SampleAcceleration: "accelerations",
	SampleRotation:     "rotations",
	SampleDirection:    "directions",
}

// scale is the fixed-point quantization factor applied to raw sensor
// values before they are delta-encoded, shared verbatim with the transfer
// serializer's wire format (spec.md §4.7) so sensor bytes can be copied
// into the transfer payload without re-parsing.
var scale = map[SampleType]float64{
	SampleAcceleration: 1000, // mm/s^2
	SampleRotation:     1000, // mrad/s
	SampleDirection:    100,  // 10 nT
}

// Point3D is a single 3-axis sample with a millisecond timestamp, in raw
// (unscaled) units as delivered by the platform sensor callback.
type Point3D struct {
	Timestamp int64 // ms
	X, Y, Z   float64
}

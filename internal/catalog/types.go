// Package catalog implements the relational store (C2): measurements,
// lifecycle events, locations, barometric pressures, attachments and the
// device identifier. It owns the schema, its migrations, and every
// cascading delete; callers never issue raw SQL against this store.
package catalog

// Status is a Measurement's position in the lifecycle state machine
// (spec.md §4.4). Only the lifecycle coordinator drives transitions; the
// store merely refuses illegal ones.
type Status string

const (
	StatusOpen                Status = "OPEN"
	StatusPaused              Status = "PAUSED"
	StatusFinished            Status = "FINISHED"
	StatusSynced              Status = "SYNCED"
	StatusSkipped             Status = "SKIPPED"
	StatusDeprecated          Status = "DEPRECATED"
	StatusSyncableAttachments Status = "SYNCABLE_ATTACHMENTS"
)

// Modality is the transport mode used during a capture session.
type Modality string

const (
	ModalityCar     Modality = "car"
	ModalityBike    Modality = "bike"
	ModalityWalking Modality = "walking"
	ModalityBus     Modality = "bus"
	ModalityTrain   Modality = "train"
	ModalityUnknown Modality = "unknown"
)

// EventType enumerates the kinds of Event rows a measurement can own.
type EventType string

const (
	EventLifecycleStart     EventType = "LIFECYCLE_START"
	EventLifecyclePause     EventType = "LIFECYCLE_PAUSE"
	EventLifecycleResume    EventType = "LIFECYCLE_RESUME"
	EventLifecycleStop      EventType = "LIFECYCLE_STOP"
	EventModalityTypeChange EventType = "MODALITY_TYPE_CHANGE"
)

// AttachmentStatus tracks an Attachment's independent upload lifecycle.
type AttachmentStatus string

const (
	AttachmentSaved    AttachmentStatus = "SAVED"
	AttachmentUploaded AttachmentStatus = "UPLOADED"
	AttachmentSkipped  AttachmentStatus = "SKIPPED"
)

// AttachmentType is the opaque file kind the host attached.
type AttachmentType string

const (
	AttachmentCSV  AttachmentType = "CSV"
	AttachmentJSON AttachmentType = "JSON"
	AttachmentJPG  AttachmentType = "JPG"
)

// Measurement is a single capture session row.
type Measurement struct {
	ID                int64
	Status            Status
	Modality          Modality
	FileFormatVersion int32
	Distance          float64 // meters
	Timestamp         int64   // ms since epoch, capture start
	FilesSize         int64   // bytes of attached files
}

// Event is an immutable lifecycle or modality-change marker.
type Event struct {
	ID            int64
	MeasurementID int64
	Timestamp     int64 // ms
	Type          EventType
	Value         string // new modality for MODALITY_TYPE_CHANGE, else ""
}

// Location is a single geolocation fix.
type Location struct {
	ID                int64
	MeasurementID     int64
	Timestamp         int64 // ms
	Lat               float64
	Lon               float64
	Altitude          *float64 // meters, nullable
	Speed             float64  // m/s
	Accuracy          *float64 // meters, nullable
	VerticalAccuracy  *float64 // meters, nullable
}

// Pressure is a single barometric sample.
type Pressure struct {
	ID            int64
	MeasurementID int64
	Timestamp     int64 // ms
	Pressure      float64 // hPa
}

// Attachment tracks an opaque file (log, image, ...) linked to a measurement.
type Attachment struct {
	ID                int64
	MeasurementID     int64
	Timestamp         int64
	Status            AttachmentStatus
	Type              AttachmentType
	FileFormatVersion int32
	Size              int64
	Path              string
	Lat               *float64
	Lon               *float64
	LocationTimestamp *int64
}

// PageSize bounds every cursor read (spec.md §4.2, §4.7): 10,000 rows.
const PageSize = 10_000

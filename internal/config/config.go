// Package config implements TOML configuration loading, validation, and
// platform-specific storage path resolution for the capture core.
package config

// Config is the top-level configuration structure, decoded from TOML.
type Config struct {
	Capture     CaptureConfig     `toml:"capture"`
	Cleaning    CleaningConfig    `toml:"cleaning"`
	Distance    DistanceConfig    `toml:"distance"`
	Compression CompressionConfig `toml:"compression"`
	Storage     StorageConfig     `toml:"storage"`
	Logging     LoggingConfig     `toml:"logging"`
}

// CaptureConfig holds the capturing pipeline's settings (spec.md §4.3).
// BatchMaxSamples and BatchMaxWindow are validated, but no component
// batches incoming samples by them.
type CaptureConfig struct {
	BatchMaxSamples       int    `toml:"batch_max_samples"`
	BatchMaxWindow        string `toml:"batch_max_window"`
	LocationFixLostAfter  string `toml:"location_fix_lost_after"`
	GPSWeekRolloverOffset int64  `toml:"gps_week_rollover_offset_ms"`
	AppendRetryAttempts   int    `toml:"append_retry_attempts"`
	AppendRetryBackoff    string `toml:"append_retry_backoff"`
}

// CleaningConfig holds track cleaning thresholds (spec.md §4.5). They are
// validated on load; track.DefaultCleaningStrategy uses its own fixed
// thresholds and does not read them.
type CleaningConfig struct {
	MaxAccuracyMeters float64 `toml:"max_accuracy_meters"`
	MinSpeedMPS       float64 `toml:"min_speed_mps"`
	MaxSpeedMPS       float64 `toml:"max_speed_mps"`
}

// DistanceConfig names the great-circle strategy (spec.md §4.6). The
// engine does not read it: it always builds the haversine accumulator
// with distance.New(nil).
type DistanceConfig struct {
	Strategy          string  `toml:"strategy"`
	EarthRadiusMeters float64 `toml:"earth_radius_meters"`
}

// CompressionConfig describes transfer serialization compression
// (spec.md §4.7). The transfer serializer does not read it: payloads are
// always deflate-compressed at a fixed level.
type CompressionConfig struct {
	Enabled bool `toml:"enabled"`
	Level   int  `toml:"level"`
}

// StorageConfig locates the relational store, point files, and scratch
// directory on disk (spec.md §6).
type StorageConfig struct {
	DataDir  string `toml:"data_dir"`
	CacheDir string `toml:"cache_dir"`
}

// LoggingConfig describes log output settings. The demo CLI builds its
// logger from command-line flags and does not read these fields.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

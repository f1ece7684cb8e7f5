package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	minBatchMaxSamples = 1
	minCompressionLvl  = 1
	maxCompressionLvl  = 9
)

// Validate checks all configuration values and returns all errors found,
// accumulating rather than stopping at the first so the host sees a
// complete report.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateCapture(&cfg.Capture)...)
	errs = append(errs, validateCleaning(&cfg.Cleaning)...)
	errs = append(errs, validateDistance(&cfg.Distance)...)
	errs = append(errs, validateCompression(&cfg.Compression)...)

	return errors.Join(errs...)
}

func validateCapture(c *CaptureConfig) []error {
	var errs []error

	if c.BatchMaxSamples < minBatchMaxSamples {
		errs = append(errs, fmt.Errorf("capture.batch_max_samples: must be >= %d, got %d", minBatchMaxSamples, c.BatchMaxSamples))
	}

	if _, err := time.ParseDuration(c.BatchMaxWindow); err != nil {
		errs = append(errs, fmt.Errorf("capture.batch_max_window: %w", err))
	}

	if _, err := time.ParseDuration(c.LocationFixLostAfter); err != nil {
		errs = append(errs, fmt.Errorf("capture.location_fix_lost_after: %w", err))
	}

	if c.GPSWeekRolloverOffset <= 0 {
		errs = append(errs, fmt.Errorf("capture.gps_week_rollover_offset_ms: must be positive, got %d", c.GPSWeekRolloverOffset))
	}

	if c.AppendRetryAttempts < 0 {
		errs = append(errs, fmt.Errorf("capture.append_retry_attempts: must be >= 0, got %d", c.AppendRetryAttempts))
	}

	if _, err := time.ParseDuration(c.AppendRetryBackoff); err != nil {
		errs = append(errs, fmt.Errorf("capture.append_retry_backoff: %w", err))
	}

	return errs
}

func validateCleaning(c *CleaningConfig) []error {
	var errs []error

	if c.MaxAccuracyMeters <= 0 {
		errs = append(errs, fmt.Errorf("cleaning.max_accuracy_meters: must be positive, got %v", c.MaxAccuracyMeters))
	}

	if c.MinSpeedMPS < 0 {
		errs = append(errs, fmt.Errorf("cleaning.min_speed_mps: must be >= 0, got %v", c.MinSpeedMPS))
	}

	if c.MaxSpeedMPS <= c.MinSpeedMPS {
		errs = append(errs, fmt.Errorf("cleaning.max_speed_mps: must exceed min_speed_mps (%v), got %v", c.MinSpeedMPS, c.MaxSpeedMPS))
	}

	return errs
}

func validateDistance(c *DistanceConfig) []error {
	var errs []error

	if c.Strategy != "haversine" {
		errs = append(errs, fmt.Errorf("distance.strategy: unsupported %q", c.Strategy))
	}

	if c.EarthRadiusMeters <= 0 {
		errs = append(errs, fmt.Errorf("distance.earth_radius_meters: must be positive, got %v", c.EarthRadiusMeters))
	}

	return errs
}

func validateCompression(c *CompressionConfig) []error {
	var errs []error

	if c.Level < minCompressionLvl || c.Level > maxCompressionLvl {
		errs = append(errs, fmt.Errorf("compression.level: must be in [%d, %d], got %d", minCompressionLvl, maxCompressionLvl, c.Level))
	}

	return errs
}

package config

// Default values for configuration options, chosen to match the behavior
// spec.md requires when the host supplies no config file at all.
const (
	defaultBatchMaxSamples       = 100
	defaultBatchMaxWindow        = "1s"
	defaultLocationFixLostAfter  = "2s"
	defaultGPSWeekRolloverOffset = 619_315_200_000
	defaultAppendRetryAttempts   = 3
	defaultAppendRetryBackoff    = "100ms"

	defaultMaxAccuracyMeters = 20.0
	defaultMinSpeedMPS       = 1.0
	defaultMaxSpeedMPS       = 100.0

	defaultDistanceStrategy  = "haversine"
	defaultEarthRadiusMeters = 6_371_008.8

	defaultCompressionLevel = 5

	defaultLogLevel  = "info"
	defaultLogFormat = "auto"
)

// DefaultConfig returns a Config populated with every default value. It is
// both the decode target (so unset TOML keys keep their defaults) and the
// fallback when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Capture:     defaultCaptureConfig(),
		Cleaning:    defaultCleaningConfig(),
		Distance:    defaultDistanceConfig(),
		Compression: defaultCompressionConfig(),
		Storage:     defaultStorageConfig(),
		Logging:     defaultLoggingConfig(),
	}
}

func defaultCaptureConfig() CaptureConfig {
	return CaptureConfig{
		BatchMaxSamples:       defaultBatchMaxSamples,
		BatchMaxWindow:        defaultBatchMaxWindow,
		LocationFixLostAfter:  defaultLocationFixLostAfter,
		GPSWeekRolloverOffset: defaultGPSWeekRolloverOffset,
		AppendRetryAttempts:   defaultAppendRetryAttempts,
		AppendRetryBackoff:    defaultAppendRetryBackoff,
	}
}

func defaultCleaningConfig() CleaningConfig {
	return CleaningConfig{
		MaxAccuracyMeters: defaultMaxAccuracyMeters,
		MinSpeedMPS:       defaultMinSpeedMPS,
		MaxSpeedMPS:       defaultMaxSpeedMPS,
	}
}

func defaultDistanceConfig() DistanceConfig {
	return DistanceConfig{
		Strategy:          defaultDistanceStrategy,
		EarthRadiusMeters: defaultEarthRadiusMeters,
	}
}

func defaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		Enabled: true,
		Level:   defaultCompressionLevel,
	}
}

func defaultStorageConfig() StorageConfig {
	return StorageConfig{
		DataDir:  DefaultDataDir(),
		CacheDir: DefaultCacheDir(),
	}
}

func defaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:  defaultLogLevel,
		Format: defaultLogFormat,
	}
}

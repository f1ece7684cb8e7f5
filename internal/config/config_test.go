package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, Validate(DefaultConfig()))
}

func TestLoadOrDefaultWithMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.toml"), testLogger())
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestLoadOrDefaultWithEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := LoadOrDefault("", testLogger())
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeTestConfig(t, `
[capture]
batch_max_samples = 50
batch_max_window = "500ms"

[compression]
enabled = false
level = 9
`)

	cfg, err := Load(path, testLogger())
	require.NoError(t, err)
	require.Equal(t, 50, cfg.Capture.BatchMaxSamples)
	require.Equal(t, "500ms", cfg.Capture.BatchMaxWindow)
	require.False(t, cfg.Compression.Enabled)
	require.Equal(t, 9, cfg.Compression.Level)

	// Unset sections retain their defaults.
	require.Equal(t, defaultDistanceStrategy, cfg.Distance.Strategy)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeTestConfig(t, `
[compression]
level = 99
`)

	_, err := Load(path, testLogger())
	require.Error(t, err)
}

func TestValidateRejectsMalformedDurations(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capture.BatchMaxWindow = "not-a-duration"

	require.Error(t, Validate(cfg))
}

func TestValidateRejectsInvertedSpeedRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cleaning.MinSpeedMPS = 50
	cfg.Cleaning.MaxSpeedMPS = 10

	require.Error(t, Validate(cfg))
}

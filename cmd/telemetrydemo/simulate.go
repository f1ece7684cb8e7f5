package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/trailcapture/core/internal/capture"
	"github.com/trailcapture/core/internal/pointfile"
)

func newSimulateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "simulate <id>",
		Short: "Feed a handful of synthetic sensor, location and pressure samples into the active measurement",
		Args:  cobra.ExactArgs(1),
		RunE:  runWithMeasurementID(runSimulate),
	}
}

func runSimulate(ctx context.Context, cc *CLIContext, mid int64) error {
	now := time.Now().UnixMilli()

	samples := []capture.RawSensorSample{
		{EventTimeNanos: now * 1_000_000, X: 0.1, Y: 0.2, Z: 9.8},
		{EventTimeNanos: (now + 10) * 1_000_000, X: 0.1, Y: 0.2, Z: 9.7},
	}

	if err := cc.Engine.SubmitSensorBatch(ctx, pointfile.SampleAcceleration, now, samples); err != nil {
		return fmt.Errorf("simulating measurement %d: %w", mid, err)
	}

	if err := cc.Engine.SubmitLocationFix(ctx, capture.RawLocationFix{TimestampMs: now, Lat: 60.17, Lon: 24.94, Speed: 3.1}); err != nil {
		return fmt.Errorf("simulating measurement %d: %w", mid, err)
	}

	if err := cc.Engine.SubmitPressureSample(ctx, now, 1013.25); err != nil {
		return fmt.Errorf("simulating measurement %d: %w", mid, err)
	}

	return nil
}

package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/trailcapture/core/internal/catalog"
)

func newStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start [modality]",
		Short: "Start a new measurement",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runStart,
	}

	return cmd
}

func runStart(cmd *cobra.Command, args []string) error {
	cc := mustCLIContext(cmd.Context())

	modality := catalog.ModalityUnknown
	if len(args) > 0 {
		modality = catalog.Modality(args[0])
	}

	m, err := cc.Engine.NewMeasurement(cmd.Context(), modality)
	if err != nil {
		return fmt.Errorf("starting measurement: %w", err)
	}

	statusf(cc.Quiet, "Started measurement %d (%s)\n", m.ID, m.Modality)

	return nil
}

func newPauseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pause <id>",
		Short: "Pause the active measurement",
		Args:  cobra.ExactArgs(1),
		RunE:  runWithMeasurementID(func(ctx context.Context, cc *CLIContext, mid int64) error { return cc.Engine.Pause(ctx, mid) }),
	}
}

func newResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume <id>",
		Short: "Resume a paused measurement",
		Args:  cobra.ExactArgs(1),
		RunE:  runWithMeasurementID(func(ctx context.Context, cc *CLIContext, mid int64) error { return cc.Engine.Resume(ctx, mid) }),
	}
}

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop <id>",
		Short: "Stop the active measurement",
		Args:  cobra.ExactArgs(1),
		RunE:  runWithMeasurementID(func(ctx context.Context, cc *CLIContext, mid int64) error { return cc.Engine.Stop(ctx, mid) }),
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a finished measurement and its attachments",
		Args:  cobra.ExactArgs(1),
		RunE:  runWithMeasurementID(func(ctx context.Context, cc *CLIContext, mid int64) error { return cc.Engine.Delete(ctx, mid) }),
	}
}

// runWithMeasurementID adapts a (ctx, CLIContext, mid) action into a
// cobra RunE, parsing args[0] as the measurement id and reporting success
// on stderr unless --quiet.
func runWithMeasurementID(action func(ctx context.Context, cc *CLIContext, mid int64) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cc := mustCLIContext(cmd.Context())

		mid, err := parseMeasurementID(args[0])
		if err != nil {
			return err
		}

		if err := action(cmd.Context(), cc, mid); err != nil {
			return err
		}

		statusf(cc.Quiet, "OK (measurement %d)\n", mid)

		return nil
	}
}

func parseMeasurementID(s string) (int64, error) {
	mid, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid measurement id %q: %w", s, err)
	}

	return mid, nil
}

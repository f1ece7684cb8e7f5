package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/trailcapture/core/internal/catalog"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List every measurement and its status",
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())

	measurements, err := cc.Engine.LoadMeasurements(cmd.Context(), "")
	if err != nil {
		return fmt.Errorf("loading measurements: %w", err)
	}

	if cc.JSON {
		return printStatusJSON(measurements)
	}

	printStatusText(cc, measurements)

	return nil
}

func printStatusJSON(measurements []catalog.Measurement) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if err := enc.Encode(measurements); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}

	return nil
}

func printStatusText(cc *CLIContext, measurements []catalog.Measurement) {
	if len(measurements) == 0 {
		fmt.Println("No measurements recorded yet.")
		return
	}

	headers := []string{"ID", "STATUS", "MODALITY", "DISTANCE", "STARTED"}
	rows := make([][]string, 0, len(measurements))

	for _, m := range measurements {
		rows = append(rows, []string{
			fmt.Sprintf("%d", m.ID),
			string(m.Status),
			string(m.Modality),
			formatDistance(m.Distance),
			formatTime(m.Timestamp),
		})
	}

	printTable(os.Stdout, cc.Color, headers, rows)
}

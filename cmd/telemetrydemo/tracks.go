package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/trailcapture/core/internal/track"
)

func newTracksCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "tracks <id>",
		Short: "List the tracks assembled from a measurement's locations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTracks(cmd, args, raw)
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "skip the default cleaning strategy")

	return cmd
}

func runTracks(cmd *cobra.Command, args []string, raw bool) error {
	cc := mustCLIContext(cmd.Context())

	mid, err := parseMeasurementID(args[0])
	if err != nil {
		return err
	}

	var strategy track.CleaningStrategy = track.DefaultCleaningStrategy{}
	if raw {
		strategy = nil
	}

	tracks, err := cc.Engine.LoadTracks(cmd.Context(), mid, strategy)
	if err != nil {
		return fmt.Errorf("loading tracks: %w", err)
	}

	headers := []string{"TRACK", "POINTS", "FIRST", "LAST"}
	rows := make([][]string, 0, len(tracks))

	for i, t := range tracks {
		if len(t.Locations) == 0 {
			continue
		}

		first := t.Locations[0]
		last := t.Locations[len(t.Locations)-1]

		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%d", len(t.Locations)),
			formatTime(first.Timestamp),
			formatTime(last.Timestamp),
		})
	}

	if len(rows) == 0 {
		fmt.Println("No tracks.")
		return nil
	}

	printTable(os.Stdout, cc.Color, headers, rows)

	return nil
}

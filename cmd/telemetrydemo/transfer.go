package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newSerializeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serialize <id>",
		Short: "Write a measurement's compressed transfer payload to a scratch file and print its path",
		Args:  cobra.ExactArgs(1),
		RunE:  runSerialize,
	}
}

func runSerialize(cmd *cobra.Command, args []string) error {
	cc := mustCLIContext(cmd.Context())

	mid, err := parseMeasurementID(args[0])
	if err != nil {
		return err
	}

	path, err := cc.Engine.WriteSerializedCompressed(cmd.Context(), mid)
	if err != nil {
		return fmt.Errorf("serializing measurement %d: %w", mid, err)
	}

	info, statErr := os.Stat(path)

	if statErr == nil {
		statusf(cc.Quiet, "Wrote %s (%s)\n", path, formatSize(info.Size()))
	} else {
		statusf(cc.Quiet, "Wrote %s\n", path)
	}

	fmt.Println(path)

	return nil
}

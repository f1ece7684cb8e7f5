package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// formatSize returns a human-readable byte count (e.g. "1.2 MB"),
// replacing the teacher's hand-rolled version with go-humanize.
func formatSize(bytes int64) string {
	return humanize.Bytes(uint64(bytes))
}

// formatTime returns a relative, human-readable timestamp (e.g.
// "3 minutes ago") for a millisecond epoch value.
func formatTime(ms int64) string {
	return humanize.Time(time.UnixMilli(ms))
}

// formatDistance reports a measurement's cumulative distance in a
// human-scaled unit.
func formatDistance(meters float64) string {
	if meters >= 1000 {
		return fmt.Sprintf("%.2f km", meters/1000)
	}

	return fmt.Sprintf("%.0f m", meters)
}

// printTable writes aligned columns to w, bolding the header when color
// is enabled (an interactive terminal, per isatty — see root.go's
// CLIContext.Color).
func printTable(w io.Writer, color bool, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}

	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	printRow(w, headers, widths, color)

	for _, row := range rows {
		printRow(w, row, widths, false)
	}
}

const ansiBold = "\033[1m"
const ansiReset = "\033[0m"

func printRow(w io.Writer, cells []string, widths []int, bold bool) {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
	}

	line := strings.Join(parts, "  ")

	if bold {
		fmt.Fprintln(w, ansiBold+line+ansiReset)
	} else {
		fmt.Fprintln(w, line)
	}
}

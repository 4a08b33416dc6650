package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/ivlev/floodcheck/internal/models"
	"github.com/ivlev/floodcheck/internal/source"
)

// WriteText renders the human-readable table of a batch
func WriteText(w io.Writer, b *models.BatchResult) {
	if b.Empty() {
		fmt.Fprintln(w, "No screenshots found!")
		return
	}

	switch b.Mode {
	case source.ModeScenario:
		writeScenarioTable(w, b)
	case source.ModeElevation:
		writeElevationTable(w, b)
	}
	writeTotals(w, b)
}

func writeScenarioTable(w io.Writer, b *models.BatchResult) {
	sep := strings.Repeat("-", 65)

	fmt.Fprintf(w, "Analyzing %d ZOOM screenshots...\n\n", len(b.Rows))
	fmt.Fprintf(w, "%-25s %12s %10s %10s\n", "Test Name", "Water Level", "Blue Ratio", "Flooding?")
	fmt.Fprintln(w, sep)

	for _, row := range b.Rows {
		if !row.Record.OK() {
			fmt.Fprintf(w, "%-25s %+10d ft ERROR: %s\n", row.TestName, row.WaterLevelFt, row.Record.Err)
			continue
		}
		fmt.Fprintf(w, "%-25s %+10d ft %9.1f%% %10s\n",
			row.TestName, row.WaterLevelFt, row.Record.Stats.BlueRatio*100, floodFlag(row))
	}

	fmt.Fprintln(w, sep)
}

func writeElevationTable(w io.Writer, b *models.BatchResult) {
	sep := strings.Repeat("-", 60)

	fmt.Fprintf(w, "Analyzing %d ELEVATION screenshots...\n\n", len(b.Rows))
	fmt.Fprintf(w, "%-15s %-12s %-20s %-10s\n", "Elevation", "Blue Ratio", "Avg Color (R,G,B)", "Flooding?")
	fmt.Fprintln(w, sep)

	for _, row := range b.Rows {
		if !row.Record.OK() {
			fmt.Fprintf(w, "%10d ft    ERROR: %s\n", row.WaterLevelFt, row.Record.Err)
			continue
		}
		s := row.Record.Stats
		avg := fmt.Sprintf("(%d, %d, %d)", s.AvgColor[0], s.AvgColor[1], s.AvgColor[2])
		fmt.Fprintf(w, "%10d ft    %-12.4f %-20s %-10s\n", row.WaterLevelFt, s.BlueRatio, avg, floodFlag(row))
	}

	fmt.Fprintln(w, sep)
}

func floodFlag(row models.Row) string {
	if row.Record.Flooded() {
		return "YES"
	}
	return "no"
}

func writeTotals(w io.Writer, b *models.BatchResult) {
	total, flooded, failed := b.Counts()
	fmt.Fprintf(w, "Flooded: %d/%d | Errors: %d\n", flooded, total, failed)

	for _, onset := range b.FloodOnsets() {
		if b.Mode == source.ModeScenario {
			fmt.Fprintf(w, "  %-25s first flooded at %+d ft\n", onset.TestName, onset.WaterLevelFt)
		} else {
			fmt.Fprintf(w, "  first flooded at %+d ft\n", onset.WaterLevelFt)
		}
	}
	if len(b.Skipped) > 0 {
		fmt.Fprintf(w, "Skipped %d unrecognized file(s)\n", len(b.Skipped))
	}
}

// WriteSaved prints where the summary ended up
func WriteSaved(w io.Writer, b *models.BatchResult) {
	if b.SummaryPath == "" {
		return
	}
	label := "Analysis"
	if b.Mode == source.ModeScenario {
		label = "Zoom analysis"
	}
	fmt.Fprintf(w, "\n✓ %s saved to: %s\n", label, b.SummaryPath)
}

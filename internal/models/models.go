package models

import (
	"github.com/ivlev/floodcheck/internal/analyzer"
	"github.com/ivlev/floodcheck/internal/source"
)

// Location is the camera target in degrees
type Location struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Camera is the capture metadata the screenshot run logged for a file
type Camera struct {
	Location      Location `json:"location"`
	CameraHeightM float64  `json:"camera_height_m"`
	DebugInfo     string   `json:"debug_info,omitempty"`
}

// Row is one analysed screenshot
type Row struct {
	Filename     string
	TestName     string // empty in elevation mode
	WaterLevelFt int
	Record       analyzer.Record
	Camera       *Camera
}

// BatchResult holds every row of a run in directory order
type BatchResult struct {
	Dir         string
	Mode        source.Mode
	Rows        []Row
	Skipped     []string
	SummaryPath string // empty until the summary has been written
}

func (b *BatchResult) Empty() bool {
	return b == nil || len(b.Rows) == 0
}

// Counts returns the number of rows, flooded rows and failed rows
func (b *BatchResult) Counts() (total, flooded, failed int) {
	for _, row := range b.Rows {
		total++
		switch {
		case !row.Record.OK():
			failed++
		case row.Record.Flooded():
			flooded++
		}
	}
	return total, flooded, failed
}

// ByElevation folds the rows into an elevation-keyed mapping. Keys keep the
// position they were first seen at; a later row with the same elevation
// replaces the earlier record.
func (b *BatchResult) ByElevation() ([]int, map[int]analyzer.Record) {
	var keys []int
	records := make(map[int]analyzer.Record, len(b.Rows))
	for _, row := range b.Rows {
		if _, seen := records[row.WaterLevelFt]; !seen {
			keys = append(keys, row.WaterLevelFt)
		}
		records[row.WaterLevelFt] = row.Record
	}
	return keys, records
}

// FloodOnset is the lowest water level at which a test showed the overlay
type FloodOnset struct {
	TestName     string
	WaterLevelFt int
}

// FloodOnsets returns, per test name in first-seen order, the lowest flooded
// water level. Tests that never flooded are left out.
func (b *BatchResult) FloodOnsets() []FloodOnset {
	var order []string
	lowest := map[string]int{}
	for _, row := range b.Rows {
		if !row.Record.Flooded() {
			continue
		}
		level, ok := lowest[row.TestName]
		if !ok {
			order = append(order, row.TestName)
			lowest[row.TestName] = row.WaterLevelFt
			continue
		}
		if row.WaterLevelFt < level {
			lowest[row.TestName] = row.WaterLevelFt
		}
	}

	onsets := make([]FloodOnset, 0, len(order))
	for _, name := range order {
		onsets = append(onsets, FloodOnset{TestName: name, WaterLevelFt: lowest[name]})
	}
	return onsets
}

package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ivlev/floodcheck/internal/analyzer"
	"github.com/ivlev/floodcheck/internal/models"
	"github.com/ivlev/floodcheck/internal/source"
)

// record is the JSON shape of an analysis record: classifier fields or error
type record struct {
	*analyzer.ColorStats
	Error string `json:"error,omitempty"`
}

type scenarioRow struct {
	TestName     string `json:"test_name"`
	WaterLevelFt int    `json:"water_level_ft"`
	record
	Camera *models.Camera `json:"camera,omitempty"`
}

func toRecord(r analyzer.Record) record {
	if !r.OK() {
		msg := r.Err
		if msg == "" {
			msg = "no result"
		}
		return record{Error: msg}
	}
	return record{ColorStats: r.Stats}
}

// elevationSummary keeps the first-seen key order of the mapping
type elevationSummary struct {
	keys    []int
	records map[int]analyzer.Record
}

func (s elevationSummary) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range s.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(strconv.Itoa(k)))
		buf.WriteByte(':')
		b, err := json.Marshal(toRecord(s.records[k]))
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalSummary renders the machine-readable summary of a batch: a list of
// rows in scenario mode, an object keyed by elevation in elevation mode.
func MarshalSummary(b *models.BatchResult) ([]byte, error) {
	var v any
	switch b.Mode {
	case source.ModeScenario:
		rows := make([]scenarioRow, 0, len(b.Rows))
		for _, row := range b.Rows {
			rows = append(rows, scenarioRow{
				TestName:     row.TestName,
				WaterLevelFt: row.WaterLevelFt,
				record:       toRecord(row.Record),
				Camera:       row.Camera,
			})
		}
		v = rows
	case source.ModeElevation:
		keys, records := b.ByElevation()
		v = elevationSummary{keys: keys, records: records}
	default:
		return nil, fmt.Errorf("no summary for mode %s", b.Mode)
	}
	return json.MarshalIndent(v, "", "  ")
}

// WriteSummary writes the summary to path in one step: the data goes to a
// temporary file in the same directory which is then renamed over path.
func WriteSummary(b *models.BatchResult, path string) error {
	data, err := MarshalSummary(b)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".floodcheck-*.tmp")
	if err != nil {
		return fmt.Errorf("create summary: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write summary: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close summary: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("chmod summary: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename summary: %w", err)
	}
	return nil
}

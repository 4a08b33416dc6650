package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ivlev/floodcheck/internal/analyzer"
	"github.com/ivlev/floodcheck/internal/models"
	"github.com/ivlev/floodcheck/internal/source"
)

func stats(blue, total int, ratio float64, flooded bool) analyzer.Record {
	return analyzer.Record{Stats: &analyzer.ColorStats{
		BluePixels:  blue,
		TotalPixels: total,
		BlueRatio:   ratio,
		AvgColor:    [3]int{40, 80, 200},
		HasFlooding: flooded,
	}}
}

func scenarioBatch() *models.BatchResult {
	return &models.BatchResult{
		Mode: source.ModeScenario,
		Rows: []models.Row{
			{TestName: "Global_Full", WaterLevelFt: 0, Record: stats(0, 10000, 0, false)},
			{TestName: "Global_Full", WaterLevelFt: 500, Record: stats(2500, 10000, 0.25, true),
				Camera: &models.Camera{Location: models.Location{Lon: 0, Lat: 20}, CameraHeightM: 20000000}},
			{TestName: "Local_Coast", WaterLevelFt: -100, Record: analyzer.Record{Err: "decode: bad"}},
		},
	}
}

func TestMarshalScenarioSummary(t *testing.T) {
	data, err := MarshalSummary(scenarioBatch())
	if err != nil {
		t.Fatalf("MarshalSummary: %v", err)
	}

	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, data)
	}
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3", len(rows))
	}

	first := rows[0]
	for _, key := range []string{"test_name", "water_level_ft", "blue_pixels", "total_pixels", "blue_ratio", "avg_color", "has_flooding"} {
		if _, ok := first[key]; !ok {
			t.Errorf("row 0 missing %q", key)
		}
	}
	if _, ok := first["error"]; ok {
		t.Error("successful row must not carry error")
	}
	if _, ok := first["camera"]; ok {
		t.Error("row without camera metadata must omit camera")
	}
	if avg, ok := first["avg_color"].([]any); !ok || len(avg) != 3 {
		t.Errorf("avg_color = %v, want 3-element array", first["avg_color"])
	}

	if _, ok := rows[1]["camera"]; !ok {
		t.Error("row 1 should carry camera metadata")
	}

	failed := rows[2]
	if failed["error"] != "decode: bad" {
		t.Errorf("error = %v", failed["error"])
	}
	if failed["water_level_ft"] != float64(-100) {
		t.Errorf("water_level_ft = %v, want -100", failed["water_level_ft"])
	}
	if _, ok := failed["blue_ratio"]; ok {
		t.Error("error row must not carry classifier fields")
	}
}

func TestMarshalElevationSummaryKeepsOrder(t *testing.T) {
	b := &models.BatchResult{
		Mode: source.ModeElevation,
		Rows: []models.Row{
			{WaterLevelFt: 5000, Record: stats(0, 10000, 0, false)},
			{WaterLevelFt: 5100, Record: stats(5000, 10000, 0.5, true)},
			{WaterLevelFt: -50, Record: analyzer.Record{Err: "open image: missing"}},
		},
	}

	data, err := MarshalSummary(b)
	if err != nil {
		t.Fatalf("MarshalSummary: %v", err)
	}

	text := string(data)
	if !strings.HasPrefix(text, "{\n  \"5000\": {") {
		t.Errorf("summary does not open with the first elevation key:\n%s", text)
	}
	i5000 := strings.Index(text, `"5000"`)
	i5100 := strings.Index(text, `"5100"`)
	iNeg := strings.Index(text, `"-50"`)
	if i5000 < 0 || i5100 < 0 || iNeg < 0 {
		t.Fatalf("missing keys in %s", text)
	}
	if !(i5000 < i5100 && i5100 < iNeg) {
		t.Errorf("keys not in file order:\n%s", text)
	}

	var m map[string]map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["5100"]["has_flooding"] != true {
		t.Errorf("5100 = %v", m["5100"])
	}
	if m["-50"]["error"] != "open image: missing" {
		t.Errorf("-50 = %v", m["-50"])
	}
	if !strings.Contains(text, "\n  \"5000\": {\n    \"blue_pixels\"") {
		t.Errorf("summary not indented with two spaces:\n%s", text)
	}
}

func TestMarshalSummaryNoMode(t *testing.T) {
	if _, err := MarshalSummary(&models.BatchResult{}); err == nil {
		t.Fatal("expected error for empty mode")
	}
}

func TestWriteSummary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zoom_analysis.json")

	if err := WriteSummary(scenarioBatch(), path); err != nil {
		t.Fatalf("WriteSummary: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	if !json.Valid(data) {
		t.Errorf("summary is not valid JSON:\n%s", data)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only the summary in dir, found %d entries", len(entries))
	}
}

func TestWriteTextScenario(t *testing.T) {
	var buf bytes.Buffer
	WriteText(&buf, scenarioBatch())
	out := buf.String()

	for _, want := range []string{
		"Analyzing 3 ZOOM screenshots...",
		"Test Name                  Water Level Blue Ratio  Flooding?",
		"Global_Full                       +0 ft       0.0%         no",
		"Global_Full                     +500 ft      25.0%        YES",
		"Local_Coast                     -100 ft ERROR: decode: bad",
		"Flooded: 1/3 | Errors: 1",
		"first flooded at +500 ft",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestWriteTextElevation(t *testing.T) {
	b := &models.BatchResult{
		Mode: source.ModeElevation,
		Rows: []models.Row{
			{WaterLevelFt: 5140, Record: stats(1234, 10000, 0.1234, true)},
			{WaterLevelFt: -50, Record: analyzer.Record{Err: "boom"}},
		},
	}

	var buf bytes.Buffer
	WriteText(&buf, b)
	out := buf.String()

	for _, want := range []string{
		"Analyzing 2 ELEVATION screenshots...",
		"      5140 ft    0.1234       (40, 80, 200)        YES",
		"       -50 ft    ERROR: boom",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestWriteTextEmpty(t *testing.T) {
	var buf bytes.Buffer
	WriteText(&buf, &models.BatchResult{})
	if strings.TrimSpace(buf.String()) != "No screenshots found!" {
		t.Errorf("got %q", buf.String())
	}
}

func TestWriteSaved(t *testing.T) {
	var buf bytes.Buffer
	WriteSaved(&buf, &models.BatchResult{Mode: source.ModeScenario})
	if buf.Len() != 0 {
		t.Error("nothing should be printed before the summary is written")
	}

	WriteSaved(&buf, &models.BatchResult{Mode: source.ModeScenario, SummaryPath: "dir/zoom_analysis.json"})
	if !strings.Contains(buf.String(), "Zoom analysis saved to: dir/zoom_analysis.json") {
		t.Errorf("got %q", buf.String())
	}
}

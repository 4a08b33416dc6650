package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ivlev/floodcheck/internal/analyzer"
	"github.com/ivlev/floodcheck/internal/config"
	"github.com/ivlev/floodcheck/internal/plan"
	"github.com/ivlev/floodcheck/internal/source"
	"github.com/ivlev/floodcheck/internal/store"
)

func newTestProject(t *testing.T, dir string) (*Project, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.Dir = dir
	c, err := analyzer.NewClassifier("center", cfg.Classifier)
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	return NewProject(cfg, c, &out), &out
}

func synth(t *testing.T, p *plan.Plan) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "test_screenshots")
	if _, err := plan.Synthesize(dir, p, config.DefaultNaming(), plan.DefaultSynthOptions()); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	return dir
}

func regionalPlan() *plan.Plan {
	return &plan.Plan{Mode: plan.ModeZoom, FloodLineFt: 100, Scenarios: []plan.Scenario{
		{Name: "Regional", Lon: -95, Lat: 30, CameraHeightM: 1000000, WaterLevelsFt: []int{0, 100, 500}},
	}}
}

func TestRunScenario(t *testing.T) {
	dir := synth(t, regionalPlan())
	os.WriteFile(filepath.Join(dir, "zoom_Broken_+0000ft.png"), []byte("not a png"), 0644)
	os.WriteFile(filepath.Join(dir, "elevation_+05000ft.png"), []byte("ignored"), 0644)

	p, out := newTestProject(t, dir)
	batch, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if batch.Mode != source.ModeScenario {
		t.Fatalf("Mode = %v, want scenario", batch.Mode)
	}
	if len(batch.Rows) != 4 {
		t.Fatalf("len(Rows) = %d, want 4", len(batch.Rows))
	}
	if batch.Rows[0].Filename != "zoom_Broken_+0000ft.png" || batch.Rows[0].Record.OK() {
		t.Errorf("corrupt file should be an error row: %+v", batch.Rows[0])
	}
	if batch.Rows[0].Camera != nil {
		t.Error("file missing from the run log got a camera")
	}

	flooded := []bool{false, true, true}
	for i, row := range batch.Rows[1:] {
		if row.Record.Flooded() != flooded[i] {
			t.Errorf("%s flooded = %v, want %v", row.Filename, row.Record.Flooded(), flooded[i])
		}
		if row.Camera == nil || row.Camera.CameraHeightM != 1000000 {
			t.Errorf("%s camera = %+v", row.Filename, row.Camera)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "zoom_analysis.json"))
	if err != nil {
		t.Fatalf("summary not written: %v", err)
	}
	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(rows) != 4 || rows[0]["error"] == nil {
		t.Errorf("summary rows = %v", rows)
	}

	text := out.String()
	for _, want := range []string{"Analyzing 4 ZOOM screenshots", "Flooded: 2/4 | Errors: 1", "Zoom analysis saved to"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestRunIgnoresPreviousSummary(t *testing.T) {
	dir := synth(t, regionalPlan())
	p, _ := newTestProject(t, dir)

	first, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	second, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if len(second.Rows) != len(first.Rows) {
		t.Errorf("second run analysed %d rows, first %d", len(second.Rows), len(first.Rows))
	}
}

func TestRunEmptyDir(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "debug_initial.png"), []byte("x"), 0644)

	p, out := newTestProject(t, dir)
	batch, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !batch.Empty() || batch.SummaryPath != "" {
		t.Errorf("expected empty batch, got %+v", batch)
	}
	if !strings.Contains(out.String(), "No screenshots found!") {
		t.Errorf("output = %q", out.String())
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("no summary should be written, dir has %d entries", len(entries))
	}
}

func TestRunMissingDir(t *testing.T) {
	p, _ := newTestProject(t, filepath.Join(t.TempDir(), "missing"))
	if _, err := p.Run(context.Background()); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestWorkersMatchSequential(t *testing.T) {
	dir := synth(t, plan.DefaultElevationPlan())

	seq, _ := newTestProject(t, dir)
	want, err := seq.Analyze(context.Background(), dir)
	if err != nil {
		t.Fatalf("sequential: %v", err)
	}

	par, _ := newTestProject(t, dir)
	par.Config.Workers = 4
	got, err := par.Analyze(context.Background(), dir)
	if err != nil {
		t.Fatalf("parallel: %v", err)
	}

	if !reflect.DeepEqual(got.Rows, want.Rows) {
		t.Errorf("parallel rows differ from sequential rows")
	}
	if len(got.Rows) != 10 {
		t.Errorf("len(Rows) = %d, want 10", len(got.Rows))
	}
}

func TestAnalyzeCancelled(t *testing.T) {
	dir := synth(t, regionalPlan())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{1, 3} {
		p, _ := newTestProject(t, dir)
		p.Config.Workers = workers
		if _, err := p.Run(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("workers=%d: err = %v, want context.Canceled", workers, err)
		}
	}

	if _, err := os.Stat(filepath.Join(dir, "zoom_analysis.json")); !os.IsNotExist(err) {
		t.Error("cancelled run must not write the summary")
	}
}

func TestRunSinks(t *testing.T) {
	dir := synth(t, plan.DefaultElevationPlan())
	work := t.TempDir()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(work); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldWD) })

	p, out := newTestProject(t, dir)
	p.Config.DBPath = filepath.Join(work, "history.db")
	p.Config.MetricsFile = filepath.Join(work, "floodcheck.prom")
	p.Config.ShowStats = true
	p.Config.BuildVersion = "test"

	batch, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if batch.SummaryPath != filepath.Join(dir, "analysis_results.json") {
		t.Errorf("SummaryPath = %q", batch.SummaryPath)
	}

	db, err := store.Open(p.Config.DBPath)
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	defer db.Close()
	runs, err := db.LatestRuns(10)
	if err != nil || len(runs) != 1 {
		t.Fatalf("runs = %+v, err = %v", runs, err)
	}
	if runs[0].Mode != "elevation" || runs[0].Total != 10 || runs[0].Flooded != 5 {
		t.Errorf("run = %+v", runs[0])
	}

	prom, err := os.ReadFile(p.Config.MetricsFile)
	if err != nil {
		t.Fatalf("metrics file: %v", err)
	}
	if !strings.Contains(string(prom), `floodcheck_images_classified_total{mode="elevation",outcome="flooded"}`) {
		t.Errorf("metrics file missing counter:\n%s", prom)
	}

	if strings.Contains(out.String(), "[*]") {
		t.Errorf("diagnostics leaked into the report output:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "--- [PERFORMANCE REPORT] ---") {
		t.Errorf("stats report missing:\n%s", out.String())
	}
	if _, err := os.Stat(filepath.Join(work, BenchmarkLog)); err != nil {
		t.Errorf("benchmark log: %v", err)
	}
}

func TestRunBadHistoryPathDoesNotFail(t *testing.T) {
	dir := synth(t, regionalPlan())
	p, _ := newTestProject(t, dir)
	p.Config.DBPath = filepath.Join(t.TempDir(), "no", "such", "dir", "history.db")

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("history failure must not fail the run: %v", err)
	}
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ivlev/floodcheck/internal/analyzer"
	"github.com/ivlev/floodcheck/internal/config"
	"github.com/ivlev/floodcheck/internal/engine"
	"github.com/ivlev/floodcheck/internal/models"
	"github.com/ivlev/floodcheck/internal/plan"
	"github.com/ivlev/floodcheck/internal/source"
	"github.com/ivlev/floodcheck/internal/system"
)

type AnalyzeCmd struct {
	Dir         string   `short:"d" help:"Screenshot directory (default test_screenshots)." env:"FLOODCHECK_DIR"`
	Workers     *int     `short:"w" help:"Parallel decoders (1 keeps strict sequential order)." env:"FLOODCHECK_WORKERS"`
	Stats       bool     `help:"Print the performance report and append to benchmark.log." env:"FLOODCHECK_STATS"`
	DB          string   `help:"SQLite run history database." env:"FLOODCHECK_DB"`
	MetricsFile string   `help:"Write Prometheus metrics in text format to this file." env:"FLOODCHECK_METRICS_FILE"`
	RunLog      string   `help:"Run log of the screenshot capture (default ../test_results.json)." env:"FLOODCHECK_RUN_LOG"`
	HalfExtent  *int     `help:"Half-size of the center sample window in pixels." env:"FLOODCHECK_HALF_EXTENT"`
	Threshold   *float64 `help:"Blue ratio above which a frame counts as flooded." env:"FLOODCHECK_THRESHOLD"`
	Classifier  string   `help:"Classifier variant." default:"center" enum:"center" env:"FLOODCHECK_CLASSIFIER"`
}

// apply overlays the flags on a loaded configuration
func (a *AnalyzeCmd) apply(cfg *config.Config, g *Globals) {
	if a.Dir != "" {
		cfg.Dir = a.Dir
	}
	if a.Workers != nil {
		cfg.Workers = *a.Workers
	}
	if a.Stats {
		cfg.ShowStats = true
	}
	if a.DB != "" {
		cfg.DBPath = a.DB
	}
	if a.MetricsFile != "" {
		cfg.MetricsFile = a.MetricsFile
	}
	if a.RunLog != "" {
		cfg.RunLog = a.RunLog
	}
	if a.HalfExtent != nil {
		cfg.Classifier.SampleHalfExtent = *a.HalfExtent
	}
	if a.Threshold != nil {
		cfg.Classifier.FloodThreshold = *a.Threshold
	}
	if g.Verbose {
		cfg.Verbose = true
	}
	cfg.BuildVersion = BuildVersion
}

func (a *AnalyzeCmd) Run(ctx context.Context, g *Globals) error {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return err
	}
	a.apply(cfg, g)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	c, err := analyzer.NewClassifier(a.Classifier, cfg.Classifier)
	if err != nil {
		return err
	}
	if cfg.Workers > 1 {
		system.RaiseFileLimit(uint64(cfg.Workers) * 4)
	}

	project := engine.NewProject(cfg, c, os.Stdout)
	batch, err := project.Run(ctx)
	if err != nil {
		return err
	}

	if !batch.Empty() {
		total, flooded, failed := batch.Counts()
		success("Done: %d screenshots, %d flooded, %d errors", total, flooded, failed)
	}
	return nil
}

type PlanCmd struct {
	Plan      string `help:"Test plan YAML (default: built-in zoom matrix)." type:"existingfile" env:"FLOODCHECK_PLAN"`
	Elevation bool   `help:"Use the built-in elevation sweep instead of the zoom matrix."`
	Write     string `help:"Write the plan to this YAML file."`
	Dir       string `help:"Check this screenshot directory against the plan."`
}

// loadPlan prefers the flag, then plan_path from the config file, then a
// built-in plan
func loadPlan(path string, cfg *config.Config, elevation bool) (*plan.Plan, error) {
	if path == "" {
		path = cfg.PlanPath
	}
	if path != "" {
		return plan.ReadPlan(path)
	}
	if elevation {
		return plan.DefaultElevationPlan(), nil
	}
	return plan.DefaultPlan(), nil
}

func (c *PlanCmd) Run(g *Globals) error {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return err
	}
	p, err := loadPlan(c.Plan, cfg, c.Elevation)
	if err != nil {
		return err
	}

	if c.Write != "" {
		if err := plan.WritePlan(p, c.Write); err != nil {
			return fmt.Errorf("write plan: %w", err)
		}
		success("Plan written to %s", c.Write)
		return nil
	}

	if c.Dir == "" {
		for _, e := range plan.ExpectedFiles(p, cfg.Naming) {
			fmt.Println(e.Filename)
		}
		return nil
	}

	src, err := source.Scan(c.Dir, cfg.Naming)
	if err != nil {
		return err
	}
	cov := plan.Coverage(p, cfg.Naming, batchOf(src))
	fmt.Printf("[*] %s: %d/%d planned screenshots present\n", c.Dir, cov.Found, cov.Expected)
	for _, name := range cov.Missing {
		fmt.Printf("    missing:    %s\n", name)
	}
	for _, name := range cov.Unexpected {
		fmt.Printf("    unexpected: %s\n", name)
	}
	if !cov.Complete() {
		return fmt.Errorf("%d planned screenshots missing", len(cov.Missing))
	}
	success("Coverage complete")
	return nil
}

// batchOf lists the test conditions of a scan without classifying anything
func batchOf(src *source.ScreenshotSource) *models.BatchResult {
	b := &models.BatchResult{Dir: src.Dir, Mode: src.Mode, Skipped: src.Skipped}
	for _, e := range src.Entries {
		b.Rows = append(b.Rows, models.Row{Filename: e.Filename, TestName: e.Name, WaterLevelFt: e.WaterLevelFt})
	}
	return b
}

type SynthCmd struct {
	Dir       string `required:"" help:"Directory to write screenshots into." env:"FLOODCHECK_DIR"`
	Plan      string `help:"Test plan YAML (default: built-in zoom matrix)." type:"existingfile" env:"FLOODCHECK_PLAN"`
	Elevation bool   `help:"Use the built-in elevation sweep instead of the zoom matrix."`
	FloodLine *int   `help:"Water level in feet from which frames show flooding (default from the plan)."`
	Width     int    `help:"Frame width." default:"320"`
	Height    int    `help:"Frame height." default:"240"`
	NoRunLog  bool   `help:"Do not write test_results.json next to the directory."`
}

func (c *SynthCmd) Run(g *Globals) error {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return err
	}
	p, err := loadPlan(c.Plan, cfg, c.Elevation)
	if err != nil {
		return err
	}
	if c.FloodLine != nil {
		p.FloodLineFt = *c.FloodLine
	}

	opts := plan.DefaultSynthOptions()
	opts.Width, opts.Height = c.Width, c.Height
	opts.WriteLog = !c.NoRunLog

	paths, err := plan.Synthesize(c.Dir, p, cfg.Naming, opts)
	if err != nil {
		return err
	}
	if g.Verbose {
		for _, path := range paths {
			fmt.Printf("[*] %s\n", path)
		}
	}
	success("%d screenshots written to %s (flood line %+d ft)", len(paths), c.Dir, p.FloodLineFt)
	return nil
}

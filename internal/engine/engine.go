package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/floodcheck/internal/analyzer"
	"github.com/ivlev/floodcheck/internal/config"
	"github.com/ivlev/floodcheck/internal/metrics"
	"github.com/ivlev/floodcheck/internal/models"
	"github.com/ivlev/floodcheck/internal/plan"
	"github.com/ivlev/floodcheck/internal/report"
	"github.com/ivlev/floodcheck/internal/source"
	"github.com/ivlev/floodcheck/internal/store"
	"github.com/ivlev/floodcheck/internal/system"
)

// BenchmarkLog is appended to in the working directory when stats are on
const BenchmarkLog = "benchmark.log"

type Project struct {
	Config     *config.Config
	Classifier analyzer.Classifier
	Out        io.Writer
}

func NewProject(cfg *config.Config, c analyzer.Classifier, out io.Writer) *Project {
	return &Project{
		Config:     cfg,
		Classifier: c,
		Out:        out,
	}
}

// Analyze classifies every screenshot of dir in directory order. Per-image
// failures become error rows. A cancelled ctx aborts the batch with
// ctx.Err() and no result.
func (p *Project) Analyze(ctx context.Context, dir string) (*models.BatchResult, error) {
	src, err := source.Scan(dir, p.Config.Naming)
	if err != nil {
		return nil, err
	}

	batch := &models.BatchResult{
		Dir:     dir,
		Mode:    src.Mode,
		Skipped: src.Skipped,
	}
	if p.Config.Verbose {
		for _, name := range src.Skipped {
			log.Printf("[!] Skipped unrecognized name: %s", name)
		}
	}
	if src.Len() == 0 {
		return batch, nil
	}

	rows := make([]models.Row, src.Len())

	workers := p.Config.Workers
	if workers > src.Len() {
		workers = src.Len()
	}

	if workers <= 1 {
		for i, entry := range src.Entries {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			rows[i] = p.classify(src.Mode, entry)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i, entry := range src.Entries {
			if gctx.Err() != nil {
				break
			}
			i, entry := i, entry
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				rows[i] = p.classify(src.Mode, entry)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	batch.Rows = rows
	return batch, nil
}

func (p *Project) classify(mode source.Mode, e source.Entry) models.Row {
	start := time.Now()
	rec := analyzer.ClassifyFile(p.Classifier, e.Path)
	metrics.Observe(mode.String(), rec, time.Since(start))

	if p.Config.Verbose && !rec.OK() {
		log.Printf("[!] %s: %s", e.Filename, rec.Err)
	}

	return models.Row{
		Filename:     e.Filename,
		TestName:     e.Name,
		WaterLevelFt: e.WaterLevelFt,
		Record:       rec,
	}
}

// Run analyses Config.Dir and drives every configured sink. Only a failure
// to list the directory or to write the JSON summary fails the run; the
// history database and the metrics file are best effort.
func (p *Project) Run(ctx context.Context) (*models.BatchResult, error) {
	startTime := time.Now()

	batch, err := p.Analyze(ctx, p.Config.Dir)
	if err != nil {
		return nil, err
	}
	classifyTime := time.Since(startTime)

	if batch.Mode == source.ModeScenario && !batch.Empty() {
		p.attachCameras(batch)
	}

	report.WriteText(p.Out, batch)

	writeStart := time.Now()
	if !batch.Empty() {
		path := source.SummaryPath(batch.Dir, batch.Mode, p.Config.Naming)
		if err := report.WriteSummary(batch, path); err != nil {
			return batch, fmt.Errorf("write summary: %w", err)
		}
		batch.SummaryPath = path
		report.WriteSaved(p.Out, batch)

		if p.Config.DBPath != "" {
			p.saveHistory(startTime, batch)
		}
	}

	if p.Config.MetricsFile != "" {
		if err := metrics.WriteTextfile(p.Config.MetricsFile); err != nil {
			log.Printf("[!] Could not write metrics file %s: %v", p.Config.MetricsFile, err)
		}
	}
	writeTime := time.Since(writeStart)

	if p.Config.ShowStats {
		p.reportStats(batch, system.Timings{
			Total:    time.Since(startTime),
			Classify: classifyTime,
			Write:    writeTime,
			Images:   len(batch.Rows),
		})
	}

	return batch, nil
}

// runLogPath is the configured run log, or the one the capture tooling
// leaves next to the screenshot directory.
func (p *Project) runLogPath() (string, bool) {
	if p.Config.RunLog != "" {
		return p.Config.RunLog, true
	}
	return filepath.Join(filepath.Dir(filepath.Clean(p.Config.Dir)), plan.RunLogName), false
}

func (p *Project) attachCameras(batch *models.BatchResult) {
	path, explicit := p.runLogPath()
	runLog, err := plan.ReadRunLog(path)
	if err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			log.Printf("[!] Run log not used: %v", err)
		}
		return
	}

	n := plan.AttachCameras(batch, runLog)
	if p.Config.Verbose {
		log.Printf("[*] Camera metadata attached to %d/%d rows from %s", n, len(batch.Rows), path)
	}
}

func (p *Project) saveHistory(startTime time.Time, batch *models.BatchResult) {
	db, err := store.Open(p.Config.DBPath)
	if err != nil {
		log.Printf("[!] Run history unavailable: %v", err)
		return
	}
	defer db.Close()

	id, err := db.SaveRun(startTime, batch)
	if err != nil {
		log.Printf("[!] Could not save run history: %v", err)
		return
	}
	log.Printf("[*] Run %s saved to %s", id, p.Config.DBPath)
}

func (p *Project) reportStats(batch *models.BatchResult, t system.Timings) {
	snap, err := system.TakeSnapshot()
	if err != nil {
		log.Printf("[!] Resource usage incomplete: %v", err)
	}

	system.WritePerformanceReport(p.Out, p.Config.BuildVersion, t, snap)

	line := system.BenchmarkLine(time.Now(), p.Config.BuildVersion, batch.Dir, t, snap)
	if err := system.AppendBenchmark(BenchmarkLog, line); err != nil {
		log.Printf("[!] Could not write %s: %v", BenchmarkLog, err)
	}
}

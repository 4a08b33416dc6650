package system

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Timings of one analysis run
type Timings struct {
	Total    time.Duration
	Classify time.Duration
	Write    time.Duration
	Images   int
}

// ImagesPerSecond is computed over the total run time
func (t Timings) ImagesPerSecond() float64 {
	if t.Total <= 0 {
		return 0
	}
	return float64(t.Images) / t.Total.Seconds()
}

// WritePerformanceReport prints the --stats block
func WritePerformanceReport(w io.Writer, build string, t Timings, snap Snapshot) {
	fmt.Fprintf(w,
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.2fs\n"+
			"Classification: %.2fs\n"+
			"Writing: %.2fs\n"+
			"Images/s: %.2f\n"+
			"Process RSS: %.1f MiB\n"+
			"Host Memory: %.1f/%.1f MiB (%.1f%%)\n"+
			"----------------------------\n",
		build, t.Total.Seconds(), t.Classify.Seconds(), t.Write.Seconds(), t.ImagesPerSecond(),
		mib(snap.RSSBytes), mib(snap.HostUsedBytes), mib(snap.HostTotalBytes), snap.HostUsedPercent,
	)
}

// BenchmarkLine formats one benchmark.log entry
func BenchmarkLine(now time.Time, build, dir string, t Timings, snap Snapshot) string {
	return fmt.Sprintf("[%s] Build: %s | Dir: %s | Images: %d | Total: %.2fs | Classify: %.2fs | Write: %.2fs | Images/s: %.2f | RSS: %.1fMiB\n",
		now.Format("2006-01-02 15:04:05"),
		build,
		filepath.Base(dir),
		t.Images,
		t.Total.Seconds(),
		t.Classify.Seconds(),
		t.Write.Seconds(),
		t.ImagesPerSecond(),
		mib(snap.RSSBytes),
	)
}

// AppendBenchmark appends line to the log at path
func AppendBenchmark(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

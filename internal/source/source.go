package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ivlev/floodcheck/internal/config"
)

// Mode says which naming convention a screenshot directory follows
type Mode int

const (
	ModeNone Mode = iota
	ModeScenario
	ModeElevation
)

func (m Mode) String() string {
	switch m {
	case ModeScenario:
		return "scenario"
	case ModeElevation:
		return "elevation"
	default:
		return "none"
	}
}

// Entry is one screenshot selected for analysis
type Entry struct {
	Filename string
	Path     string
	TestCase
}

// ScreenshotSource is the result of scanning a screenshot directory.
// Entries are in lexicographic filename order.
type ScreenshotSource struct {
	Dir     string
	Mode    Mode
	Entries []Entry
	Skipped []string // names with the active prefix that failed to parse
}

// Scan lists dir once, selects the mode and parses every matching filename.
// Scenario files take priority over elevation files. Subdirectories and the
// summary files written by earlier runs are ignored.
func Scan(dir string, n config.Naming) (*ScreenshotSource, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("screenshot dir: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("screenshot dir: %s is not a directory", dir)
	}

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list screenshots: %w", err)
	}

	var names []string
	for _, entry := range dirEntries {
		name := entry.Name()
		if entry.IsDir() || name == n.ScenarioSummary || name == n.ElevationSummary {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	src := &ScreenshotSource{Dir: dir, Mode: SelectMode(names, n)}

	var parse func(string, config.Naming) (TestCase, error)
	var prefix string
	switch src.Mode {
	case ModeScenario:
		parse, prefix = ParseScenarioName, n.ScenarioPrefix
	case ModeElevation:
		parse, prefix = ParseElevationName, n.ElevationPrefix
	default:
		return src, nil
	}

	for _, name := range names {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		tc, err := parse(name, n)
		if err != nil {
			src.Skipped = append(src.Skipped, name)
			continue
		}
		src.Entries = append(src.Entries, Entry{
			Filename: name,
			Path:     filepath.Join(dir, name),
			TestCase: tc,
		})
	}

	return src, nil
}

// SelectMode picks the mode from a directory listing
func SelectMode(names []string, n config.Naming) Mode {
	hasElevation := false
	for _, name := range names {
		if strings.HasPrefix(name, n.ScenarioPrefix) {
			return ModeScenario
		}
		if strings.HasPrefix(name, n.ElevationPrefix) {
			hasElevation = true
		}
	}
	if hasElevation {
		return ModeElevation
	}
	return ModeNone
}

// SummaryPath is where the machine-readable summary of this mode is written
func (s *ScreenshotSource) SummaryPath(n config.Naming) string {
	return SummaryPath(s.Dir, s.Mode, n)
}

// SummaryPath returns the summary file of mode m inside dir, or "" for ModeNone
func SummaryPath(dir string, m Mode, n config.Naming) string {
	switch m {
	case ModeScenario:
		return filepath.Join(dir, n.ScenarioSummary)
	case ModeElevation:
		return filepath.Join(dir, n.ElevationSummary)
	}
	return ""
}

func (s *ScreenshotSource) Len() int {
	return len(s.Entries)
}

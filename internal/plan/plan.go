package plan

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/floodcheck/internal/config"
	"github.com/ivlev/floodcheck/internal/models"
	"github.com/ivlev/floodcheck/internal/source"
)

const (
	ModeZoom      = "zoom"
	ModeElevation = "elevation"
)

// Plan is the list of conditions a screenshot run is expected to capture
type Plan struct {
	Mode        string     `yaml:"mode"`
	FloodLineFt int        `yaml:"flood_line_ft"` // synthetic fixtures flood at or above this level
	Scenarios   []Scenario `yaml:"scenarios,omitempty"`
	Elevations  []int      `yaml:"elevations,omitempty"`
}

// Scenario is one camera position with the water levels captured from it
type Scenario struct {
	Name          string  `yaml:"name"`
	Lon           float64 `yaml:"lon"`
	Lat           float64 `yaml:"lat"`
	CameraHeightM float64 `yaml:"camera_height_m"`
	WaterLevelsFt []int   `yaml:"water_levels_ft"`
}

// DefaultPlan is the zoom test matrix of the screenshot tooling
func DefaultPlan() *Plan {
	return &Plan{
		Mode:        ModeZoom,
		FloodLineFt: 500,
		Scenarios: []Scenario{
			{Name: "Global_Full", Lon: 0, Lat: 20, CameraHeightM: 20000000, WaterLevelsFt: []int{0, 500, 1000, 3000}},
			{Name: "Global_Half", Lon: -40, Lat: 30, CameraHeightM: 10000000, WaterLevelsFt: []int{0, 500, 1000}},
			{Name: "Continental", Lon: -100, Lat: 40, CameraHeightM: 5000000, WaterLevelsFt: []int{0, 500, 1000}},
			{Name: "Regional", Lon: -95, Lat: 30, CameraHeightM: 1000000, WaterLevelsFt: []int{0, 100, 500}},
			{Name: "Local_Coast", Lon: -90.1, Lat: 29.95, CameraHeightM: 50000, WaterLevelsFt: []int{0, 10, 50, 100}},
		},
	}
}

// DefaultElevationPlan is the Denver elevation sweep; terrain at the frame
// center sits at 5140 ft.
func DefaultElevationPlan() *Plan {
	return &Plan{
		Mode:        ModeElevation,
		FloodLineFt: 5140,
		Elevations:  []int{5000, 5050, 5100, 5120, 5130, 5140, 5150, 5160, 5180, 5200},
	}
}

func (p *Plan) Validate() error {
	var errs []error
	switch p.Mode {
	case ModeZoom:
		if len(p.Scenarios) == 0 {
			errs = append(errs, errors.New("zoom plan has no scenarios"))
		}
		seen := make(map[string]bool)
		for _, s := range p.Scenarios {
			if s.Name == "" {
				errs = append(errs, errors.New("scenario without a name"))
				continue
			}
			if seen[s.Name] {
				errs = append(errs, fmt.Errorf("duplicate scenario %q", s.Name))
			}
			seen[s.Name] = true
			if len(s.WaterLevelsFt) == 0 {
				errs = append(errs, fmt.Errorf("scenario %q has no water levels", s.Name))
			}
		}
	case ModeElevation:
		if len(p.Elevations) == 0 {
			errs = append(errs, errors.New("elevation plan has no elevations"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown plan mode %q", p.Mode))
	}
	return errors.Join(errs...)
}

// WritePlan writes a plan to a YAML file
func WritePlan(p *Plan, path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ReadPlan reads and validates a plan from a YAML file
func ReadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse plan %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("plan %s: %w", path, err)
	}

	return &p, nil
}

// Expected is one screenshot a run of the plan should produce
type Expected struct {
	Filename     string
	TestName     string
	WaterLevelFt int
	Camera       *models.Camera
}

// ExpectedFiles lists the screenshots of the plan in capture order
func ExpectedFiles(p *Plan, n config.Naming) []Expected {
	var out []Expected
	switch p.Mode {
	case ModeZoom:
		for _, s := range p.Scenarios {
			cam := &models.Camera{
				Location:      models.Location{Lon: s.Lon, Lat: s.Lat},
				CameraHeightM: s.CameraHeightM,
			}
			for _, level := range s.WaterLevelsFt {
				out = append(out, Expected{
					Filename:     source.FormatScenarioName(n, s.Name, level),
					TestName:     s.Name,
					WaterLevelFt: level,
					Camera:       cam,
				})
			}
		}
	case ModeElevation:
		for _, elev := range p.Elevations {
			out = append(out, Expected{
				Filename:     source.FormatElevationName(n, elev),
				WaterLevelFt: elev,
			})
		}
	}
	return out
}

// CoverageReport compares a plan with the screenshots of a batch
type CoverageReport struct {
	Expected   int
	Found      int
	Missing    []string
	Unexpected []string
}

func (c CoverageReport) Complete() bool {
	return len(c.Missing) == 0
}

// Coverage reports which planned screenshots the batch lacks and which
// batch rows the plan does not name. Rows are matched by test condition,
// so zero padding differences in filenames do not matter.
func Coverage(p *Plan, n config.Naming, b *models.BatchResult) CoverageReport {
	expected := ExpectedFiles(p, n)
	report := CoverageReport{Expected: len(expected)}

	type key struct {
		name  string
		level int
	}
	present := make(map[key]bool)
	if b != nil {
		for _, row := range b.Rows {
			present[key{row.TestName, row.WaterLevelFt}] = true
		}
	}

	planned := make(map[key]bool, len(expected))
	for _, e := range expected {
		k := key{e.TestName, e.WaterLevelFt}
		planned[k] = true
		if present[k] {
			report.Found++
		} else {
			report.Missing = append(report.Missing, e.Filename)
		}
	}

	if b != nil {
		for _, row := range b.Rows {
			if !planned[key{row.TestName, row.WaterLevelFt}] {
				report.Unexpected = append(report.Unexpected, row.Filename)
			}
		}
	}
	sort.Strings(report.Unexpected)

	return report
}

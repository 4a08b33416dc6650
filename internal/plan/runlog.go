package plan

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ivlev/floodcheck/internal/models"
)

// RunLogName is the file the screenshot run leaves next to its screenshot dir
const RunLogName = "test_results.json"

// RunLog is the structured log of one screenshot capture run
type RunLog struct {
	Timestamp      string `json:"timestamp"`
	TestMode       string `json:"test_mode,omitempty"`
	TestElevations []int  `json:"test_elevations,omitempty"`
	Screenshots    []Shot `json:"screenshots"`
}

// Shot is one captured screenshot. Zoom runs fill Location and
// CameraHeightM, elevation runs fill ElevationFt and HeightLabel.
type Shot struct {
	Screenshot    string           `json:"screenshot"`
	TestName      string           `json:"test_name,omitempty"`
	Location      *models.Location `json:"location,omitempty"`
	CameraHeightM float64          `json:"camera_height_m,omitempty"`
	WaterLevelFt  *int             `json:"water_level_ft,omitempty"`
	ElevationFt   *int             `json:"elevation_ft,omitempty"`
	DebugInfo     string           `json:"debug_info,omitempty"`
	HeightLabel   string           `json:"height_label,omitempty"`
}

// ReadRunLog parses a run log. A missing file is reported as an error
// wrapping fs.ErrNotExist.
func ReadRunLog(path string) (*RunLog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var l RunLog
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("parse run log %s: %w", path, err)
	}
	return &l, nil
}

// WriteRunLog stores the log with the same 2-space indentation the capture
// tooling uses
func WriteRunLog(l *RunLog, path string) error {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Cameras maps screenshot filenames to their capture metadata. Only zoom
// shots carry a camera.
func (l *RunLog) Cameras() map[string]*models.Camera {
	cams := make(map[string]*models.Camera)
	if l == nil {
		return cams
	}
	for _, s := range l.Screenshots {
		if s.Location == nil || s.Screenshot == "" {
			continue
		}
		cams[s.Screenshot] = &models.Camera{
			Location:      *s.Location,
			CameraHeightM: s.CameraHeightM,
			DebugInfo:     s.DebugInfo,
		}
	}
	return cams
}

// AttachCameras sets Camera on every row whose filename the log names
func AttachCameras(b *models.BatchResult, l *RunLog) int {
	cams := l.Cameras()
	attached := 0
	for i := range b.Rows {
		if cam, ok := cams[b.Rows[i].Filename]; ok {
			b.Rows[i].Camera = cam
			attached++
		}
	}
	return attached
}

// RunLogFor builds the log a capture of the plan would have written
func RunLogFor(p *Plan, expected []Expected, now time.Time) *RunLog {
	l := &RunLog{Timestamp: now.Format("2006-01-02T15:04:05.000000")}

	switch p.Mode {
	case ModeZoom:
		l.TestMode = "ZOOM"
	case ModeElevation:
		l.TestMode = "ELEVATION"
		l.TestElevations = p.Elevations
	}

	for _, e := range expected {
		level := e.WaterLevelFt
		shot := Shot{Screenshot: e.Filename, DebugInfo: "synthetic"}
		if e.Camera != nil {
			loc := e.Camera.Location
			shot.TestName = e.TestName
			shot.Location = &loc
			shot.CameraHeightM = e.Camera.CameraHeightM
			shot.WaterLevelFt = &level
		} else {
			shot.ElevationFt = &level
			shot.HeightLabel = fmt.Sprintf("%d ft", level)
		}
		l.Screenshots = append(l.Screenshots, shot)
	}
	return l
}

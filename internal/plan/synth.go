package plan

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/ivlev/floodcheck/internal/config"
	"github.com/ivlev/floodcheck/internal/system"
)

var (
	terrainColor = color.RGBA{R: 85, G: 107, B: 47, A: 255}
	waterColor   = color.RGBA{R: 30, G: 90, B: 200, A: 255}
)

// WaterOpacity is the alpha of the flood overlay over terrain
const WaterOpacity = 0.7

// SynthOptions control the synthetic screenshots
type SynthOptions struct {
	Width     int
	Height    int
	BlockHalf int // half-size of the water block at the frame center
	WriteLog  bool
	Now       time.Time
	Frames    *system.FramePool
}

func DefaultSynthOptions() SynthOptions {
	return SynthOptions{
		Width:     320,
		Height:    240,
		BlockHalf: 40,
		WriteLog:  true,
	}
}

// Synthesize writes one PNG per planned screenshot into dir. Frames at or
// above the plan's flood line carry a translucent water block at the
// center. With WriteLog a run log is written next to dir. It returns the
// written paths in plan order.
func Synthesize(dir string, p *Plan, n config.Naming, opts SynthOptions) ([]string, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", opts.Width, opts.Height)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	if opts.Frames == nil {
		opts.Frames = system.NewFramePool()
	}

	water := blend(waterColor, terrainColor, WaterOpacity)
	rect := image.Rect(0, 0, opts.Width, opts.Height)
	expected := ExpectedFiles(p, n)

	var written []string
	for _, e := range expected {
		frame := opts.Frames.Get(rect)
		paint(frame, terrainColor, frame.Bounds())
		if e.WaterLevelFt >= p.FloodLineFt {
			cx, cy := opts.Width/2, opts.Height/2
			block := image.Rect(cx-opts.BlockHalf, cy-opts.BlockHalf, cx+opts.BlockHalf, cy+opts.BlockHalf)
			paint(frame, water, block.Intersect(frame.Bounds()))
		}

		path := filepath.Join(dir, e.Filename)
		err := writePNG(path, frame)
		opts.Frames.Put(frame)
		if err != nil {
			return written, fmt.Errorf("write %s: %w", e.Filename, err)
		}
		written = append(written, path)
	}

	if opts.WriteLog {
		now := opts.Now
		if now.IsZero() {
			now = time.Now()
		}
		logPath := filepath.Join(filepath.Dir(filepath.Clean(dir)), RunLogName)
		if err := WriteRunLog(RunLogFor(p, expected, now), logPath); err != nil {
			return written, fmt.Errorf("write run log: %w", err)
		}
	}

	return written, nil
}

func paint(img *image.RGBA, c color.RGBA, r image.Rectangle) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

// blend composites top over bottom with the given opacity
func blend(top, bottom color.RGBA, alpha float64) color.RGBA {
	mix := func(a, b uint8) uint8 {
		return uint8(alpha*float64(a) + (1-alpha)*float64(b) + 0.5)
	}
	return color.RGBA{R: mix(top.R, bottom.R), G: mix(top.G, bottom.G), B: mix(top.B, bottom.B), A: 255}
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

package analyzer

import (
	"image"
	"image/color"
	"math"
	"strconv"

	"github.com/ivlev/floodcheck/internal/config"
)

// CenterClassifier looks for the translucent blue flood overlay in a square
// window around the image center.
type CenterClassifier struct {
	HalfExtent     int     // window spans [c-HalfExtent, c+HalfExtent) on both axes
	FloodThreshold float64 // blue ratio strictly above this counts as flooded
	MinBlue        float64
	RedRatio       float64
	GreenRatio     float64
}

// NewCenterClassifier creates a classifier from the configured thresholds
func NewCenterClassifier(cfg config.Classifier) *CenterClassifier {
	return &CenterClassifier{
		HalfExtent:     cfg.SampleHalfExtent,
		FloodThreshold: cfg.FloodThreshold,
		MinBlue:        cfg.MinBlue,
		RedRatio:       cfg.RedRatio,
		GreenRatio:     cfg.GreenRatio,
	}
}

// IsFloodColor is the flood-color predicate on raw 0-255 channel values.
// Blue has to be bright and dominate both red and green.
func (c *CenterClassifier) IsFloodColor(r, g, b uint8) bool {
	fb := float64(b)
	return fb > c.MinBlue && fb > float64(r)*c.RedRatio && fb > float64(g)*c.GreenRatio
}

// Window returns the sample window clipped to the image bounds
func (c *CenterClassifier) Window(bounds image.Rectangle) image.Rectangle {
	cx := bounds.Min.X + bounds.Dx()/2
	cy := bounds.Min.Y + bounds.Dy()/2
	win := image.Rect(cx-c.HalfExtent, cy-c.HalfExtent, cx+c.HalfExtent, cy+c.HalfExtent)
	return win.Intersect(bounds)
}

// Classify samples the center window and applies the threshold rule
func (c *CenterClassifier) Classify(img image.Image) ColorStats {
	stats := ColorStats{}
	if img == nil || !hasColorChannels(img.ColorModel()) {
		return stats
	}

	win := c.Window(img.Bounds())
	var sumR, sumG, sumB int

	for y := win.Min.Y; y < win.Max.Y; y++ {
		for x := win.Min.X; x < win.Max.X; x++ {
			r, g, b := rgbAt(img, x, y)
			sumR += int(r)
			sumG += int(g)
			sumB += int(b)
			stats.TotalPixels++

			if c.IsFloodColor(r, g, b) {
				stats.BluePixels++
			}
		}
	}

	ratio := 0.0
	if stats.TotalPixels > 0 {
		n := float64(stats.TotalPixels)
		ratio = float64(stats.BluePixels) / n
		stats.AvgColor = [3]int{
			int(math.RoundToEven(float64(sumR) / n)),
			int(math.RoundToEven(float64(sumG) / n)),
			int(math.RoundToEven(float64(sumB) / n)),
		}
	}

	stats.HasFlooding = ratio > c.FloodThreshold
	stats.BlueRatio = roundTo(ratio, 4)

	return stats
}

// hasColorChannels is false for single-channel color models; their pixels
// are left out of the sample entirely.
func hasColorChannels(m color.Model) bool {
	switch m {
	case color.GrayModel, color.Gray16Model, color.AlphaModel, color.Alpha16Model:
		return false
	}
	return true
}

// rgbAt returns non-premultiplied 8-bit channels, alpha dropped
func rgbAt(img image.Image, x, y int) (uint8, uint8, uint8) {
	switch src := img.(type) {
	case *image.NRGBA:
		p := src.NRGBAAt(x, y)
		return p.R, p.G, p.B
	case *image.RGBA:
		p := src.RGBAAt(x, y)
		if p.A == 0xff {
			return p.R, p.G, p.B
		}
	}
	p := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	return p.R, p.G, p.B
}

// roundTo rounds the exact binary value to the given number of decimals,
// ties to even
func roundTo(v float64, decimals int) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', decimals, 64), 64)
	if err != nil {
		return v
	}
	return r
}

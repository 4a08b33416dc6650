package analyzer

import "image"

// ColorStats is the aggregate result of sampling the center window of an image
type ColorStats struct {
	BluePixels  int     `json:"blue_pixels"`
	TotalPixels int     `json:"total_pixels"`
	BlueRatio   float64 `json:"blue_ratio"`   // rounded to 4 decimals
	AvgColor    [3]int  `json:"avg_color"`    // R, G, B rounded to the nearest integer
	HasFlooding bool    `json:"has_flooding"` // unrounded ratio > flood threshold
}

// Record is the per-image outcome: either Stats or a failure description in Err
type Record struct {
	Stats *ColorStats
	Err   string
}

// OK reports whether the image was classified
func (r Record) OK() bool {
	return r.Err == "" && r.Stats != nil
}

// Flooded is true only for a successfully classified image showing the overlay
func (r Record) Flooded() bool {
	return r.OK() && r.Stats.HasFlooding
}

// Classifier is the interface for flood detection strategies
type Classifier interface {
	Classify(img image.Image) ColorStats
}

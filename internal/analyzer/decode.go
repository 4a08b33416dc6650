package analyzer

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DecodeFile opens and decodes an image in any registered format
func DecodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// ClassifyFile decodes the file and classifies it. Open and decode failures
// come back as an error Record; they never abort the caller's batch.
func ClassifyFile(c Classifier, path string) Record {
	img, err := DecodeFile(path)
	if err != nil {
		return Record{Err: err.Error()}
	}
	stats := c.Classify(img)
	return Record{Stats: &stats}
}

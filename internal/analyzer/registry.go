package analyzer

import (
	"fmt"

	"github.com/ivlev/floodcheck/internal/config"
)

// NewClassifier creates a classifier based on the specified variant
func NewClassifier(variant string, cfg config.Classifier) (Classifier, error) {
	switch variant {
	case "center", "":
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return NewCenterClassifier(cfg), nil
	default:
		return nil, fmt.Errorf("unknown classifier variant: %s", variant)
	}
}

package source

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ivlev/floodcheck/internal/config"
)

// ErrUnrecognizedName is returned when a filename does not follow the
// naming convention of the requested mode.
var ErrUnrecognizedName = errors.New("unrecognized screenshot name")

// TestCase is the test condition encoded in a screenshot filename
type TestCase struct {
	Name         string // camera scenario, empty in elevation mode
	WaterLevelFt int
}

// ParseScenarioName parses "{prefix}{scenario}_{signed int}{unit}.{ext}",
// e.g. zoom_Global_Full_+0000ft.png -> ("Global_Full", 0).
func ParseScenarioName(filename string, n config.Naming) (TestCase, error) {
	base, ok := trimName(filename, n.ScenarioPrefix)
	if !ok {
		return TestCase{}, fmt.Errorf("%w: %s", ErrUnrecognizedName, filename)
	}

	i := strings.LastIndex(base, "_")
	if i < 1 {
		return TestCase{}, fmt.Errorf("%w: %s: no scenario/level separator", ErrUnrecognizedName, filename)
	}

	// "+" carries no meaning anywhere in the token, "-" only in front
	token := strings.ReplaceAll(strings.TrimSuffix(base[i+1:], n.UnitSuffix), "+", "")
	negative := strings.HasPrefix(token, "-")
	token = strings.TrimPrefix(token, "-")

	level, err := parseDigits(token)
	if err != nil {
		return TestCase{}, fmt.Errorf("%w: %s: %v", ErrUnrecognizedName, filename, err)
	}
	if negative {
		level = -level
	}

	return TestCase{Name: base[:i], WaterLevelFt: level}, nil
}

// ParseElevationName parses "{prefix}{sign}{digits}{unit}.{ext}",
// e.g. elevation_-00100ft.png -> -100.
func ParseElevationName(filename string, n config.Naming) (TestCase, error) {
	base, ok := trimName(filename, n.ElevationPrefix)
	if !ok {
		return TestCase{}, fmt.Errorf("%w: %s", ErrUnrecognizedName, filename)
	}

	elev := strings.TrimSuffix(base, n.UnitSuffix)
	negative := strings.HasPrefix(elev, "-")
	elev = strings.TrimLeft(elev, "+-")
	elev = strings.TrimLeft(elev, "0")
	if elev == "" {
		elev = "0"
	}

	level, err := parseDigits(elev)
	if err != nil {
		return TestCase{}, fmt.Errorf("%w: %s: %v", ErrUnrecognizedName, filename, err)
	}
	if negative {
		level = -level
	}

	return TestCase{WaterLevelFt: level}, nil
}

// FormatScenarioName is the inverse of ParseScenarioName for PNG screenshots
func FormatScenarioName(n config.Naming, scenario string, levelFt int) string {
	return fmt.Sprintf("%s%s_%+05d%s.png", n.ScenarioPrefix, scenario, levelFt, n.UnitSuffix)
}

// FormatElevationName is the inverse of ParseElevationName for PNG screenshots
func FormatElevationName(n config.Naming, elevationFt int) string {
	return fmt.Sprintf("%s%+06d%s.png", n.ElevationPrefix, elevationFt, n.UnitSuffix)
}

// trimName strips the prefix and the file extension
func trimName(filename, prefix string) (string, bool) {
	if !strings.HasPrefix(filename, prefix) {
		return "", false
	}
	base := strings.TrimPrefix(filename, prefix)
	return strings.TrimSuffix(base, filepath.Ext(base)), true
}

func parseDigits(s string) (int, error) {
	if s == "" {
		return 0, errors.New("empty level")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid level %q", s)
		}
	}
	return strconv.Atoi(s)
}

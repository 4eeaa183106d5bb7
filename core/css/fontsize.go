package css

import (
	"strconv"
	"strings"
)

// BaseFontSizePt is the root base font size, in points, font-size
// resolution starts from.
const BaseFontSizePt = 12.0

// namedSizeLadder and namedSizeValues map the CSS absolute-size keywords onto the geometric
// sequence CSSFlattener uses.
var namedSizeLadder = []string{"xx-small", "x-small", "small", "medium", "large", "x-large", "xx-large"}
var namedSizeValues = map[string]float64{
	"xx-small": 6.75,
	"x-small":  7.5,
	"small":    9.75,
	"medium":   12,
	"large":    13.5,
	"x-large":  18,
	"xx-large": 24,
}

// ResolveFontSize computes the effective font size, in points, for a
// CSS font-size value given the inherited parent size. Supports named
// absolute keywords, "smaller"/"larger" (one rank relative to the
// nearest enclosing named size), points ("12pt"), pixels ("16px", at
// 96px/72pt), ems ("1.5em"), and percentages ("120%"). Unrecognized
// values fall back to the parent size unchanged.
func ResolveFontSize(value string, parentPt float64) float64 {
	value = strings.TrimSpace(strings.ToLower(value))
	if v, ok := namedSizeValues[value]; ok {
		return v
	}
	switch value {
	case "smaller":
		return stepNamed(parentPt, -1)
	case "larger":
		return stepNamed(parentPt, 1)
	}
	if strings.HasSuffix(value, "pt") {
		if n, err := strconv.ParseFloat(strings.TrimSuffix(value, "pt"), 64); err == nil {
			return n
		}
	}
	if strings.HasSuffix(value, "px") {
		if n, err := strconv.ParseFloat(strings.TrimSuffix(value, "px"), 64); err == nil {
			return n * 72.0 / 96.0
		}
	}
	if strings.HasSuffix(value, "em") {
		if n, err := strconv.ParseFloat(strings.TrimSuffix(value, "em"), 64); err == nil {
			return n * parentPt
		}
	}
	if strings.HasSuffix(value, "%") {
		if n, err := strconv.ParseFloat(strings.TrimSuffix(value, "%"), 64); err == nil {
			return n / 100.0 * parentPt
		}
	}
	return parentPt
}

// stepNamed finds the closest named-size rank to base and steps by
// delta ranks (used for "smaller"/"larger"), clamping at the ends of
// the ladder.
func stepNamed(base float64, delta int) float64 {
	closest := 0
	bestDiff := -1.0
	for i, name := range namedSizeLadder {
		diff := base - namedSizeValues[name]
		if diff < 0 {
			diff = -diff
		}
		if bestDiff < 0 || diff < bestDiff {
			bestDiff = diff
			closest = i
		}
	}
	idx := closest + delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(namedSizeLadder) {
		idx = len(namedSizeLadder) - 1
	}
	return namedSizeValues[namedSizeLadder[idx]]
}

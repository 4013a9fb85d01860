package catalog

import (
	"strconv"
	"strings"
)

// NormalizePrice converts a raw currency-formatted string ("£51.77") into
// a numeric value. Every rune that is not a digit or a decimal point is
// stripped before parsing, which also removes thousands separators and any
// stray digits glued to the price text; a raw value with multiple decimal
// points fails the parse and is reported as absent. Returns false when the
// input is empty, strips to nothing, or does not parse.
func NormalizePrice(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, raw)
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

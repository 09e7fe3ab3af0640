// Package display holds the pure presentation helpers shared by the HTTP
// surface and the dashboard: numeric-string formatting and pool health
// classification. Nothing here performs I/O.
package display

import (
	"fmt"
	"math"
	"strconv"
)

// parseAmount parses an upstream decimal string. Malformed input and
// non-finite values collapse to 0 so the formatters stay total and never
// produce "NaN" or "Inf" output.
func parseAmount(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// FormatPoolPrice renders a USD price with precision that scales inversely
// with magnitude: >= 1 uses 4 decimal places, >= 0.0001 uses 6, and anything
// smaller switches to scientific notation with 2 significant digits so
// sub-cent assets never render as "$0.00".
func FormatPoolPrice(price string) string {
	v := parseAmount(price)
	abs := math.Abs(v)
	switch {
	case abs >= 1:
		return fmt.Sprintf("$%.4f", v)
	case abs >= 0.0001:
		return fmt.Sprintf("$%.6f", v)
	case abs == 0:
		return "$0.000000"
	default:
		return "$" + strconv.FormatFloat(v, 'e', 1, 64)
	}
}

// FormatVolume renders a USD amount scaled to B/M/K suffixes at the
// 1e9/1e6/1e3 thresholds, always with 2 decimal places.
func FormatVolume(volume string) string {
	v := parseAmount(volume)
	switch {
	case v >= 1e9:
		return fmt.Sprintf("$%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("$%.2fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("$%.2fK", v/1e3)
	default:
		return fmt.Sprintf("$%.2f", v)
	}
}

// FormatPercentageChange renders a signed percentage with 2 decimal places,
// prefixing "+" for non-negative values.
func FormatPercentageChange(change string) string {
	v := parseAmount(change)
	if v >= 0 {
		return fmt.Sprintf("+%.2f%%", v)
	}
	return fmt.Sprintf("%.2f%%", v)
}

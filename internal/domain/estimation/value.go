package estimation

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// HoursPerDay converts hour values to days.
const HoursPerDay = 8

// PresetDeck lists the card values. Anything else is a custom value.
var PresetDeck = []string{"1h", "2h", "4h", "8h", "1d", "1.5d", "2d", "3d"}

// ParseValue converts "<n>d" or "<n>h" into days.
func ParseValue(raw string) (days float64, custom bool, err error) {
	raw = strings.TrimSpace(raw)

	var divisor float64
	switch {
	case strings.HasSuffix(raw, "d"):
		divisor = 1
	case strings.HasSuffix(raw, "h"):
		divisor = HoursPerDay
	default:
		return 0, false, fmt.Errorf("%w: %q", ErrInvalidFormat, raw)
	}

	n, err := strconv.ParseFloat(raw[:len(raw)-1], 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) || n < 0 {
		return 0, false, fmt.Errorf("%w: %q", ErrInvalidValue, raw)
	}
	return n / divisor, !slices.Contains(PresetDeck, raw), nil
}

// FormatValue renders days as "<n>d" from one day up and as hours below.
func FormatValue(days float64) string {
	if days >= 1 {
		return strconv.FormatFloat(days, 'f', -1, 64) + "d"
	}
	return strconv.FormatFloat(days*HoursPerDay, 'f', -1, 64) + "h"
}

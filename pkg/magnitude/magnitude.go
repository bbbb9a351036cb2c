// Package magnitude parses human formatted magnitudes such as "$2.5M" or "50MW"
// into numeric amounts once, at the persistence and API boundary.
package magnitude

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ErrUnparsable is returned when a formatted magnitude cannot be interpreted.
var ErrUnparsable = errors.New("magnitude: unparsable value")

// Scale is the multiplier suffix attached to a number ("K", "M", "B").
type Scale int

const (
	ScaleUnit Scale = iota
	ScaleThousand
	ScaleMillion
	ScaleBillion
)

// Multiplier returns the factor the written number is multiplied by.
func (s Scale) Multiplier() float64 {
	switch s {
	case ScaleThousand:
		return 1e3
	case ScaleMillion:
		return 1e6
	case ScaleBillion:
		return 1e9
	default:
		return 1
	}
}

// Suffix returns the canonical suffix for the scale.
func (s Scale) Suffix() string {
	switch s {
	case ScaleThousand:
		return "K"
	case ScaleMillion:
		return "M"
	case ScaleBillion:
		return "B"
	default:
		return ""
	}
}

func scaleFromSuffix(r rune) (Scale, bool) {
	switch unicode.ToUpper(r) {
	case 'K':
		return ScaleThousand, true
	case 'M':
		return ScaleMillion, true
	case 'B':
		return ScaleBillion, true
	}
	return ScaleUnit, false
}

// parseNumber parses a non-negative decimal number allowing thousands separators.
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, ErrUnparsable
	}
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '.' {
			return 0, fmt.Errorf("%w: unexpected %q", ErrUnparsable, r)
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrUnparsable, s)
	}
	return v, nil
}

// Round rounds half away from zero to the nearest integer.
func Round(v float64) int {
	return int(math.Round(v))
}

package series

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// unitFactors maps a trailing unit suffix to its multiplier.
var unitFactors = map[byte]float64{
	'B': 1e9,
	'M': 1e6,
	'K': 1e3,
}

// ToNumber converts a loosely typed record value to an optional number.
// It returns nil for anything that does not parse to a finite number; it never
// substitutes zero for a missing value.
func ToNumber(v interface{}) *float64 {
	switch n := v.(type) {
	case nil:
		return nil
	case float64:
		return finite(n)
	case float32:
		return finite(float64(n))
	case int:
		return finite(float64(n))
	case int32:
		return finite(float64(n))
	case int64:
		return finite(float64(n))
	case uint:
		return finite(float64(n))
	case uint32:
		return finite(float64(n))
	case uint64:
		return finite(float64(n))
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return nil
		}
		return finite(f)
	case string:
		return parseNumber(n)
	default:
		return nil
	}
}

func parseNumber(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	mult := 1.0
	last := s[len(s)-1]
	if last >= 'a' && last <= 'z' {
		last -= 'a' - 'A'
	}
	if f, ok := unitFactors[last]; ok {
		mult = f
		s = strings.TrimSpace(s[:len(s)-1])
	}

	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return finite(f * mult)
}

func finite(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	f = NormalizeZero(f)
	return &f
}

// NormalizeZero maps -0 to +0 so a flat period never reads as a decline.
func NormalizeZero(f float64) float64 {
	if f == 0 {
		return 0
	}
	return f
}

// Float is a convenience for building optional values.
func Float(f float64) *float64 { return &f }

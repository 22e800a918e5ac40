package payload

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number converts a decoded JSON number (json.Number, float64 or an int
// type) to float64. Numeric strings are accepted when lenient is set.
func Number(v interface{}, lenient bool) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case string:
		if !lenient {
			return 0, false
		}
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(n), "%"))
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Str returns v when it is a string, trimmed.
func Str(v interface{}) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(s), true
}

// Field returns the first present key of m, in order.
func Field(m map[string]interface{}, keys ...string) (interface{}, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

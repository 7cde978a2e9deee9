// Package query filters and sorts items and spike events with numeric
// predicates such as "margin>100k".
package query

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNilReference is returned when a predicate has no reference value at all.
var ErrNilReference = errors.New("nil reference value")

var (
	maxMagnitude = decimal.NewFromInt(math.MaxInt64)
	minMagnitude = decimal.NewFromInt(math.MinInt64)
)

var suffixExp = map[byte]int32{
	'k': 3,
	'm': 6,
	'b': 9,
	't': 12,
}

// ParseMagnitude parses a human-entered amount such as "2.5m", "1,000k" or
// "15000". Suffixes k/m/b/t are case-insensitive and accept fractional
// mantissas; the result is truncated toward zero. Anything unparseable or
// outside the int64 range is 0.
func ParseMagnitude(s string) int64 {
	s = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, ",", "")))
	if s == "" {
		return 0
	}

	exp, ok := suffixExp[s[len(s)-1]]
	if !ok {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0
		}
		return n
	}

	mantissa, err := decimal.NewFromString(strings.TrimSpace(s[:len(s)-1]))
	if err != nil {
		return 0
	}
	n := mantissa.Shift(exp).Truncate(0)
	if n.GreaterThan(maxMagnitude) || n.LessThan(minMagnitude) {
		return 0
	}
	return n.IntPart()
}

// ParseReference converts a reference value into a float. Numbers pass
// through, strings go through ParseMagnitude and other types yield 0.
// A nil value is an error.
func ParseReference(v any) (float64, error) {
	switch ref := v.(type) {
	case nil:
		return 0, ErrNilReference
	case *float64:
		if ref == nil {
			return 0, ErrNilReference
		}
		return *ref, nil
	case *string:
		if ref == nil {
			return 0, ErrNilReference
		}
		return float64(ParseMagnitude(*ref)), nil
	case float64:
		return ref, nil
	case float32:
		return float64(ref), nil
	case int:
		return float64(ref), nil
	case int32:
		return float64(ref), nil
	case int64:
		return float64(ref), nil
	case json.Number:
		return float64(ParseMagnitude(ref.String())), nil
	case string:
		return float64(ParseMagnitude(ref)), nil
	default:
		return 0, nil
	}
}

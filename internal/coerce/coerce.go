// Package coerce turns raw JSON payload fragments into typed values with
// defaults. None of its functions fail: malformed input becomes a default.
//
// Two integer policies exist and must not be mixed up. Int treats anything
// that is not an integer as 0 (no recent activity). NullableInt treats it as
// nil (no data point), which must stay distinguishable from a real zero.
package coerce

import (
	"bytes"
	"encoding/json"
	"strconv"
)

var (
	jsonNull  = []byte("null")
	jsonTrue  = []byte("true")
	jsonFalse = []byte("false")
)

// Int returns the integer held by raw, or 0 when raw is missing, null,
// fractional, out of range, or not a number. Booleans count as 1 and 0.
func Int(raw json.RawMessage) int64 {
	if v, ok := integer(raw); ok {
		return v
	}
	return 0
}

// NullableInt returns the integer held by raw, or nil when raw is missing,
// null, fractional, out of range, or not a number. Booleans count as 1 and 0.
func NullableInt(raw json.RawMessage) *int64 {
	if v, ok := integer(raw); ok {
		return &v
	}
	return nil
}

// NullableFloat is NullableInt widened to float64.
func NullableFloat(raw json.RawMessage) *float64 {
	v := NullableInt(raw)
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}

// String returns the JSON string held by raw, or def otherwise.
func String(raw json.RawMessage, def string) string {
	var s string
	if !Present(raw) || json.Unmarshal(raw, &s) != nil {
		return def
	}
	return s
}

// Bool returns the JSON boolean held by raw, or false otherwise.
func Bool(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), jsonTrue)
}

// Present reports whether raw holds a non-null value.
func Present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, jsonNull)
}

// Key reports whether a field was present in its object, even if null.
func Key(raw json.RawMessage) bool {
	return raw != nil
}

// ID parses a feed identifier key. Only base-10 integers are accepted.
func ID(key string) (int64, bool) {
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func integer(raw json.RawMessage) (int64, bool) {
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0:
		return 0, false
	case bytes.Equal(trimmed, jsonTrue):
		return 1, true
	case bytes.Equal(trimmed, jsonFalse):
		return 0, true
	}

	// Integer literals only: "5.0" and "5e2" are floats in JSON terms.
	if bytes.ContainsAny(trimmed, ".eE") {
		return 0, false
	}
	v, err := strconv.ParseInt(string(trimmed), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

package query

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseMagnitude(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"1,000k", 1_000_000},
		{"3.5b", 3_500_000_000},
		{"2.5m", 2_500_000},
		{"2.5M", 2_500_000},
		{"0.01m", 10_000},
		{"1t", 1_000_000_000_000},
		{"15000", 15000},
		{"1,234,567", 1_234_567},
		{"  42  ", 42},
		{"-5k", -5000},
		{"1.9999k", 1999},
		{"garbage", 0},
		{"1@k", 0},
		{"k", 0},
		{"", 0},
		{"1.5", 0},
		{"9223372036854775807", 9223372036854775807},
		{"9223372036854775808", 0},
		{"10000000t", 0},
		{"99999999999b", 0},
		{"-10000000t", 0},
		{"9223372036854775.807k", 9223372036854775807},
	}

	for _, tt := range tests {
		if got := ParseMagnitude(tt.in); got != tt.want {
			t.Errorf("ParseMagnitude(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseReference(t *testing.T) {
	if _, err := ParseReference(nil); !errors.Is(err, ErrNilReference) {
		t.Fatalf("expected ErrNilReference, got %v", err)
	}
	var nilStr *string
	if _, err := ParseReference(nilStr); !errors.Is(err, ErrNilReference) {
		t.Fatalf("expected ErrNilReference for nil *string, got %v", err)
	}

	tests := []struct {
		in   any
		want float64
	}{
		{"100k", 100_000},
		{"nonsense", 0},
		{12.5, 12.5},
		{int64(7), 7},
		{3, 3},
		{json.Number("2m"), 2_000_000},
		{true, 0},
	}
	for _, tt := range tests {
		got, err := ParseReference(tt.in)
		if err != nil {
			t.Fatalf("ParseReference(%v) unexpected error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseReference(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

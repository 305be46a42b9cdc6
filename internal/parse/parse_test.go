package parse

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestDuration(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"2h 45m 41s", 2 + 45.0/60 + 41.0/3600},
		{"", 0},
		{"5x", 0},
		{"45m 30s", 45.0/60 + 30.0/3600},
		{"30s 1h", 1 + 30.0/3600},
		{"1.5h", 1.5},
		{"abch 10m", 10.0 / 60},
		{"-1h 2m", 2.0 / 60},
		{"   ", 0},
		{"NaNh", 0},
		{"Infh 30m", 0.5},
		{"+Infh", 0},
		{"0x1p2h", 0},
		{"1e3h", 0},
		{"1.2.3h", 0},
		{".5h", 0.5},
	}
	for _, tc := range cases {
		if got := Duration(tc.in); !almostEqual(got, tc.want) {
			t.Errorf("Duration(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestBigBlind(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"1 SC / 2 SC", 2},
		{"garbage", 1},
		{"1/2", 2},
		{"0.5/1.25", 1.25},
		{"1 / SC", 1},
		{"1/0", 1},
		{"1/1.2.3", 1},
		{"", 1},
		{"0.1 SC / 0.2 SC / ante", 0.2},
	}
	for _, tc := range cases {
		if got := BigBlind(tc.in); !almostEqual(got, tc.want) {
			t.Errorf("BigBlind(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestFormatHours(t *testing.T) {
	if got := FormatHours(1.5); got != "1h 30m" {
		t.Fatalf("unexpected format: %q", got)
	}
	if got := FormatHours(0); got != "0h 00m" {
		t.Fatalf("unexpected format: %q", got)
	}
	if got := FormatHours(-3); got != "0h 00m" {
		t.Fatalf("unexpected format: %q", got)
	}
}

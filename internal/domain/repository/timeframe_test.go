package repository

import (
	"testing"
	"time"
)

func TestNormalizeTimeframe(t *testing.T) {
	cases := []struct {
		in   string
		want Timeframe
	}{
		{"", TF1d},
		{"1m", TF1m},
		{"4h", TF4h},
		{"1d", TF1d},
		{"nonsense", TF1d},
		{"unknown", TF1d},
	}
	for _, c := range cases {
		if got := NormalizeTimeframe(c.in); got != c.want {
			t.Fatalf("NormalizeTimeframe(%q) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestDetectTimeframe(t *testing.T) {
	cases := []struct {
		gap  time.Duration
		want Timeframe
	}{
		{time.Minute, TF1m},
		{5 * time.Minute, TF5m},
		{15 * time.Minute, TF15m},
		{30 * time.Minute, TF30m},
		{time.Hour, TF1h},
		{2 * time.Hour, TF2h},
		{4 * time.Hour, TF4h},
		{24 * time.Hour, TF1d},
		{7 * 24 * time.Hour, TF1w},
		{30 * 24 * time.Hour, TF1mo},
	}
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, c := range cases {
		times := []time.Time{t0, t0.Add(c.gap), t0.Add(2 * c.gap), t0.Add(3 * c.gap)}
		if got := DetectTimeframe(times); got != c.want {
			t.Fatalf("DetectTimeframe(gap=%s) = %s, want %s", c.gap, got, c.want)
		}
	}
}

func TestDetectTimeframeUsesMedianGap(t *testing.T) {
	// one weekend-sized hole must not change a daily series
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	times := []time.Time{
		t0,
		t0.AddDate(0, 0, 1),
		t0.AddDate(0, 0, 2),
		t0.AddDate(0, 0, 5), // gap over a weekend
		t0.AddDate(0, 0, 6),
	}
	if got := DetectTimeframe(times); got != TF1d {
		t.Fatalf("expected 1d despite weekend gap, got %s", got)
	}
}

func TestDetectTimeframeTooShort(t *testing.T) {
	if got := DetectTimeframe([]time.Time{time.Now()}); got != TFUnknown {
		t.Fatalf("expected unknown for single timestamp, got %s", got)
	}
}

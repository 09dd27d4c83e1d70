package models

import "testing"

func TestNormalizeTrend(t *testing.T) {
	cases := []struct {
		in   string
		want Trend
	}{
		{"uptrend", TrendUp},
		{"DOWNTREND", TrendDown},
		{" sideways ", TrendSideways},
		{"up", TrendUp},
		{"Bull", TrendUp},
		{"bullish", TrendUp},
		{"down", TrendDown},
		{"BEAR", TrendDown},
		{"bearish", TrendDown},
		{"", TrendSideways},
		{"ranging", TrendSideways},
	}
	for _, c := range cases {
		if got := NormalizeTrend(c.in); got != c.want {
			t.Fatalf("NormalizeTrend(%q) = %s, want %s", c.in, got, c.want)
		}
	}
}

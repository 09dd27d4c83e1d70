package report

import (
	"strings"
	"testing"

	"CandleScope/internal/domain/models"
)

func sampleAnalysis(prob float64, patterns []string) *models.Analysis {
	return &models.Analysis{
		Summary: models.Summary{
			Symbol:                 "AAPL",
			Timeframe:              "1d",
			ProbabilityNextBullish: prob,
			LastTrend:              models.TrendUp,
			LastMomentum:           models.MomentumBullish,
			LastVolatility:         models.VolatilityNormal,
			ActivePatterns:         patterns,
		},
	}
}

func TestMarkdownContainsSections(t *testing.T) {
	md := NewBuilder().Markdown(sampleAnalysis(72.5, []string{"bullish_engulfing"}))
	for _, want := range []string{
		"# Technical Analysis Report",
		"**Symbol:** AAPL (1d)",
		"## Summary of Last Candle",
		"## Detailed Analysis",
		"Bullish Engulfing",
		"72.5%",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestSummaryPatternFallback(t *testing.T) {
	got := NewBuilder().Summary(sampleAnalysis(50, nil))
	if !strings.Contains(got, "**Detected Patterns:** None") {
		t.Fatalf("missing pattern fallback:\n%s", got)
	}
}

func TestDetailedProbabilityBands(t *testing.T) {
	cases := []struct {
		prob float64
		want string
	}{
		{75, "favorable bullish conditions"},
		{60, "favorable bullish conditions"},
		{25, "stronger bearish conditions"},
		{40, "stronger bearish conditions"},
		{50, "neutral or mixed conditions"},
	}
	for _, tc := range cases {
		got := NewBuilder().Detailed(sampleAnalysis(tc.prob, nil))
		if !strings.Contains(got, tc.want) {
			t.Errorf("prob %v: missing %q", tc.prob, tc.want)
		}
	}
}

func TestDetailedTrendNarratives(t *testing.T) {
	a := sampleAnalysis(50, nil)

	a.Summary.LastTrend = models.TrendDown
	if got := NewBuilder().Detailed(a); !strings.Contains(got, "**downtrend**") {
		t.Error("downtrend narrative missing")
	}

	a.Summary.LastTrend = models.TrendSideways
	if got := NewBuilder().Detailed(a); !strings.Contains(got, "**sideways**") {
		t.Error("sideways narrative missing")
	}
}

func TestDetailedListsPatterns(t *testing.T) {
	got := NewBuilder().Detailed(sampleAnalysis(50, []string{"hammer", "inside_bar"}))
	if !strings.Contains(got, "**Hammer, Inside Bar**") {
		t.Fatalf("patterns not humanized:\n%s", got)
	}
}

package features

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return math.Abs(a-b) < 1e-9
}

func assertSeries(t *testing.T, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d want %d", len(got), len(want))
	}
	for i := range got {
		if !almostEqual(got[i], want[i]) {
			t.Fatalf("index %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestSMAPartialWindows(t *testing.T) {
	got := sma([]float64{1, 2, 3, 4, 5}, 3)
	assertSeries(t, got, []float64{1, 1.5, 2, 3, 4})
}

func TestSMASkipsUndefined(t *testing.T) {
	nan := math.NaN()
	got := sma([]float64{1, nan, 3, nan}, 3)
	// windows: {1}, {1}, {1,3}, {3}
	assertSeries(t, got, []float64{1, 1, 2, 3})
}

func TestEMASeedsFromFirstValue(t *testing.T) {
	// span 3 -> alpha 0.5
	got := ema([]float64{2, 4, 4}, 3)
	assertSeries(t, got, []float64{2, 3, 3.5})
}

func TestWilderWarmupAndRecursion(t *testing.T) {
	nan := math.NaN()
	got := wilder([]float64{nan, 2, 4, 6}, 3)
	// Seeded at 2; stays undefined until three defined inputs are in.
	want := []float64{nan, nan, nan, 34.0 / 9.0}
	assertSeries(t, got, want)
}

func TestWilderCarriesStateOverUndefined(t *testing.T) {
	nan := math.NaN()
	got := wilder([]float64{3, 3, 3, nan, 3}, 3)
	// Defined from index 2; the undefined input keeps the last state.
	assertSeries(t, got, []float64{nan, nan, 3, 3, 3})
}

func TestRollingStdSampleDivisor(t *testing.T) {
	got := rollingStd([]float64{1, 2, 3, 4}, 4)
	want := []float64{math.NaN(), math.NaN(), math.NaN(), math.Sqrt(5.0 / 3.0)}
	assertSeries(t, got, want)
}

func TestRollingStdRequiresFullWindow(t *testing.T) {
	nan := math.NaN()
	got := rollingStd([]float64{nan, 2, 3, 4}, 3)
	// The first full window still touches the undefined row.
	assertSeries(t, got, []float64{nan, nan, nan, 1})
}

func TestPctChange(t *testing.T) {
	nan := math.NaN()
	got := pctChange([]float64{4, 5, 0, 3}, 1)
	// A zero base is undefined, not infinite.
	assertSeries(t, got, []float64{nan, 0.25, -1, nan})
}

func TestTrueRange(t *testing.T) {
	high := []float64{10, 9}
	low := []float64{8, 8.5}
	closes := []float64{10, 8.7}
	got := trueRange(high, low, closes)
	// First row is high-low; second is dominated by |low-prevClose|.
	assertSeries(t, got, []float64{2, 1.5})
}

func TestPercentileOfLast(t *testing.T) {
	nan := math.NaN()
	got := percentileOfLast([]float64{1, 3, 2, nan, 4}, 3)
	want := []float64{1, 1, 2.0 / 3.0, nan, 1}
	assertSeries(t, got, want)
}

func TestSafeDiv(t *testing.T) {
	if !math.IsNaN(safeDiv(1, 0)) {
		t.Fatalf("zero divisor must be undefined")
	}
	if !math.IsNaN(safeDiv(math.NaN(), 2)) {
		t.Fatalf("undefined numerator must stay undefined")
	}
	if got := safeDiv(3, 2); got != 1.5 {
		t.Fatalf("got %v want 1.5", got)
	}
}

func TestScrubInf(t *testing.T) {
	s := []float64{1, math.Inf(1), math.Inf(-1)}
	scrubInf(s)
	if s[0] != 1 || !math.IsNaN(s[1]) || !math.IsNaN(s[2]) {
		t.Fatalf("unexpected scrub result %v", s)
	}
}

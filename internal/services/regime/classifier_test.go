package regime

import (
	"math"
	"sort"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"CandleScope/internal/domain/models"
)

func frameWith(rsi, hist, atr []float64) *models.Frame {
	bars := make([]models.Bar, len(rsi))
	start := time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = models.Bar{Time: start.AddDate(0, 0, i), Open: 100, High: 101, Low: 99, Close: 100}
	}
	f := models.NewFrame(bars)
	f.SetCol(models.ColRSI14, rsi)
	f.SetCol(models.ColMACDHist, hist)
	f.SetCol(models.ColATR14, atr)
	return f
}

func TestClassifyMomentumThresholds(t *testing.T) {
	nan := math.NaN()
	cases := []struct {
		name string
		rsi  float64
		hist float64
		want models.Momentum
	}{
		{"both bullish", 60, 1, models.MomentumBullish},
		{"rsi high hist negative", 60, -1, models.MomentumNeutral},
		{"rsi at boundary", 55, 1, models.MomentumNeutral},
		{"both bearish", 40, -1, models.MomentumBearish},
		{"rsi at lower boundary", 45, -1, models.MomentumNeutral},
		{"rsi low hist positive", 40, 1, models.MomentumNeutral},
		{"undefined rsi", nan, 1, models.MomentumNeutral},
		{"undefined hist", 60, nan, models.MomentumNeutral},
	}
	for _, tc := range cases {
		f := frameWith([]float64{tc.rsi}, []float64{tc.hist}, []float64{1})
		out, err := NewClassifier().Classify(f)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got := out.LabelAt(models.LabelMomentum, 0); got != string(tc.want) {
			t.Errorf("%s: got %s want %s", tc.name, got, tc.want)
		}
	}
}

func TestClassifyVolatilityExpandingMedian(t *testing.T) {
	atr := []float64{10, 10, 20, 1}
	neutral := []float64{50, 50, 50, 50}
	zero := []float64{0, 0, 0, 0}
	out, err := NewClassifier().Classify(frameWith(neutral, zero, atr))
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	want := []models.Volatility{
		models.VolatilityNormal, // median 10, atr 10
		models.VolatilityNormal, // median 10, atr 10
		models.VolatilityHigh,   // median 10, atr 20
		models.VolatilityLow,    // median 10, atr 1
	}
	for i, w := range want {
		if got := out.LabelAt(models.LabelVolatility, i); got != string(w) {
			t.Errorf("row %d: got %s want %s", i, got, w)
		}
	}
}

func TestClassifyUndefinedATRIsNormal(t *testing.T) {
	nan := math.NaN()
	out, err := NewClassifier().Classify(frameWith(
		[]float64{50, 50, 50},
		[]float64{0, 0, 0},
		[]float64{nan, nan, nan},
	))
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	for i := 0; i < out.Len(); i++ {
		if got := out.LabelAt(models.LabelVolatility, i); got != string(models.VolatilityNormal) {
			t.Errorf("row %d: got %s want normal", i, got)
		}
	}
}

func TestLatestMatchesLastClassifiedRow(t *testing.T) {
	f := frameWith(
		[]float64{60, 40, 58, 62, 44},
		[]float64{1, -1, 0.5, 2, -2},
		[]float64{5, 9, 3, 12, 7},
	)
	out, err := NewClassifier().Classify(f)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	mom, vol := NewClassifier().Latest(f)
	last := out.Len() - 1
	if out.LabelAt(models.LabelMomentum, last) != string(mom) {
		t.Fatalf("latest momentum diverges from per-row series")
	}
	if out.LabelAt(models.LabelVolatility, last) != string(vol) {
		t.Fatalf("latest volatility diverges from per-row series")
	}
	if vol != models.VolatilityNormal {
		t.Fatalf("atr 7 vs median 7: got %s want normal", vol)
	}
}

func TestClassifyBroadcast(t *testing.T) {
	f := frameWith(
		[]float64{40, 60, 60},
		[]float64{-1, 1, 1},
		[]float64{1, 1, 1},
	)

	perRow, err := NewClassifier().Classify(f)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if got := perRow.LabelAt(models.LabelMomentum, 0); got != string(models.MomentumBearish) {
		t.Fatalf("per-row first momentum: got %s want bearish", got)
	}

	legacy := NewClassifier()
	legacy.Broadcast = true
	stamped, err := legacy.Classify(f)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	for i := 0; i < stamped.Len(); i++ {
		if got := stamped.LabelAt(models.LabelMomentum, i); got != string(models.MomentumBullish) {
			t.Fatalf("broadcast row %d: got %s want bullish", i, got)
		}
	}
}

func TestClassifyMissingColumn(t *testing.T) {
	bars := []models.Bar{{Time: time.Now(), Open: 1, High: 1, Low: 1, Close: 1}}
	_, err := NewClassifier().Classify(models.NewFrame(bars))
	missing, ok := err.(*models.MissingColumnError)
	if !ok {
		t.Fatalf("expected missing column error, got %v", err)
	}
	if missing.Name != string(models.ColRSI14) {
		t.Fatalf("unexpected column %s", missing.Name)
	}
}

func TestClassifyDoesNotMutateInput(t *testing.T) {
	f := frameWith([]float64{50}, []float64{0}, []float64{1})
	if _, err := NewClassifier().Classify(f); err != nil {
		t.Fatalf("classify: %v", err)
	}
	if f.HasLabel(models.LabelMomentum) || f.HasLabel(models.LabelVolatility) {
		t.Fatal("input frame gained labels")
	}
}

func TestProperty_RunningMedianMatchesSort(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("two-heap median equals sorted median", prop.ForAll(
		func(values []float64) bool {
			var med runningMedian
			for _, v := range values {
				med.Add(v)
			}
			if len(values) == 0 {
				return math.IsNaN(med.Median())
			}
			sorted := append([]float64(nil), values...)
			sort.Float64s(sorted)
			var want float64
			if n := len(sorted); n%2 == 1 {
				want = sorted[n/2]
			} else {
				want = (sorted[n/2-1] + sorted[n/2]) / 2
			}
			return med.Median() == want
		},
		gen.SliceOf(gen.Float64Range(-1e6, 1e6)),
	))

	properties.TestingRun(t)
}

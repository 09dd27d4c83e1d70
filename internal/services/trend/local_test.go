package trend

import (
	"context"
	"testing"
	"time"

	"CandleScope/internal/domain/models"
)

func barsFromCloses(closes []float64) []models.Bar {
	bars := make([]models.Bar, len(closes))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = models.Bar{Time: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c}
	}
	return bars
}

func TestLocalTaggerRisingMarket(t *testing.T) {
	closes := make([]float64, 120)
	for i := range closes {
		closes[i] = 100 + float64(i)*2
	}
	got, err := NewLocalTagger().Tag(context.Background(), models.NewFrame(barsFromCloses(closes)))
	if err != nil {
		t.Fatalf("tag: %v", err)
	}
	if got[0] != models.TrendSideways {
		t.Errorf("first row has identical EMAs, want sideways, got %s", got[0])
	}
	if got[len(got)-1] != models.TrendUp {
		t.Errorf("sustained rise should read uptrend, got %s", got[len(got)-1])
	}
}

func TestLocalTaggerFallingMarket(t *testing.T) {
	closes := make([]float64, 120)
	for i := range closes {
		closes[i] = 500 - float64(i)*2
	}
	got, err := NewLocalTagger().Tag(context.Background(), models.NewFrame(barsFromCloses(closes)))
	if err != nil {
		t.Fatalf("tag: %v", err)
	}
	if got[len(got)-1] != models.TrendDown {
		t.Errorf("sustained fall should read downtrend, got %s", got[len(got)-1])
	}
}

func TestLocalTaggerFlatMarket(t *testing.T) {
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 250
	}
	got, err := NewLocalTagger().Tag(context.Background(), models.NewFrame(barsFromCloses(closes)))
	if err != nil {
		t.Fatalf("tag: %v", err)
	}
	for i, tr := range got {
		if tr != models.TrendSideways {
			t.Fatalf("row %d: flat closes should be sideways, got %s", i, tr)
		}
	}
}

func TestLocalTaggerCausal(t *testing.T) {
	closes := make([]float64, 100)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	full, err := NewLocalTagger().Tag(context.Background(), models.NewFrame(barsFromCloses(closes)))
	if err != nil {
		t.Fatalf("tag: %v", err)
	}
	head, err := NewLocalTagger().Tag(context.Background(), models.NewFrame(barsFromCloses(closes[:60])))
	if err != nil {
		t.Fatalf("tag: %v", err)
	}
	for i := range head {
		if head[i] != full[i] {
			t.Fatalf("row %d changed when later bars were appended: %s vs %s", i, head[i], full[i])
		}
	}
}

package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"CandleScope/internal/domain/models"
	domrepo "CandleScope/internal/domain/repository"
)

func TestGetBarsFoldsTrends(t *testing.T) {
	bars := pipelineBars(5)
	trends := []models.Trend{
		models.TrendUp, models.TrendUp, models.TrendSideways, models.TrendDown, models.TrendDown,
	}
	uc := NewBarsUseCase(&fakeBarStore{bars: bars, trends: trends})

	res, err := uc.GetBars(context.Background(), GetBarsParams{
		Symbol:    "FOLD",
		Timeframe: domrepo.TF1d,
	})
	if err != nil {
		t.Fatalf("get bars: %v", err)
	}
	if res.Count != 5 || len(res.Bars) != 5 {
		t.Fatalf("unexpected count %d", res.Count)
	}
	if res.Bars[2].Trend != "sideways" || res.Bars[4].Trend != "downtrend" {
		t.Fatalf("trends not folded: %+v", res.Bars)
	}
	if res.Bars[0].Close != bars[0].Close {
		t.Fatal("bar values must pass through")
	}
	if res.To.IsZero() {
		t.Fatal("empty to must default to now")
	}
}

func TestGetBarsLimits(t *testing.T) {
	uc := NewBarsUseCase(&fakeBarStore{bars: pipelineBars(10), trends: make([]models.Trend, 10)})

	res, err := uc.GetBars(context.Background(), GetBarsParams{
		Symbol:    "LIM",
		Timeframe: domrepo.TF1d,
		Limit:     3,
	})
	if err != nil {
		t.Fatalf("get bars: %v", err)
	}
	if res.Count != 3 || len(res.Bars) != 3 {
		t.Fatalf("limit not applied: %d", res.Count)
	}
}

func TestGetBarsValidation(t *testing.T) {
	uc := NewBarsUseCase(&fakeBarStore{})

	if _, err := uc.GetBars(context.Background(), GetBarsParams{}); err == nil {
		t.Fatal("expected symbol error")
	}

	now := time.Now()
	_, err := uc.GetBars(context.Background(), GetBarsParams{
		Symbol: "X",
		From:   now,
		To:     now.Add(-time.Hour),
	})
	if err == nil || !strings.Contains(err.Error(), "from must be <= to") {
		t.Fatalf("expected range error, got %v", err)
	}

	if _, err := NewBarsUseCase(nil).GetBars(context.Background(), GetBarsParams{Symbol: "X"}); err == nil {
		t.Fatal("expected error without store")
	}
}

package usecase

import (
	"context"
	"fmt"
	"time"

	"CandleScope/internal/domain/models"
	domrepo "CandleScope/internal/domain/repository"
)

// BarsUseCase provides business logic for reading stored bars back out.
type BarsUseCase struct {
	store domrepo.BarStore
}

func NewBarsUseCase(store domrepo.BarStore) *BarsUseCase {
	return &BarsUseCase{store: store}
}

type GetBarsParams struct {
	Symbol    string
	From      time.Time
	To        time.Time
	Timeframe domrepo.Timeframe
	Limit     int
}

type GetBarsResult struct {
	Symbol    string              `json:"symbol"`
	Timeframe string              `json:"timeframe"`
	From      time.Time           `json:"from"`
	To        time.Time           `json:"to"`
	Count     int                 `json:"count"`
	Bars      []models.BarPayload `json:"bars"`
}

// GetBars returns the stored range with trend labels folded back into each
// bar, the same shape POST /analyze accepts.
func (uc *BarsUseCase) GetBars(ctx context.Context, p GetBarsParams) (*GetBarsResult, error) {
	if uc.store == nil {
		return nil, fmt.Errorf("no bar store configured")
	}
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if p.To.IsZero() {
		p.To = time.Now().UTC()
	}
	if p.From.After(p.To) {
		return nil, fmt.Errorf("from must be <= to")
	}
	if p.Limit <= 0 {
		p.Limit = 10000
	}
	if p.Limit > 50000 {
		p.Limit = 50000
	}

	bars, trends, err := uc.store.GetBars(ctx, p.Symbol, p.Timeframe, p.From, p.To)
	if err != nil {
		return nil, fmt.Errorf("get bars: %w", err)
	}
	if len(bars) > p.Limit {
		bars = bars[:p.Limit]
		if trends != nil {
			trends = trends[:p.Limit]
		}
	}

	payload := make([]models.BarPayload, len(bars))
	for i, b := range bars {
		payload[i] = models.BarPayload{
			Time:   b.Time,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
		if trends != nil {
			payload[i].Trend = string(trends[i])
		}
	}

	return &GetBarsResult{
		Symbol:    p.Symbol,
		Timeframe: string(p.Timeframe),
		From:      p.From,
		To:        p.To,
		Count:     len(bars),
		Bars:      payload,
	}, nil
}

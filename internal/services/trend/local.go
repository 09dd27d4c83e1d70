package trend

import (
	"context"
	"math"

	"CandleScope/internal/domain/models"
)

// Default EMA spans and the flat-market band of the local tagger.
const (
	DefaultFastSpan = 20
	DefaultSlowSpan = 50
	DefaultBand     = 0.005
)

// LocalTagger labels each bar by comparing a fast close EMA against a slow
// one, row by row with no lookahead. When the two sit within Band of each
// other the market reads as sideways.
type LocalTagger struct {
	FastSpan int
	SlowSpan int
	Band     float64
}

func NewLocalTagger() *LocalTagger {
	return &LocalTagger{FastSpan: DefaultFastSpan, SlowSpan: DefaultSlowSpan, Band: DefaultBand}
}

func (t *LocalTagger) Tag(_ context.Context, f *models.Frame) ([]models.Trend, error) {
	closes := f.Col(models.ColClose)
	if closes == nil {
		return nil, &models.MissingColumnError{Name: string(models.ColClose)}
	}

	fast := emaSeries(closes, t.FastSpan)
	slow := emaSeries(closes, t.SlowSpan)

	out := make([]models.Trend, len(closes))
	for i := range closes {
		out[i] = compare(fast[i], slow[i], t.Band)
	}
	return out, nil
}

func compare(fast, slow, band float64) models.Trend {
	if slow != 0 && math.Abs(fast-slow)/math.Abs(slow) <= band {
		return models.TrendSideways
	}
	switch {
	case fast > slow:
		return models.TrendUp
	case fast < slow:
		return models.TrendDown
	default:
		return models.TrendSideways
	}
}

// emaSeries is the usual adjust-free recursion seeded from the first value.
func emaSeries(src []float64, span int) []float64 {
	alpha := 2.0 / (float64(span) + 1.0)
	out := make([]float64, len(src))
	for i, v := range src {
		if i == 0 {
			out[i] = v
			continue
		}
		out[i] = alpha*v + (1-alpha)*out[i-1]
	}
	return out
}

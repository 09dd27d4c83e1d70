package service

import (
	"context"

	"CandleScope/internal/domain/models"
)

// IndicatorEngine augments a bar frame with the indicator columns and trims
// the deterministic warm-up rows.
type IndicatorEngine interface {
	Compute(f *models.Frame) (*models.Frame, error)
}

// PatternDetector annotates a frame with candle-pattern flags.
type PatternDetector interface {
	Annotate(f *models.Frame) (*models.Frame, error)
	Active(f *models.Frame) []string
}

// RegimeClassifier attaches per-row momentum and volatility state labels.
type RegimeClassifier interface {
	Classify(f *models.Frame) (*models.Frame, error)
	Latest(f *models.Frame) (models.Momentum, models.Volatility)
}

// ProbabilityModel estimates the next-bar bullish probability from the fully
// annotated frame.
type ProbabilityModel interface {
	Estimate(f *models.Frame) (models.Estimate, error)
}

// TrendTagger supplies the per-bar trend labels the analysis requires. The
// core stages treat trend as an input; taggers live outside them. Taggers
// backed by remote services honor ctx; local ones ignore it.
type TrendTagger interface {
	Tag(ctx context.Context, f *models.Frame) ([]models.Trend, error)
}

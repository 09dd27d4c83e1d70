package analog

import (
	"math"
	"time"

	"CandleScope/internal/domain/models"
	"CandleScope/pkg/logger"
)

// PatternNone marks a last row with no candle pattern active.
const PatternNone = "none"

// Model estimates the next-bar bullish probability by replaying history:
// rows that looked like the current row (same trend, primary pattern,
// momentum and volatility states) vote with whatever the bar after them did.
type Model struct {
	log *logger.Logger
}

func NewModel() *Model {
	return &Model{log: logger.Nop()}
}

func (m *Model) SetLogger(l *logger.Logger) {
	if l != nil {
		m.log = l
	}
}

// Estimate scans the whole table for analog rows and returns the resulting
// probability. The last row never contributes a vote since its successor is
// unknown; an empty analog sample yields the uninformative 50.
func (m *Model) Estimate(f *models.Frame) (models.Estimate, error) {
	var est models.Estimate
	if f.Len() == 0 {
		return est, &models.InsufficientHistoryError{Rows: 0, Need: 1}
	}
	for _, l := range []models.Label{models.LabelTrend, models.LabelMomentum, models.LabelVolatility} {
		if !f.HasLabel(l) {
			return est, &models.MissingColumnError{Name: string(l)}
		}
	}
	if !f.HasFlag(models.FlagBullish) {
		return est, &models.MissingColumnError{Name: string(models.FlagBullish)}
	}

	started := time.Now()
	n := f.Len()
	last := n - 1

	primary := PatternNone
	for _, fl := range models.PatternFlags {
		if f.FlagAt(fl, last) {
			primary = string(fl)
			break
		}
	}

	trend := f.LabelAt(models.LabelTrend, last)
	momentum := f.LabelAt(models.LabelMomentum, last)
	volatility := f.LabelAt(models.LabelVolatility, last)

	matches, bullish := 0, 0
	for i := 0; i < last; i++ {
		if f.LabelAt(models.LabelTrend, i) != trend {
			continue
		}
		if primary != PatternNone && !f.FlagAt(models.Flag(primary), i) {
			continue
		}
		if f.LabelAt(models.LabelMomentum, i) != momentum {
			continue
		}
		if f.LabelAt(models.LabelVolatility, i) != volatility {
			continue
		}
		matches++
		if f.FlagAt(models.FlagBullish, i+1) {
			bullish++
		}
	}

	prob := 50.0
	if matches > 0 {
		prob = math.Round(100*float64(bullish)/float64(matches)*100) / 100
	}

	est = models.Estimate{
		Probability:    prob,
		PrimaryPattern: primary,
		Matches:        matches,
		BullishMatches: bullish,
		Trend:          models.Trend(trend),
		Momentum:       models.Momentum(momentum),
		Volatility:     models.Volatility(volatility),
	}

	m.log.Debug("analog estimate",
		logger.String("primary_pattern", primary),
		logger.Int("matches", matches),
		logger.Int("bullish_matches", bullish),
		logger.Float64("probability", prob),
		logger.Duration("took_ms", time.Since(started)),
	)
	return est, nil
}

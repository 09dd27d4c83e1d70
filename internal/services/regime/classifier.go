package regime

import (
	"math"
	"time"

	"CandleScope/internal/domain/models"
	"CandleScope/pkg/logger"
)

// Momentum and volatility thresholds.
const (
	rsiBullish = 55.0
	rsiBearish = 45.0
	atrHigh    = 1.2
	atrLow     = 0.8
)

// Classifier derives per-row momentum and volatility states from the
// indicator columns. The volatility reference is the expanding median of the
// defined ATR values up to each row, so the series is causal and the last
// row sees the whole-column median.
type Classifier struct {
	// Broadcast stamps the latest states onto every row instead of
	// classifying each row in place (legacy behavior).
	Broadcast bool

	// HighRatio and LowRatio override atrHigh and atrLow when positive.
	HighRatio float64
	LowRatio  float64

	log *logger.Logger
}

func NewClassifier() *Classifier {
	return &Classifier{log: logger.Nop()}
}

func (c *Classifier) SetLogger(l *logger.Logger) {
	if l != nil {
		c.log = l
	}
}

// Classify attaches momentum_state and volatility_state label columns to a
// clone of f and returns the clone.
func (c *Classifier) Classify(f *models.Frame) (*models.Frame, error) {
	for _, col := range []models.Column{models.ColRSI14, models.ColMACDHist, models.ColATR14} {
		if !f.HasCol(col) {
			return nil, &models.MissingColumnError{Name: string(col)}
		}
	}

	started := time.Now()
	out := f.Clone()
	n := out.Len()

	rsi := out.Col(models.ColRSI14)
	hist := out.Col(models.ColMACDHist)
	atr := out.Col(models.ColATR14)

	momentum := make([]string, n)
	volatility := make([]string, n)

	if c.Broadcast {
		mom, vol := c.Latest(f)
		for i := 0; i < n; i++ {
			momentum[i] = string(mom)
			volatility[i] = string(vol)
		}
	} else {
		high, low := c.ratios()
		var med runningMedian
		for i := 0; i < n; i++ {
			momentum[i] = string(momentumState(rsi[i], hist[i]))
			if !math.IsNaN(atr[i]) {
				med.Add(atr[i])
			}
			volatility[i] = string(volatilityState(atr[i], med.Median(), high, low))
		}
	}

	out.SetLabel(models.LabelMomentum, momentum)
	out.SetLabel(models.LabelVolatility, volatility)

	c.log.Debug("regime classified",
		logger.Int("rows", n),
		logger.Bool("broadcast", c.Broadcast),
		logger.Duration("took_ms", time.Since(started)),
	)
	return out, nil
}

// Latest classifies the last row against the full ATR history without
// touching the frame.
func (c *Classifier) Latest(f *models.Frame) (models.Momentum, models.Volatility) {
	n := f.Len()
	if n == 0 {
		return models.MomentumNeutral, models.VolatilityNormal
	}
	last := n - 1

	mom := momentumState(f.Value(models.ColRSI14, last), f.Value(models.ColMACDHist, last))

	var med runningMedian
	for _, v := range f.Col(models.ColATR14) {
		if !math.IsNaN(v) {
			med.Add(v)
		}
	}
	high, low := c.ratios()
	vol := volatilityState(f.Value(models.ColATR14, last), med.Median(), high, low)
	return mom, vol
}

func (c *Classifier) ratios() (float64, float64) {
	high, low := c.HighRatio, c.LowRatio
	if high <= 0 {
		high = atrHigh
	}
	if low <= 0 {
		low = atrLow
	}
	return high, low
}

// momentumState needs both the RSI side and the histogram side to agree;
// undefined values compare false and land on neutral.
func momentumState(rsi, hist float64) models.Momentum {
	if rsi > rsiBullish && hist > 0 {
		return models.MomentumBullish
	}
	if rsi < rsiBearish && hist < 0 {
		return models.MomentumBearish
	}
	return models.MomentumNeutral
}

func volatilityState(atr, median, high, low float64) models.Volatility {
	if atr > median*high {
		return models.VolatilityHigh
	}
	if atr < median*low {
		return models.VolatilityLow
	}
	return models.VolatilityNormal
}

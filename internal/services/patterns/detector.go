package patterns

import (
	"math"
	"time"

	"CandleScope/internal/domain/models"
	"CandleScope/pkg/logger"
)

// DojiThreshold is the max body-to-range ratio a doji candle may have.
const DojiThreshold = 0.1

// Detector annotates a frame with candle pattern flags. Single-candle
// patterns fire on any row; two- and three-candle patterns stay false until
// enough history exists to their left. Threshold overrides DojiThreshold
// when positive.
type Detector struct {
	Threshold float64

	log *logger.Logger
}

func NewDetector() *Detector {
	return &Detector{log: logger.Nop()}
}

func (d *Detector) SetLogger(l *logger.Logger) {
	if l != nil {
		d.log = l
	}
}

// Annotate attaches the direction helpers and all pattern flags to a clone
// of f and returns the clone.
func (d *Detector) Annotate(f *models.Frame) (*models.Frame, error) {
	for _, col := range []models.Column{models.ColOpen, models.ColHigh, models.ColLow, models.ColClose} {
		if !f.HasCol(col) {
			return nil, &models.MissingColumnError{Name: string(col)}
		}
	}

	started := time.Now()
	out := f.Clone()
	n := out.Len()

	thr := d.Threshold
	if thr <= 0 {
		thr = DojiThreshold
	}

	o := out.Col(models.ColOpen)
	h := out.Col(models.ColHigh)
	l := out.Col(models.ColLow)
	c := out.Col(models.ColClose)

	bullish := make([]bool, n)
	bearish := make([]bool, n)
	body := make([]float64, n)
	upperWick := make([]float64, n)
	lowerWick := make([]float64, n)
	for i := 0; i < n; i++ {
		bullish[i] = c[i] > o[i]
		bearish[i] = c[i] < o[i]
		body[i] = math.Abs(c[i] - o[i])
		upperWick[i] = h[i] - math.Max(o[i], c[i])
		lowerWick[i] = math.Min(o[i], c[i]) - l[i]
	}
	out.SetFlag(models.FlagBullish, bullish)
	out.SetFlag(models.FlagBearish, bearish)

	bullEngulf := make([]bool, n)
	bearEngulf := make([]bool, n)
	hammer := make([]bool, n)
	star := make([]bool, n)
	doji := make([]bool, n)
	inside := make([]bool, n)
	outside := make([]bool, n)
	morning := make([]bool, n)
	evening := make([]bool, n)

	for i := 0; i < n; i++ {
		hammer[i] = lowerWick[i] >= 2*body[i] && upperWick[i] <= body[i] && body[i] > 0
		star[i] = upperWick[i] >= 2*body[i] && lowerWick[i] <= body[i] && body[i] > 0

		rng := h[i] - l[i]
		if rng == 0 {
			rng = 1
		}
		doji[i] = body[i]/rng <= thr

		if i >= 1 {
			bullEngulf[i] = bearish[i-1] && bullish[i] && o[i] < c[i-1] && c[i] > o[i-1]
			bearEngulf[i] = bullish[i-1] && bearish[i] && o[i] > c[i-1] && c[i] < o[i-1]
			inside[i] = h[i] <= h[i-1] && l[i] >= l[i-1]
			outside[i] = h[i] >= h[i-1] && l[i] <= l[i-1]
		}
		if i >= 2 {
			mid := (o[i-2] + c[i-2]) / 2
			morning[i] = bearish[i-2] && body[i-1] <= body[i-2]*0.5 && bullish[i] && c[i] > mid
			evening[i] = bullish[i-2] && body[i-1] <= body[i-2]*0.5 && bearish[i] && c[i] < mid
		}
	}

	out.SetFlag(models.FlagBullishEngulfing, bullEngulf)
	out.SetFlag(models.FlagBearishEngulfing, bearEngulf)
	out.SetFlag(models.FlagHammer, hammer)
	out.SetFlag(models.FlagShootingStar, star)
	out.SetFlag(models.FlagDoji, doji)
	out.SetFlag(models.FlagInsideBar, inside)
	out.SetFlag(models.FlagOutsideBar, outside)
	out.SetFlag(models.FlagMorningStar, morning)
	out.SetFlag(models.FlagEveningStar, evening)

	d.log.Debug("patterns annotated",
		logger.Int("rows", n),
		logger.Duration("took_ms", time.Since(started)),
	)
	return out, nil
}

// Active returns the pattern names flagged on the last row of f.
func (d *Detector) Active(f *models.Frame) []string {
	return Active(f)
}

// Active returns the pattern names flagged on the last row, candle patterns
// first in their reporting order, then doji.
func Active(f *models.Frame) []string {
	if f.Len() == 0 {
		return nil
	}
	last := f.Len() - 1
	var names []string
	for _, fl := range models.PatternFlags {
		if f.FlagAt(fl, last) {
			names = append(names, string(fl))
		}
	}
	if f.FlagAt(models.FlagDoji, last) {
		names = append(names, string(models.FlagDoji))
	}
	return names
}

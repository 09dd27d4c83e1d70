package features

import (
	"math"
	"time"

	"CandleScope/internal/domain/models"
	"CandleScope/pkg/logger"
)

// WarmupRows is the number of leading rows the engine trims before handing
// the frame downstream. It is the largest full-window requirement among the
// trimmed columns; SMA200 dominates at 199 prior rows. SMAs produce values
// earlier than that (partial windows), which is why the trim is fixed here
// instead of scanning for the first fully defined row.
const WarmupRows = 199

// Engine computes the indicator columns over a bar frame.
type Engine struct {
	log *logger.Logger
}

func NewEngine() *Engine {
	return &Engine{log: logger.Nop()}
}

// SetLogger attaches a logger for stage diagnostics.
func (e *Engine) SetLogger(l *logger.Logger) {
	if l != nil {
		e.log = l
	}
}

// Compute validates the frame, attaches every indicator column to a clone,
// trims the warm-up rows and returns the trimmed frame. Division
// degeneracies yield undefined values, never errors.
func (e *Engine) Compute(f *models.Frame) (*models.Frame, error) {
	for _, col := range []models.Column{models.ColOpen, models.ColHigh, models.ColLow, models.ColClose} {
		if !f.HasCol(col) {
			return nil, &models.MissingColumnError{Name: string(col)}
		}
	}
	if f.Len() < 2 {
		return nil, &models.InsufficientHistoryError{Rows: f.Len(), Need: 2}
	}

	started := time.Now()
	out := f.Clone()
	n := out.Len()

	o := out.Col(models.ColOpen)
	h := out.Col(models.ColHigh)
	l := out.Col(models.ColLow)
	c := out.Col(models.ColClose)
	v := out.Col(models.ColVolume)
	if v == nil {
		v = make([]float64, n)
		for i := range v {
			v[i] = math.NaN()
		}
	}

	// Returns
	out.SetCol(models.ColRet1, pctChange(c, 1))
	out.SetCol(models.ColRet5, pctChange(c, 5))
	out.SetCol(models.ColRet10, pctChange(c, 10))
	out.SetCol(models.ColRet21, pctChange(c, 21))

	// Moving averages
	out.SetCol(models.ColSMA5, sma(c, 5))
	out.SetCol(models.ColSMA20, sma(c, 20))
	out.SetCol(models.ColSMA50, sma(c, 50))
	out.SetCol(models.ColSMA200, sma(c, 200))

	out.SetCol(models.ColEMA12, ema(c, 12))
	out.SetCol(models.ColEMA26, ema(c, 26))
	out.SetCol(models.ColEMA50, ema(c, 50))

	// MACD
	macdLine, macdSignal, macdHist := macd(c, 12, 26, 9)
	out.SetCol(models.ColMACDLine, macdLine)
	out.SetCol(models.ColMACDSignal, macdSignal)
	out.SetCol(models.ColMACDHist, macdHist)

	// RSI
	out.SetCol(models.ColRSI14, rsi(c, 14))

	// TR / ATR
	tr := trueRange(h, l, c)
	atr := wilder(tr, 14)
	out.SetCol(models.ColTR, append([]float64(nil), tr...))
	out.SetCol(models.ColATR14, atr)

	// ADX / DI
	adx, plusDI, minusDI := adxDI(h, l, atr, 14)
	out.SetCol(models.ColADX14, adx)
	out.SetCol(models.ColDIPlus14, plusDI)
	out.SetCol(models.ColDIMinus14, minusDI)

	// Bollinger
	bbMid, bbUp, bbLo, bbWidth, bbStdev := bollinger(c, 20, 2.0)
	out.SetCol(models.ColBBMid20, bbMid)
	out.SetCol(models.ColBBUp20, bbUp)
	out.SetCol(models.ColBBLo20, bbLo)
	out.SetCol(models.ColBBWidth20, bbWidth)
	out.SetCol(models.ColStdev20, bbStdev)

	// Realized volatility of 1-bar returns and the width percentile
	out.SetCol(models.ColStdev10, rollingStd(out.Col(models.ColRet1), 10))
	out.SetCol(models.ColBBWidthPct252, percentileOfLast(bbWidth, 252))

	// Volume context
	volMA := sma(v, 20)
	volRatio := make([]float64, n)
	volSpike := make([]bool, n)
	for i := 0; i < n; i++ {
		volRatio[i] = safeDiv(v[i], volMA[i])
		volSpike[i] = volRatio[i] >= 1.5 // NaN compares false
	}
	out.SetCol(models.ColVolMA20, volMA)
	out.SetCol(models.ColVolRatio, volRatio)
	out.SetFlag(models.FlagVolSpike, volSpike)

	// Candle strength metrics
	bodyPct := make([]float64, n)
	upperWickPct := make([]float64, n)
	lowerWickPct := make([]float64, n)
	for i := 0; i < n; i++ {
		candleRange := h[i] - l[i]
		if candleRange == 0 {
			candleRange = math.NaN()
		}
		body := math.Abs(c[i] - o[i])
		var upperWick, lowerWick float64
		if c[i] >= o[i] {
			upperWick = h[i] - c[i]
			lowerWick = o[i] - l[i]
		} else {
			upperWick = h[i] - o[i]
			lowerWick = c[i] - l[i]
		}
		bodyPct[i] = safeDiv(body, candleRange)
		upperWickPct[i] = safeDiv(upperWick, candleRange)
		lowerWickPct[i] = safeDiv(lowerWick, candleRange)
	}
	out.SetCol(models.ColBodyPct, bodyPct)
	out.SetCol(models.ColUpperWickPct, upperWickPct)
	out.SetCol(models.ColLowerWickPct, lowerWickPct)

	// Time context: Monday-indexed weekday and calendar month
	dow := make([]float64, n)
	month := make([]float64, n)
	for i := 0; i < n; i++ {
		ts := out.Time(i)
		dow[i] = float64((int(ts.Weekday()) + 6) % 7)
		month[i] = float64(int(ts.Month()))
	}
	out.SetCol(models.ColDayOfWeek, dow)
	out.SetCol(models.ColMonth, month)

	// Scrub any infinity that slipped through composed arithmetic
	for _, col := range engineColumns {
		scrubInf(out.Col(col))
	}

	if n <= WarmupRows {
		return nil, &models.InsufficientHistoryError{Rows: n, Need: WarmupRows + 1}
	}
	trimmed := out.Slice(WarmupRows)

	e.log.Debug("indicators computed",
		logger.Int("rows_in", n),
		logger.Int("rows_out", trimmed.Len()),
		logger.Int("trimmed", WarmupRows),
		logger.Duration("took_ms", time.Since(started)),
	)
	return trimmed, nil
}

// engineColumns lists every numeric column the engine writes.
var engineColumns = []models.Column{
	models.ColRet1, models.ColRet5, models.ColRet10, models.ColRet21,
	models.ColSMA5, models.ColSMA20, models.ColSMA50, models.ColSMA200,
	models.ColEMA12, models.ColEMA26, models.ColEMA50,
	models.ColMACDLine, models.ColMACDSignal, models.ColMACDHist,
	models.ColRSI14, models.ColTR, models.ColATR14,
	models.ColADX14, models.ColDIPlus14, models.ColDIMinus14,
	models.ColBBMid20, models.ColBBUp20, models.ColBBLo20, models.ColBBWidth20, models.ColStdev20,
	models.ColStdev10, models.ColBBWidthPct252,
	models.ColVolMA20, models.ColVolRatio,
	models.ColBodyPct, models.ColUpperWickPct, models.ColLowerWickPct,
	models.ColDayOfWeek, models.ColMonth,
}

func macd(closes []float64, fast, slow, signal int) (line, sig, hist []float64) {
	emaFast := ema(closes, fast)
	emaSlow := ema(closes, slow)
	line = make([]float64, len(closes))
	for i := range line {
		line[i] = emaFast[i] - emaSlow[i]
	}
	sig = ema(line, signal)
	hist = make([]float64, len(closes))
	for i := range hist {
		hist[i] = line[i] - sig[i]
	}
	return line, sig, hist
}

// rsi computes the Wilder RSI. Undefined ratios (all-gain histories, warm-up)
// settle at the neutral 50.
func rsi(closes []float64, period int) []float64 {
	n := len(closes)
	gain := make([]float64, n)
	loss := make([]float64, n)
	gain[0] = math.NaN()
	loss[0] = math.NaN()
	for i := 1; i < n; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gain[i] = delta
		} else {
			loss[i] = -delta
		}
	}
	avgGain := wilder(gain, period)
	avgLoss := wilder(loss, period)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		rs := safeDiv(avgGain[i], avgLoss[i])
		v := 100 - 100/(1+rs)
		if math.IsNaN(v) {
			v = 50
		}
		out[i] = v
	}
	return out
}

// adxDI computes ADX and the directional indices against a precomputed ATR.
func adxDI(high, low, atr []float64, period int) (adx, plusDI, minusDI []float64) {
	n := len(high)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	plusDM[0] = math.NaN()
	minusDM[0] = math.NaN()
	for i := 1; i < n; i++ {
		up := high[i] - high[i-1]
		down := low[i-1] - low[i]
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
	}
	smPlus := wilder(plusDM, period)
	smMinus := wilder(minusDM, period)

	plusDI = make([]float64, n)
	minusDI = make([]float64, n)
	dx := make([]float64, n)
	for i := 0; i < n; i++ {
		plusDI[i] = 100 * safeDiv(smPlus[i], atr[i])
		minusDI[i] = 100 * safeDiv(smMinus[i], atr[i])
		dx[i] = 100 * safeDiv(math.Abs(plusDI[i]-minusDI[i]), plusDI[i]+minusDI[i])
	}
	adx = wilder(dx, period)
	return adx, plusDI, minusDI
}

func bollinger(closes []float64, window int, k float64) (mid, up, lo, width, stdev []float64) {
	mid = sma(closes, window)
	stdev = rollingStd(closes, window)
	n := len(closes)
	up = make([]float64, n)
	lo = make([]float64, n)
	width = make([]float64, n)
	for i := 0; i < n; i++ {
		up[i] = mid[i] + k*stdev[i]
		lo[i] = mid[i] - k*stdev[i]
		width[i] = safeDiv(up[i]-lo[i], mid[i])
	}
	return mid, up, lo, width, stdev
}
